package snapshot

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerissecure/reportassistant/sheet"
	"github.com/aerissecure/reportassistant/sheet/sheettest"
)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCapture(t *testing.T) {
	host := sheettest.NewHost()
	host.Add("raw/张三.xlsx", sheettest.NewBook().
		Set(1, "学生", "上课日期").
		Set(2, "张三", "2023-07-01").
		Set(3, "张三", "2023-07-08"))
	host.Add("raw/李四.xlsx", sheettest.NewBook().
		Set(1, "学生").
		Set(2, "李四"))

	dir := filepath.Join(t.TempDir(), "images")
	stale := filepath.Join(dir, "李四.png")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	r := &sheettest.Renderer{PNG: []byte("png")}
	images, err := Capture(context.Background(), host, r, []string{"raw/张三.xlsx", "raw/李四.xlsx"}, dir, quietLog())
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "张三.png"), stale}, images)
	require.Len(t, r.Calls, 2)
	assert.Equal(t, sheet.Range{FirstRow: 1, FirstCol: 1, LastRow: 3, LastCol: 8}, r.Calls[0].Range)
	assert.Equal(t, sheet.Range{FirstRow: 1, FirstCol: 1, LastRow: 2, LastCol: 8}, r.Calls[1].Range)

	data, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestCaptureNoStudent(t *testing.T) {
	host := sheettest.NewHost()
	host.Add("raw/empty.xlsx", sheettest.NewBook().Set(1, "学生"))

	_, err := Capture(context.Background(), host, &sheettest.Renderer{}, []string{"raw/empty.xlsx"}, t.TempDir(), quietLog())
	assert.Error(t, err)
}

func TestCapturePathLikeStudent(t *testing.T) {
	host := sheettest.NewHost()
	host.Add("raw/bad.xlsx", sheettest.NewBook().
		Set(1, "学生", "上课日期").
		Set(2, "../../evil", "2023-07-03"))
	r := &sheettest.Renderer{PNG: []byte("png")}
	root := t.TempDir()

	_, err := Capture(context.Background(), host, r, []string{"raw/bad.xlsx"}, filepath.Join(root, "a", "images"), quietLog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "../../evil")
	assert.Empty(t, r.Calls)
	assert.NoFileExists(t, filepath.Join(root, "evil.png"))
}
