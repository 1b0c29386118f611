package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aerissecure/reportassistant/config"
	"github.com/aerissecure/reportassistant/dataset"
	"github.com/aerissecure/reportassistant/sheet"
)

func TestParseSupervisors(t *testing.T) {
	got, err := ParseSupervisors(" 王老师 / 李老师 \n")
	require.NoError(t, err)
	assert.Equal(t, [2]string{"王老师", "李老师"}, got)

	_, err = ParseSupervisors("王老师")
	assert.Error(t, err)
	_, err = ParseSupervisors("/李老师")
	assert.Error(t, err)
}

func TestBuildLayout(t *testing.T) {
	root := t.TempDir()
	l, err := BuildLayout(root, dataset.Period{Year: 2023, Month: 7, LastDay: 31}, "李老师")
	require.NoError(t, err)

	base := filepath.Join(root, "monthly_reports", "2023_7_李老师")
	assert.Equal(t, Layout{
		Base:   base,
		Final:  filepath.Join(base, "final_reports"),
		Raw:    filepath.Join(base, "raw_reports"),
		Images: filepath.Join(base, "images"),
	}, l)
	for _, dir := range []string{l.Final, l.Raw, l.Images} {
		assert.DirExists(t, dir)
	}

	padded, err := BuildLayout(root, dataset.Period{Year: 2023, Month: 7, LastDay: 31, YearText: "2023", MonthText: "07"}, "李老师")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "monthly_reports", "2023_07_李老师"), padded.Base)

	// second run over an existing tree is fine
	_, err = BuildLayout(root, dataset.Period{Year: 2023, Month: 7, LastDay: 31}, "李老师")
	assert.NoError(t, err)
}

type pngRenderer struct {
	started, closed bool
	calls           int
}

func (r *pngRenderer) Start(context.Context) error {
	r.started = true
	return nil
}

func (r *pngRenderer) Close() error {
	r.closed = true
	return nil
}

func (r *pngRenderer) Render(path string, rng sheet.Range) ([]byte, error) {
	r.calls++
	var buf bytes.Buffer
	err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 300, 60*rng.Rows())))
	return buf.Bytes(), err
}

func writeBook(t *testing.T, path string, cells map[string]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for cell, v := range cells {
		require.NoError(t, f.SetCellStr("Sheet1", cell, v))
	}
	require.NoError(t, f.SaveAs(path))
}

func writeMaster(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		require.NoError(t, f.SetSheetRow("Sheet1", sheet.CellName(1, i+1), &cells))
	}
	require.NoError(t, f.SaveAs(path))
}

func setup(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "ReportAssistant_bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(bin, "supervisor_info.txt"), []byte("王老师 / 李老师"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "remarks.txt"), []byte(strings.Join([]string{
		"[name]本月学习[subject]。", "SAT完成", "预备完成", "考试完成", "未完成", "预备建议", "托福建议", "雅思建议", "SAT建议",
	}, "%")), 0o644))
	writeBook(t, filepath.Join(bin, "template.xlsx"), map[string]string{
		"A1": "xxx月度学习总结",
		"A2": "姓名", "A3": "日期", "A4": "学管", "A5": "学术", "A6": "课程", "A7": "评语",
		"B3": "xxxx年xx月x日",
	})

	input := filepath.Join(dir, "master.xlsx")
	writeMaster(t, input, [][]string{
		{"学生", "上课日期", "上课时段", "课程", "教师", "复习检查", "课堂内容", "学生表现"},
		{"王小明", "2023-07-03", "09:00", "托福阅读", "赵老师", "已完成", "阅读\n\n\n" + strings.Repeat("长", 40), "认真"},
		{"李四", "2023-07-04", "10:00", "数学", "钱老师", "未完成", "代数", "一般"},
		{"王小明", "2023-07-10", "09:00", "托福听力", "赵老师", "没带", "听力", "良好"},
	})

	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	return cfg, input
}

func TestRun(t *testing.T) {
	cfg, input := setup(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	renderer := &pngRenderer{}

	runner := &Runner{Config: cfg, Host: sheet.Excel{}, Renderer: renderer, Log: log}
	res, err := runner.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, dataset.Period{Year: 2023, Month: 7, LastDay: 31, YearText: "2023", MonthText: "07"}, res.Period)
	assert.Equal(t, filepath.Join(cfg.OutputRoot, "monthly_reports", "2023_07_李老师"), res.Layout.Base)
	assert.Len(t, res.Raw, 2)
	assert.Equal(t, []string{
		filepath.Join(res.Layout.Images, "王小明.png"),
		filepath.Join(res.Layout.Images, "李四.png"),
	}, res.Images)
	assert.True(t, renderer.started)
	assert.True(t, renderer.closed)
	assert.Equal(t, 2, renderer.calls)
	require.Len(t, res.Reports, 2)

	report := filepath.Join(res.Layout.Final, "新航道万象城校区王小明07月学习总结.xlsx")
	assert.Contains(t, res.Reports, report)

	f, err := excelize.OpenFile(report)
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "王小明月度学习总结", get("A1"))
	assert.Equal(t, "王小明", get("B2"))
	assert.Equal(t, "2023年07月31日", get("B3"))
	assert.Equal(t, "王老师", get("B4"))
	assert.Equal(t, "李老师", get("B5"))
	assert.Equal(t, "小明本月学习托福。未完成\n托福建议", get("B7"))

	pics, err := f.GetPictures("Sheet1", "B6")
	require.NoError(t, err)
	assert.Len(t, pics, 1)

	// the raw extract was reflowed before capture
	raw, err := excelize.OpenFile(filepath.Join(res.Layout.Raw, "王小明.xlsx"))
	require.NoError(t, err)
	defer raw.Close()
	content, err := raw.GetCellValue("Sheet1", "G2")
	require.NoError(t, err)
	assert.Equal(t, "阅读\n"+strings.Repeat("长", 25)+"\n"+strings.Repeat("长", 15), content)

	// 李四 takes no remark subject: template default stays
	other, err := excelize.OpenFile(filepath.Join(res.Layout.Final, "新航道万象城校区李四07月学习总结.xlsx"))
	require.NoError(t, err)
	defer other.Close()
	v, err := other.GetCellValue("Sheet1", "B7")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestRunMissingSupervisors(t *testing.T) {
	cfg, input := setup(t)
	require.NoError(t, os.Remove(cfg.SupervisorInfo))
	log := logrus.New()
	log.SetOutput(io.Discard)

	runner := &Runner{Config: cfg, Host: sheet.Excel{}, Renderer: &pngRenderer{}, Log: log}
	_, err := runner.Run(context.Background(), input)
	assert.Error(t, err)
}
