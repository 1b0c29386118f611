package rawreport

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aerissecure/reportassistant/sheet"
	"github.com/aerissecure/reportassistant/sheet/sheettest"
)

func TestCollapseBlankLinesIdempotent(t *testing.T) {
	inputs := []string{
		"a\n\nb",
		"a\n\n\n\nb\n\n\nc",
		"\n\n\nlead",
		"none",
	}
	for _, in := range inputs {
		once := CollapseBlankLines(in)
		assert.NotContains(t, once, "\n\n", in)
		assert.Equal(t, once, CollapseBlankLines(once), in)
	}
}

func TestWrapLineBreakCount(t *testing.T) {
	for _, width := range []int{20, 25} {
		for l := 1; l <= 80; l++ {
			line := strings.Repeat("字", l)
			got := WrapLine(line, width)
			want := (l+width-1)/width - 1
			assert.Equal(t, want, strings.Count(got, "\n"), "L=%d W=%d", l, width)
			assert.Equal(t, line, strings.ReplaceAll(got, "\n", ""))
		}
	}
}

func TestWrapLineIgnoresWords(t *testing.T) {
	assert.Equal(t, "hello wo\nrld", WrapLine("hello world", 8))
}

func TestReflow(t *testing.T) {
	in := "第一行\n\n\n" + strings.Repeat("a", 30)
	assert.Equal(t, "第一行\n"+strings.Repeat("a", 25)+"\naaaaa", Reflow(in, 25))
	assert.Equal(t, "", Reflow("", 25))
	assert.Equal(t, "", Reflow(" \n\n ", 25))
	assert.Equal(t, "x\ny", Reflow("x\r\n\r\ny", 25))
}

func rawBook() *sheettest.Book {
	return sheettest.NewBook().
		Set(1, "学生", "上课日期", "上课时段", "课程", "教师", "复习检查", "课堂内容", "学生表现").
		Set(2, "张三", "2023-07-01", "09:00", "托福", "王", "已完成\n\n\n很好", strings.Repeat("内", 30), "").
		Set(3, "张三", "2023-07-08", "09:00", "托福", "王", "未完成", "b", "c")
}

func TestFormat(t *testing.T) {
	wb := rawBook()
	require.NoError(t, Format(wb, Options{}))

	assert.Equal(t, "已完成\n很好", wb.Cells["F2"])
	assert.Equal(t, strings.Repeat("内", 25)+"\n"+strings.Repeat("内", 5), wb.Cells["G2"])
	assert.Equal(t, "", wb.Cells["H2"])
	assert.Equal(t, "未完成", wb.Cells["F3"])
	// non free-text columns untouched
	assert.Equal(t, "2023-07-01", wb.Cells["B2"])

	assert.Equal(t, map[string]float64{
		"A": 6, "B": 10, "C": 19, "D": 15, "E": 6, "F": 46, "G": 46, "H": 46,
	}, wb.Widths)
	assert.Equal(t, sheet.Style{Fill: "FFC000"}, wb.Styles["A1:H1"])
	assert.Equal(t, sheet.Style{Fill: "FFFFFF", Bold: true, Wrap: true}, wb.Styles["A2:H3"])
	assert.Equal(t, []sheet.Range{{FirstRow: 1, FirstCol: 1, LastRow: 3, LastCol: 8}}, wb.Autofit)
}

func TestFormatFilesExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "张三.xlsx")
	wb, err := sheet.Excel{}.Create()
	require.NoError(t, err)
	for row, values := range [][]string{
		{"学生", "上课日期", "上课时段", "课程", "教师", "复习检查", "课堂内容", "学生表现"},
		{"张三", "2023-07-01", "09:00", "托福", "王", "ok", strings.Repeat("x", 50), "fine"},
	} {
		require.NoError(t, wb.WriteRow(row+1, values))
	}
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	log := logrus.New()
	log.SetOutput(io.Discard)
	require.NoError(t, FormatFiles(context.Background(), sheet.Excel{}, []string{path}, Options{WrapWidth: 20}, log))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Sheet1", "G2")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(v, "\n"))

	w, err := f.GetColWidth("Sheet1", "F")
	require.NoError(t, err)
	assert.Equal(t, 46.0, w)

	id, err := f.GetCellStyle("Sheet1", "A2")
	require.NoError(t, err)
	st, err := f.GetStyle(id)
	require.NoError(t, err)
	assert.True(t, st.Font.Bold)
}

func TestFormatFilesMissing(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	err := FormatFiles(context.Background(), sheettest.NewHost(), []string{"nope.xlsx"}, Options{}, log)
	assert.Error(t, err)
}
