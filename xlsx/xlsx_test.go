package xlsx

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerissecure/reportassistant/dataset"
	"github.com/aerissecure/reportassistant/rawreport"
	"github.com/aerissecure/reportassistant/sheet"
)

func buildWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "student.xlsx")
	wb, err := sheet.Excel{}.Create()
	require.NoError(t, err)
	defer wb.Close()

	require.NoError(t, wb.WriteRow(1, []string{"学生", "上课日期", "课程"}))
	require.NoError(t, wb.WriteRow(2, []string{"张三", "2023-07-01", "托福阅读"}))
	require.NoError(t, wb.WriteRow(3, []string{"张三", "2023-07-08", "first\nsecond"}))
	require.NoError(t, wb.WriteCell("D1", "outside"))
	require.NoError(t, wb.SetColumnWidth("C", 19))
	require.NoError(t, wb.StyleRange(sheet.Range{FirstRow: 1, FirstCol: 1, LastRow: 1, LastCol: 3}, sheet.Style{Fill: "FFC000"}))
	require.NoError(t, wb.StyleRange(sheet.Range{FirstRow: 2, FirstCol: 1, LastRow: 3, LastCol: 3}, sheet.Style{Fill: "FFFFFF", Bold: true, Wrap: true}))
	require.NoError(t, wb.ResizeRow(3, 30))
	require.NoError(t, wb.SaveAs(path))
	return path
}

func TestParseRange(t *testing.T) {
	path := buildWorkbook(t)
	_, rs, err := RenderFile(path, sheet.Range{FirstRow: 1, FirstCol: 1, LastRow: 3, LastCol: 3})
	require.NoError(t, err)

	require.Len(t, rs.Rows, 3)
	require.Len(t, rs.ColWidths, 3)
	assert.InDelta(t, 19*charPx, rs.ColWidths[2], 0.01)
	assert.InDelta(t, 30*ptPx, rs.Rows[2].HeightPx, 0.01)

	head := rs.Rows[0].Cells[0]
	require.NotNil(t, head)
	assert.Equal(t, "学生", head.Value)
	assert.Equal(t, "A1", head.Ref)
	assert.Equal(t, "FFC000", head.Style.BackgroundColor)
	assert.False(t, head.Style.Bold)

	body := rs.Rows[2].Cells[2]
	require.NotNil(t, body)
	assert.Equal(t, "first\nsecond", body.Value)
	assert.True(t, body.Style.Bold)
	assert.True(t, body.Style.WrapText)
	assert.Equal(t, "FFFFFF", body.Style.BackgroundColor)
}

func TestRenderHTML(t *testing.T) {
	path := buildWorkbook(t)
	doc, _, err := RenderFile(path, sheet.Range{FirstRow: 1, FirstCol: 1, LastRow: 3, LastCol: 3})
	require.NoError(t, err)

	assert.Contains(t, doc, "<table")
	assert.Contains(t, doc, "托福阅读")
	assert.Contains(t, doc, "first<br>second")
	assert.Contains(t, doc, "background-color:#FFC000;")
	assert.NotContains(t, doc, "outside")
	assert.Equal(t, 3, strings.Count(doc, "<tr "))
}

func TestRenderHTMLMerges(t *testing.T) {
	rs := RenderSheet{
		Name:      "Sheet1",
		ColWidths: []float64{50, 50},
		ColHidden: []bool{false, false},
		Rows: []RenderRow{
			{HeightPx: 20, Cells: []*RenderCell{{Ref: "A1", Value: "m", RowSpan: 2, ColSpan: 1}, {Ref: "B1", Value: "b", RowSpan: 1, ColSpan: 1}}},
			{HeightPx: 20, Cells: []*RenderCell{nil, {Ref: "B2", Value: "c", RowSpan: 1, ColSpan: 1}}},
		},
	}
	doc := RenderHTML(rs)
	assert.Contains(t, doc, `rowspan="2"`)
	// the covered A2 must not produce an empty cell
	assert.NotContains(t, doc, "<td></td>")
}

func TestMajority(t *testing.T) {
	assert.Equal(t, "x", majority(map[string]int{"x": 3, "y": 1}, 4))
	assert.Equal(t, "", majority(map[string]int{"x": 2, "y": 2}, 4))
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, "FFC000", normalizeColor("FFFFC000"))
	assert.Equal(t, "FFC000", normalizeColor("#FFC000"))
}

// formattedExtract runs the split and format stages on a two-lesson master
// sheet and returns the raw report of the student.
func formattedExtract(t *testing.T) string {
	t.Helper()
	ds, err := dataset.FromRows([][]string{
		{"学生", "上课日期", "上课时段", "课程", "教师", "复习检查", "课堂内容", "学生表现"},
		{"王小明", "2023-07-03", "09:00", "托福阅读", "赵老师", "已完成", "阅读\n\n\n长难句", "认真"},
		{"王小明", "2023-07-10", "09:00", "托福听力", "赵老师", "没带", "听力", "良好"},
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	dir := filepath.Join(t.TempDir(), "raw_reports")
	paths, err := dataset.Split(context.Background(), sheet.Excel{}, ds, dir, log)
	require.NoError(t, err)
	require.NoError(t, rawreport.FormatFiles(context.Background(), sheet.Excel{}, paths, rawreport.Options{}, log))
	require.Len(t, paths, 1)
	return paths[0]
}

func TestRenderFormattedExtract(t *testing.T) {
	path := formattedExtract(t)
	doc, rs, err := RenderFile(path, sheet.Range{FirstRow: 1, FirstCol: 1, LastRow: 3, LastCol: 8})
	require.NoError(t, err)

	require.Len(t, rs.Rows, 3)
	values := make([]string, 0, 24)
	for _, row := range rs.Rows {
		for _, c := range row.Cells {
			require.NotNil(t, c)
			values = append(values, c.Value)
		}
	}
	assert.Equal(t, []string{
		"学生", "上课日期", "上课时段", "课程", "教师", "复习检查", "课堂内容", "学生表现",
		"王小明", "2023-07-03", "09:00", "托福阅读", "赵老师", "已完成", "阅读\n长难句", "认真",
		"王小明", "2023-07-10", "09:00", "托福听力", "赵老师", "没带", "听力", "良好",
	}, values)

	for _, c := range rs.Rows[0].Cells {
		assert.Equal(t, "FFC000", c.Style.BackgroundColor, c.Ref)
		assert.False(t, c.Style.Bold, c.Ref)
	}
	for _, row := range rs.Rows[1:] {
		for _, c := range row.Cells {
			assert.Equal(t, "FFFFFF", c.Style.BackgroundColor, c.Ref)
			assert.True(t, c.Style.Bold, c.Ref)
			assert.True(t, c.Style.WrapText, c.Ref)
		}
	}

	widths := []float64{6, 10, 19, 15, 6, 46, 46, 46}
	for i, w := range widths {
		assert.InDelta(t, w*charPx, rs.ColWidths[i], 0.01, sheet.ColumnName(i+1))
	}

	for _, want := range []string{"王小明", "托福阅读", "阅读<br>长难句", "没带", "background-color:#FFC000;"} {
		assert.Contains(t, doc, want)
	}
}
