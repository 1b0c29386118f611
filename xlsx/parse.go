package xlsx

import (
	"errors"
	"fmt"
	"io"

	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"
	"github.com/xuri/excelize/v2"

	"github.com/aerissecure/reportassistant/sheet"
)

const (
	defaultColChars = 8.43
	defaultRowPt    = 15.0
	charPx          = 8.3
	ptPx            = 1.333
)

// ParseRange reads an XLSX from r/size and returns the intermediate
// representation of rng on its first worksheet.
//
// Styles, merges and sizes come from unioffice. Cell text is read with
// excelize: unioffice does not follow the absolute /xl/sharedStrings.xml
// target excelize writes, and every shared string would come back empty.
func ParseRange(r io.ReaderAt, size int64, rng sheet.Range) (RenderSheet, error) {
	values, err := readValues(io.NewSectionReader(r, 0, size), rng)
	if err != nil {
		return RenderSheet{}, err
	}
	wb, err := spreadsheet.Read(r, size)
	if err != nil {
		return RenderSheet{}, err
	}
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return RenderSheet{}, errors.New("workbook has no sheets")
	}
	ws := sheets[0]
	nCols := rng.Cols()

	rs := RenderSheet{
		Name:      ws.Name(),
		ColWidths: make([]float64, nCols),
		ColHidden: make([]bool, nCols),
		Rows:      make([]RenderRow, rng.Rows()),
	}
	for c := 0; c < nCols; c++ {
		col := ws.Column(uint32(rng.FirstCol + c)).X()
		if col.WidthAttr != nil {
			rs.ColWidths[c] = *col.WidthAttr * charPx
		} else {
			rs.ColWidths[c] = defaultColChars * charPx
		}
		if col.HiddenAttr != nil {
			rs.ColHidden[c] = *col.HiddenAttr
		}
	}
	for i := range rs.Rows {
		rs.Rows[i].HeightPx = defaultRowPt * ptPx
		rs.Rows[i].Cells = make([]*RenderCell, nCols)
	}

	// merges, clipped to the range; indices are relative to rng
	type span struct{ rows, cols int }
	masters := make(map[[2]int]span)
	covered := make(map[[2]int]bool)
	if ws.X().MergeCells != nil {
		for _, mc := range ws.X().MergeCells.MergeCell {
			from, to, err := reference.ParseRangeReference(mc.RefAttr)
			if err != nil {
				continue
			}
			r0 := int(from.RowIdx) - rng.FirstRow
			c0 := int(from.ColumnIdx) + 1 - rng.FirstCol
			r1 := min(int(to.RowIdx)-rng.FirstRow, rng.Rows()-1)
			c1 := min(int(to.ColumnIdx)+1-rng.FirstCol, nCols-1)
			if r0 < 0 || c0 < 0 || r0 >= rng.Rows() || c0 >= nCols {
				continue
			}
			masters[[2]int{r0, c0}] = span{r1 - r0 + 1, c1 - c0 + 1}
			for r := r0; r <= r1; r++ {
				for c := c0; c <= c1; c++ {
					if r != r0 || c != c0 {
						covered[[2]int{r, c}] = true
					}
				}
			}
		}
	}

	for _, row := range ws.Rows() {
		ri := int(row.RowNumber()) - rng.FirstRow
		if ri < 0 || ri >= len(rs.Rows) {
			continue
		}
		rr := &rs.Rows[ri]
		rr.Hidden = row.IsHidden()
		if row.X().CustomHeightAttr != nil && *row.X().CustomHeightAttr && row.X().HtAttr != nil {
			rr.HeightPx = *row.X().HtAttr * ptPx
		}

		for _, cell := range row.Cells() {
			colName, err := cell.Column()
			if err != nil {
				continue
			}
			ci := int(reference.ColumnToIndex(colName)) + 1 - rng.FirstCol
			if ci < 0 || ci >= nCols || covered[[2]int{ri, ci}] {
				continue
			}
			rc := &RenderCell{
				Ref:     fmt.Sprintf("%s%d", colName, row.RowNumber()),
				Value:   values[ri][ci],
				ColSpan: 1,
				RowSpan: 1,
			}
			if cell.X().SAttr != nil {
				rc.Style = resolveStyle(wb, *cell.X().SAttr)
			}
			if s, ok := masters[[2]int{ri, ci}]; ok {
				rc.RowSpan = s.rows
				rc.ColSpan = s.cols
			}
			rr.Cells[ci] = rc
		}
	}

	// text in cells unioffice did not list
	for ri, row := range rs.Rows {
		for ci, rc := range row.Cells {
			if rc != nil || values[ri][ci] == "" || covered[[2]int{ri, ci}] {
				continue
			}
			rc = &RenderCell{
				Ref:     sheet.CellName(rng.FirstCol+ci, rng.FirstRow+ri),
				Value:   values[ri][ci],
				ColSpan: 1,
				RowSpan: 1,
			}
			if s, ok := masters[[2]int{ri, ci}]; ok {
				rc.RowSpan = s.rows
				rc.ColSpan = s.cols
			}
			row.Cells[ci] = rc
		}
	}

	return rs, nil
}

// readValues returns the formatted text of every cell in rng on the first
// worksheet, indexed relative to rng.
func readValues(r io.Reader, rng sheet.Range) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name := f.GetSheetName(0)
	out := make([][]string, rng.Rows())
	for i := range out {
		out[i] = make([]string, rng.Cols())
		for j := range out[i] {
			v, err := f.GetCellValue(name, sheet.CellName(rng.FirstCol+j, rng.FirstRow+i))
			if err != nil {
				return nil, err
			}
			out[i][j] = v
		}
	}
	return out, nil
}
