// Package sheet defines the spreadsheet capabilities the report pipeline needs
// and an excelize-backed implementation of them.
package sheet

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

// MaxRowHeight is the tallest row height, in points, a worksheet accepts.
const MaxRowHeight = 409.0

// Range is a rectangular block of cells. Rows and columns are 1-based and
// inclusive.
type Range struct {
	FirstRow int
	FirstCol int
	LastRow  int
	LastCol  int
}

// TopLeft returns the reference of the first cell, e.g. "A1".
func (r Range) TopLeft() string { return CellName(r.FirstCol, r.FirstRow) }

// BottomRight returns the reference of the last cell, e.g. "H12".
func (r Range) BottomRight() string { return CellName(r.LastCol, r.LastRow) }

// Rows returns the number of rows covered.
func (r Range) Rows() int { return r.LastRow - r.FirstRow + 1 }

// Cols returns the number of columns covered.
func (r Range) Cols() int { return r.LastCol - r.FirstCol + 1 }

func (r Range) String() string { return r.TopLeft() + ":" + r.BottomRight() }

// CellName converts 1-based coordinates to a cell reference. Out of range
// coordinates yield an empty string.
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}

// ColumnName converts a 1-based column number to its letters.
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	return name
}

// ParseCell splits a cell reference into 1-based column and row.
func ParseCell(cell string) (col, row int, err error) {
	return excelize.CellNameToCoordinates(cell)
}

// Style is the small set of cosmetic attributes the pipeline applies.
type Style struct {
	Fill string // "RRGGBB", empty for none
	Bold bool
	Wrap bool
}

// ImageOptions sizes an inserted picture. Width and Height are points.
type ImageOptions struct {
	Width  float64
	Height float64
	Name   string
}

// Workbook is one open spreadsheet document. Cell operations address its
// first worksheet.
type Workbook interface {
	ReadCell(cell string) (string, error)
	ReadRange(r Range) ([][]string, error)
	WriteCell(cell, value string) error
	WriteRow(row int, values []string) error
	ColumnWidth(col string) (float64, error)
	SetColumnWidth(col string, width float64) error
	StyleRange(r Range, st Style) error
	AutofitRows(r Range) error
	InsertRows(row, n int) error
	ResizeRow(row int, height float64) error
	MergeRange(r Range) error
	InsertImage(cell, path string, opts ImageOptions) error
	Save() error
	SaveAs(path string) error
	Close() error
}

// Host opens and creates workbooks.
type Host interface {
	Open(path string) (Workbook, error)
	Create() (Workbook, error)
}

// Renderer rasterizes a range of a saved workbook to PNG bytes.
type Renderer interface {
	Render(path string, r Range) ([]byte, error)
}

// UsedRange returns the block starting at A1 that ends at the last row of the
// contiguous non-empty run in column A, cols columns wide.
func UsedRange(wb Workbook, cols int) (Range, error) {
	last := 0
	for row := 1; row <= excelize.TotalRows; row++ {
		v, err := wb.ReadCell(CellName(1, row))
		if err != nil {
			return Range{}, fmt.Errorf("read A%d: %w", row, err)
		}
		if v == "" {
			break
		}
		last = row
	}
	if last == 0 {
		return Range{}, fmt.Errorf("column A is empty")
	}
	return Range{FirstRow: 1, FirstCol: 1, LastRow: last, LastCol: cols}, nil
}

// ColumnPoints converts a column width in character units to its displayed
// width in points.
func ColumnPoints(width float64) float64 {
	return columnPixels(width) * 0.75
}

func columnPixels(width float64) float64 {
	switch {
	case width <= 0:
		return 0
	case width < 1:
		return math.Ceil(width*12 + 0.5)
	default:
		return math.Ceil(width*7 + 0.5 + 5)
	}
}
