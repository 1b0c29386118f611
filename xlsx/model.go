package xlsx

import (
	"fmt"
)

// Intermediate representation of a rendered worksheet range.

// Pixel values are floats to allow fractional widths/heights if desired.

// CellStyle captures the limited set of Excel styles we currently support.
type CellStyle struct {
	FontFamily      string  // e.g. "Calibri"
	FontSizePt      float64 // original size in points
	FontColor       string  // "RRGGBB"
	Bold            bool
	BackgroundColor string // "RRGGBB"
	BorderColor     string // we use left-border color as representative
	HorizontalAlign string // left|center|right|justify
	VerticalAlign   string // top|middle|bottom
	WrapText        bool
}

func (s CellStyle) String() string {
	return fmt.Sprintf("FontFamily: %s, FontSizePt: %f, FontColor: %s, Bold: %t, BackgroundColor: %s, BorderColor: %s, HorizontalAlign: %s, VerticalAlign: %s, WrapText: %t", s.FontFamily, s.FontSizePt, s.FontColor, s.Bold, s.BackgroundColor, s.BorderColor, s.HorizontalAlign, s.VerticalAlign, s.WrapText)
}

// RenderCell is the IR for a single cell (or merged master).
type RenderCell struct {
	Ref     string    // e.g. "A1"
	Value   string    // already formatted value
	ColSpan int       // 1 if not merged
	RowSpan int       // 1 if not merged
	Style   CellStyle // resolved style
}

// RenderRow represents one logical row of the range.
type RenderRow struct {
	HeightPx float64 // resolved height in px
	Hidden   bool
	Cells    []*RenderCell // length == len(ColWidths); nil for blank or covered cells
}

// RenderSheet is the intermediate representation of a worksheet range.
type RenderSheet struct {
	Name      string
	ColWidths []float64 // per column pixel widths
	ColHidden []bool
	Rows      []RenderRow
}

// Width returns the summed pixel width of the visible columns.
func (s RenderSheet) Width() float64 {
	var total float64
	for i, w := range s.ColWidths {
		if !s.ColHidden[i] {
			total += w
		}
	}
	return total
}

// Height returns the summed pixel height of the visible rows.
func (s RenderSheet) Height() float64 {
	var total float64
	for _, r := range s.Rows {
		if !r.Hidden {
			total += r.HeightPx
		}
	}
	return total
}

func (s RenderSheet) String() string {
	return fmt.Sprintf("Name: %s, ColWidths: %v, ColHidden: %v, Rows: %d", s.Name, s.ColWidths, s.ColHidden, len(s.Rows))
}
