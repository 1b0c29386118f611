package xlsx

import (
	"fmt"
	"html"
	"strings"
)

// RenderHTML converts the IR into a standalone HTML document holding a single
// table. Properties shared by most cells are hoisted into the td rule and
// every distinct style gets a class carrying only what differs.
func RenderHTML(s RenderSheet) string {
	var b strings.Builder

	// 1. Collect unique cell styles and count property values
	fontFamilyCount := make(map[string]int)
	fontSizeCount := make(map[float64]int)
	fontColorCount := make(map[string]int)
	bgColorCount := make(map[string]int)
	borderColorCount := make(map[string]int)
	boldCount := make(map[bool]int)
	wrapCount := make(map[bool]int)

	styleMap := make(map[CellStyle]string) // CellStyle -> class name
	var styleList []CellStyle              // To preserve order
	styled := 0
	for _, row := range s.Rows {
		for _, cell := range row.Cells {
			if cell == nil {
				continue
			}
			styled++
			st := cell.Style
			if st.FontFamily != "" {
				fontFamilyCount[st.FontFamily]++
			}
			if st.FontSizePt > 0 {
				fontSizeCount[st.FontSizePt]++
			}
			if st.FontColor != "" {
				fontColorCount[st.FontColor]++
			}
			if st.BackgroundColor != "" {
				bgColorCount[st.BackgroundColor]++
			}
			if st.BorderColor != "" {
				borderColorCount[st.BorderColor]++
			}
			boldCount[st.Bold]++
			wrapCount[st.WrapText]++
			if _, ok := styleMap[st]; !ok {
				styleMap[st] = fmt.Sprintf("cellstyle%d", len(styleList)+1)
				styleList = append(styleList, st)
			}
		}
	}

	// 2. Compute defaults: a value is a default only when a majority shares it
	def := CellStyle{
		FontFamily:      majority(fontFamilyCount, styled),
		FontSizePt:      majority(fontSizeCount, styled),
		FontColor:       majority(fontColorCount, styled),
		BackgroundColor: majority(bgColorCount, styled),
		BorderColor:     majority(borderColorCount, styled),
		Bold:            majority(boldCount, styled),
		WrapText:        majority(wrapCount, styled),
	}

	// 3. Basic CSS
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">\n<style>\n")
	b.WriteString("body { margin: 0; background: #fff; }\n")
	b.WriteString(".table { border-collapse: collapse; table-layout: fixed; }\n")
	b.WriteString(".table td { padding: 2px 4px; vertical-align: top;")
	b.WriteString(styleToCSSDiff(def, CellStyle{}))
	if def.BorderColor == "" {
		b.WriteString(" border:1px solid #333;")
	}
	if !def.WrapText {
		b.WriteString(" white-space:nowrap; overflow:hidden;")
	}
	b.WriteString(" }\n")

	// 4. Render cell style classes (only properties that differ from default)
	for _, st := range styleList {
		if css := styleToCSSDiff(st, def); css != "" {
			b.WriteString(fmt.Sprintf(".%s { %s }\n", styleMap[st], css))
		}
	}
	b.WriteString("</style></head><body>\n")

	b.WriteString(fmt.Sprintf("<table class=\"table\" data-name=\"%s\" style=\"width:%.0fpx;\">\n",
		html.EscapeString(s.Name), s.Width()))
	b.WriteString("  <colgroup>\n")
	for i, w := range s.ColWidths {
		style := fmt.Sprintf(" style=\"width:%.0fpx;\"", w)
		if s.ColHidden[i] {
			style = " style=\"display:none;\""
		}
		b.WriteString(fmt.Sprintf("    <col%s>\n", style))
	}
	b.WriteString("  </colgroup>\n")

	for ri, row := range s.Rows {
		rowStyle := fmt.Sprintf("height:%.0fpx;", row.HeightPx)
		if row.Hidden {
			rowStyle += "display:none;"
		}
		b.WriteString(fmt.Sprintf("  <tr style=\"%s\">\n", rowStyle))
		for ci := 0; ci < len(row.Cells); ci++ {
			cell := row.Cells[ci]
			if cell == nil {
				if !coveredByMerge(s, ri, ci) {
					b.WriteString("    <td></td>\n")
				}
				continue
			}
			spanAttr := ""
			if cell.ColSpan > 1 {
				spanAttr += fmt.Sprintf(" colspan=\"%d\"", cell.ColSpan)
			}
			if cell.RowSpan > 1 {
				spanAttr += fmt.Sprintf(" rowspan=\"%d\"", cell.RowSpan)
			}
			escaped := html.EscapeString(cell.Value)
			// Excel stores explicit line breaks as \n; preserve them in HTML
			escaped = strings.ReplaceAll(escaped, "\n", "<br>")
			b.WriteString(fmt.Sprintf("    <td data-cell=\"%s\"%s class=\"%s\">%s</td>\n",
				cell.Ref, spanAttr, styleMap[cell.Style], escaped))
			if cell.ColSpan > 1 {
				ci += cell.ColSpan - 1
			}
		}
		b.WriteString("  </tr>\n")
	}
	b.WriteString("</table>\n</body></html>\n")
	return b.String()
}

// coveredByMerge reports whether (ri, ci) lies inside a merge whose master is
// elsewhere, so no td must be emitted for it.
func coveredByMerge(s RenderSheet, ri, ci int) bool {
	for r := 0; r <= ri; r++ {
		for c, cell := range s.Rows[r].Cells {
			if cell == nil || c > ci || (r == ri && c == ci) {
				continue
			}
			if r+cell.RowSpan > ri && c+cell.ColSpan > ci {
				return true
			}
		}
	}
	return false
}

func majority[K comparable](counts map[K]int, total int) K {
	var best K
	max := 0
	for k, v := range counts {
		if v > max {
			max = v
			best = k
		}
	}
	if max <= total/2 {
		var zero K
		return zero
	}
	return best
}

// styleToCSSDiff returns only the CSS properties from s that differ from def.
func styleToCSSDiff(s, def CellStyle) string {
	var b strings.Builder
	if s.FontFamily != "" && s.FontFamily != def.FontFamily {
		b.WriteString(fmt.Sprintf(" font-family:'%s';", s.FontFamily))
	}
	if s.FontSizePt > 0 && s.FontSizePt != def.FontSizePt {
		b.WriteString(fmt.Sprintf(" font-size:%.1fpt;", s.FontSizePt))
	}
	if s.FontColor != "" && s.FontColor != def.FontColor {
		b.WriteString(fmt.Sprintf(" color:#%s;", s.FontColor))
	}
	if s.Bold != def.Bold {
		if s.Bold {
			b.WriteString(" font-weight:bold;")
		} else {
			b.WriteString(" font-weight:normal;")
		}
	}
	if s.BackgroundColor != "" && s.BackgroundColor != def.BackgroundColor {
		b.WriteString(fmt.Sprintf(" background-color:#%s;", s.BackgroundColor))
	}
	if s.BorderColor != "" && s.BorderColor != def.BorderColor {
		b.WriteString(fmt.Sprintf(" border:1px solid #%s;", s.BorderColor))
	}
	switch s.HorizontalAlign {
	case "center", "centerContinuous", "distributed":
		b.WriteString(" text-align:center;")
	case "right":
		b.WriteString(" text-align:right;")
	case "justify":
		b.WriteString(" text-align:justify;")
	}
	switch s.VerticalAlign {
	case "middle":
		b.WriteString(" vertical-align:middle;")
	case "bottom":
		b.WriteString(" vertical-align:bottom;")
	}
	if s.WrapText != def.WrapText {
		if s.WrapText {
			b.WriteString(" white-space:normal;")
		} else {
			b.WriteString(" white-space:nowrap;overflow:hidden;")
		}
	}
	return strings.TrimPrefix(b.String(), " ")
}
