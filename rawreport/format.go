package rawreport

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aerissecure/reportassistant/dataset"
	"github.com/aerissecure/reportassistant/sheet"
)

const (
	headerFill = "FFC000" // golden
	bodyFill   = "FFFFFF"
	// first free-text column (F: 复习检查 is column 6)
	freeTextCol = 6
)

var columnWidths = []struct {
	col   string
	width float64
}{
	{"A", 6}, {"B", 10}, {"C", 19}, {"D", 15}, {"E", 6}, {"F", 46}, {"G", 46}, {"H", 46},
}

// Options tunes Format.
type Options struct {
	WrapWidth int
}

func (o Options) wrapWidth() int {
	if o.WrapWidth <= 0 {
		return DefaultWrapWidth
	}
	return o.WrapWidth
}

// Format reflows the free-text cells of an open raw report and applies the
// fixed column widths, colors and fonts. It does not save.
func Format(wb sheet.Workbook, opts Options) error {
	used, err := sheet.UsedRange(wb, dataset.Columns)
	if err != nil {
		return err
	}

	if used.LastRow >= 2 {
		text := sheet.Range{FirstRow: 2, FirstCol: freeTextCol, LastRow: used.LastRow, LastCol: used.LastCol}
		rows, err := wb.ReadRange(text)
		if err != nil {
			return err
		}
		for i, values := range rows {
			for j, v := range values {
				cell := sheet.CellName(text.FirstCol+j, text.FirstRow+i)
				if err := wb.WriteCell(cell, Reflow(v, opts.wrapWidth())); err != nil {
					return fmt.Errorf("write %s: %w", cell, err)
				}
			}
		}
	}

	for _, cw := range columnWidths {
		if err := wb.SetColumnWidth(cw.col, cw.width); err != nil {
			return fmt.Errorf("column %s width: %w", cw.col, err)
		}
	}

	head := sheet.Range{FirstRow: 1, FirstCol: 1, LastRow: 1, LastCol: used.LastCol}
	if err := wb.StyleRange(head, sheet.Style{Fill: headerFill}); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if used.LastRow >= 2 {
		body := sheet.Range{FirstRow: 2, FirstCol: 1, LastRow: used.LastRow, LastCol: used.LastCol}
		if err := wb.StyleRange(body, sheet.Style{Fill: bodyFill, Bold: true, Wrap: true}); err != nil {
			return fmt.Errorf("style body: %w", err)
		}
	}
	return wb.AutofitRows(used)
}

// FormatFiles opens, formats, saves and closes each raw report in turn.
func FormatFiles(ctx context.Context, host sheet.Host, paths []string, opts Options, log logrus.FieldLogger) error {
	log.Info("Rendering formats...")
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := formatFile(host, path, opts); err != nil {
			return err
		}
		log.WithField("path", path).Debug("raw report formatted")
	}
	log.Info("Format rendered.")
	return nil
}

func formatFile(host sheet.Host, path string, opts Options) error {
	wb, err := host.Open(path)
	if err != nil {
		return err
	}
	defer wb.Close()
	if err := Format(wb, opts); err != nil {
		return fmt.Errorf("format %s: %w", path, err)
	}
	if err := wb.Save(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
