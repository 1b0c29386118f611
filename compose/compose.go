// Package compose fills the report template for every captured student.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aerissecure/reportassistant/dataset"
	"github.com/aerissecure/reportassistant/remark"
	"github.com/aerissecure/reportassistant/sheet"
)

// Template cell addresses.
const (
	cellHeader     = "A1" // contains the xxx token
	cellName       = "B2"
	cellDate       = "B3"
	cellSupervisor = "B4"
	cellAcademic   = "B5"
	cellRemark     = "B7"

	imageRow    = 6
	imageCol    = "B"
	imageAnchor = "B6"
	imageName   = "report"
)

// Composer writes one final report per student image.
type Composer struct {
	Host         sheet.Host
	Template     string
	OutputDir    string
	BusinessName string
	Period       dataset.Period
	Supervisors  [2]string

	// Remarks and RemarkInfo are the parallel lists from remark.GetInfo.
	Remarks    []string
	RemarkInfo []remark.Info
	Corpus     string

	// Workers > 1 composes that many students at once.
	Workers int
	// Log defaults to the logrus standard logger.
	Log logrus.FieldLogger
}

func (c *Composer) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// FileName returns the final report file name for a student.
func (c *Composer) FileName(student string) string {
	return fmt.Sprintf("%s%s%s月学习总结.xlsx", c.BusinessName, student, c.Period.MonthString())
}

// Compose writes a report for every image, in file name order, and returns
// the written paths in the same order. Students are taken from the image
// names, so a student without an image gets no report.
func (c *Composer) Compose(ctx context.Context, images []string) ([]string, error) {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", c.OutputDir, err)
	}
	images = slices.Clone(images)
	sort.Strings(images)
	c.logger().Info("Generating reports...")

	out := make([]string, len(images))
	if c.Workers <= 1 {
		for i, img := range images {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			path, err := c.composeOne(img)
			if err != nil {
				return nil, err
			}
			out[i] = path
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.Workers)
		for i, img := range images {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				path, err := c.composeOne(img)
				if err != nil {
					return err
				}
				out[i] = path
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	c.logger().WithField("reports", len(out)).Info("Done!")
	return out, nil
}

func (c *Composer) composeOne(image string) (string, error) {
	student := strings.TrimSuffix(filepath.Base(image), filepath.Ext(image))
	log := c.logger().WithField("student", student)

	wb, err := c.Host.Open(c.Template)
	if err != nil {
		return "", err
	}
	defer wb.Close()

	if err := c.fill(wb, student); err != nil {
		return "", fmt.Errorf("%s: %w", student, err)
	}
	if err := placeImage(wb, image); err != nil {
		return "", fmt.Errorf("%s: %w", student, err)
	}

	path := filepath.Join(c.OutputDir, c.FileName(student))
	if err := wb.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	log.WithField("path", path).Debug("report written")
	return path, nil
}

func (c *Composer) fill(wb sheet.Workbook, student string) error {
	header, err := wb.ReadCell(cellHeader)
	if err != nil {
		return err
	}
	date, err := wb.ReadCell(cellDate)
	if err != nil {
		return err
	}
	values := []struct{ cell, value string }{
		{cellHeader, strings.ReplaceAll(header, "xxx", student)},
		{cellName, student},
		{cellDate, ComposeDate(date, c.Period)},
		{cellSupervisor, c.Supervisors[0]},
		{cellAcademic, c.Supervisors[1]},
	}
	if i := slices.Index(c.Remarks, student); i >= 0 && i < len(c.RemarkInfo) {
		text, err := remark.GenerateFile(c.Corpus, remark.ShortName(student), c.RemarkInfo[i])
		if err != nil {
			return err
		}
		values = append(values, struct{ cell, value string }{cellRemark, text})
	}
	for _, v := range values {
		if err := wb.WriteCell(v.cell, v.value); err != nil {
			return fmt.Errorf("write %s: %w", v.cell, err)
		}
	}
	return nil
}

// placeImage sizes the picture to the width of column B and grows the image
// row to fit it. A block taller than one row spills into rows inserted below
// row 6; columns A and B are merged over them.
func placeImage(wb sheet.Workbook, image string) error {
	colWidth, err := wb.ColumnWidth(imageCol)
	if err != nil {
		return err
	}
	w, h, err := sheet.ImageSize(image)
	if err != nil {
		return err
	}
	width := sheet.ColumnPoints(colWidth)
	height := ScaleImage(w, h, width)

	rows := PlanRows(height+imageMargin, sheet.MaxRowHeight)
	if len(rows) > 1 {
		if err := wb.InsertRows(imageRow+1, len(rows)-1); err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
	}
	for i, rh := range rows {
		if err := wb.ResizeRow(imageRow+i, rh); err != nil {
			return fmt.Errorf("resize row %d: %w", imageRow+i, err)
		}
	}
	if len(rows) > 1 {
		last := imageRow + len(rows) - 1
		for _, col := range []int{1, 2} {
			r := sheet.Range{FirstRow: imageRow, FirstCol: col, LastRow: last, LastCol: col}
			if err := wb.MergeRange(r); err != nil {
				return fmt.Errorf("merge %s: %w", r, err)
			}
		}
	}
	return wb.InsertImage(imageAnchor, image, sheet.ImageOptions{Width: width, Height: height, Name: imageName})
}
