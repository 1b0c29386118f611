// Package snapshot captures an image of every formatted raw report.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/aerissecure/reportassistant/dataset"
	"github.com/aerissecure/reportassistant/sheet"
)

// identityCell holds the student of a raw report's first record.
const identityCell = "A2"

// Capture renders the used range of each raw report to <student>.png in dir,
// overwriting existing images, and returns the image paths in input order.
func Capture(ctx context.Context, host sheet.Host, r sheet.Renderer, paths []string, dir string, log logrus.FieldLogger) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	log.Info("Grabbing images...")

	images := make([]string, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return images, err
		}
		student, used, err := inspect(host, path)
		if err != nil {
			return images, err
		}
		png, err := r.Render(path, used)
		if err != nil {
			return images, fmt.Errorf("render %s: %w", path, err)
		}
		out := filepath.Join(dir, student+".png")
		if err := os.WriteFile(out, png, 0o644); err != nil {
			return images, err
		}
		log.WithFields(logrus.Fields{"student": student, "range": used.String()}).Debug("image captured")
		images = append(images, out)
	}

	log.Info("Image grabbed.")
	return images, nil
}

func inspect(host sheet.Host, path string) (string, sheet.Range, error) {
	wb, err := host.Open(path)
	if err != nil {
		return "", sheet.Range{}, err
	}
	defer wb.Close()

	used, err := sheet.UsedRange(wb, dataset.Columns)
	if err != nil {
		return "", sheet.Range{}, fmt.Errorf("%s: %w", path, err)
	}
	student, err := wb.ReadCell(identityCell)
	if err != nil {
		return "", sheet.Range{}, fmt.Errorf("%s: read %s: %w", path, identityCell, err)
	}
	if student == "" {
		return "", sheet.Range{}, fmt.Errorf("%s: no student in %s", path, identityCell)
	}
	if err := dataset.CheckFileName(student); err != nil {
		return "", sheet.Range{}, fmt.Errorf("%s: %w", path, err)
	}
	return student, used, nil
}
