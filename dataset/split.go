package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aerissecure/reportassistant/sheet"
)

// Split writes one workbook per student into dir, named <student>.xlsx, with
// the header row followed by that student's records in input order. Paths
// are returned in student first-appearance order.
func Split(ctx context.Context, host sheet.Host, ds *Dataset, dir string, log logrus.FieldLogger) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	log.Info("Generating raw reports...")

	students := ds.Students()
	paths := make([]string, 0, len(students))
	for _, student := range students {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		if err := CheckFileName(student); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, student+".xlsx")
		records := ds.Filter(student)
		if err := writeStudent(host, path, ds.Header, records); err != nil {
			return paths, err
		}
		log.WithFields(logrus.Fields{"student": student, "rows": len(records)}).Debug("raw report written")
		paths = append(paths, path)
	}

	log.WithField("students", len(paths)).Info("Raw reports generated.")
	return paths, nil
}

// CheckFileName rejects a student identity that cannot be used as a file name
// inside an output directory.
func CheckFileName(student string) error {
	if strings.ContainsAny(student, `/\`) || !filepath.IsLocal(student) {
		return fmt.Errorf("student name %s is not usable as a file name", student)
	}
	return nil
}

func writeStudent(host sheet.Host, path string, header []string, records []Record) error {
	wb, err := host.Create()
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.WriteRow(1, header); err != nil {
		return fmt.Errorf("%s: write header: %w", path, err)
	}
	for i, r := range records {
		if err := wb.WriteRow(i+2, r.Values()); err != nil {
			return fmt.Errorf("%s: write row %d: %w", path, i+2, err)
		}
	}
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
