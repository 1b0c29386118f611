package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aerissecure/reportassistant/dataset"
)

// Layout is the output directory tree of one batch:
//
//	<root>/monthly_reports/<year>_<month>_<supervisor>/
//	    final_reports/
//	    raw_reports/
//	    images/
type Layout struct {
	Base   string
	Final  string
	Raw    string
	Images string
}

// BuildLayout creates the batch directories under root if they are missing.
func BuildLayout(root string, p dataset.Period, supervisor string) (Layout, error) {
	base := filepath.Join(root, "monthly_reports", fmt.Sprintf("%s_%s_%s", p.YearString(), p.MonthString(), supervisor))
	l := Layout{
		Base:   base,
		Final:  filepath.Join(base, "final_reports"),
		Raw:    filepath.Join(base, "raw_reports"),
		Images: filepath.Join(base, "images"),
	}
	for _, dir := range []string{l.Final, l.Raw, l.Images} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Layout{}, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return l, nil
}

// LoadSupervisors reads the supervisor info file: one line holding two names
// separated by '/'. All spaces are dropped.
func LoadSupervisors(path string) ([2]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [2]string{}, err
	}
	return ParseSupervisors(string(data))
}

// ParseSupervisors parses the content of a supervisor info file.
func ParseSupervisors(text string) ([2]string, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.TrimSpace(strings.ReplaceAll(text, " ", ""))
	parts := strings.Split(text, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return [2]string{}, fmt.Errorf("supervisor info %q: want two names separated by '/'", text)
	}
	return [2]string{parts[0], parts[1]}, nil
}
