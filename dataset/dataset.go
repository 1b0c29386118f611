// Package dataset loads the monthly master sheet and splits it per student.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Columns is the number of leading columns kept from the master sheet:
// 学生, 上课日期, 上课时段, 课程, 教师, 复习检查, 课堂内容, 学生表现.
const Columns = 8

// Record is one lesson row of the master sheet.
type Record struct {
	Student       string
	Date          string
	Slot          string
	Course        string
	Teacher       string
	HomeworkCheck string
	Content       string
	Performance   string
}

// Values returns the record's cells in column order.
func (r Record) Values() []string {
	return []string{r.Student, r.Date, r.Slot, r.Course, r.Teacher, r.HomeworkCheck, r.Content, r.Performance}
}

func recordOf(cells []string) Record {
	c := make([]string, Columns)
	copy(c, cells)
	return Record{
		Student:       strings.TrimSpace(c[0]),
		Date:          strings.TrimSpace(c[1]),
		Slot:          c[2],
		Course:        c[3],
		Teacher:       c[4],
		HomeworkCheck: c[5],
		Content:       c[6],
		Performance:   c[7],
	}
}

// Dataset is the master sheet: its header row and lesson records in input
// order.
type Dataset struct {
	Header  []string
	Records []Record
}

// Load reads the first worksheet of an .xlsx/.xlsm file, or a .csv file.
// Row one is the header.
func Load(path string) (*Dataset, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported input %s: want .xlsx, .xlsm or .csv", path)
	}
	if err != nil {
		return nil, err
	}
	ds, err := FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// FromRows builds a dataset from raw rows, the first being the header.
// Rows without a student are skipped.
func FromRows(rows [][]string) (*Dataset, error) {
	if len(rows) < 2 {
		return nil, errors.New("no lesson records")
	}
	header := make([]string, Columns)
	copy(header, rows[0])
	ds := &Dataset{Header: header}
	for _, row := range rows[1:] {
		rec := recordOf(row)
		if rec.Student == "" {
			continue
		}
		ds.Records = append(ds.Records, rec)
	}
	if len(ds.Records) == 0 {
		return nil, errors.New("no lesson records")
	}
	return ds, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// Students returns the distinct student identities in order of first
// appearance.
func (d *Dataset) Students() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		if !seen[r.Student] {
			seen[r.Student] = true
			out = append(out, r.Student)
		}
	}
	return out
}

// Filter returns the records of one student in input order.
func (d *Dataset) Filter(student string) []Record {
	var out []Record
	for _, r := range d.Records {
		if r.Student == student {
			out = append(out, r)
		}
	}
	return out
}
