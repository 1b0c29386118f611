package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// Period is the reporting month of a batch. YearText and MonthText keep the
// digits as written in a YYYY-MM-DD lesson date ("07"); when empty the
// numbers are printed unpadded.
type Period struct {
	Year    int
	Month   int
	LastDay int

	YearText  string
	MonthText string
}

// Period derives the reporting month from the first record's lesson date.
func (d *Dataset) Period() (Period, error) {
	if len(d.Records) == 0 {
		return Period{}, errors.New("no lesson records")
	}
	return PeriodOf(d.Records[0].Date)
}

// PeriodOf parses a lesson date such as "2023-07-03". Bare numbers are taken
// as spreadsheet date serials.
func PeriodOf(date string) (Period, error) {
	date = strings.TrimSpace(date)
	var (
		t   time.Time
		err error
	)
	if serial, perr := strconv.ParseFloat(date, 64); perr == nil && serial > 0 && serial < 100000 {
		t, err = excelize.ExcelDateToTime(serial, false)
	} else {
		t, err = dateparse.ParseAny(date)
	}
	if err != nil {
		return Period{}, fmt.Errorf("parse lesson date %q: %w", date, err)
	}
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	p := Period{Year: t.Year(), Month: int(t.Month()), LastDay: last}
	if parts := strings.SplitN(date, "-", 3); len(parts) == 3 {
		y, yerr := strconv.Atoi(parts[0])
		m, merr := strconv.Atoi(parts[1])
		if yerr == nil && merr == nil && y == p.Year && m == p.Month {
			p.YearText, p.MonthText = parts[0], parts[1]
		}
	}
	return p, nil
}

func (p Period) YearString() string {
	if p.YearText != "" {
		return p.YearText
	}
	return strconv.Itoa(p.Year)
}

func (p Period) MonthString() string {
	if p.MonthText != "" {
		return p.MonthText
	}
	return strconv.Itoa(p.Month)
}

func (p Period) LastDayString() string { return strconv.Itoa(p.LastDay) }
