package report

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrNoDateField is returned when a date range is requested of a report
// without a DateField.
var ErrNoDateField = errors.New("report: no date field")

// Period is a calendar span used to scope date reports.
type Period string

// Supported periods.
const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(s)); p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q: must be one of day, week, month, year", s)
	}
}

// Range returns the half-open [start, end) span of p containing anchor.
// Weeks start on Monday.
func (p Period) Range(anchor time.Time) (time.Time, time.Time) {
	y, m, d := anchor.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, anchor.Location())

	switch p {
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)

		return start, start.AddDate(0, 0, 7)
	case PeriodMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, anchor.Location())
		return start, start.AddDate(0, 1, 0)
	case PeriodYear:
		start := time.Date(y, 1, 1, 0, 0, 0, 0, anchor.Location())
		return start, start.AddDate(1, 0, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// DateRangeData returns the filter input that scopes r to the period
// containing anchor, ready to merge into a Request's Data.
func (r *Report) DateRangeData(p Period, anchor time.Time) (url.Values, error) {
	if r.def.DateField == "" {
		return nil, fmt.Errorf("%s: %w", r.Ref(), ErrNoDateField)
	}

	start, end := p.Range(anchor)

	return url.Values{
		r.def.DateField + "__gte": {start.Format(time.DateOnly)},
		r.def.DateField + "__lt":  {end.Format(time.DateOnly)},
	}, nil
}
