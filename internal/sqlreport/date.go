package sqlreport

import (
	"time"

	"github.com/hupe1980/reportengine/internal/report"
)

// DateField is the filter field of date-scoped SQL reports.
const DateField = "date"

// DefaultLookbackDays is how far before today the default date range
// starts.
const DefaultLookbackDays = 30

// DateParams are the query parameters of a date-scoped SQL report.
func DateParams() []Param {
	return []Param{{Name: DateField, Label: "Date", Datatype: "datetime"}}
}

// DateMask returns the default mask of a date-scoped report: from 30 days
// before today up to, but excluding, tomorrow. Both bounds are formatted
// as dates and evaluated on every resolution using clock.
func DateMask(clock func() time.Time) report.Mask {
	if clock == nil {
		clock = time.Now
	}

	return report.Mask{
		DateField + "__gte": report.Deferred(func() any {
			return clock().AddDate(0, 0, -DefaultLookbackDays).Format(time.DateOnly)
		}),
		DateField + "__lt": report.Deferred(func() any {
			return clock().AddDate(0, 0, 1).Format(time.DateOnly)
		}),
	}
}

// DateDefinition returns def as a date-scoped report: DateField is set
// when empty and the date range defaults are added to the mask without
// replacing entries def already declares.
func DateDefinition(def report.Definition, clock func() time.Time) report.Definition {
	if def.DateField == "" {
		def.DateField = DateField
	}

	mask := make(report.Mask, len(def.DefaultMask)+2)
	for k, v := range DateMask(clock) {
		mask[k] = v
	}

	for k, v := range def.DefaultMask {
		mask[k] = v
	}

	def.DefaultMask = mask

	return def
}

// NewDate creates a source with the date parameter declared ahead of
// cfg.Params.
func NewDate(cfg Config) (*Source, error) {
	params := DateParams()

	for _, p := range cfg.Params {
		if p.Name != DateField {
			params = append(params, p)
		}
	}

	cfg.Params = params

	return New(cfg)
}
