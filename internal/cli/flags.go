package cli

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reportengine/internal/report"
)

// runOptions are the flags shared by the commands that execute a report.
type runOptions struct {
	format  string
	page    int
	orderBy string
	filters []string
	period  string
	date    string
}

// registerRunFlags adds the report execution flags to a cobra command.
func registerRunFlags(cmd *cobra.Command, opts *runOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "", "output format (default: the configured default-format)")
	f.IntVar(&opts.page, "page", 0, "1-based page of rows (0: all rows when the report allows it)")
	f.StringVar(&opts.orderBy, "order-by", "", "column to order by, prefix with - for descending")
	f.StringArrayVar(&opts.filters, "filter", nil, "filter value (key=value), repeatable")
	f.StringVar(&opts.period, "period", "", "restrict to the day, week, month or year around --date")
	f.StringVar(&opts.date, "date", "", "anchor date for --period (YYYY-MM-DD, default: today)")
}

// request builds the report request from the flags.
func (o *runOptions) request(r *report.Report, now time.Time) (report.Request, error) {
	data, err := parseFilters(o.filters)
	if err != nil {
		return report.Request{}, err
	}

	if o.period != "" {
		rangeData, err := o.dateRange(r, now)
		if err != nil {
			return report.Request{}, err
		}

		if data == nil {
			data = url.Values{}
		}

		for k, vs := range rangeData {
			if _, set := data[k]; !set {
				data[k] = vs
			}
		}
	} else if o.date != "" {
		return report.Request{}, fmt.Errorf("--date requires --period")
	}

	return report.Request{Data: data, OrderBy: o.orderBy, Page: o.page}, nil
}

func (o *runOptions) dateRange(r *report.Report, now time.Time) (url.Values, error) {
	p, err := report.ParsePeriod(o.period)
	if err != nil {
		return nil, err
	}

	anchor := now
	if o.date != "" {
		anchor, err = time.ParseInLocation(time.DateOnly, o.date, now.Location())
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", o.date)
		}
	}

	return r.DateRangeData(p, anchor)
}

// parseFilters converts key=value pairs to request data. Repeated keys
// accumulate. No pairs yields nil, which leaves the filter form unbound.
func parseFilters(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	data := url.Values{}

	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --filter %q: expected key=value", p)
		}

		data.Add(strings.TrimSpace(k), v)
	}

	return data, nil
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string

	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
