// Package chart provides the built-in report charts. A chart draws the
// report schema and rows into a Config: the first column supplies the
// point labels and every further column becomes one series.
package chart

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/hupe1980/reportengine/internal/report"
)

var (
	// ErrUnknownKind is returned for an unsupported chart kind.
	ErrUnknownKind = errors.New("chart: unknown kind")

	// ErrTooFewColumns is returned when the data has no value column.
	ErrTooFewColumns = errors.New("chart: need a label column and at least one value column")

	// ErrNotNumeric is returned when a series value cannot be plotted.
	ErrNotNumeric = errors.New("chart: value is not numeric")
)

// Kind is the chart type.
type Kind string

// Chart kinds.
const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindArea Kind = "area"
	KindPie  Kind = "pie"
)

// Kinds returns every supported kind.
func Kinds() []Kind { return []Kind{KindArea, KindBar, KindLine, KindPie} }

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))

	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Config is a drawn chart, ready for a frontend or an output format.
type Config struct {
	ChartType  string   `json:"chartType"`
	Title      string   `json:"title"`
	XAxis      string   `json:"xAxis,omitempty"`
	YAxis      string   `json:"yAxis,omitempty"`
	Series     []Series `json:"series"`
	Colors     []string `json:"colors,omitempty"`
	ShowLegend bool     `json:"showLegend"`
	ShowGrid   bool     `json:"showGrid"`
}

// Series is one plotted column.
type Series struct {
	Name  string  `json:"name"`
	Data  []Point `json:"data"`
	Color string  `json:"color,omitempty"`
}

// Point is a single data point.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Chart is a report.Chart of one kind.
type Chart struct {
	Kind  Kind
	Title string
}

// New creates a chart.
func New(kind Kind, title string) (*Chart, error) {
	k, err := ParseKind(string(kind))
	if err != nil {
		return nil, err
	}

	return &Chart{Kind: k, Title: title}, nil
}

// Bar returns a bar chart.
func Bar(title string) *Chart { return &Chart{Kind: KindBar, Title: title} }

// Line returns a line chart.
func Line(title string) *Chart { return &Chart{Kind: KindLine, Title: title} }

// Pie returns a pie chart.
func Pie(title string) *Chart { return &Chart{Kind: KindPie, Title: title} }

// Name implements report.Chart.
func (c *Chart) Name() string {
	if c.Title != "" {
		return c.Title
	}

	return string(c.Kind) + " chart"
}

// Draw implements report.Chart. The "title" parameter overrides the
// chart title and "colors" ([]string) the palette. A pie chart plots only
// the first value column.
func (c *Chart) Draw(schema []report.Column, data []report.Row, params map[string]any) (any, error) {
	if len(schema) < 2 {
		return nil, ErrTooFewColumns
	}

	title := c.Title
	if t, ok := params["title"]; ok {
		title = cast.ToString(t)
	}

	valueCols := schema[1:]
	if c.Kind == KindPie {
		valueCols = valueCols[:1]
	}

	cfg := &Config{
		ChartType:  string(c.Kind),
		Title:      title,
		XAxis:      schema[0].DisplayLabel(),
		ShowLegend: true,
		ShowGrid:   c.Kind != KindPie,
	}

	if len(valueCols) == 1 {
		cfg.YAxis = valueCols[0].DisplayLabel()
	}

	cfg.Series = make([]Series, len(valueCols))
	for i, col := range valueCols {
		cfg.Series[i] = Series{Name: col.DisplayLabel(), Data: make([]Point, 0, len(data))}
	}

	for r, row := range data {
		if len(row) < len(valueCols)+1 {
			return nil, fmt.Errorf("chart: row %d has %d values, want %d", r, len(row), len(valueCols)+1)
		}

		label := pointLabel(row[0])

		for i := range valueCols {
			v, err := toValue(row[i+1])
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", r, valueCols[i].ID, err)
			}

			cfg.Series[i].Data = append(cfg.Series[i].Data, Point{Label: label, Value: v})
		}
	}

	palette := defaultColors
	if colors, err := cast.ToStringSliceE(params["colors"]); err == nil && len(colors) > 0 {
		palette = colors
	}

	cfg.Colors = assignColors(palette, len(cfg.Series))
	for i := range cfg.Series {
		cfg.Series[i].Color = cfg.Colors[i]
	}

	return cfg, nil
}

func pointLabel(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}

		return t.Format(time.RFC3339)
	default:
		return cast.ToString(v)
	}
}

func toValue(v any) (float64, error) {
	if v == nil {
		return 0, nil
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, v)
	}

	return roundTo2(f), nil
}

func roundTo2(f float64) float64 {
	return math.Round(f*100) / 100
}

func assignColors(palette []string, n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = palette[i%len(palette)]
	}

	return colors
}

var _ report.Chart = (*Chart)(nil)
