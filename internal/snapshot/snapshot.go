package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hupe1980/reportengine/internal/output"
	"github.com/hupe1980/reportengine/internal/report"
)

// ErrNoBaseline is returned when a report has no stored rendering yet.
var ErrNoBaseline = errors.New("snapshot: no baseline")

// Store keeps one baseline per report and format under Dir, at
// <namespace>/<slug>.<extension>.
type Store struct {
	Dir    string
	Logger *slog.Logger
}

// Path returns the baseline file of r rendered as f.
func (s Store) Path(r *report.Report, f output.Format) string {
	return filepath.Join(s.Dir, r.Namespace(), r.Slug()+"."+f.Extension())
}

// Load reads the baseline of r rendered as f.
func (s Store) Load(r *report.Report, f output.Format) ([]byte, error) {
	path := s.Path(r, f)

	data, err := os.ReadFile(path) //nolint:gosec // baseline paths derive from the configured directory
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w for %s at %s", ErrNoBaseline, r.Ref(), path)
	}

	if err != nil {
		return nil, fmt.Errorf("reading baseline: %w", err)
	}

	return data, nil
}

// Save stores data as the baseline of r rendered as f.
func (s Store) Save(r *report.Report, f output.Format, data []byte) error {
	return output.NewFileWriter(s.Path(r, f), output.WithLogger(s.Logger)).Write(data)
}

// Comparison is the outcome of checking one report against its baseline.
type Comparison struct {
	Report  *report.Report
	Format  output.Format
	Current []byte
	Diff    *DiffResult
}

// Compare renders r as f and diffs it against the stored baseline. A
// missing baseline diffs against empty content and wraps ErrNoBaseline in
// the returned error alongside the comparison.
func (s Store) Compare(ctx context.Context, r *report.Report, req report.Request, f output.Format) (*Comparison, error) {
	current, err := output.Execute(ctx, r, req, f, nil)
	if err != nil {
		return nil, err
	}

	baseline, loadErr := s.Load(r, f)
	if loadErr != nil && !errors.Is(loadErr, ErrNoBaseline) {
		return nil, loadErr
	}

	opts := DefaultDiffOptions()
	opts.OldLabel = s.Path(r, f)
	opts.NewLabel = r.Ref() + " (" + f.Name() + ")"

	diff, err := ComputeDiff(string(baseline), string(current), opts)
	if err != nil {
		return nil, err
	}

	return &Comparison{Report: r, Format: f, Current: current, Diff: diff}, loadErr
}
