// Package catalog keeps the reports known to a process, addressed by
// namespace and slug, and loads report definitions from YAML files.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/reportengine/internal/report"
)

var (
	// ErrNotFound is returned for an unknown namespace/slug.
	ErrNotFound = errors.New("catalog: report not found")

	// ErrDuplicate is returned when a namespace/slug is registered twice.
	ErrDuplicate = errors.New("catalog: duplicate report")
)

// Catalog is a concurrency-safe registry of reports.
type Catalog struct {
	mu      sync.RWMutex
	reports map[string]*report.Report
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{reports: make(map[string]*report.Report)}
}

// Register adds reports. Nothing is added when any of them collides with a
// registered report or with another one in the same call.
func (c *Catalog) Register(reports ...*report.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := make(map[string]bool, len(reports))

	for _, r := range reports {
		ref := r.Ref()
		if _, exists := c.reports[ref]; exists || batch[ref] {
			return fmt.Errorf("%w %q", ErrDuplicate, ref)
		}

		batch[ref] = true
	}

	for _, r := range reports {
		c.reports[r.Ref()] = r
	}

	return nil
}

// Replace swaps the whole content of the catalog.
func (c *Catalog) Replace(reports ...*report.Report) error {
	next := New()
	if err := next.Register(reports...); err != nil {
		return err
	}

	c.mu.Lock()
	c.reports = next.reports
	c.mu.Unlock()

	return nil
}

// Get returns the report registered under namespace and slug.
func (c *Catalog) Get(namespace, slug string) (*report.Report, error) {
	c.mu.RLock()
	r, ok := c.reports[namespace+"/"+slug]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, slug)
	}

	return r, nil
}

// Lookup resolves a "namespace/slug" reference. A bare slug resolves in
// the default namespace.
func (c *Catalog) Lookup(ref string) (*report.Report, error) {
	ns, slug, ok := strings.Cut(ref, "/")
	if !ok {
		ns, slug = report.DefaultNamespace, ref
	}

	return c.Get(ns, slug)
}

// List returns every report sorted by namespace, then verbose name, then
// slug.
func (c *Catalog) List() []*report.Report {
	c.mu.RLock()
	out := make([]*report.Report, 0, len(c.reports))

	for _, r := range c.reports {
		out = append(out, r)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]

		if a.Namespace() != b.Namespace() {
			return a.Namespace() < b.Namespace()
		}

		if a.VerboseName() != b.VerboseName() {
			return a.VerboseName() < b.VerboseName()
		}

		return a.Slug() < b.Slug()
	})

	return out
}

// Namespaces returns the sorted namespaces with at least one report.
func (c *Catalog) Namespaces() []string {
	seen := map[string]bool{}

	var out []string

	for _, r := range c.List() {
		if !seen[r.Namespace()] {
			seen[r.Namespace()] = true
			out = append(out, r.Namespace())
		}
	}

	return out
}

// Len returns the number of registered reports.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.reports)
}
