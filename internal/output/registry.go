package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps format names to formats, letting the CLI resolve the
// --format flag and a report's declared output formats.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Format
}

// NewRegistry creates an empty format registry.
func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]Format),
	}
}

// Register adds f under its name. An existing entry with the same name is
// overwritten.
func (r *Registry) Register(f Format) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.formats[f.Name()] = f
}

// Format returns the format called name.
func (r *Registry) Format(name string) (Format, error) {
	r.mu.RLock()
	f, ok := r.formats[strings.ToLower(name)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, r.AvailableFormats())
	}

	return f, nil
}

// Formats returns the sorted list of registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// AvailableFormats returns a comma-separated string of registered format names.
func (r *Registry) AvailableFormats() string {
	formats := r.Formats()
	if len(formats) == 0 {
		return "none"
	}

	return strings.Join(formats, ", ")
}

// DefaultRegistry returns a registry with every built-in format: admin,
// csv, json, yaml, parquet, and xlsx when compiled in.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	for _, f := range []Format{Admin(), CSV(), JSON(), YAML(), Parquet()} {
		r.Register(f)
	}

	if x, ok := XLSX(); ok {
		r.Register(x)
	}

	return r
}
