package config

import (
	"fmt"
	"regexp"
	"sort"

	sigsyaml "sigs.k8s.io/yaml"
)

// Overrides holds per-report adjustments loaded from the "reports" section
// of the config file (.reportengine.yaml), keyed by "namespace/slug".
type Overrides struct {
	Reports map[string]ReportOverride `json:"reports,omitempty"`
}

// ReportOverride adjusts one report definition at load time.
type ReportOverride struct {
	// Disabled drops the report from the catalog.
	Disabled bool `json:"disabled,omitempty"`

	// PerPage replaces the page size.
	PerPage int `json:"perPage,omitempty"`

	// Formats replaces the offered output formats.
	Formats []string `json:"formats,omitempty"`

	// Mask adds or replaces default filter values.
	Mask map[string]any `json:"mask,omitempty"`
}

// refPattern matches a "namespace/slug" reference.
var refPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*/[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ParseOverrides extracts the reports section from raw config file bytes.
func ParseOverrides(data []byte) (*Overrides, error) {
	var raw struct {
		Reports map[string]ReportOverride `json:"reports,omitempty"`
	}

	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing report overrides: %w", err)
	}

	o := &Overrides{Reports: raw.Reports}

	if err := o.Validate(); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate checks the override references and values.
func (o *Overrides) Validate() error {
	for _, ref := range o.Refs() {
		if !refPattern.MatchString(ref) {
			return fmt.Errorf("reports[%s]: invalid reference (must be namespace/slug)", ref)
		}

		if o.Reports[ref].PerPage < 0 {
			return fmt.Errorf("reports[%s]: perPage must not be negative", ref)
		}
	}

	return nil
}

// Refs returns the overridden report references in sorted order.
func (o *Overrides) Refs() []string {
	refs := make([]string, 0, len(o.Reports))
	for ref := range o.Reports {
		refs = append(refs, ref)
	}

	sort.Strings(refs)

	return refs
}

// For returns the override of ref.
func (o *Overrides) For(ref string) (ReportOverride, bool) {
	if o == nil {
		return ReportOverride{}, false
	}

	ov, ok := o.Reports[ref]

	return ov, ok
}

// IsEmpty returns true if no report is overridden.
func (o *Overrides) IsEmpty() bool {
	return o == nil || len(o.Reports) == 0
}
