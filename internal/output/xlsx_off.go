//go:build !xlsx

package output

// XLSX reports the spreadsheet export as unavailable. Build with
// -tags xlsx to include it.
func XLSX() (Format, bool) { return nil, false }
