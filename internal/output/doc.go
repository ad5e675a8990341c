// Package output renders report results and writes them out.
//
// The package is organized around three concerns:
//
//   - Formats (format.go and one file per format): admin, csv, json, yaml,
//     parquet and, in binaries built with the xlsx tag, xlsx. Each format
//     declares whether it embeds charts.
//
//   - Registry (registry.go): name lookup for the --format flag and for the
//     output formats a report definition declares.
//
//   - Writers (writer.go): the [Writer] destinations, [StreamWriter] for
//     stdout and [FileWriter] for files.
package output
