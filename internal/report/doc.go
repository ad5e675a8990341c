// Package report is the report abstraction layer.
//
// A [Report] pairs an immutable schema (labels and typed columns) with a data
// source strategy, a default filter mask, the output formats it can be
// rendered in, and declared chart groups. Three kinds of [Source] share one
// contract: query-backed sources (package queryset), raw SQL sources (package
// sqlreport) and arbitrary code ([SourceFunc], [StaticSource]).
//
// An invocation always runs in the same order: the default mask is resolved,
// the filter form is validated, rows and aggregates are fetched, and the
// charts applicable to the chosen output format are selected and adapted to
// their declared column subset. [Report.Run] performs all of it.
package report
