// Package watch reloads report definitions while they are edited. It
// monitors definition files and directories, debounces rapid events, and
// re-runs the reload callback after each quiet period.
package watch
