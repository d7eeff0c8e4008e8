// Package output renders what makewatch shows the user.
//
// A [Printer] writes leveled status lines for the watch loop, each prefixed
// with a symbol and optionally styled. The trace encoders print classified
// trace lines as text, JSON, or YAML for the trace command.
package output
