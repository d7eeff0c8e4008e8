// Package watch drives makewatch's rebuild loop. It watches the makefile and
// every prerequisite make reports, debounces bursts of changes, runs one
// traced build at a time, and grows the watch set from what each build
// reveals.
package watch
