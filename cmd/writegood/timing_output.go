package main

import (
	"fmt"
	"io"
)

// printTimings writes the phase summary when --timings is set.
func printTimings(out io.Writer, e *env) {
	if out == nil || e == nil || !e.timings {
		return
	}
	if _, err := fmt.Fprint(out, e.timer.Summary()); err != nil {
		e.logger.Debug("failed to print timings")
	}
}
