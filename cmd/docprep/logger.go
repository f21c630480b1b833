package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/wudi/docprep/observability"
)

// stderrLogger adapts the library's structured logging contract to plain
// stderr lines for the CLI.
type stderrLogger struct {
	fields []observability.Field
}

func (l stderrLogger) log(level, msg string, fields []observability.Field) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", level, msg)
	for _, f := range append(l.fields, fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(os.Stderr, b.String())
}

func (l stderrLogger) Debug(msg string, fields ...observability.Field) { l.log("DEBUG", msg, fields) }
func (l stderrLogger) Info(msg string, fields ...observability.Field)  { l.log("INFO", msg, fields) }
func (l stderrLogger) Warn(msg string, fields ...observability.Field)  { l.log("WARN", msg, fields) }
func (l stderrLogger) Error(msg string, fields ...observability.Field) { l.log("ERROR", msg, fields) }

func (l stderrLogger) With(fields ...observability.Field) observability.Logger {
	return stderrLogger{fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}
