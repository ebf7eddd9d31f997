package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/errors"
)

// DiagnosticReporter renders failed passes for humans
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
	colors  bool
}

// NewDiagnosticReporter creates a reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: os.Stderr, colors: !color.NoColor}
}

// NewDiagnosticReporterTo creates an uncolored reporter writing to w
func NewDiagnosticReporterTo(w io.Writer, verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: w}
}

// ReportWarning prints a single warning line
func (r *DiagnosticReporter) ReportWarning(message string) {
	r.paint(color.FgYellow, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
}

// ReportError prints every error collected in err, grouped by code
func (r *DiagnosticReporter) ReportError(err error) {
	if err == nil {
		return
	}
	flat := flatten(err)
	fmt.Fprintf(r.out, "\n")
	r.paint(color.FgRed, "ERROR: ")
	if len(flat) == 1 {
		fmt.Fprintf(r.out, "Code generation failed\n\n")
	} else {
		fmt.Fprintf(r.out, "Code generation failed with %d errors\n\n", len(flat))
	}

	for i, e := range flat {
		if len(flat) > 1 {
			fmt.Fprintf(r.out, "%d. ", i+1)
		}
		switch typed := e.(type) {
		case errors.StrataError:
			r.reportStrataError(typed)
		case annotations.AnnotationError:
			r.reportAnnotationError(typed)
		default:
			fmt.Fprintf(r.out, "%s\n\n", e.Error())
		}
	}

	if codes := r.codeCounts(flat); len(codes) > 1 {
		fmt.Fprintf(r.out, "By kind:\n")
		for _, line := range codes {
			fmt.Fprintf(r.out, "   %s\n", line)
		}
		fmt.Fprintf(r.out, "\n")
	}
}

func (r *DiagnosticReporter) reportStrataError(e errors.StrataError) {
	r.paint(color.FgMagenta, "[%s] ", e.ErrorCode())
	fmt.Fprintf(r.out, "%s\n", message(e))
	if loc := e.Location(); !loc.IsEmpty() {
		fmt.Fprintf(r.out, "   at %s\n", loc)
	}
	if r.verbose {
		r.printContext(e.Context())
		if cause := e.Unwrap(); cause != nil {
			fmt.Fprintf(r.out, "   cause: %v\n", cause)
		}
	}
	r.printSuggestions(e.Suggestions())
	fmt.Fprintf(r.out, "\n")
}

func (r *DiagnosticReporter) reportAnnotationError(e annotations.AnnotationError) {
	r.paint(color.FgMagenta, "[%s] ", e.Code())
	fmt.Fprintf(r.out, "%s\n", e.Error())
	if loc := e.Location(); loc.File != "" {
		fmt.Fprintf(r.out, "   at %s:%d:%d\n", loc.File, loc.Line, loc.Column)
	}
	if hint := e.Suggestion(); hint != "" {
		r.printSuggestions([]string{hint})
	}
	fmt.Fprintf(r.out, "\n")
}

// printContext prints context information in a readable format, keys sorted
func (r *DiagnosticReporter) printContext(context map[string]interface{}) {
	if len(context) == 0 {
		return
	}
	keys := make([]string, 0, len(context))
	for key := range context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(r.out, "   %s: %v\n", formatContextKey(key), context[key])
	}
}

// printSuggestions prints actionable suggestions
func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	for _, suggestion := range suggestions {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(r.out, "   hint: %s\n", lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.out, "         %s\n", line)
			}
		}
	}
}

func (r *DiagnosticReporter) codeCounts(flat []error) []string {
	counts := make(map[string]int)
	for _, e := range flat {
		var code string
		switch typed := e.(type) {
		case errors.StrataError:
			code = typed.ErrorCode().String()
		case annotations.AnnotationError:
			code = typed.Code().String()
		default:
			code = "Other"
		}
		counts[code]++
	}
	lines := make([]string, 0, len(counts))
	for code, n := range counts {
		lines = append(lines, fmt.Sprintf("%s: %d", code, n))
	}
	sort.Strings(lines)
	return lines
}

func (r *DiagnosticReporter) paint(attr color.Attribute, format string, args ...interface{}) {
	if !r.colors {
		fmt.Fprintf(r.out, format, args...)
		return
	}
	color.New(attr, color.Bold).Fprintf(r.out, format, args...)
}

// message drops the location prefix Error() adds, since it is printed on
// its own line
func message(e errors.StrataError) string {
	msg := e.Error()
	if loc := e.Location(); !loc.IsEmpty() {
		msg = strings.TrimPrefix(msg, loc.String()+": ")
	}
	return msg
}

// flatten expands the error collections of every package into one list
func flatten(err error) []error {
	switch typed := err.(type) {
	case *errors.MultipleErrors:
		var out []error
		for _, e := range typed.Errors {
			out = append(out, flatten(e)...)
		}
		return out
	case *annotations.MultipleAnnotationErrors:
		var out []error
		for _, e := range typed.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// formatContextKey converts snake_case to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
