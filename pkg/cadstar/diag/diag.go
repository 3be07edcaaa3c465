// Package diag collects the messages an import emits while it degrades or
// skips archive content.
package diag

import (
	"context"
	"fmt"
	"log/slog"
)

// Severity of a diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Placement tells a report viewer where a message belongs.
type Placement int

const (
	Body Placement = iota
	Head
	Tail
)

// String returns a human-readable placement name.
func (p Placement) String() string {
	switch p {
	case Head:
		return "head"
	case Body:
		return "body"
	case Tail:
		return "tail"
	default:
		return "unknown"
	}
}

// Reporter receives diagnostics.
type Reporter interface {
	Report(message string, severity Severity, placement Placement)
}

// Diagnostic is a single recorded message.
type Diagnostic struct {
	Message   string
	Severity  Severity
	Placement Placement
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Collector records diagnostics in arrival order.
type Collector struct {
	Items []Diagnostic
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report implements Reporter.
func (c *Collector) Report(message string, severity Severity, placement Placement) {
	c.Items = append(c.Items, Diagnostic{Message: message, Severity: severity, Placement: placement})
}

// Count returns how many diagnostics have the given severity.
func (c *Collector) Count(severity Severity) int {
	n := 0
	for _, d := range c.Items {
		if d.Severity == severity {
			n++
		}
	}
	return n
}

// Filter returns the diagnostics with the given severity.
func (c *Collector) Filter(severity Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.Items {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

// Ordered returns head messages first, then body, then tail, each group in
// arrival order.
func (c *Collector) Ordered() []Diagnostic {
	out := make([]Diagnostic, 0, len(c.Items))
	for _, p := range []Placement{Head, Body, Tail} {
		for _, d := range c.Items {
			if d.Placement == p {
				out = append(out, d)
			}
		}
	}
	return out
}

// LogReporter forwards diagnostics to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

// Report implements Reporter.
func (l LogReporter) Report(message string, severity Severity, placement Placement) {
	level := slog.LevelInfo
	switch severity {
	case Warning:
		level = slog.LevelWarn
	case Error:
		level = slog.LevelError
	}
	l.Logger.Log(context.Background(), level, message, "placement", placement.String())
}

// Multi fans a diagnostic out to several reporters.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(message string, severity Severity, placement Placement) {
	for _, r := range m {
		r.Report(message, severity, placement)
	}
}

// Discard drops every diagnostic.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(string, Severity, Placement) {}
