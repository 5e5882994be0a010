package config

import (
	"fmt"
	"slices"
)

// DiagnosticSeverity ranks a manifest problem.
type DiagnosticSeverity string

const (
	SeverityError   DiagnosticSeverity = "error"
	SeverityWarning DiagnosticSeverity = "warning"
	SeverityInfo    DiagnosticSeverity = "info"
)

// Diagnostic is one manifest problem, located by a path such as passes[1].source.
type Diagnostic struct {
	Severity   DiagnosticSeverity `json:"severity"`
	Message    string             `json:"message"`
	Path       string             `json:"path,omitempty"`
	Suggestion string             `json:"suggestion,omitempty"`
}

// String renders "path: message (suggestion)", omitting empty parts.
func (d Diagnostic) String() string {
	s := d.Message
	if d.Path != "" {
		s = d.Path + ": " + s
	}
	if d.Suggestion != "" {
		s = fmt.Sprintf("%s (%s)", s, d.Suggestion)
	}
	return s
}

// Diagnostics collects the problems found while loading a manifest.
// The zero value is ready to use.
type Diagnostics struct {
	items []Diagnostic
}

// NewDiagnostics returns an empty collection.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Add records a diagnostic.
func (d *Diagnostics) Add(severity DiagnosticSeverity, message, path, suggestion string) {
	d.items = append(d.items, Diagnostic{Severity: severity, Message: message, Path: path, Suggestion: suggestion})
}

func (d *Diagnostics) AddError(message, path, suggestion string) {
	d.Add(SeverityError, message, path, suggestion)
}

func (d *Diagnostics) AddWarning(message, path, suggestion string) {
	d.Add(SeverityWarning, message, path, suggestion)
}

func (d *Diagnostics) AddInfo(message, path, suggestion string) {
	d.Add(SeverityInfo, message, path, suggestion)
}

func (d *Diagnostics) has(severity DiagnosticSeverity) bool {
	return slices.ContainsFunc(d.items, func(item Diagnostic) bool { return item.Severity == severity })
}

// HasErrors reports whether the manifest is unusable.
func (d *Diagnostics) HasErrors() bool {
	return d.has(SeverityError)
}

func (d *Diagnostics) HasWarnings() bool {
	return d.has(SeverityWarning)
}

// Items returns every diagnostic in the order found.
func (d *Diagnostics) Items() []Diagnostic {
	return slices.Clone(d.items)
}

// Errors returns only the error diagnostics.
func (d *Diagnostics) Errors() []Diagnostic {
	var errs []Diagnostic
	for _, item := range d.items {
		if item.Severity == SeverityError {
			errs = append(errs, item)
		}
	}
	return errs
}
