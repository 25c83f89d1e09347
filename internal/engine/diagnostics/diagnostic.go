// Package diagnostics holds the problems found while analysing actions.
// Diagnostics are values: they are collected and reported, never thrown.
package diagnostics

import (
	"fmt"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// Span is a 1-based source range.
type Span struct {
	File        string
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	Span     Span
}

// New formats the descriptor message for kind with args.
func New(kind Kind, span Span, args ...interface{}) Diagnostic {
	d := kind.Descriptor()
	return Diagnostic{
		Kind:     kind,
		Severity: d.Severity,
		Message:  fmt.Sprintf(d.Format, args...),
		Span:     span,
	}
}

func (d Diagnostic) ID() string { return d.Kind.ID() }

func (d Diagnostic) File() string { return d.Span.File }

func (d Diagnostic) Line() int { return d.Span.StartLine }

func (d Diagnostic) Column() int { return d.Span.StartColumn }

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s %s: %s", d.Span.File, d.Span.StartLine, d.Span.StartColumn, d.Severity, d.ID(), d.Message)
}

// Bag accumulates diagnostics in the order they are reported.
type Bag struct {
	items []Diagnostic
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

func (b *Bag) Extend(ds []Diagnostic) {
	b.items = append(b.items, ds...)
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns a copy of the collected diagnostics.
func (b *Bag) Items() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// CountByID tallies diagnostics per id.
func (b *Bag) CountByID() map[string]int {
	counts := make(map[string]int)
	for _, d := range b.items {
		counts[d.ID()]++
	}
	return counts
}
