package model

import "strings"

// Document is a submitted source blob and its lines. Lines are split
// on '\n' only, so a trailing '\r' stays part of the line and joining
// Lines with '\n' reproduces Text exactly.
type Document struct {
	Text  string
	Lines []string
}

// NewDocument splits text into lines. Empty text yields one empty line.
func NewDocument(text string) *Document {
	return &Document{Text: text, Lines: strings.Split(text, "\n")}
}

// LineCount is the number of lines, always at least 1.
func (d *Document) LineCount() int { return len(d.Lines) }

// Line returns the 1-indexed line n, or "" when n is out of range.
func (d *Document) Line(n int) string {
	if n < 1 || n > len(d.Lines) {
		return ""
	}
	return d.Lines[n-1]
}

// Slice returns the 1-indexed inclusive range [from, to], clamped to the
// document.
func (d *Document) Slice(from, to int) []string {
	if from < 1 {
		from = 1
	}
	if to > len(d.Lines) {
		to = len(d.Lines)
	}
	if from > to {
		return nil
	}
	return d.Lines[from-1 : to]
}

// IsBlank reports whether text has no non-whitespace content.
func IsBlank(text string) bool { return strings.TrimSpace(text) == "" }
