// Package rules holds the vulnerability rule catalog: rule definitions,
// their matchers and remediation transforms, and the immutable Catalog
// the scanner reads from.
package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/raysh454/owaspscan/internal/model"
)

// ErrInvalidRule is wrapped by every rule validation failure.
var ErrInvalidRule = errors.New("invalid rule")

// ErrUnknownRule is returned when an option names a rule ID that is not
// part of the rule set.
var ErrUnknownRule = errors.New("unknown rule")

// RuleError describes why a rule failed validation.
type RuleError struct {
	ID     string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q: %s", e.ID, e.Reason)
}

func (e *RuleError) Unwrap() error { return ErrInvalidRule }

// MatcherKind selects how a rule is evaluated.
type MatcherKind int

const (
	// MatchLine evaluates Pattern against each line.
	MatchLine MatcherKind = iota
	// MatchWindow evaluates Pattern against Window adjacent lines
	// joined with '\n'.
	MatchWindow
	// MatchPredicate calls Predicate once with the whole document.
	MatchPredicate
)

func (k MatcherKind) String() string {
	switch k {
	case MatchLine:
		return "line"
	case MatchWindow:
		return "window"
	case MatchPredicate:
		return "predicate"
	}
	return fmt.Sprintf("MatcherKind(%d)", int(k))
}

// Predicate inspects a whole document and returns 0-indexed line
// numbers where the rule matches.
type Predicate func(doc *model.Document, lang model.Language) []int

// Matcher is the detection half of a rule.
type Matcher struct {
	Kind MatcherKind

	// Pattern is required for MatchLine and MatchWindow.
	Pattern *regexp.Regexp

	// Exclude suppresses a match when it also matches the same line or
	// window. Optional.
	Exclude *regexp.Regexp

	// Window is the number of lines per window for MatchWindow (>= 2).
	Window int

	// Predicate is required for MatchPredicate.
	Predicate Predicate

	// Comments makes the scanner evaluate comment-only lines too.
	Comments bool
}

// Fix rewrites the matched fragment into its remediated form. It may
// return a different number of lines. A fix that does not apply returns
// the fragment unchanged.
type Fix func(fragment []string, lang model.Language) []string

// Rule is one catalog entry.
type Rule struct {
	ID       string
	Category model.Category
	Name     string
	Severity model.Severity

	// Languages restricts the rule; empty means any language.
	Languages []model.Language

	Matcher        Matcher
	Description    string
	Recommendation string
	Fix            Fix
}

// AppliesTo reports whether the rule runs for lang.
func (r Rule) AppliesTo(lang model.Language) bool {
	if len(r.Languages) == 0 {
		return true
	}
	for _, l := range r.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Type is the finding type label, "<category name>: <rule name>".
func (r Rule) Type() string {
	return r.Category.Name() + ": " + r.Name
}

func (r Rule) validate() error {
	fail := func(reason string) error { return &RuleError{ID: r.ID, Reason: reason} }
	if r.ID == "" {
		return fail("empty id")
	}
	if !r.Category.Valid() {
		return fail(fmt.Sprintf("category %d out of range", int(r.Category)))
	}
	if !r.Severity.Valid() {
		return fail(fmt.Sprintf("unknown severity %q", r.Severity))
	}
	if r.Name == "" {
		return fail("empty name")
	}
	if r.Fix == nil {
		return fail("nil fix")
	}
	switch r.Matcher.Kind {
	case MatchLine:
		if r.Matcher.Pattern == nil {
			return fail("line matcher without pattern")
		}
	case MatchWindow:
		if r.Matcher.Pattern == nil {
			return fail("window matcher without pattern")
		}
		if r.Matcher.Window < 2 {
			return fail(fmt.Sprintf("window size %d, need at least 2", r.Matcher.Window))
		}
	case MatchPredicate:
		if r.Matcher.Predicate == nil {
			return fail("predicate matcher without predicate")
		}
	default:
		return fail("unknown matcher kind " + r.Matcher.Kind.String())
	}
	return nil
}
