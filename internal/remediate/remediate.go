// Package remediate applies rule fixes to a document and produces the
// secure rewrite.
package remediate

import (
	"sort"
	"strings"

	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/rules"
)

// Lookup resolves the rule behind a finding. *rules.Catalog satisfies it.
type Lookup interface {
	Lookup(id string) (rules.Rule, bool)
}

// span is the half-open range of working lines an original line maps to.
type span struct{ start, end int }

// Remediate rewrites doc by applying the fix of every finding, in
// (line, rule order) order, to a working copy. Each fix sees the text as
// rewritten by the fixes before it. Without findings the original text
// is returned unchanged.
func Remediate(doc *model.Document, lang model.Language, findings []model.Finding, lookup Lookup) string {
	if len(findings) == 0 {
		return doc.Text
	}

	ordered := append([]model.Finding(nil), findings...)
	sort.SliceStable(ordered, func(i, j int) bool { return model.Less(ordered[i], ordered[j]) })

	working := append([]string(nil), doc.Lines...)
	spans := make([]span, len(doc.Lines))
	for i := range spans {
		spans[i] = span{start: i, end: i + 1}
	}

	for _, f := range ordered {
		r, ok := lookup.Lookup(f.RuleID)
		if !ok || f.Line < 1 || f.EndLine < f.Line || f.EndLine > len(spans) {
			continue
		}
		from, to := spans[f.Line-1].start, spans[f.EndLine-1].end
		if to <= from {
			continue
		}
		fragment := append([]string(nil), working[from:to]...)
		out, ok := apply(r.Fix, fragment, lang)
		if !ok || equal(out, working[from:to]) {
			continue
		}

		rest := append([]string(nil), working[to:]...)
		working = append(append(working[:from], out...), rest...)
		collapse(spans, from, to, len(out))
	}
	return strings.Join(working, "\n")
}

// collapse updates spans after working[from:to] was replaced by n lines.
// Spans touching the replaced range collapse onto the new range; spans
// after it shift by the line delta.
func collapse(spans []span, from, to, n int) {
	delta := n - (to - from)
	for i, s := range spans {
		switch {
		case s.start < to && s.end > from, s.start == s.end && s.start >= from && s.start < to:
			spans[i] = span{start: from, end: from + n}
		case s.start >= to:
			spans[i] = span{start: s.start + delta, end: s.end + delta}
		}
	}
}

// apply runs a fix, treating a panic as a fix that does not apply.
func apply(fix rules.Fix, fragment []string, lang model.Language) (out []string, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = nil, false
		}
	}()
	return fix(fragment, lang), true
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
