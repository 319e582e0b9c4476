// Package scanner evaluates catalog rules against a document and
// produces ordered findings.
package scanner

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/raysh454/owaspscan/internal/logging"
	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/rules"
)

const (
	DefaultSnippetWidth  = 200
	DefaultMaxLineLength = 4096

	// nulProbe is how far into a line the binary guard looks for NUL.
	nulProbe = 512
)

// Scanner runs every applicable rule over a document. It holds no
// per-scan state and is safe for concurrent use.
type Scanner struct {
	catalog       *rules.Catalog
	snippetWidth  int
	maxLineLength int
	logger        logging.Logger
}

type Option func(*Scanner)

// WithSnippetWidth caps snippets at n runes. Values below 1 are ignored.
func WithSnippetWidth(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.snippetWidth = n
		}
	}
}

// WithMaxLineLength skips lines longer than n bytes. Values below 1 are
// ignored.
func WithMaxLineLength(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxLineLength = n
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scanner over catalog.
func New(catalog *rules.Catalog, opts ...Option) *Scanner {
	s := &Scanner{
		catalog:       catalog,
		snippetWidth:  DefaultSnippetWidth,
		maxLineLength: DefaultMaxLineLength,
		logger:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.Component("scanner"))
	return s
}

// Scan returns the findings for doc under lang, sorted by line and then
// by rule registration order.
func (s *Scanner) Scan(doc *model.Document, lang model.Language) []model.Finding {
	applicable := s.catalog.RulesFor(lang)
	var findings []model.Finding
	for _, r := range applicable {
		findings = append(findings, s.evaluate(r, s.catalog.Index(r.ID), doc, lang)...)
	}
	sort.SliceStable(findings, func(i, j int) bool { return model.Less(findings[i], findings[j]) })

	s.logger.Debug("scan complete",
		logging.Field{Key: "language", Value: string(lang)},
		logging.Field{Key: "lines", Value: doc.LineCount()},
		logging.Field{Key: "rules", Value: len(applicable)},
		logging.Field{Key: "findings", Value: len(findings)},
	)
	return findings
}

func (s *Scanner) evaluate(r rules.Rule, idx int, doc *model.Document, lang model.Language) []model.Finding {
	switch r.Matcher.Kind {
	case rules.MatchLine:
		return s.matchLines(r, idx, doc, lang)
	case rules.MatchWindow:
		return s.matchWindows(r, idx, doc, lang)
	case rules.MatchPredicate:
		return s.matchPredicate(r, idx, doc, lang)
	}
	return nil
}

func (s *Scanner) matchLines(r rules.Rule, idx int, doc *model.Document, lang model.Language) []model.Finding {
	var out []model.Finding
	for i, line := range doc.Lines {
		if !s.eligible(r, line, lang) {
			continue
		}
		if !r.Matcher.Pattern.MatchString(line) {
			continue
		}
		if r.Matcher.Exclude != nil && r.Matcher.Exclude.MatchString(line) {
			continue
		}
		out = append(out, s.finding(r, idx, doc, i+1, i+1))
	}
	return out
}

// matchWindows slides the rule's window over the document. A match is
// reported by the window beginning on the line where the match starts,
// so every start line yields at most one finding. Windows near EOF are
// truncated to the lines that exist.
func (s *Scanner) matchWindows(r rules.Rule, idx int, doc *model.Document, lang model.Language) []model.Finding {
	var out []model.Finding
	n := len(doc.Lines)
	for start := 0; start < n; start++ {
		first := doc.Lines[start]
		if !s.eligible(r, first, lang) {
			continue
		}
		end := start + r.Matcher.Window
		if end > n {
			end = n
		}
		lines := make([]string, 0, end-start)
		for _, l := range doc.Lines[start:end] {
			if s.guarded(l) {
				l = ""
			}
			lines = append(lines, l)
		}
		text := strings.Join(lines, "\n")

		loc := r.Matcher.Pattern.FindStringIndex(text)
		if loc == nil || loc[0] > len(first) {
			continue
		}
		if r.Matcher.Exclude != nil && r.Matcher.Exclude.MatchString(text) {
			continue
		}
		matched := strings.TrimSuffix(text[loc[0]:loc[1]], "\n")
		last := start + 1 + strings.Count(matched, "\n")
		out = append(out, s.finding(r, idx, doc, start+1, last))
	}
	return out
}

func (s *Scanner) matchPredicate(r rules.Rule, idx int, doc *model.Document, lang model.Language) []model.Finding {
	hits, err := s.callPredicate(r.Matcher.Predicate, doc, lang)
	if err != nil {
		s.logger.Warn("predicate failed",
			logging.Field{Key: "rule", Value: r.ID},
			logging.Err(err),
		)
		return nil
	}

	var out []model.Finding
	seen := make(map[int]bool, len(hits))
	for _, i := range hits {
		if i < 0 || i >= len(doc.Lines) || seen[i] {
			continue
		}
		seen[i] = true
		if s.guarded(doc.Lines[i]) {
			continue
		}
		out = append(out, s.finding(r, idx, doc, i+1, i+1))
	}
	return out
}

func (s *Scanner) callPredicate(p rules.Predicate, doc *model.Document, lang model.Language) (hits []int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			hits, err = nil, fmt.Errorf("predicate panic: %v", rec)
		}
	}()
	return p(doc, lang), nil
}

// eligible reports whether a line may start a match for r.
func (s *Scanner) eligible(r rules.Rule, line string, lang model.Language) bool {
	if s.guarded(line) {
		return false
	}
	if !r.Matcher.Comments && lang.IsCommentLine(strings.TrimSpace(line)) {
		return false
	}
	return true
}

// guarded is the binary-input guard: overlong lines and lines with a NUL
// byte near the start are never matched.
func (s *Scanner) guarded(line string) bool {
	if len(line) > s.maxLineLength {
		return true
	}
	probe := line
	if len(probe) > nulProbe {
		probe = probe[:nulProbe]
	}
	return strings.IndexByte(probe, 0) >= 0
}

func (s *Scanner) finding(r rules.Rule, idx int, doc *model.Document, line, endLine int) model.Finding {
	return model.NewFinding(idx, model.Finding{
		RuleID:         r.ID,
		Type:           r.Type(),
		Category:       r.Category,
		Severity:       r.Severity,
		Line:           line,
		EndLine:        endLine,
		Description:    r.Description,
		CodeSnippet:    s.snippet(doc.Slice(line, endLine)),
		Recommendation: r.Recommendation,
	})
}

func (s *Scanner) snippet(lines []string) string {
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimSpace(l)
	}
	out := strings.Join(trimmed, "\n")
	if utf8.RuneCountInString(out) <= s.snippetWidth {
		return out
	}
	runes := []rune(out)
	return string(runes[:s.snippetWidth]) + "..."
}
