// Package language infers the programming language of a source blob from
// lexical markers. It never fails: text without a strong signal is
// labelled General.
package language

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/raysh454/owaspscan/internal/model"
)

// DefaultMinScore is the minimum winning score below which a document is
// labelled General.
const DefaultMinScore = 2

const (
	tagWeight = 2
	tagLimit  = 15
	doctype   = 10
)

var (
	cStyleTerminator = regexp.MustCompile(`(?m)[;{}]\s*$`)
	doctypeMarker    = regexp.MustCompile(`(?i)<!doctype\s+html`)
)

// Classifier scores candidate languages. Its marker tables are built
// once in NewClassifier and only read afterwards, so a Classifier is safe
// for concurrent use.
type Classifier struct {
	markers  map[model.Language][]marker
	minScore int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMinScore overrides DefaultMinScore.
func WithMinScore(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.minScore = n
		}
	}
}

func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{markers: markerTable(), minScore: DefaultMinScore}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Scores returns the score of every candidate language. General is
// always 0.
func (c *Classifier) Scores(text string) map[model.Language]int {
	scores := make(map[model.Language]int, len(model.Languages))
	for _, lang := range model.Languages {
		scores[lang] = 0
	}
	if strings.TrimSpace(text) == "" {
		return scores
	}

	for lang, markers := range c.markers {
		total := 0
		for _, mk := range markers {
			n := len(mk.re.FindAllStringIndex(text, mk.limit))
			total += n * mk.weight
		}
		scores[lang] = total
	}

	// Statement terminators and braces separate the C family from
	// indentation-structured Python. They add equally to each brace
	// language so the keyword markers still decide between them.
	if n := len(cStyleTerminator.FindAllStringIndex(text, 5)); n > 0 {
		for _, lang := range []model.Language{model.LanguageJavaScript, model.LanguageJava, model.LanguageC, model.LanguagePHP} {
			scores[lang] += n
		}
	}

	scores[model.LanguageHTML] = htmlScore(text)
	return scores
}

// Classify returns the highest-scoring language. Ties resolve in the
// order of model.Languages; a best score under the minimum yields General.
func (c *Classifier) Classify(text string) model.Language {
	scores := c.Scores(text)
	best, bestScore := model.LanguageGeneral, 0
	for _, lang := range model.Languages {
		if s := scores[lang]; s > bestScore {
			best, bestScore = lang, s
		}
	}
	if bestScore < c.minScore {
		return model.LanguageGeneral
	}
	return best
}

// htmlScore counts start and self-closing tags of known HTML elements.
func htmlScore(text string) int {
	if !strings.Contains(text, "<") {
		return 0
	}
	score := 0
	if doctypeMarker.MatchString(text) {
		score += doctype
	}
	tags := 0
	z := html.NewTokenizer(strings.NewReader(text))
	for tags < tagLimit {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, _ := z.TagName()
		if htmlElements[string(name)] {
			tags++
		}
	}
	return score + tags*tagWeight
}
