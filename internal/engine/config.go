package engine

import (
	"fmt"

	"github.com/raysh454/owaspscan/internal/language"
	"github.com/raysh454/owaspscan/internal/scanner"
	"github.com/raysh454/owaspscan/internal/score"
)

// Config tunes the analysis pipeline.
type Config struct {
	// Weights is the score contribution per severity.
	Weights score.Weights `yaml:"weights" json:"weights"`

	// SnippetWidth caps finding snippets, in runes.
	SnippetWidth int `yaml:"snippet_width" json:"snippetWidth"`

	// MaxLineLength is the longest line, in bytes, the scanner matches.
	MaxLineLength int `yaml:"max_line_length" json:"maxLineLength"`

	// MinLanguageScore is the classifier threshold below which code is
	// labelled General.
	MinLanguageScore int `yaml:"min_language_score" json:"minLanguageScore"`

	// DisabledRules lists rule IDs excluded from the catalog.
	DisabledRules []string `yaml:"disabled_rules" json:"disabledRules"`
}

func DefaultConfig() Config {
	return Config{
		Weights:          score.DefaultWeights(),
		SnippetWidth:     scanner.DefaultSnippetWidth,
		MaxLineLength:    scanner.DefaultMaxLineLength,
		MinLanguageScore: language.DefaultMinScore,
	}
}

// Validate checks value ranges. Rule IDs are checked by New against the
// catalog.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.SnippetWidth <= 0 {
		return fmt.Errorf("snippet_width must be positive, got %d", c.SnippetWidth)
	}
	if c.MaxLineLength <= 0 {
		return fmt.Errorf("max_line_length must be positive, got %d", c.MaxLineLength)
	}
	if c.MinLanguageScore < 0 {
		return fmt.Errorf("min_language_score must not be negative, got %d", c.MinLanguageScore)
	}
	return nil
}
