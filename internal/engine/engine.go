// Package engine wires classification, scanning, scoring and
// remediation into a single analysis call.
package engine

import (
	"fmt"
	"time"

	"github.com/raysh454/owaspscan/internal/language"
	"github.com/raysh454/owaspscan/internal/logging"
	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/remediate"
	"github.com/raysh454/owaspscan/internal/rules"
	"github.com/raysh454/owaspscan/internal/scanner"
	"github.com/raysh454/owaspscan/internal/score"
)

// Engine analyses source text. All of its state is fixed at construction,
// so one Engine may serve concurrent callers.
type Engine struct {
	classifier *language.Classifier
	catalog    *rules.Catalog
	scanner    *scanner.Scanner
	weights    score.Weights
	logger     logging.Logger
}

// New builds an engine from cfg. A nil catalog means the built-in rules.
// cfg.DisabledRules is applied on top of whichever catalog is used, and
// naming a rule the catalog does not hold is an error.
func New(cfg Config, catalog *rules.Catalog, logger logging.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With(logging.Component("engine"))

	var err error
	switch {
	case catalog == nil:
		catalog, err = rules.Default(rules.WithDisabled(cfg.DisabledRules...))
	case len(cfg.DisabledRules) > 0:
		catalog, err = rules.NewCatalog(catalog.Rules(), rules.WithDisabled(cfg.DisabledRules...))
	}
	if err != nil {
		return nil, fmt.Errorf("building rule catalog: %w", err)
	}

	e := &Engine{
		classifier: language.NewClassifier(language.WithMinScore(cfg.MinLanguageScore)),
		catalog:    catalog,
		scanner: scanner.New(catalog,
			scanner.WithSnippetWidth(cfg.SnippetWidth),
			scanner.WithMaxLineLength(cfg.MaxLineLength),
			scanner.WithLogger(logger),
		),
		weights: cfg.Weights,
		logger:  logger,
	}
	logger.Debug("engine ready", logging.Field{Key: "rules", Value: catalog.Len()})
	return e, nil
}

// Catalog returns the rules the engine evaluates.
func (e *Engine) Catalog() *rules.Catalog { return e.catalog }

// Classify returns the language Analyze would assign to text.
func (e *Engine) Classify(text string) model.Language { return e.classifier.Classify(text) }

// Analyze classifies text and then analyses it as that language.
func (e *Engine) Analyze(text string) model.AnalysisResult {
	return e.AnalyzeAs(text, e.classifier.Classify(text))
}

// AnalyzeAs analyses text as lang, skipping classification.
func (e *Engine) AnalyzeAs(text string, lang model.Language) model.AnalysisResult {
	start := time.Now()
	doc := model.NewDocument(text)

	findings := e.scanner.Scan(doc, lang)
	if findings == nil {
		findings = []model.Finding{}
	}
	result := model.AnalysisResult{
		Language:        lang,
		RiskScore:       score.Score(findings, e.weights),
		Vulnerabilities: findings,
		SecureCode:      remediate.Remediate(doc, lang, findings, e.catalog),
	}

	e.logger.Debug("analysis complete",
		logging.Field{Key: "language", Value: string(lang)},
		logging.Field{Key: "findings", Value: len(findings)},
		logging.Field{Key: "risk_score", Value: result.RiskScore},
		logging.Field{Key: "duration", Value: time.Since(start).String()},
	)
	return result
}
