package engine_test

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/raysh454/owaspscan/internal/engine"
	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/rules"
	"github.com/raysh454/owaspscan/internal/testutil"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.DefaultConfig(), nil, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func hasRule(findings []model.Finding, id string) (model.Finding, bool) {
	for _, f := range findings {
		if f.RuleID == id {
			return f, true
		}
	}
	return model.Finding{}, false
}

func checkBounds(t *testing.T, text string, res model.AnalysisResult) {
	t.Helper()
	n := model.NewDocument(text).LineCount()
	for _, f := range res.Vulnerabilities {
		if f.Line < 1 || f.EndLine < f.Line || f.EndLine > n {
			t.Errorf("finding %s has bounds %d-%d in a %d-line document", f.RuleID, f.Line, f.EndLine, n)
		}
	}
	if res.RiskScore < 0 || res.RiskScore > 100 {
		t.Errorf("risk score %d out of range", res.RiskScore)
	}
}

func TestAnalyze_SQLConcatenation(t *testing.T) {
	t.Parallel()

	text := `"SELECT * FROM users WHERE id = " + userId`
	res := newEngine(t).AnalyzeAs(text, model.LanguageGeneral)
	checkBounds(t, text, res)

	f, ok := hasRule(res.Vulnerabilities, "sql-string-concatenation")
	if !ok {
		t.Fatalf("no SQL concatenation finding in %+v", res.Vulnerabilities)
	}
	if f.Severity != model.SeverityCritical || f.Line != 1 {
		t.Errorf("unexpected finding %+v", f)
	}
	if !strings.HasPrefix(f.Type, "Injection: ") {
		t.Errorf("Type = %q", f.Type)
	}
	if res.RiskScore < 25 {
		t.Errorf("RiskScore = %d, want at least 25", res.RiskScore)
	}
	for _, want := range []string{`"SELECT * FROM users WHERE id = ?"`, "params = [userId]", "# SECURITY:"} {
		if !strings.Contains(res.SecureCode, want) {
			t.Errorf("secure code %q does not contain %q", res.SecureCode, want)
		}
	}
	if strings.Contains(res.SecureCode, `" + userId`) {
		t.Errorf("secure code still concatenates: %q", res.SecureCode)
	}
}

func TestAnalyze_HardcodedPassword(t *testing.T) {
	t.Parallel()

	text := `password = "admin123"`
	res := newEngine(t).Analyze(text)
	checkBounds(t, text, res)

	f, ok := hasRule(res.Vulnerabilities, "hardcoded-password")
	if !ok {
		t.Fatalf("no hardcoded password finding in %+v", res.Vulnerabilities)
	}
	if f.Category != model.AuthenticationFailures || f.Severity != model.SeverityCritical {
		t.Errorf("unexpected finding %+v", f)
	}
	if strings.Contains(res.SecureCode, "admin123") {
		t.Errorf("secure code still holds the password: %q", res.SecureCode)
	}
}

func TestAnalyze_CleanPython(t *testing.T) {
	t.Parallel()

	text := "import math\n\n\ndef area(radius):\n    return math.pi * radius ** 2"
	res := newEngine(t).Analyze(text)

	if res.Language != model.LanguagePython {
		t.Errorf("Language = %s, want Python", res.Language)
	}
	if !res.Clean() || res.RiskScore != 0 {
		t.Fatalf("expected a clean result, got score %d and %+v", res.RiskScore, res.Vulnerabilities)
	}
	if res.Vulnerabilities == nil {
		t.Error("Vulnerabilities should be an empty slice, not nil")
	}
	if res.SecureCode != text {
		t.Fatalf("secure code changed: %q", res.SecureCode)
	}
}

func TestAnalyze_TwoRulesOnOneLine(t *testing.T) {
	t.Parallel()

	keep := func(f []string, _ model.Language) []string { return f }
	mk := func(id, pattern string, sev model.Severity) rules.Rule {
		return rules.Rule{
			ID:       id,
			Category: model.Injection,
			Name:     id,
			Severity: sev,
			Matcher:  rules.Matcher{Kind: rules.MatchLine, Pattern: regexp.MustCompile(pattern)},
			Fix:      keep,
		}
	}
	c := rules.MustNewCatalog([]rules.Rule{
		mk("eval", `eval\(`, model.SeverityHigh),
		mk("exec", `exec\(`, model.SeverityMedium),
	})
	e, err := engine.New(engine.DefaultConfig(), c, nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	res := e.AnalyzeAs("eval(exec(x))", model.LanguageGeneral)
	if len(res.Vulnerabilities) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(res.Vulnerabilities))
	}
	if res.Vulnerabilities[0].RuleID != "eval" || res.Vulnerabilities[1].RuleID != "exec" {
		t.Errorf("findings out of registration order: %+v", res.Vulnerabilities)
	}
	if res.RiskScore != 23 {
		t.Errorf("RiskScore = %d, want 23", res.RiskScore)
	}
	if res.SecureCode != "eval(exec(x))" {
		t.Errorf("no-op fixes changed the code: %q", res.SecureCode)
	}
}

const mixed = `const express = require("express");
const app = express();
app.get("/user", (req, res) => {
  const q = "SELECT * FROM users WHERE id = " + req.query.id;
  eval(req.query.code);
  document.getElementById("out").innerHTML = req.query.name;
  try {
    run(q);
  } catch (e) {}
});`

func TestAnalyze_Deterministic(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	first := e.Analyze(mixed)
	checkBounds(t, mixed, first)
	if len(first.Vulnerabilities) == 0 {
		t.Fatal("expected findings in the mixed sample")
	}

	var wg sync.WaitGroup
	results := make([]model.AnalysisResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Analyze(mixed)
		}(i)
	}
	wg.Wait()
	for i, r := range results {
		if !reflect.DeepEqual(first, r) {
			t.Fatalf("run %d differs from the first run", i)
		}
	}
}

func TestAnalyze_FindingsSorted(t *testing.T) {
	t.Parallel()

	res := newEngine(t).Analyze(mixed)
	for i := 1; i < len(res.Vulnerabilities); i++ {
		if model.Less(res.Vulnerabilities[i], res.Vulnerabilities[i-1]) {
			t.Fatalf("findings not sorted at %d: %+v", i, res.Vulnerabilities)
		}
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	cfg := engine.DefaultConfig()
	cfg.DisabledRules = []string{"no-such-rule"}
	if _, err := engine.New(cfg, nil, nil); !errors.Is(err, rules.ErrUnknownRule) {
		t.Fatalf("expected ErrUnknownRule, got %v", err)
	}

	cfg = engine.DefaultConfig()
	cfg.Weights.High = -5
	if _, err := engine.New(cfg, nil, nil); err == nil {
		t.Fatal("expected an error for negative weights")
	}
}

func TestNew_DisabledRules(t *testing.T) {
	t.Parallel()

	cfg := engine.DefaultConfig()
	cfg.DisabledRules = []string{"hardcoded-password"}
	e, err := engine.New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	res := e.AnalyzeAs(`password = "admin123"`, model.LanguageGeneral)
	if _, ok := hasRule(res.Vulnerabilities, "hardcoded-password"); ok {
		t.Fatal("disabled rule still reported")
	}
}
