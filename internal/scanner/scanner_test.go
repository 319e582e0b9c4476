package scanner_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/rules"
	"github.com/raysh454/owaspscan/internal/scanner"
	"github.com/raysh454/owaspscan/internal/testutil"
)

func keep(fragment []string, _ model.Language) []string { return fragment }

func lineRule(id, pattern string) rules.Rule {
	return rules.Rule{
		ID:       id,
		Category: model.Injection,
		Name:     "Rule " + id,
		Severity: model.SeverityHigh,
		Matcher:  rules.Matcher{Kind: rules.MatchLine, Pattern: regexp.MustCompile(pattern)},
		Fix:      keep,
	}
}

func windowRule(id, pattern string, size int) rules.Rule {
	r := lineRule(id, pattern)
	r.Matcher = rules.Matcher{Kind: rules.MatchWindow, Pattern: regexp.MustCompile(pattern), Window: size}
	return r
}

func predicateRule(id string, p rules.Predicate) rules.Rule {
	r := lineRule(id, "x")
	r.Matcher = rules.Matcher{Kind: rules.MatchPredicate, Predicate: p}
	return r
}

func scan(t *testing.T, rs []rules.Rule, text string, lang model.Language, opts ...scanner.Option) []model.Finding {
	t.Helper()
	c, err := rules.NewCatalog(rs)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return scanner.New(c, opts...).Scan(model.NewDocument(text), lang)
}

func lines(findings []model.Finding) []int {
	out := make([]int, len(findings))
	for i, f := range findings {
		out[i] = f.Line
	}
	return out
}

func TestScan_LineMatcher(t *testing.T) {
	t.Parallel()

	text := "ok\neval(a)\nok\neval(b)"
	got := scan(t, []rules.Rule{lineRule("eval", `eval\(`)}, text, model.LanguageJavaScript)
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	if got[0].Line != 2 || got[1].Line != 4 {
		t.Fatalf("unexpected lines %v", lines(got))
	}
	f := got[0]
	if f.EndLine != f.Line {
		t.Errorf("EndLine = %d, want %d", f.EndLine, f.Line)
	}
	if f.Type != "Injection: Rule eval" {
		t.Errorf("Type = %q", f.Type)
	}
	if f.CodeSnippet != "eval(a)" {
		t.Errorf("CodeSnippet = %q", f.CodeSnippet)
	}
}

func TestScan_SkipsCommentsUnlessRuleOptsIn(t *testing.T) {
	t.Parallel()

	text := "# secret here\nsecret = 1"
	plain := lineRule("plain", `secret`)
	commented := lineRule("commented", `secret`)
	commented.Matcher.Comments = true

	got := scan(t, []rules.Rule{plain}, text, model.LanguagePython)
	if len(got) != 1 || got[0].Line != 2 {
		t.Fatalf("comment line should be skipped, got lines %v", lines(got))
	}

	got = scan(t, []rules.Rule{commented}, text, model.LanguagePython)
	if len(got) != 2 {
		t.Fatalf("comment opt-in should match both lines, got %v", lines(got))
	}
}

func TestScan_Exclude(t *testing.T) {
	t.Parallel()

	r := lineRule("secret", `key = "`)
	r.Matcher.Exclude = regexp.MustCompile(`changeme`)
	got := scan(t, []rules.Rule{r}, "key = \"changeme\"\nkey = \"s3cr3t\"", model.LanguageGeneral)
	if len(got) != 1 || got[0].Line != 2 {
		t.Fatalf("unexpected lines %v", lines(got))
	}
}

func TestScan_WindowAttributedToStartLine(t *testing.T) {
	t.Parallel()

	text := "x\ntry {\n} catch (e) {\n}\ny"
	r := windowRule("catch", `catch\s*\([^)]*\)\s*\{\s*\}`, 3)
	got := scan(t, []rules.Rule{r}, text, model.LanguageJavaScript)
	if len(got) != 1 {
		t.Fatalf("expected exactly one finding, got %v", lines(got))
	}
	if got[0].Line != 3 || got[0].EndLine != 4 {
		t.Fatalf("got lines %d-%d, want 3-4", got[0].Line, got[0].EndLine)
	}
	if got[0].CodeSnippet != "} catch (e) {\n}" {
		t.Errorf("CodeSnippet = %q", got[0].CodeSnippet)
	}
}

func TestScan_WindowTruncatedAtEOF(t *testing.T) {
	t.Parallel()

	r := windowRule("tail", `open\n?\s*close|close`, 4)
	got := scan(t, []rules.Rule{r}, "a\nb\nclose", model.LanguageGeneral)
	if len(got) != 1 || got[0].Line != 3 {
		t.Fatalf("expected a finding on the last line, got %v", lines(got))
	}
}

func TestScan_PredicateFaultsAreContained(t *testing.T) {
	t.Parallel()

	logger := &testutil.DummyLogger{}
	boom := predicateRule("boom", func(*model.Document, model.Language) []int { panic("bad predicate") })
	sloppy := predicateRule("sloppy", func(*model.Document, model.Language) []int { return []int{-1, 1, 1, 99} })

	got := scan(t, []rules.Rule{boom, sloppy}, "a\nb\nc", model.LanguageGeneral, scanner.WithLogger(logger))
	if len(got) != 1 {
		t.Fatalf("expected one finding, got %d", len(got))
	}
	if got[0].RuleID != "sloppy" || got[0].Line != 2 {
		t.Fatalf("unexpected finding %+v", got[0])
	}
	if len(logger.Warns) != 1 {
		t.Errorf("expected the panic to be logged once, got %v", logger.Warns)
	}
}

func TestScan_BinaryGuard(t *testing.T) {
	t.Parallel()

	r := lineRule("eval", `eval\(`)
	long := "eval(" + strings.Repeat("a", 64)
	text := "eval(\x00)\n" + long + "\neval(ok)"

	got := scan(t, []rules.Rule{r}, text, model.LanguageGeneral, scanner.WithMaxLineLength(32))
	if len(got) != 1 || got[0].Line != 3 {
		t.Fatalf("guarded lines should be skipped, got %v", lines(got))
	}

	late := "eval(" + strings.Repeat("a", 600) + "\x00"
	got = scan(t, []rules.Rule{r}, late, model.LanguageGeneral)
	if len(got) != 1 {
		t.Fatalf("a NUL past the probe window should not stop matching, got %d findings", len(got))
	}
}

func TestScan_SnippetWidth(t *testing.T) {
	t.Parallel()

	code := "eval(" + strings.Repeat("é", 30) + ")"
	got := scan(t, []rules.Rule{lineRule("eval", `eval\(`)}, "   "+code, model.LanguageGeneral, scanner.WithSnippetWidth(10))
	if len(got) != 1 {
		t.Fatalf("expected one finding, got %d", len(got))
	}
	want := "eval(ééééé..."
	if got[0].CodeSnippet != want {
		t.Fatalf("CodeSnippet = %q, want %q", got[0].CodeSnippet, want)
	}
}

func TestScan_OrdersByLineThenRegistration(t *testing.T) {
	t.Parallel()

	first := lineRule("first", `exec`)
	second := lineRule("second", `exec|eval`)
	got := scan(t, []rules.Rule{first, second}, "eval(x)\nexec(y)", model.LanguageGeneral)

	var ids []string
	for _, f := range got {
		ids = append(ids, f.RuleID)
	}
	want := []string{"second", "first", "second"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", ids, want)
	}
	if got[1].RuleIndex() != 0 || got[2].RuleIndex() != 1 {
		t.Errorf("rule indices %d, %d", got[1].RuleIndex(), got[2].RuleIndex())
	}
}

func TestScan_LanguageFilter(t *testing.T) {
	t.Parallel()

	r := lineRule("c-only", `gets\(`)
	r.Languages = []model.Language{model.LanguageC}
	if got := scan(t, []rules.Rule{r}, "gets(buf);", model.LanguagePython); len(got) != 0 {
		t.Fatalf("rule restricted to C ran for Python: %v", lines(got))
	}
	if got := scan(t, []rules.Rule{r}, "gets(buf);", model.LanguageC); len(got) != 1 {
		t.Fatalf("expected one C finding, got %d", len(got))
	}
}

func TestScan_DefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := rules.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	s := scanner.New(c)

	text := "query = \"SELECT * FROM users WHERE id = \" + userId\npassword = \"admin123\""
	got := s.Scan(model.NewDocument(text), model.LanguageGeneral)
	ids := map[string]int{}
	for _, f := range got {
		ids[f.RuleID] = f.Line
		if f.Line < 1 || f.EndLine > 2 || f.EndLine < f.Line {
			t.Errorf("finding %s has bad bounds %d-%d", f.RuleID, f.Line, f.EndLine)
		}
	}
	if ids["sql-string-concatenation"] != 1 {
		t.Errorf("missing SQL concatenation finding, got %v", ids)
	}
	if ids["hardcoded-password"] != 2 {
		t.Errorf("missing hardcoded password finding, got %v", ids)
	}

	clean := "def add(a, b):\n    return a + b\n"
	if got := s.Scan(model.NewDocument(clean), model.LanguagePython); len(got) != 0 {
		t.Fatalf("clean code produced findings: %+v", got)
	}
}
