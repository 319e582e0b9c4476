package remediate_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/remediate"
	"github.com/raysh454/owaspscan/internal/rules"
)

func rule(id string, fix rules.Fix) rules.Rule {
	return rules.Rule{
		ID:       id,
		Category: model.Injection,
		Name:     id,
		Severity: model.SeverityLow,
		Matcher:  rules.Matcher{Kind: rules.MatchLine, Pattern: regexp.MustCompile(`.`)},
		Fix:      fix,
	}
}

func catalog(t *testing.T) *rules.Catalog {
	t.Helper()
	c, err := rules.NewCatalog([]rules.Rule{
		rule("note", func(f []string, lang model.Language) []string {
			return append([]string{lang.Comment("SECURITY: note")}, f...)
		}),
		rule("bang", func(f []string, _ model.Language) []string {
			out := make([]string, len(f))
			for i, l := range f {
				out[i] = l + "!"
			}
			return out
		}),
		rule("join", func(f []string, _ model.Language) []string {
			return []string{strings.Join(f, " ")}
		}),
		rule("keep", func(f []string, _ model.Language) []string { return f }),
		rule("panics", func([]string, model.Language) []string { panic("broken fix") }),
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func finding(c *rules.Catalog, id string, line, end int) model.Finding {
	return model.NewFinding(c.Index(id), model.Finding{RuleID: id, Line: line, EndLine: end})
}

func TestRemediate_NoFindingsIsByteIdentical(t *testing.T) {
	t.Parallel()

	text := "a\r\nb\r\n\n"
	got := remediate.Remediate(model.NewDocument(text), model.LanguageGeneral, nil, catalog(t))
	if got != text {
		t.Fatalf("got %q, want %q", got, text)
	}
}

func TestRemediate_InsertionsShiftLaterFindings(t *testing.T) {
	t.Parallel()

	c := catalog(t)
	doc := model.NewDocument("a\nb\nc\nd")
	findings := []model.Finding{
		finding(c, "bang", 4, 4),
		finding(c, "note", 2, 2),
	}
	got := remediate.Remediate(doc, model.LanguagePython, findings, c)
	want := "a\n# SECURITY: note\nb\nc\nd!"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemediate_SameLineSeesRewrittenText(t *testing.T) {
	t.Parallel()

	c := catalog(t)
	doc := model.NewDocument("x = 1\ny = 2")
	findings := []model.Finding{
		finding(c, "note", 1, 1),
		finding(c, "bang", 1, 1),
	}
	got := remediate.Remediate(doc, model.LanguageJavaScript, findings, c)
	want := "// SECURITY: note!\nx = 1!\ny = 2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemediate_OverlappingSpansCollapse(t *testing.T) {
	t.Parallel()

	c := catalog(t)
	doc := model.NewDocument("try {\n} catch (e) {\n}\nnext")
	findings := []model.Finding{
		finding(c, "join", 2, 3),
		finding(c, "bang", 3, 3),
		finding(c, "bang", 4, 4),
	}
	got := remediate.Remediate(doc, model.LanguageJavaScript, findings, c)
	want := "try {\n} catch (e) { }!\nnext!"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemediate_IgnoresUnusableFindings(t *testing.T) {
	t.Parallel()

	c := catalog(t)
	text := "one\ntwo"
	findings := []model.Finding{
		finding(c, "keep", 1, 1),
		finding(c, "panics", 1, 1),
		{RuleID: "missing", Line: 1, EndLine: 1},
		finding(c, "bang", 3, 3),
		finding(c, "bang", 2, 1),
	}
	got := remediate.Remediate(model.NewDocument(text), model.LanguageGeneral, findings, c)
	if got != text {
		t.Fatalf("got %q, want %q", got, text)
	}
}
