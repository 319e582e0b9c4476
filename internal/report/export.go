package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/rules"
	"github.com/raysh454/owaspscan/internal/score"
)

const (
	ToolName = "owaspscan"
	ToolURI  = "https://github.com/raysh454/owaspscan"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// WriteSARIF writes result as a SARIF 2.1.0 log. Every catalog rule is
// listed in the driver; uri names the analysed artifact.
func WriteSARIF(w io.Writer, result model.AnalysisResult, uri string, catalog *rules.Catalog) error {
	rep, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating sarif report: %w", err)
	}
	if uri == "" {
		uri = "snippet"
	}

	run := sarif.NewRunWithInformationURI(ToolName, ToolURI)
	for _, r := range catalog.Rules() {
		rule := run.AddRule(r.ID).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: sarifLevel(r.Severity)})
		short, full, help := r.Type(), r.Description, r.Recommendation
		rule.ShortDescription = &sarif.MultiformatMessageString{Text: &short}
		rule.FullDescription = &sarif.MultiformatMessageString{Text: &full}
		rule.Help = &sarif.MultiformatMessageString{Text: &help}
		rule.Properties = map[string]interface{}{
			"category": r.Category.Code(),
			"severity": string(r.Severity),
			"tags":     []string{"security", "owasp-top10", r.Category.Code()},
		}
	}

	for _, f := range result.Vulnerabilities {
		region := sarif.NewRegion().WithStartLine(f.Line).WithEndLine(f.EndLine)
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri)).
				WithRegion(region),
		)
		res := sarif.NewRuleResult(f.RuleID).
			WithMessage(sarif.NewTextMessage(f.Type + ". " + f.Description)).
			WithLevel(sarifLevel(f.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(res)
	}
	rep.AddRun(run)

	if err := rep.PrettyWrite(w); err != nil {
		return fmt.Errorf("writing sarif report: %w", err)
	}
	return nil
}

func sarifLevel(s model.Severity) string {
	switch s {
	case model.SeverityCritical, model.SeverityHigh:
		return "error"
	case model.SeverityMedium:
		return "warning"
	case model.SeverityLow:
		return "note"
	}
	return "none"
}

// TextOptions controls the human-readable report.
type TextOptions struct {
	// Color enables terminal styling when the writer supports it.
	Color bool

	// Source labels the analysed input, e.g. a file name.
	Source string

	// ShowSecure appends the secure rewrite.
	ShowSecure bool
}

type textStyles struct {
	title, label, faint, code lipgloss.Style
	severity                  map[model.Severity]lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return textStyles{
		title: r.NewStyle().Bold(true).Underline(true),
		label: r.NewStyle().Bold(true),
		faint: r.NewStyle().Faint(true),
		code:  r.NewStyle().Foreground(lipgloss.Color("6")),
		severity: map[model.Severity]lipgloss.Style{
			model.SeverityCritical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")),
			model.SeverityHigh:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
			model.SeverityMedium:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
			model.SeverityLow:      r.NewStyle().Faint(true),
		},
	}
}

func (st textStyles) sev(s model.Severity) string {
	label := "[" + strings.ToUpper(string(s)) + "]"
	if style, ok := st.severity[s]; ok {
		return style.Render(label)
	}
	return label
}

// WriteText writes a terminal report of result styled with lipgloss.
func WriteText(w io.Writer, result model.AnalysisResult, opts TextOptions) error {
	st := newTextStyles(w, opts.Color)
	var b strings.Builder

	b.WriteString(st.title.Render("OWASP Top 10 analysis") + "\n")
	if opts.Source != "" {
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("Source:"), opts.Source)
	}
	fmt.Fprintf(&b, "%s %s\n", st.label.Render("Language:"), result.Language)
	fmt.Fprintf(&b, "%s %d/100 (%s)\n", st.label.Render("Risk score:"), result.RiskScore, score.Level(result.RiskScore))

	counts := result.CountBySeverity()
	parts := make([]string, 0, len(model.Severities))
	for _, s := range model.Severities {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
	}
	fmt.Fprintf(&b, "%s %d (%s)\n\n", st.label.Render("Findings:"), len(result.Vulnerabilities), strings.Join(parts, ", "))

	if result.Clean() {
		b.WriteString("No vulnerabilities found.\n")
	}
	for _, f := range result.Vulnerabilities {
		lines := fmt.Sprintf("line %d", f.Line)
		if f.EndLine > f.Line {
			lines = fmt.Sprintf("lines %d-%d", f.Line, f.EndLine)
		}
		fmt.Fprintf(&b, "%s %s %s\n", st.sev(f.Severity), f.Type, st.faint.Render("("+lines+", "+f.RuleID+")"))
		fmt.Fprintf(&b, "  %s\n", f.Description)
		for _, l := range strings.Split(f.CodeSnippet, "\n") {
			fmt.Fprintf(&b, "  %s\n", st.code.Render("> "+l))
		}
		fmt.Fprintf(&b, "  %s %s\n\n", st.label.Render("Fix:"), f.Recommendation)
	}

	if opts.ShowSecure {
		b.WriteString(st.title.Render("Secure code") + "\n")
		b.WriteString(result.SecureCode)
		if !strings.HasSuffix(result.SecureCode, "\n") {
			b.WriteString("\n")
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing text report: %w", err)
	}
	return nil
}

// WriteComparison writes cmp as plain text: the focused sections side by
// side, then the full line diff.
func WriteComparison(w io.Writer, cmp Comparison) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparison: %d line(s) added, %d line(s) removed\n", cmp.Added, cmp.Removed)

	for _, s := range cmp.Sections {
		marked := make(map[int]bool, len(s.FindingLines))
		for _, l := range s.FindingLines {
			marked[l] = true
		}
		fmt.Fprintf(&b, "\n=== original lines %d-%d ===\n", s.StartLine, s.EndLine)
		for i, l := range s.Original {
			n := s.StartLine + i
			mark := " "
			if marked[n] {
				mark = "!"
			}
			fmt.Fprintf(&b, "%s %4d | %s\n", mark, n, l)
		}
		fmt.Fprintf(&b, "=== secure lines %d-%d ===\n", s.SecureStartLine, s.SecureEndLine)
		for i, l := range s.Secure {
			fmt.Fprintf(&b, "  %4d | %s\n", s.SecureStartLine+i, l)
		}
	}

	b.WriteString("\n=== diff ===\n")
	for _, c := range cmp.Chunks {
		prefix := " "
		switch c.Type {
		case ChunkAdded:
			prefix = "+"
		case ChunkRemoved:
			prefix = "-"
		}
		for _, l := range c.Lines {
			b.WriteString(prefix + " " + l + "\n")
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing comparison: %w", err)
	}
	return nil
}
