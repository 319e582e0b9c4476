package model

// Finding is one detected instance of a rule at a location in the
// original document.
type Finding struct {
	// RuleID is the identifier of the rule that produced the finding.
	RuleID string `json:"ruleId"`

	// Type is "<category name>: <rule name>".
	Type string `json:"type"`

	Category Category `json:"category"`
	Severity Severity `json:"severity"`

	// Line is the 1-indexed line where the match starts.
	Line int `json:"line"`

	// EndLine is the last line of a multi-line match; equal to Line otherwise.
	EndLine int `json:"endLine"`

	Description    string `json:"description"`
	CodeSnippet    string `json:"codeSnippet"`
	Recommendation string `json:"recommendation"`

	// ruleIndex is the registration position of the rule, used for
	// tie-breaking between findings on the same line.
	ruleIndex int
}

// NewFinding builds a finding, recording the rule's registration index.
func NewFinding(ruleIndex int, f Finding) Finding {
	f.ruleIndex = ruleIndex
	return f
}

// RuleIndex returns the registration position of the producing rule.
func (f Finding) RuleIndex() int { return f.ruleIndex }

// Less orders findings by line, then by rule registration order.
func Less(a, b Finding) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.ruleIndex < b.ruleIndex
}

// AnalysisResult is the value returned for one analysis call.
type AnalysisResult struct {
	Language        Language  `json:"language"`
	RiskScore       int       `json:"riskScore"`
	Vulnerabilities []Finding `json:"vulnerabilities"`
	SecureCode      string    `json:"secureCode"`
}

// Clean reports whether the analysis produced no findings.
func (r AnalysisResult) Clean() bool { return len(r.Vulnerabilities) == 0 }

// CountBySeverity tallies findings per severity. All four keys are
// always present.
func (r AnalysisResult) CountBySeverity() map[Severity]int {
	out := make(map[Severity]int, len(Severities))
	for _, s := range Severities {
		out[s] = 0
	}
	for _, f := range r.Vulnerabilities {
		out[f.Severity]++
	}
	return out
}

// MaxSeverity returns the most severe level among the findings, or "" if
// there are none.
func (r AnalysisResult) MaxSeverity() Severity {
	var max Severity
	for _, f := range r.Vulnerabilities {
		if f.Severity.Rank() > max.Rank() {
			max = f.Severity
		}
	}
	return max
}
