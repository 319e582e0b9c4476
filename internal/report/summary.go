// Package report aggregates, compares and renders analysis results.
package report

import (
	"math"
	"strings"

	"github.com/raysh454/owaspscan/internal/model"
)

// Summary is the dashboard aggregate over a set of analyses.
type Summary struct {
	TotalAnalyses        int                    `json:"totalAnalyses"`
	TotalVulnerabilities int                    `json:"totalVulnerabilities"`
	AverageRiskScore     int                    `json:"averageRiskScore"`
	CleanAnalyses        int                    `json:"cleanAnalyses"`
	BySeverity           map[model.Severity]int `json:"bySeverity"`
	ByCategory           map[string]int         `json:"byCategory"`
	ByLanguage           map[model.Language]int `json:"byLanguage"`
}

// Summarize aggregates results. The severity map always carries all four
// levels; the average is rounded half away from zero.
func Summarize(results []model.AnalysisResult) Summary {
	s := Summary{
		BySeverity: make(map[model.Severity]int, len(model.Severities)),
		ByCategory: map[string]int{},
		ByLanguage: map[model.Language]int{},
	}
	for _, sev := range model.Severities {
		s.BySeverity[sev] = 0
	}

	total := 0
	for _, r := range results {
		s.TotalAnalyses++
		total += r.RiskScore
		s.ByLanguage[r.Language]++
		if r.Clean() {
			s.CleanAnalyses++
		}
		for _, f := range r.Vulnerabilities {
			s.TotalVulnerabilities++
			if _, ok := s.BySeverity[f.Severity]; ok {
				s.BySeverity[f.Severity]++
			}
			s.ByCategory[categoryKey(f.Type)]++
		}
	}
	if s.TotalAnalyses > 0 {
		s.AverageRiskScore = int(math.Round(float64(total) / float64(s.TotalAnalyses)))
	}
	return s
}

// categoryKey is the part of a finding type before the first colon.
func categoryKey(typ string) string {
	if i := strings.Index(typ, ":"); i >= 0 {
		typ = typ[:i]
	}
	return strings.TrimSpace(typ)
}
