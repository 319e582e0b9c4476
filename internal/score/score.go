// Package score turns findings into a 0-100 risk score.
package score

import (
	"fmt"

	"github.com/raysh454/owaspscan/internal/model"
)

const Max = 100

// Weights is the contribution of one finding at each severity.
type Weights struct {
	Critical int `yaml:"critical" json:"critical"`
	High     int `yaml:"high" json:"high"`
	Medium   int `yaml:"medium" json:"medium"`
	Low      int `yaml:"low" json:"low"`
}

func DefaultWeights() Weights {
	return Weights{Critical: 25, High: 15, Medium: 8, Low: 3}
}

// Validate rejects negative weights, which would break monotonicity.
func (w Weights) Validate() error {
	for _, s := range model.Severities {
		if v := w.For(s); v < 0 {
			return fmt.Errorf("weight for %s is negative: %d", s, v)
		}
	}
	return nil
}

// For returns the weight of severity s; 0 for unknown severities.
func (w Weights) For(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return w.Critical
	case model.SeverityHigh:
		return w.High
	case model.SeverityMedium:
		return w.Medium
	case model.SeverityLow:
		return w.Low
	}
	return 0
}

// Score sums the weights of findings and clamps the total to [0, Max].
func Score(findings []model.Finding, w Weights) int {
	total := 0
	for _, f := range findings {
		total += w.For(f.Severity)
		if total >= Max {
			return Max
		}
	}
	if total < 0 {
		return 0
	}
	return total
}

// Level bands a score for display.
func Level(score int) string {
	switch {
	case score <= 0:
		return "None"
	case score < 30:
		return "Low"
	case score < 60:
		return "Medium"
	case score < 80:
		return "High"
	default:
		return "Critical"
	}
}
