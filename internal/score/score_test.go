package score_test

import (
	"testing"

	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/score"
)

func findings(sev ...model.Severity) []model.Finding {
	out := make([]model.Finding, len(sev))
	for i, s := range sev {
		out[i] = model.Finding{Severity: s}
	}
	return out
}

func TestScore(t *testing.T) {
	t.Parallel()

	w := score.DefaultWeights()
	cases := []struct {
		name string
		in   []model.Finding
		want int
	}{
		{"empty", nil, 0},
		{"single critical", findings(model.SeverityCritical), 25},
		{"mixed", findings(model.SeverityHigh, model.SeverityMedium, model.SeverityLow), 26},
		{"clamped", findings(model.SeverityCritical, model.SeverityCritical, model.SeverityCritical, model.SeverityCritical, model.SeverityLow), 100},
		{"unknown severity ignored", findings("Catastrophic", model.SeverityLow), 3},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := score.Score(tc.in, w); got != tc.want {
				t.Fatalf("Score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	t.Parallel()

	w := score.DefaultWeights()
	var fs []model.Finding
	prev := 0
	for i := 0; i < 12; i++ {
		fs = append(fs, model.Finding{Severity: model.Severities[i%len(model.Severities)]})
		got := score.Score(fs, w)
		if got < prev || got > score.Max {
			t.Fatalf("score went from %d to %d after %d findings", prev, got, len(fs))
		}
		prev = got
	}
}

func TestWeights_Validate(t *testing.T) {
	t.Parallel()

	if err := score.DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
	w := score.DefaultWeights()
	w.Medium = -1
	if err := w.Validate(); err == nil {
		t.Fatal("expected an error for a negative weight")
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	cases := map[int]string{0: "None", 3: "Low", 29: "Low", 30: "Medium", 59: "Medium", 60: "High", 79: "High", 80: "Critical", 100: "Critical"}
	for in, want := range cases {
		if got := score.Level(in); got != want {
			t.Errorf("Level(%d) = %q, want %q", in, got, want)
		}
	}
}
