package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/raysh454/owaspscan/internal/logging"
)

func TestStdoutLogger_WritesJSONLines(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewWriterLogger("engine", &buf)

	l.Info("analysis complete", logging.Field{Key: "findings", Value: 3})

	var entry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component"`
		Fields    map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if entry.Level != "info" || entry.Msg != "analysis complete" || entry.Component != "engine" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["findings"] != float64(3) {
		t.Errorf("expected findings=3, got %v", entry.Fields["findings"])
	}
}

func TestStdoutLogger_WithReplacesComponentAndKeepsFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	root := logging.NewWriterLogger("root", &buf)

	child := root.With(logging.Component("scanner"), logging.Field{Key: "rules", Value: 30})
	child.Warn("slow rule")

	line := buf.String()
	if !strings.Contains(line, `"component":"scanner"`) {
		t.Errorf("expected child component in %q", line)
	}
	if !strings.Contains(line, `"rules":30`) {
		t.Errorf("expected persistent field in %q", line)
	}
}

func TestHCLogger_RespectsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewHCLogger(logging.Options{Name: "test", Level: "warn", Output: &buf})

	l.Info("hidden")
	l.With(logging.Component("server")).Warn("shown", logging.Field{Key: "addr", Value: ":8080"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "test.server") || !strings.Contains(out, "addr=:8080") {
		t.Errorf("unexpected warn output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]hclog.Level{
		"trace":   hclog.Trace,
		"DEBUG":   hclog.Debug,
		" info ":  hclog.Info,
		"warning": hclog.Warn,
		"ERROR":   hclog.Error,
		"bogus":   hclog.Info,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if logging.ValidLevel("loud") {
		t.Error("ValidLevel accepted an unknown level")
	}
}
