package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/owaspscan/internal/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Server.Debounce)
	assert.Equal(t, 50, cfg.History.MaxEntries)
	assert.Equal(t, 25, cfg.Engine.Weights.Critical)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(strings.NewReader(`
engine:
  weights:
    critical: 40
  disabled_rules: [insecure-randomness]
server:
  addr: ":9090"
  debounce: 250ms
logging:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Engine.Weights.Critical)
	assert.Equal(t, 15, cfg.Engine.Weights.High)
	assert.Equal(t, []string{"insecure-randomness"}, cfg.Engine.DisabledRules)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 200, cfg.Engine.SnippetWidth)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown field":     "server:\n  port: 8080\n",
		"negative weight":   "engine:\n  weights:\n    low: -1\n",
		"empty addr":        "server:\n  addr: \"\"\n",
		"negative debounce": "server:\n  debounce: -1s\n",
		"bad level":         "logging:\n  level: loud\n",
		"zero snippet":      "engine:\n  snippet_width: 0\n",
		"zero history":      "history:\n  max_entries: 0\n",
	}
	for name, doc := range cases {
		name, doc := name, doc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestValidate_WrapsSentinel(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Server.MaxCodeBytes = 0
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	env := map[string]string{"OWASPSCAN_LOG_LEVEL": "warn", "OWASPSCAN_ADDR": "0.0.0.0:7000"}
	cfg.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Addr)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "owaspscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history:\n  max_entries: 5\n"), 0o600))

	t.Setenv("OWASPSCAN_ADDR", "127.0.0.1:1234")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.History.MaxEntries)
	assert.Equal(t, "127.0.0.1:1234", cfg.Server.Addr)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
