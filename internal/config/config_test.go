package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhypo/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.False(t, cfg.LLM.Enabled())
	assert.Equal(t, 0.015, cfg.Thresholds.CTRBenchmark)
	assert.Equal(t, 5, cfg.Agents.CreativeGenerator.MaxSuggestions)
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  csv_path: ads.xlsx
thresholds:
  min_trend_days: 10
llm:
  timeout: 5s
output:
  html: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ads.xlsx", cfg.Data.Path())
	assert.Equal(t, 10, cfg.Thresholds.MinTrendDays)
	assert.Equal(t, 3, cfg.Thresholds.MinGroupSize)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Output.HTML)
	assert.Equal(t, "reports", cfg.Output.ReportsDir)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATA_CSV", "from-env.csv")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_TOKENS", "not-a-number")

	cfg, err := Load(writeConfig(t, "server:\n  port: \"8000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env.csv", cfg.Data.CSVPath)
	assert.True(t, cfg.LLM.Enabled())
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 1500, cfg.Agents.Planner.MaxTokens)
}

func TestUseSample(t *testing.T) {
	d := DataConfig{CSVPath: "a.csv", SampleCSVPath: "sample.csv", UseSample: true}
	assert.Equal(t, "sample.csv", d.Path())
	d.SampleCSVPath = ""
	assert.Equal(t, "a.csv", d.Path())
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":         "data: [",
		"bad threshold":    "thresholds:\n  ctr_benchmark: 2\n",
		"openai no key":    "llm:\n  provider: openai\n",
		"unknown driver":   "database:\n  driver: mysql\n",
		"bad log level":    "logging:\n  level: LOUD\n",
		"too many ideas":   "agents:\n  creative_generator:\n    max_suggestions: 9\n",
		"non numeric port": "server:\n  port: http\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
