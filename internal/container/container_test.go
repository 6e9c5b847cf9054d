package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhypo/adapters/llm"
	"adhypo/domain/run"
	"adhypo/internal/adforensics"
	"adhypo/internal/config"
	"adhypo/internal/errors"
	"adhypo/internal/report"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Output.ReportsDir = t.TempDir()
	cfg.Database.URL = ""
	return cfg
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestOfflineContainerRunsEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(context.Background(), cfg, nil, Options{RequireStore: true})
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.LLM)
	assert.IsType(t, llm.TemplateNarrator{}, c.Narrator)
	require.NotNil(t, c.Runs, "an in-memory store is opened when one is required")

	table, err := adforensics.Generate(adforensics.DefaultConfig())
	require.NoError(t, err)
	data := filepath.Join(t.TempDir(), "ads.csv")
	require.NoError(t, adforensics.WriteCSV(data, table))

	res, err := c.Orchestrator.Run(context.Background(), "Why did ROAS drop last week?", data)
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, res.Status)

	stored, err := c.Runs.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Query, stored.Query)

	_, err = os.Stat(filepath.Join(c.Reports.Dir(res), report.MarkdownFile))
	assert.NoError(t, err)
}

func TestStoreIsOptional(t *testing.T) {
	c, err := New(context.Background(), testConfig(t), nil, Options{SkipReports: true})
	require.NoError(t, err)
	defer c.Close()
	assert.Nil(t, c.Runs)
	assert.Nil(t, c.DB)
	assert.Nil(t, c.Reports)
	assert.NoError(t, c.Close())
}

func TestLLMEnabledUsesModelNarrator(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.Model = "gpt-4o-mini"

	c, err := New(context.Background(), cfg, nil, Options{SkipReports: true})
	require.NoError(t, err)
	assert.NotNil(t, c.LLM)
	assert.IsType(t, &llm.LLMNarrator{}, c.Narrator)
}

func TestUnsupportedDriverIsDatabaseError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "mysql"
	cfg.Database.URL = "root@/ads"
	_, err := New(context.Background(), cfg, nil, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "open mysql run store")
}
