// Package container builds the application's components from configuration
// and owns their lifecycle.
package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"adhypo/adapters/excel"
	"adhypo/adapters/heuristic"
	"adhypo/adapters/llm"
	"adhypo/adapters/postgres"
	"adhypo/internal/analysis"
	"adhypo/internal/config"
	"adhypo/internal/creative"
	"adhypo/internal/errors"
	"adhypo/internal/evaluator"
	"adhypo/internal/orchestrator"
	"adhypo/internal/planner"
	"adhypo/internal/report"
	"adhypo/ports"
)

// Options change how the container is assembled
type Options struct {
	// RequireStore opens an in-memory SQLite run store when no database is
	// configured. The HTTP API needs a store to answer queries.
	RequireStore bool
	// SkipReports leaves the report writer out of the sinks
	SkipReports bool
}

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DB  *sqlx.DB
	LLM ports.LLMClient

	// Pipeline components
	Loader      *excel.DataReader
	Summarizer  *analysis.Summarizer
	Planner     *planner.Planner
	Generator   *heuristic.Generator
	Evaluator   *evaluator.Engine
	Recommender *creative.Recommender
	Narrator    ports.Narrator

	// Sinks
	Reports *report.Writer
	Runs    ports.RunRepository

	Orchestrator *orchestrator.Orchestrator
}

// New wires every component described by cfg
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initLLM(); err != nil {
		return nil, err
	}
	c.initPipeline()
	if err := c.initStore(ctx, opts.RequireStore); err != nil {
		return nil, err
	}

	var sinks []ports.ResultSink
	if !opts.SkipReports {
		c.Reports = report.NewWriter(cfg.Output.ReportsDir, cfg.Output.HTML, c.Narrator, logger)
		sinks = append(sinks, c.Reports)
	}
	if c.Runs != nil {
		sinks = append(sinks, c.Runs)
	}

	c.Orchestrator = orchestrator.New(orchestrator.Deps{
		Loader:      c.Loader,
		Data:        c.Summarizer,
		Planner:     c.Planner,
		Generator:   c.Generator,
		Evaluator:   c.Evaluator,
		Recommender: c.Recommender,
		Sinks:       sinks,
	}, logger)

	logger.Debug("container initialized",
		"llm", c.LLM != nil,
		"store", c.Runs != nil,
		"reports", c.Reports != nil)
	return c, nil
}

func (c *Container) initLLM() error {
	if !c.Config.LLM.Enabled() {
		c.Narrator = llm.TemplateNarrator{}
		return nil
	}
	client, err := llm.NewOpenAIClient(llm.Config{
		APIKey:  c.Config.LLM.APIKey,
		BaseURL: c.Config.LLM.BaseURL,
		Model:   c.Config.LLM.Model,
		Timeout: c.Config.LLM.Timeout,
	}, c.Logger)
	if err != nil {
		return errors.ExternalServiceError("openai", err)
	}
	c.LLM = client
	c.Narrator = llm.NewLLMNarrator(client, c.Config.LLM.Model, c.Logger)
	return nil
}

func (c *Container) initPipeline() {
	th := c.Config.Thresholds
	c.Loader = excel.NewDataReader(c.Logger)

	summary := analysis.DefaultThresholds()
	summary.CTRLow = th.CTRLow
	summary.SpendSignificance = th.SpendSignificance
	summary.HighROAS = th.HighROAS
	summary.HighCTR = th.HighCTR
	c.Summarizer = analysis.NewSummarizer(summary, c.Logger)

	pc := c.Config.Agents.Planner
	c.Planner = planner.New(c.LLM, planner.Config{
		Model:       pc.Model,
		Temperature: pc.Temperature,
		MaxTokens:   pc.MaxTokens,
	}, c.Logger)

	gen := heuristic.DefaultConfig()
	gen.CTRBenchmark = th.CTRBenchmark
	c.Generator = heuristic.NewGenerator(gen, c.Logger)

	c.Evaluator = evaluator.New(evaluator.Config{
		CTRBenchmark: th.CTRBenchmark,
		MinGroupSize: th.MinGroupSize,
		MinTrendDays: th.MinTrendDays,
	}, c.Logger)

	cg := c.Config.Agents.CreativeGenerator
	c.Recommender = creative.NewRecommender(creative.Config{
		MaxSuggestions: cg.MaxSuggestions,
		MinConfidence:  cg.MinConfidence,
	}, c.Logger)
}

func (c *Container) initStore(ctx context.Context, require bool) error {
	driver, url := c.Config.Database.Driver, c.Config.Database.URL
	if url == "" {
		if !require {
			return nil
		}
		driver, url = postgres.DriverSQLite, ":memory:"
		c.Logger.Warn("no database configured, runs are kept in memory")
	}

	db, err := postgres.Open(ctx, driver, url)
	if err != nil {
		dbErr := errors.DatabaseError(fmt.Sprintf("open %s run store", driver))
		dbErr.Cause = err
		return dbErr
	}
	c.DB = db
	c.Runs = postgres.NewRunRepository(db, c.Logger)
	return nil
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
