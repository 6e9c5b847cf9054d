package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"adhypo/internal/config"
	"adhypo/internal/container"
	"adhypo/internal/logging"
)

// globals are the persistent flags shared by every command
type globals struct {
	configPath string
	verbose    bool
	json       bool
}

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "analyst",
		Short:         "Explain ad performance changes with tested hypotheses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default "+config.DefaultPath+")")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newRunCmd(g),
		newPlanCmd(g),
		newGenerateCmd(),
	)
	return root
}

// withContainer loads config, sets up logging and hands a wired container
// to fn.
func withContainer(ctx context.Context, g *globals, opts container.Options, fn func(*container.Container) error) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	logOpts := logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File}
	if g.verbose {
		logOpts.Level = "DEBUG"
	} else if cfg.Logging.Level == "" {
		logOpts.Level = "WARN"
	}
	logger, closer, err := logging.Setup(logOpts)
	if err != nil {
		return err
	}
	defer closer.Close()

	c, err := container.New(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			slog.Warn("closing container", "error", err)
		}
	}()
	return fn(c)
}
