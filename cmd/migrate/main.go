package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"adhypo/adapters/postgres"
	"adhypo/internal/logging"
	"adhypo/internal/report"
	"adhypo/ports"
)

func main() {
	driver := flag.String("driver", postgres.DriverPostgres, "database driver: postgres or sqlite")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-driver postgres|sqlite] <database_url> [reports_dir]")
		fmt.Fprintln(os.Stderr, "Applies the schema and, when reports_dir is given, imports saved runs.")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger, _, err := logging.Setup(logging.Options{Level: os.Getenv("LOG_LEVEL")})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, *driver, flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	logger.Info("schema is up to date", "driver", *driver)

	if flag.NArg() < 2 {
		return
	}
	migrated, skipped, err := importRuns(ctx, postgres.NewRunRepository(db, logger), flag.Arg(1), logger)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	logger.Info("import complete", "migrated", migrated, "skipped", skipped)
}

// importRuns stores every run directory under dir that holds an
// insights.json. Unreadable runs are skipped.
func importRuns(ctx context.Context, runs ports.ResultSink, dir string, logger *slog.Logger) (migrated, skipped int, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	dirs, err := findRunDirs(dir)
	if err != nil {
		return 0, 0, err
	}
	logger.Info("found saved runs", "count", len(dirs), "dir", dir)

	for _, d := range dirs {
		r, err := report.Load(d)
		if err != nil {
			logger.Warn("skipping unreadable run", "dir", d, "error", err)
			skipped++
			continue
		}
		if err := runs.Save(ctx, r); err != nil {
			logger.Warn("failed to save run", "run_id", r.ID, "error", err)
			skipped++
			continue
		}
		migrated++
		logger.Debug("imported run", "run_id", r.ID, "dir", d)
	}
	return migrated, skipped, nil
}

func findRunDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == report.InsightsFile {
			dirs = append(dirs, filepath.Dir(path))
		}
		return nil
	})
	return dirs, err
}
