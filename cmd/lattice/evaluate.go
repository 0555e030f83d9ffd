package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"veridian-hq/lattice/pkg/cli"
	"veridian-hq/lattice/pkg/compliance"
	"veridian-hq/lattice/pkg/compliance/storage"
	"veridian-hq/lattice/pkg/config"
	"veridian-hq/lattice/pkg/document"
	"veridian-hq/lattice/pkg/inference"
	"veridian-hq/lattice/pkg/parsing"
	"veridian-hq/lattice/pkg/requirement/catalog"
	"veridian-hq/lattice/pkg/telemetry/metrics"
)

var evaluateFlags struct {
	outputDir string
	semantic  bool
	workers   int
	noStore   bool
	noMatrix  bool
	quiet     bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [paths...]",
	Short: "Evaluate documents against the requirement catalog",
	Long: `Evaluate one or more documents against the requirement catalog.

Each path may be a file or a directory; directories are scanned for text
files. Every document gets a JSON compliance report in the output directory,
plus an aggregate compliance matrix covering the whole run.

Examples:
  # Evaluate a directory of documents
  lattice evaluate ./docs

  # Evaluate with LLM-backed semantic analysis
  lattice evaluate --semantic security_policy.txt

  # Write reports somewhere else and skip the report store
  lattice evaluate --output /tmp/run1 --no-store ./docs`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVarP(&evaluateFlags.outputDir, "output", "o", "reports", "directory for report and matrix JSON files")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.semantic, "semantic", false, "enable semantic evaluation regardless of config")
	evaluateCmd.Flags().IntVar(&evaluateFlags.workers, "workers", 0, "override worker count for batch evaluation")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.noStore, "no-store", false, "do not persist reports to the report store")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.noMatrix, "no-matrix", false, "skip compliance matrix generation")
	evaluateCmd.Flags().BoolVarP(&evaluateFlags.quiet, "quiet", "q", false, "suppress the progress bar")
}

// progressObserver layers a progress bar on top of the metrics collector.
type progressObserver struct {
	*metrics.Collector
	progress cli.ProgressReporter
	done     atomic.Int64
}

func (o *progressObserver) ObserveDocument(level compliance.Level, requirements int, d time.Duration) {
	o.Collector.ObserveDocument(level, requirements, d)
	o.progress.Update(o.done.Add(1))
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if evaluateFlags.semantic {
		cfg.Evaluator.Semantic = true
	}
	if evaluateFlags.workers > 0 {
		cfg.Evaluator.Workers = evaluateFlags.workers
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	docs, err := document.LoadPaths(args)
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}
	if len(docs) == 0 {
		return cli.NewCommandError("evaluate", errors.New("no documents found under the given paths"))
	}

	cat := catalog.New(catalog.Options{
		Path:     cfg.Catalog.Path,
		AutoSave: cfg.Catalog.AutoSave,
		Logger:   logger,
	})
	if err := cat.Load(); err != nil {
		return cli.NewCommandError("evaluate", fmt.Errorf("load catalog: %w", err))
	}
	if cat.Len() == 0 {
		logger.Warn("requirement catalog is empty", "path", cfg.Catalog.Path)
	}
	if cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(cat, 200*time.Millisecond, logger)
		if err != nil {
			return cli.NewCommandError("evaluate", fmt.Errorf("catalog watcher: %w", err))
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("catalog watcher stopped", "error", err)
			}
		}()
	}

	collector := metrics.NewCollector(nil)
	collector.SetCatalogSize(cat.Len())
	if cfg.Telemetry.MetricsAddress != "" {
		go serveMetrics(cfg.Telemetry.MetricsAddress, collector, logger)
	}

	var observer compliance.Observer = collector
	progress := cli.NewProgressReporter(os.Stderr)
	if !evaluateFlags.quiet {
		progress.Start(int64(len(docs)))
		observer = &progressObserver{Collector: collector, progress: progress}
	}

	var client inference.Client
	if cfg.Evaluator.Semantic {
		base := inference.NewHTTPClient(inference.ClientConfig{
			BaseURL: cfg.Inference.BaseURL,
			Model:   cfg.Inference.Model,
			Timeout: cfg.Inference.Timeout,
		}, logger)
		resilient := inference.NewResilientClient(base, inference.RetryConfig{
			MaxRetries: cfg.Inference.MaxRetries,
			BaseDelay:  cfg.Inference.BaseDelay,
			MaxDelay:   cfg.Inference.MaxDelay,
			Jitter:     cfg.Inference.Jitter,
		}, inference.BreakerConfig{
			FailureThreshold: cfg.Inference.FailureThreshold,
			ResetTimeout:     cfg.Inference.ResetTimeout,
		}, logger)
		resilient.SetObserver(collector)
		client = resilient
	}

	evaluator := compliance.NewEvaluator(cat, client, parsing.NewParser(logger), compliance.Options{
		Semantic:     cfg.Evaluator.Semantic,
		Workers:      cfg.Evaluator.Workers,
		ExcerptLimit: cfg.Evaluator.ExcerptLimit,
		Logger:       logger,
		Observer:     observer,
	})

	logger.Info("starting evaluation",
		"documents", len(docs),
		"requirements", cat.Len(),
		"semantic", cfg.Evaluator.Semantic,
		"workers", cfg.Evaluator.Workers,
	)

	started := time.Now()
	reports := evaluator.EvaluateDocuments(ctx, docs)
	if !evaluateFlags.quiet {
		progress.Finish()
	}

	if err := writeRunOutput(evaluator, reports); err != nil {
		return cli.NewCommandError("evaluate", err)
	}
	if !evaluateFlags.noStore {
		if err := persistReports(ctx, cfg, logger, reports); err != nil {
			return cli.NewCommandError("evaluate", err)
		}
	}

	printRunSummary(reports, time.Since(started))
	return nil
}

// writeRunOutput writes one report JSON per document plus the matrix.
func writeRunOutput(evaluator *compliance.Evaluator, reports map[string]*compliance.Report) error {
	if err := os.MkdirAll(evaluateFlags.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for id, report := range reports {
		name := strings.ReplaceAll(id, string(os.PathSeparator), "_") + ".report.json"
		if err := compliance.SaveReport(report, filepath.Join(evaluateFlags.outputDir, name)); err != nil {
			return err
		}
	}

	if !evaluateFlags.noMatrix {
		matrix := evaluator.GenerateMatrix(reports)
		if err := compliance.SaveMatrix(matrix, filepath.Join(evaluateFlags.outputDir, "matrix.json")); err != nil {
			return err
		}
		fmt.Printf("Matrix: %s compliance across %d documents and %d requirements\n",
			matrix.Summary.Overall.Level,
			matrix.Metadata.TotalDocuments,
			matrix.Metadata.TotalRequirements,
		)
	}
	return nil
}

func persistReports(ctx context.Context, cfg *config.Config, logger *slog.Logger, reports map[string]*compliance.Report) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, report := range reports {
		if err := store.SaveReport(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

func printRunSummary(reports map[string]*compliance.Report, elapsed time.Duration) {
	ids := make([]string, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		report := reports[id]
		fmt.Printf("%-40s %-22s confidence %.2f\n", id, report.OverallCompliance, report.ConfidenceScore)
	}
	fmt.Printf("\nEvaluated %d documents in %s; reports written to %s\n",
		len(reports), elapsed.Round(time.Millisecond), evaluateFlags.outputDir)
}

func serveMetrics(address string, collector *metrics.Collector, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	logger.Info("serving metrics", "address", address)
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("metrics server stopped", "error", err)
	}
}

// openStore builds the report store selected by configuration.
func openStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		sqliteConfig := storage.DefaultSQLiteConfig()
		sqliteConfig.Path = cfg.Storage.Path
		return storage.NewSQLiteStore(sqliteConfig, logger)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
