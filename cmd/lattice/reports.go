package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"veridian-hq/lattice/pkg/cli"
	"veridian-hq/lattice/pkg/compliance/storage"
)

var reportsFlags struct {
	documentID string
	limit      int
	format     string
	schedule   bool
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect and prune stored compliance reports",
	Long: `Query the report store populated by previous evaluation runs.

Subcommands:
  list   - List stored reports, newest first
  show   - Print one report by run ID
  prune  - Apply the retention policy

Examples:
  # Last 20 reports for one document
  lattice reports list --document security_policy.pdf --limit 20

  # Full report as JSON
  lattice reports show 6a1f0c9e-... > report.json

  # One-shot retention pruning
  lattice reports prune

  # Keep pruning on the configured cron schedule until interrupted
  lattice reports prune --schedule`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	RunE:  listReports,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  showReport,
}

var reportsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy to the report store",
	RunE:  pruneReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsPruneCmd)

	reportsListCmd.Flags().StringVar(&reportsFlags.documentID, "document", "", "filter by document ID")
	reportsListCmd.Flags().IntVar(&reportsFlags.limit, "limit", 50, "max reports to list")
	reportsListCmd.Flags().StringVar(&reportsFlags.format, "format", "text", "output format: text, json")

	reportsPruneCmd.Flags().BoolVar(&reportsFlags.schedule, "schedule", false, "run on the configured cron schedule until interrupted")
}

func listReports(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return cli.NewCommandError("reports list", err)
	}
	defer store.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	reports, err := store.ListReports(ctx, storage.ListOptions{
		DocumentID: reportsFlags.documentID,
		Limit:      reportsFlags.limit,
	})
	if err != nil {
		return cli.NewCommandError("reports list", err)
	}

	if cli.OutputFormat(reportsFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, reports)
	}
	for _, report := range reports {
		fmt.Printf("%-38s %-30s %-22s %s\n",
			report.RunID, report.DocumentID, report.OverallCompliance,
			report.Timestamp.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("\n%d reports\n", len(reports))
	return nil
}

func showReport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return cli.NewCommandError("reports show", err)
	}
	defer store.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	report, err := store.GetReport(ctx, args[0])
	if err != nil {
		return cli.NewCommandError("reports show", err)
	}
	return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, report)
}

func pruneReports(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return cli.NewCommandError("reports prune", err)
	}
	defer store.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	pruner := storage.NewPruner(store, &storage.RetentionConfig{
		RetentionDays: cfg.Storage.RetentionDays,
		MaxReports:    cfg.Storage.MaxReports,
		PruneSchedule: cfg.Storage.PruneSchedule,
	}, logger)

	if reportsFlags.schedule {
		scheduler := storage.NewScheduler(pruner, logger)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("reports prune", err)
		}
		if next := scheduler.NextRun(); next != nil {
			fmt.Printf("Pruning on schedule %q, next run %s. Press Ctrl+C to stop.\n",
				cfg.Storage.PruneSchedule, next.Format("2006-01-02 15:04:05"))
		}
		<-ctx.Done()
		scheduler.Stop()
		return nil
	}

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("reports prune", err)
	}
	fmt.Printf("Pruned %d reports\n", deleted)
	return nil
}
