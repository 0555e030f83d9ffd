package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"veridian-hq/lattice/pkg/cli"
	"veridian-hq/lattice/pkg/config"
	"veridian-hq/lattice/pkg/requirement"
	"veridian-hq/lattice/pkg/requirement/catalog"
)

var catalogFlags struct {
	category    string
	reqType     string
	priority    string
	source      string
	format      string
	output      string
	description string
	subcategory string
	section     string
	keywords    []string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the requirement catalog",
	Long: `Inspect and modify the requirement catalog.

Subcommands:
  list    - List requirements with optional filters
  stats   - Show catalog statistics
  add     - Add a single requirement
  delete  - Delete a requirement by ID
  export  - Export the catalog to a file

Examples:
  # List mandatory authentication requirements
  lattice catalog list --type mandatory --category Authentication

  # Add a requirement
  lattice catalog add REQ-001 --description "All access must use MFA" \
    --type mandatory --priority critical --category Authentication

  # Export as JSON
  lattice catalog export --output requirements.json --format json`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List requirements",
	RunE:  listRequirements,
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE:  showCatalogStats,
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a requirement",
	Args:  cobra.ExactArgs(1),
	RunE:  addRequirement,
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a requirement",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteRequirement,
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to a file",
	RunE:  exportCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogStatsCmd, catalogAddCmd, catalogDeleteCmd, catalogExportCmd)

	catalogListCmd.Flags().StringVar(&catalogFlags.category, "category", "", "filter by category")
	catalogListCmd.Flags().StringVar(&catalogFlags.reqType, "type", "", "filter by type (mandatory, recommended, prohibited)")
	catalogListCmd.Flags().StringVar(&catalogFlags.priority, "priority", "", "filter by priority (critical, high, medium, low)")
	catalogListCmd.Flags().StringVar(&catalogFlags.source, "source", "", "filter by source document section")
	catalogListCmd.Flags().StringVar(&catalogFlags.format, "format", "text", "output format: text, json")

	catalogStatsCmd.Flags().StringVar(&catalogFlags.format, "format", "text", "output format: text, json")

	catalogAddCmd.Flags().StringVarP(&catalogFlags.description, "description", "d", "", "requirement description (required)")
	catalogAddCmd.Flags().StringVar(&catalogFlags.reqType, "type", "mandatory", "requirement type")
	catalogAddCmd.Flags().StringVar(&catalogFlags.priority, "priority", "medium", "requirement priority")
	catalogAddCmd.Flags().StringVar(&catalogFlags.category, "category", "", "requirement category (required)")
	catalogAddCmd.Flags().StringVar(&catalogFlags.subcategory, "subcategory", "", "requirement subcategory")
	catalogAddCmd.Flags().StringVar(&catalogFlags.section, "section", "manual entry", "source document section")
	catalogAddCmd.Flags().StringSliceVar(&catalogFlags.keywords, "keywords", nil, "evaluation keywords (comma-separated)")
	_ = catalogAddCmd.MarkFlagRequired("description")
	_ = catalogAddCmd.MarkFlagRequired("category")

	catalogExportCmd.Flags().StringVarP(&catalogFlags.output, "output", "o", "", "output file (required)")
	catalogExportCmd.Flags().StringVar(&catalogFlags.format, "format", "yaml", "export format: yaml, json")
	_ = catalogExportCmd.MarkFlagRequired("output")
}

// openCatalog loads the configured catalog. When mustExist is false a missing
// catalog file yields an empty catalog instead of an error, so the first
// "catalog add" can bootstrap the file.
func openCatalog(cfg *config.Config, logger *slog.Logger, mustExist bool) (*catalog.Catalog, error) {
	cat := catalog.New(catalog.Options{
		Path:     cfg.Catalog.Path,
		AutoSave: cfg.Catalog.AutoSave,
		Logger:   logger,
	})
	if err := cat.Load(); err != nil {
		if !mustExist && errors.Is(err, fs.ErrNotExist) {
			return cat, nil
		}
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

func listRequirements(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg, logger, true)
	if err != nil {
		return cli.NewCommandError("catalog list", err)
	}

	reqs := cat.Filter(catalog.FilterOptions{
		Category: catalogFlags.category,
		Type:     requirement.Type(catalogFlags.reqType),
		Priority: requirement.Priority(catalogFlags.priority),
		Source:   catalogFlags.source,
	})

	if cli.OutputFormat(catalogFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, reqs)
	}
	for _, req := range reqs {
		fmt.Printf("%-12s %-12s %-10s %-20s %s\n",
			req.ID, req.Type, req.Priority, req.Category, oneLine(req.Description, 60))
	}
	fmt.Printf("\n%d requirements\n", len(reqs))
	return nil
}

func showCatalogStats(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg, logger, true)
	if err != nil {
		return cli.NewCommandError("catalog stats", err)
	}

	stats := cat.Stats()
	if cli.OutputFormat(catalogFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, stats)
	}

	fmt.Printf("Total requirements: %d\n", stats.Total)
	fmt.Printf("Last updated:       %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05"))
	printCountSection("By type", stats.ByType)
	printCountSection("By priority", stats.ByPriority)
	printCountSection("By category", stats.ByCategory)
	return nil
}

func addRequirement(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg, logger, false)
	if err != nil {
		return cli.NewCommandError("catalog add", err)
	}

	req := &requirement.Requirement{
		ID:          args[0],
		Description: catalogFlags.description,
		Type:        requirement.Type(catalogFlags.reqType),
		Priority:    requirement.Priority(catalogFlags.priority),
		Category:    catalogFlags.category,
		Subcategory: catalogFlags.subcategory,
		Source: requirement.Source{
			DocumentSection: catalogFlags.section,
		},
		ConfidenceScore: 1.0,
		Keywords:        catalogFlags.keywords,
	}
	if err := req.Validate(); err != nil {
		return cli.NewCommandError("catalog add", err)
	}
	if !cat.Add(req) {
		return cli.NewCommandError("catalog add", fmt.Errorf("requirement %q already exists", req.ID))
	}
	if err := cat.Save(); err != nil {
		return cli.NewCommandError("catalog add", err)
	}

	fmt.Printf("Added %s (%d requirements total)\n", req.ID, cat.Len())
	return nil
}

func deleteRequirement(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg, logger, true)
	if err != nil {
		return cli.NewCommandError("catalog delete", err)
	}

	if !cat.Delete(args[0]) {
		return cli.NewCommandError("catalog delete", fmt.Errorf("requirement %q not found", args[0]))
	}
	if err := cat.Save(); err != nil {
		return cli.NewCommandError("catalog delete", err)
	}

	fmt.Printf("Deleted %s (%d requirements remain)\n", args[0], cat.Len())
	return nil
}

func exportCatalog(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg, logger, true)
	if err != nil {
		return cli.NewCommandError("catalog export", err)
	}

	switch catalogFlags.format {
	case "json":
		err = cat.ExportJSON(catalogFlags.output)
	case "yaml", "yml":
		err = cat.SaveTo(catalogFlags.output)
	default:
		err = fmt.Errorf("unsupported export format %q", catalogFlags.format)
	}
	if err != nil {
		return cli.NewCommandError("catalog export", err)
	}

	fmt.Printf("Exported %d requirements to %s\n", cat.Len(), catalogFlags.output)
	return nil
}

func printCountSection(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for name, count := range counts {
		fmt.Printf("  %-20s %d\n", name, count)
	}
}

func oneLine(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
