package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/visionqa/internal/catalog"
	"github.com/pders01/visionqa/internal/config"
	"github.com/pders01/visionqa/internal/logging"
)

var catalogFormat outputFormat

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show statistics over all stored comparisons",
	Long: `Scan the results directory and display:
  - report count and total changes
  - identical pages (no changes)
  - high impact comparisons
  - every comparison, most recent first
  - records that could not be read

Examples:
  visionqa catalog
  visionqa catalog --json
  visionqa catalog --toon`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().BoolVar(&catalogFormat.JSON, "json", false, "Output as JSON")
	catalogCmd.Flags().BoolVar(&catalogFormat.Toon, "toon", false, "Output in LLM-friendly toon format")
	catalogCmd.Flags().BoolVar(&catalogFormat.YAML, "yaml", false, "Output as YAML")
}

// scanCatalog aggregates the results directory under the catalog policy
func scanCatalog() (catalog.Catalog, error) {
	policy, err := config.GetCatalogPolicy()
	if err != nil {
		return catalog.Catalog{}, err
	}
	return catalog.NewAggregator(policy, logging.Default()).Scan(openStore())
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat, err := scanCatalog()
	if err != nil {
		return err
	}

	if handled, err := catalogFormat.write(cat); handled {
		return err
	}

	for _, f := range cat.Faults {
		warnf("skipped %s: %v", f.Source, f.Err)
	}

	if len(cat.Entries) == 0 {
		fmt.Fprintln(stdout, "No comparisons found")
		return nil
	}

	s := cat.Summary
	fmt.Fprintln(stdout, "Comparison Catalog")
	fmt.Fprintln(stdout, "━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Reports:         %d\n", s.Reports)
	fmt.Fprintf(stdout, "Total Changes:   %d\n", s.TotalChanges)
	fmt.Fprintf(stdout, "Identical Pages: %d\n", s.Identical)
	fmt.Fprintf(stdout, "High Impact:     %d\n", s.HighImpact)
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Comparisons:")
	for _, e := range cat.Entries {
		fmt.Fprintf(stdout, "  %s  %-10s %3d  %s vs %s\n",
			e.CapturedAt.Local().Format("2006-01-02 15:04"),
			e.Severity.Label(),
			e.TotalChanges,
			e.SubjectA,
			e.SubjectB,
		)
	}

	return nil
}
