package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pders01/visionqa/internal/config"
	"github.com/pders01/visionqa/internal/metrics"
	"github.com/pders01/visionqa/internal/models"
	"github.com/pders01/visionqa/internal/report"
	"github.com/pders01/visionqa/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report <record.json>",
	Short: "Render the HTML report for a comparison record",
	Long: `Render the HTML report for one stored comparison and write it next
to the record as visual_report_<stamp>_<a>_vs_<b>.html.

Use this after upgrading visionqa or changing severity thresholds, or to
render records written by older tools.

Examples:
  visionqa report comparison_2026-10-15T093000_page-v1_vs_page-v2.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	policy, err := config.GetSeverityPolicy()
	if err != nil {
		return err
	}

	path, rec, res, err := loadRecord(args[0])
	if err != nil {
		return err
	}
	rec.Differences = res.Diff

	renderer, err := report.New()
	if err != nil {
		return err
	}
	html, err := renderer.Report(rec, metrics.Aggregate(res.Diff, policy))
	if err != nil {
		return err
	}

	s := store.New(resultsFs, filepath.Dir(path))
	out, err := s.WriteArtifact(models.ReportNameForRecord(filepath.Base(path)), html)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "✓ Wrote %s\n", out)
	return nil
}
