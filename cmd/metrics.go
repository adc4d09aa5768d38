package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pders01/visionqa/internal/config"
	"github.com/pders01/visionqa/internal/logging"
	"github.com/pders01/visionqa/internal/metrics"
	"github.com/pders01/visionqa/internal/models"
	"github.com/pders01/visionqa/internal/normalize"
	"github.com/pders01/visionqa/internal/store"
)

var metricsFormat outputFormat

var metricsCmd = &cobra.Command{
	Use:   "metrics <record.json>",
	Short: "Compute change metrics for one comparison record",
	Long: `Load a persisted comparison record and print its change metrics:
total changes, categories affected, severity and per-category share.

The record may be given as a path or as a file name inside the results
directory. Exits non-zero when the record is missing or unreadable.

Examples:
  visionqa metrics results/comparison_2026-10-15T093000_page-v1_vs_page-v2.json
  visionqa metrics comparison_2026-10-15T093000_page-v1_vs_page-v2.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().BoolVar(&metricsFormat.JSON, "json", false, "Output as JSON")
	metricsCmd.Flags().BoolVar(&metricsFormat.Toon, "toon", false, "Output in LLM-friendly toon format")
	metricsCmd.Flags().BoolVar(&metricsFormat.YAML, "yaml", false, "Output as YAML")
}

type recordMetrics struct {
	Record   string              `json:"record" yaml:"record"`
	SubjectA string              `json:"subject_a" yaml:"subject_a"`
	SubjectB string              `json:"subject_b" yaml:"subject_b"`
	Source   normalize.Path      `json:"source" yaml:"source"`
	Metrics  metrics.DiffMetrics `json:"metrics" yaml:"metrics"`
}

// locateRecord resolves a record argument to a path: as given, or inside
// the results directory.
func locateRecord(fs afero.Fs, arg string) (string, error) {
	if ok, _ := afero.Exists(fs, arg); ok {
		return arg, nil
	}
	if !filepath.IsAbs(arg) {
		candidate := filepath.Join(storageRoot(), arg)
		if ok, _ := afero.Exists(fs, candidate); ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("record not found: %s", arg)
}

// loadRecord reads a record and reconciles its diff for aggregation
func loadRecord(arg string) (string, models.ComparisonRecord, normalize.Result, error) {
	path, err := locateRecord(resultsFs, arg)
	if err != nil {
		return "", models.ComparisonRecord{}, normalize.Result{}, err
	}

	rec, err := store.LoadRecord(resultsFs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", models.ComparisonRecord{}, normalize.Result{}, fmt.Errorf("record not found: %s", arg)
		}
		return "", models.ComparisonRecord{}, normalize.Result{}, fmt.Errorf("unreadable record: %w", err)
	}

	res := normalize.New(normalize.WithLogger(logging.Default())).Reconcile(rec.Differences)
	return path, rec, res, nil
}

func runMetrics(cmd *cobra.Command, args []string) error {
	policy, err := config.GetSeverityPolicy()
	if err != nil {
		return err
	}

	path, rec, res, err := loadRecord(args[0])
	if err != nil {
		return err
	}

	out := recordMetrics{
		Record:   filepath.Base(path),
		SubjectA: rec.SubjectA,
		SubjectB: rec.SubjectB,
		Source:   res.Path,
		Metrics:  metrics.Aggregate(res.Diff, policy),
	}

	if handled, err := metricsFormat.write(out); handled {
		return err
	}

	printMetrics(out)
	return nil
}

func printMetrics(out recordMetrics) {
	fmt.Fprintf(stdout, "Metrics: %s vs %s\n", out.SubjectA, out.SubjectB)
	fmt.Fprintln(stdout, "━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(stdout)

	m := out.Metrics
	if m.NoChanges {
		fmt.Fprintln(stdout, "No visual changes detected")
		return
	}

	fmt.Fprintf(stdout, "Total Changes:       %d\n", m.TotalChanges)
	fmt.Fprintf(stdout, "Categories Affected: %d\n", m.CategoriesAffected)
	fmt.Fprintf(stdout, "Severity:            %s\n", m.Severity.Label())
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "By Category:")
	for _, c := range m.Categories {
		fmt.Fprintf(stdout, "  %-17s %3d  (%s)\n", c.Title, c.Count, c.Display())
	}
}
