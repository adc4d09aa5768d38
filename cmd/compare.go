package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pders01/visionqa/internal/capture"
	"github.com/pders01/visionqa/internal/config"
	"github.com/pders01/visionqa/internal/logging"
	"github.com/pders01/visionqa/internal/normalize"
	"github.com/pders01/visionqa/internal/ollama"
	"github.com/pders01/visionqa/internal/openai"
	"github.com/pders01/visionqa/internal/pipeline"
	"github.com/pders01/visionqa/internal/report"
	"github.com/pders01/visionqa/internal/vision"
)

var (
	compareProvider    string
	compareModel       string
	compareConcurrency int
	compareKeepRaw     bool
	compareNoIndex     bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <a> <b> [<a> <b> ...]",
	Short: "Compare pairs of pages with a vision model",
	Long: `Capture both pages of each pair, ask the vision model what changed,
and store the normalized result with an HTML report.

Subjects can be http(s) URLs, absolute paths, or file names inside the
inputs directory (capture.inputs_dir, default "demo"). Pairs run
concurrently; a failing pair does not stop the others, but the command
exits non-zero if any pair failed.

Examples:
  visionqa compare page_v1.html page_v2.html
  visionqa compare https://example.com https://staging.example.com
  visionqa compare a.html b.html c.html d.html --provider openai`,
	Args: func(cmd *cobra.Command, args []string) error {
		_, err := pipeline.ParsePairs(args)
		return err
	},
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareProvider, "provider", "", "Vision provider: ollama or openai (default from config)")
	compareCmd.Flags().StringVar(&compareModel, "model", "", "Vision model (default from config)")
	compareCmd.Flags().IntVarP(&compareConcurrency, "concurrency", "c", 0, "Pairs compared at once (default from config)")
	compareCmd.Flags().BoolVar(&compareKeepRaw, "keep-raw", false, "Store the raw model answer even when it parsed cleanly")
	compareCmd.Flags().BoolVar(&compareNoIndex, "no-index", false, "Skip re-rendering index.html")
}

// newAnalyzer builds the vision provider named by provider
func newAnalyzer(provider, model string) (vision.Analyzer, error) {
	switch provider {
	case "", ollama.ProviderName:
		return ollama.NewClient(config.GetOllamaURL(), model, ollama.Options{JSONFormat: config.GetJSONFormat()})
	case openai.ProviderName:
		// the shipped default names an Ollama model
		if model == ollama.DefaultModel {
			model = ""
		}
		return openai.New(openai.Settings{
			APIKey:     config.GetOpenAIAPIKey(),
			BaseURL:    config.GetOpenAIBaseURL(),
			Model:      model,
			MaxRetries: 2,
		})
	default:
		return nil, fmt.Errorf("unknown vision provider: %s (available: ollama, openai)", provider)
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
	pairs, err := pipeline.ParsePairs(args)
	if err != nil {
		return err
	}

	provider := compareProvider
	if provider == "" {
		provider = config.GetVisionProvider()
	}
	model := compareModel
	if model == "" {
		model = config.GetVisionModel()
	}
	concurrency := compareConcurrency
	if concurrency < 1 {
		concurrency = config.GetConcurrency()
	}

	policy, err := config.GetSeverityPolicy()
	if err != nil {
		return err
	}
	captureCfg, err := config.GetCaptureConfig()
	if err != nil {
		return err
	}
	analyzer, err := newAnalyzer(provider, model)
	if err != nil {
		return err
	}
	renderer, err := report.New()
	if err != nil {
		return err
	}

	logger := logging.Default()
	browser := capture.NewBrowser(captureCfg, logger)
	defer func() {
		if err := browser.Close(); err != nil {
			warnf("failed to close browser: %v", err)
		}
	}()

	s := openStore()
	runner := &pipeline.Runner{
		Resolver: capture.NewResolver(config.GetInputsDir()),
		Capturer: browser,
		Analyzer: analyzer,
		Normalizer: normalize.New(
			normalize.WithKeepRaw(compareKeepRaw),
			normalize.WithLogger(logger),
		),
		Store:    s,
		Renderer: renderer,
		Policy:   policy,
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "Comparing %d pair(s) with %s/%s...\n", len(pairs), analyzer.Provider(), analyzer.Model())
	results := runner.RunBatch(ctx, pairs, concurrency)

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(stdout, "✗ %s: %v\n", res.Pair, res.Err)
			continue
		}
		m := res.Metrics
		fmt.Fprintf(stdout, "✓ %s: %d change(s), %s impact\n", res.Pair, m.TotalChanges, m.Severity.Label())
		fmt.Fprintf(stdout, "  Record: %s\n", s.Path(res.Record))
		fmt.Fprintf(stdout, "  Report: %s\n", s.Path(res.Report))
	}

	if !compareNoIndex && len(pipeline.Failed(results)) < len(results) {
		if path, _, err := writeIndex(s); err != nil {
			warnf("failed to render dashboard: %v", err)
		} else {
			fmt.Fprintf(stdout, "✓ Dashboard: %s\n", path)
		}
	}

	return pipeline.Summarize(results)
}
