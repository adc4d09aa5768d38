// Package pipeline runs comparisons end to end: capture both subjects,
// ask the vision model, normalize, aggregate, persist and render.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/pders01/visionqa/internal/capture"
	"github.com/pders01/visionqa/internal/logging"
	"github.com/pders01/visionqa/internal/metrics"
	"github.com/pders01/visionqa/internal/models"
	"github.com/pders01/visionqa/internal/normalize"
	"github.com/pders01/visionqa/internal/store"
	"github.com/pders01/visionqa/internal/vision"
)

// ErrMissingInput is returned for a pair whose local document does not exist
var ErrMissingInput = capture.ErrMissingInput

// Pair is one comparison request
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (p Pair) String() string {
	return p.A + " vs " + p.B
}

// ParsePairs groups arguments into pairs: A1 B1 A2 B2 ...
func ParsePairs(args []string) ([]Pair, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("expected an even number of subjects, got %d", len(args))
	}

	pairs := make([]Pair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, Pair{A: args[i], B: args[i+1]})
	}
	return pairs, nil
}

// Resolver maps a subject to a URL the capturer can load
type Resolver interface {
	Resolve(subject string) (string, error)
}

// Renderer produces the HTML report for one comparison
type Renderer interface {
	Report(rec models.ComparisonRecord, m metrics.DiffMetrics) ([]byte, error)
}

// Result is the outcome of one pair. Err is set when the pair failed;
// the other fields hold whatever was completed before the failure.
type Result struct {
	Pair    Pair
	Record  string
	Report  string
	Path    normalize.Path
	Metrics metrics.DiffMetrics
	Err     error
}

// Runner wires the collaborators of one comparison
type Runner struct {
	Resolver   Resolver
	Capturer   capture.Capturer
	Analyzer   vision.Analyzer
	Normalizer *normalize.Normalizer
	Store      *store.Store
	Renderer   Renderer
	Policy     metrics.Policy
	Logger     logging.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() logging.Logger {
	return logging.OrNop(r.Logger)
}

// Compare runs one pair. Failures are returned on the result, never panicked.
func (r *Runner) Compare(ctx context.Context, pair Pair) Result {
	res := Result{Pair: pair}
	log := r.logger()

	if err := r.compare(ctx, pair, &res); err != nil {
		res.Err = err
		log.Error("comparison failed", "a", pair.A, "b", pair.B, "error", err)
		return res
	}

	log.Info("comparison complete",
		"a", pair.A,
		"b", pair.B,
		"record", res.Record,
		"path", res.Path,
		"total_changes", res.Metrics.TotalChanges,
		"severity", res.Metrics.Severity,
	)
	return res
}

func (r *Runner) compare(ctx context.Context, pair Pair, res *Result) error {
	ts := r.now().UTC().Truncate(time.Second)

	urlA, err := r.Resolver.Resolve(pair.A)
	if err != nil {
		return err
	}
	urlB, err := r.Resolver.Resolve(pair.B)
	if err != nil {
		return err
	}

	shotA, err := r.Capturer.Capture(ctx, urlA)
	if err != nil {
		return fmt.Errorf("failed to capture %s: %w", pair.A, err)
	}
	shotB, err := r.Capturer.Capture(ctx, urlB)
	if err != nil {
		return fmt.Errorf("failed to capture %s: %w", pair.B, err)
	}

	shots := screenshotNames(ts, pair)
	if _, err := r.Store.WriteArtifact(shots.A, shotA); err != nil {
		return err
	}
	if _, err := r.Store.WriteArtifact(shots.B, shotB); err != nil {
		return err
	}

	stacked, err := capture.Stack(shotA, shotB)
	if err != nil {
		return err
	}

	raw, err := r.Analyzer.Analyze(ctx, vision.ComparePrompt, stacked)
	if err != nil {
		return fmt.Errorf("vision analysis failed: %w", err)
	}

	normalized := r.Normalizer.Run(raw)
	res.Path = normalized.Path
	res.Metrics = metrics.Aggregate(normalized.Diff, r.Policy)

	rec := models.ComparisonRecord{
		ID:          uuid.NewString(),
		SubjectA:    pair.A,
		SubjectB:    pair.B,
		Differences: normalized.Diff,
		CapturedAt:  ts,
		Provider:    r.Analyzer.Provider(),
		Model:       r.Analyzer.Model(),
		Screenshots: &shots,
	}

	res.Record, err = r.Store.WriteRecord(rec)
	if err != nil {
		return err
	}

	if r.Renderer == nil {
		return nil
	}
	html, err := r.Renderer.Report(rec, res.Metrics)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	name := models.ReportNameForRecord(res.Record)
	if _, err := r.Store.WriteArtifact(name, html); err != nil {
		return err
	}
	res.Report = name

	return nil
}

// screenshotNames keeps the two names apart when both subjects share a slug
func screenshotNames(ts time.Time, pair Pair) models.Screenshots {
	a := models.ScreenshotName(ts, pair.A)
	b := models.ScreenshotName(ts, pair.B)
	if a == b {
		a = strings.TrimSuffix(a, "_screenshot.png") + "_a_screenshot.png"
		b = strings.TrimSuffix(b, "_screenshot.png") + "_b_screenshot.png"
	}
	return models.Screenshots{A: a, B: b}
}

// RunBatch compares every pair with at most concurrency pairs in flight.
// Results are in input order; one failing pair never stops the others.
func (r *Runner) RunBatch(ctx context.Context, pairs []Pair, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(pairs))
	p := pool.New().WithMaxGoroutines(concurrency)
	for i, pair := range pairs {
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Pair: pair, Err: err}
				return
			}
			results[i] = r.Compare(ctx, pair)
		})
	}
	p.Wait()

	return results
}

// Failed returns the results that carry an error
func Failed(results []Result) []Result {
	var failed []Result
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Summarize joins all pair errors into one, or returns nil
func Summarize(results []Result) error {
	var errs []error
	for _, res := range Failed(results) {
		errs = append(errs, fmt.Errorf("%s: %w", res.Pair, res.Err))
	}
	return errors.Join(errs...)
}
