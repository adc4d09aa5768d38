package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pders01/visionqa/internal/catalog"
	"github.com/pders01/visionqa/internal/config"
	"github.com/pders01/visionqa/internal/logging"
	"github.com/pders01/visionqa/internal/models"
	"github.com/pders01/visionqa/internal/report"
	"github.com/pders01/visionqa/internal/store"
)

var indexWatch bool

// indexDebounce coalesces bursts of record writes into one render
const indexDebounce = 250 * time.Millisecond

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Render the catalog dashboard (index.html)",
	Long: `Write index.html into the results directory with summary statistics
and one card per comparison, most recent first.

With --watch the dashboard is rendered again whenever a comparison record
is created or rewritten, until interrupted.

Examples:
  visionqa index
  visionqa index --watch`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "Re-render when records change")
}

// writeIndex scans s and writes the dashboard next to the records
func writeIndex(s *store.Store) (string, catalog.Catalog, error) {
	policy, err := config.GetCatalogPolicy()
	if err != nil {
		return "", catalog.Catalog{}, err
	}

	cat, err := catalog.NewAggregator(policy, logging.Default()).Scan(s)
	if err != nil {
		return "", catalog.Catalog{}, err
	}

	renderer, err := report.New()
	if err != nil {
		return "", catalog.Catalog{}, err
	}
	html, err := renderer.Index(cat)
	if err != nil {
		return "", catalog.Catalog{}, err
	}

	path, err := s.WriteArtifact(models.IndexName, html)
	if err != nil {
		return "", catalog.Catalog{}, err
	}
	return path, cat, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	s := openStore()

	path, cat, err := writeIndex(s)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✓ Wrote %s (%d reports, %d skipped)\n", path, cat.Summary.Reports, len(cat.Faults))

	if !indexWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "Watching %s for new comparisons (Ctrl+C to stop)\n", s.Root())
	return watchIndex(ctx, s, func() {
		path, cat, err := writeIndex(s)
		if err != nil {
			warnf("failed to render dashboard: %v", err)
			return
		}
		fmt.Fprintf(stdout, "✓ Updated %s (%d reports)\n", path, cat.Summary.Reports)
	})
}

// watchIndex calls render after records below s change, until ctx ends
func watchIndex(ctx context.Context, s *store.Store, render func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.Fs().MkdirAll(s.Root(), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.Root(), err)
	}
	if err := watcher.Add(s.Root()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.Root(), err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRecordEvent(event) {
				continue
			}
			logging.Default().Debug("record changed", "file", event.Name, "op", event.Op.String())
			pending = time.After(indexDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			warnf("watch error: %v", err)
		case <-pending:
			pending = nil
			render()
		}
	}
}

func isRecordEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	ok, err := filepath.Match(models.RecordPattern, filepath.Base(event.Name))
	return err == nil && ok
}
