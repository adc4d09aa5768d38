// Package catalog aggregates statistics over previously persisted
// comparison records.
package catalog

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/pders01/visionqa/internal/logging"
	"github.com/pders01/visionqa/internal/metrics"
	"github.com/pders01/visionqa/internal/models"
	"github.com/pders01/visionqa/internal/normalize"
	"github.com/pders01/visionqa/internal/store"
)

// Source is one independently loadable, independently fallible record
type Source interface {
	Name() string
	Load() (models.ComparisonRecord, error)
}

// RecordFault reports a record that could not be loaded or parsed
type RecordFault struct {
	Source string
	Err    error
}

func (f RecordFault) Error() string {
	return fmt.Sprintf("record %s: %v", f.Source, f.Err)
}

func (f RecordFault) Unwrap() error {
	return f.Err
}

// MarshalJSON renders the fault with its error message
func (f RecordFault) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Source string `json:"source"`
		Error  string `json:"error"`
	}{f.Source, fmt.Sprint(f.Err)})
}

// MarshalYAML renders the fault with its error message
func (f RecordFault) MarshalYAML() (interface{}, error) {
	return map[string]string{"source": f.Source, "error": fmt.Sprint(f.Err)}, nil
}

// Entry summarizes one valid record
type Entry struct {
	Name         string           `json:"name" yaml:"name"`
	ID           string           `json:"id,omitempty" yaml:"id,omitempty"`
	SubjectA     string           `json:"subject_a" yaml:"subject_a"`
	SubjectB     string           `json:"subject_b" yaml:"subject_b"`
	TotalChanges int              `json:"total_changes" yaml:"total_changes"`
	Severity     metrics.Severity `json:"severity" yaml:"severity"`
	CapturedAt   time.Time        `json:"captured_at" yaml:"captured_at"`
	Report       string           `json:"report,omitempty" yaml:"report,omitempty"`
}

// Summary holds collection-level statistics
type Summary struct {
	Reports      int `json:"reports" yaml:"reports"`
	TotalChanges int `json:"total_changes" yaml:"total_changes"`
	Identical    int `json:"identical" yaml:"identical"`
	HighImpact   int `json:"high_impact" yaml:"high_impact"`
}

// Catalog is the result of one scan. Entries are most recent first.
type Catalog struct {
	Summary Summary       `json:"summary" yaml:"summary"`
	Entries []Entry       `json:"entries" yaml:"entries"`
	Faults  []RecordFault `json:"faults,omitempty" yaml:"faults,omitempty"`
}

// Aggregator builds catalogs under a severity policy
type Aggregator struct {
	policy metrics.Policy
	logger logging.Logger
}

// NewAggregator creates an aggregator; logger may be nil
func NewAggregator(policy metrics.Policy, logger logging.Logger) *Aggregator {
	return &Aggregator{policy: policy, logger: logging.OrNop(logger)}
}

// Aggregate loads every source and summarizes the valid ones.
// A source that fails to load becomes a RecordFault; the scan continues.
func (a *Aggregator) Aggregate(sources []Source) Catalog {
	cat := Catalog{Entries: []Entry{}}

	for _, src := range sources {
		rec, err := src.Load()
		if err != nil {
			a.logger.Warn("skipping unreadable record", "record", src.Name(), "error", err)
			cat.Faults = append(cat.Faults, RecordFault{Source: src.Name(), Err: err})
			continue
		}

		// Recount from the stored lists rather than any cached figure.
		total := metrics.Count(normalize.Sanitize(rec.Differences))

		cat.Entries = append(cat.Entries, Entry{
			Name:         src.Name(),
			ID:           rec.ID,
			SubjectA:     orUnknown(rec.SubjectA),
			SubjectB:     orUnknown(rec.SubjectB),
			TotalChanges: total,
			Severity:     a.policy.Classify(total),
			CapturedAt:   rec.CapturedAt,
		})

		cat.Summary.Reports++
		cat.Summary.TotalChanges += total
		if total == 0 {
			cat.Summary.Identical++
		}
		if a.policy.IsHighImpact(total) {
			cat.Summary.HighImpact++
		}
	}

	sort.SliceStable(cat.Entries, func(i, j int) bool {
		ei, ej := cat.Entries[i], cat.Entries[j]
		if !ei.CapturedAt.Equal(ej.CapturedAt) {
			return ei.CapturedAt.After(ej.CapturedAt)
		}
		return ei.Name < ej.Name
	})

	return cat
}

// Scan aggregates every record below the store's root and links each
// entry to its rendered report when one exists.
func (a *Aggregator) Scan(s *store.Store) (Catalog, error) {
	names, err := s.ListRecords()
	if err != nil {
		return Catalog{}, err
	}

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, FileSource{Store: s, File: name})
	}

	cat := a.Aggregate(sources)
	for i := range cat.Entries {
		report := models.ReportNameForRecord(cat.Entries[i].Name)
		if s.Exists(report) {
			cat.Entries[i].Report = report
		}
	}

	a.logger.Debug("catalog scanned", "root", s.Root(), "records", len(names), "faults", len(cat.Faults))
	return cat, nil
}

// FileSource loads one record file from a store. A record without a
// capture timestamp takes the file's modification time.
type FileSource struct {
	Store *store.Store
	File  string
}

// Name returns the record file name
func (f FileSource) Name() string {
	return filepath.Base(f.File)
}

// Load reads and decodes the record
func (f FileSource) Load() (models.ComparisonRecord, error) {
	rec, err := f.Store.ReadRecord(f.File)
	if err != nil {
		return models.ComparisonRecord{}, err
	}

	if rec.CapturedAt.IsZero() {
		if info, err := f.Store.Stat(f.File); err == nil {
			rec.CapturedAt = info.ModTime()
		}
	}
	return rec, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
