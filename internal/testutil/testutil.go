package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pders01/visionqa/internal/models"
	"github.com/pders01/visionqa/internal/store"
)

// TempResults is a disposable results directory for tests
type TempResults struct {
	Path  string
	Store *store.Store
	T     *testing.T
}

// NewTempResults creates an empty results directory removed at test end
func NewTempResults(t *testing.T) *TempResults {
	t.Helper()

	dir := t.TempDir()
	return &TempResults{
		Path:  dir,
		Store: store.NewOS(dir),
		T:     t,
	}
}

// WriteFile creates a file below the results directory
func (r *TempResults) WriteFile(name, content string) string {
	r.T.Helper()

	path := filepath.Join(r.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.T.Fatalf("failed to create file: %v", err)
	}
	return path
}

// WriteRecord persists a record with the given changes per category and
// returns its file name.
func (r *TempResults) WriteRecord(a, b string, capturedAt time.Time, changes map[models.Category][]string) string {
	r.T.Helper()

	diff := models.NewStructuredDiff()
	for cat, list := range changes {
		diff.Changes[cat] = list
	}

	name, err := r.Store.WriteRecord(models.ComparisonRecord{
		ID:          fmt.Sprintf("%s-vs-%s", models.Slug(a), models.Slug(b)),
		SubjectA:    a,
		SubjectB:    b,
		Differences: diff,
		CapturedAt:  capturedAt,
	})
	if err != nil {
		r.T.Fatalf("failed to write record: %v", err)
	}
	return name
}

// WriteRawRecord writes arbitrary JSON-ish content as a record file
func (r *TempResults) WriteRawRecord(name string, value any) string {
	r.T.Helper()

	var content string
	switch v := value.(type) {
	case string:
		content = v
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			r.T.Fatalf("failed to marshal record: %v", err)
		}
		content = string(data)
	}
	r.WriteFile(name, content)
	return name
}

// LogEntry is one message captured by Recorder
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Recorder is a logger that keeps every message for assertions
type Recorder struct {
	mu      sync.Mutex
	Entries []LogEntry
}

func (r *Recorder) add(level, msg string, args []interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (r *Recorder) Debug(msg string, args ...interface{}) { r.add("debug", msg, args) }
func (r *Recorder) Info(msg string, args ...interface{})  { r.add("info", msg, args) }
func (r *Recorder) Warn(msg string, args ...interface{})  { r.add("warn", msg, args) }
func (r *Recorder) Error(msg string, args ...interface{}) { r.add("error", msg, args) }

// Count returns how many messages were logged at level containing substr
func (r *Recorder) Count(level, substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.Entries {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			n++
		}
	}
	return n
}
