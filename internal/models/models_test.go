package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCategoryKeys(t *testing.T) {
	tests := []struct {
		cat   Category
		name  string
		key   string
		title string
	}{
		{Layout, "layout", "layout_changes", "Layout Changes"},
		{Text, "text", "text_changes", "Text Changes"},
		{Style, "style", "style_changes", "Style Changes"},
		{Element, "element", "element_changes", "Element Changes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cat.String() != tt.name {
				t.Errorf("expected name %s, got %s", tt.name, tt.cat.String())
			}
			if tt.cat.Key() != tt.key {
				t.Errorf("expected key %s, got %s", tt.key, tt.cat.Key())
			}
			if tt.cat.Title() != tt.title {
				t.Errorf("expected title %s, got %s", tt.title, tt.cat.Title())
			}
			got, ok := CategoryFromKey(tt.key)
			if !ok || got != tt.cat {
				t.Errorf("CategoryFromKey(%s) = %v, %v", tt.key, got, ok)
			}
		})
	}

	if _, ok := CategoryFromKey("raw_response"); ok {
		t.Error("raw_response must not map to a category")
	}
}

func TestStructuredDiffMarshal(t *testing.T) {
	diff := NewStructuredDiff()
	diff.Changes[Layout] = []string{"Header moved to right"}

	out, err := json.Marshal(diff)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `{"layout_changes":["Header moved to right"],"text_changes":[],"style_changes":[],"element_changes":[]}`
	if string(out) != want {
		t.Errorf("unexpected JSON:\n got %s\nwant %s", out, want)
	}

	raw := "free text"
	diff.RawModelOutput = &raw
	out, err = json.Marshal(diff)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.HasPrefix(string(out), `{"raw_response":"free text",`) {
		t.Errorf("expected raw_response first, got %s", out)
	}
}

func TestStructuredDiffUnmarshalLenient(t *testing.T) {
	input := `{
		"raw_response": "",
		"layout_changes": ["a", 3, true, null, {"k": "v"}],
		"text_changes": "single entry",
		"style_changes": null,
		"extra": 42
	}`

	var diff StructuredDiff
	if err := json.Unmarshal([]byte(input), &diff); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !diff.HasRaw() || diff.Raw() != "" {
		t.Errorf("expected empty raw output to be retained, got %v", diff.RawModelOutput)
	}

	layout := diff.Get(Layout)
	want := []string{"a", "3", "true", "", `{"k":"v"}`}
	if len(layout) != len(want) {
		t.Fatalf("expected %d layout entries, got %v", len(want), layout)
	}
	for i := range want {
		if layout[i] != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], layout[i])
		}
	}

	if got := diff.Get(Text); len(got) != 1 || got[0] != "single entry" {
		t.Errorf("expected single text entry, got %v", got)
	}
	if got := diff.Get(Style); len(got) != 0 {
		t.Errorf("expected no style entries, got %v", got)
	}
	if got := diff.Get(Element); got == nil {
		t.Error("missing categories should be empty, not nil")
	}
}

func TestStructuredDiffUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", `["layout_changes"]`},
		{"raw not string", `{"raw_response": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diff StructuredDiff
			if err := json.Unmarshal([]byte(tt.input), &diff); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

func TestStructuredDiffUnmarshalNonListValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"number", `{"layout_changes": 5, "text_changes": ["Title text changed to Welcome"]}`},
		{"object", `{"layout_changes": {"x": 1}, "text_changes": ["Title text changed to Welcome"]}`},
		{"bool", `{"layout_changes": true, "text_changes": ["Title text changed to Welcome"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diff StructuredDiff
			if err := json.Unmarshal([]byte(tt.input), &diff); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if got := diff.Get(Layout); got == nil || len(got) != 0 {
				t.Errorf("expected empty layout list, got %v", got)
			}
			if got := diff.Get(Text); len(got) != 1 {
				t.Errorf("expected 1 text entry, got %v", got)
			}
		})
	}
}

func TestComparisonRecordUnmarshal(t *testing.T) {
	t.Run("current schema", func(t *testing.T) {
		input := `{"id":"abc","subject_a":"page_v1.html","subject_b":"page_v2.html",
			"captured_at":"2026-10-01T12:00:00Z",
			"differences":{"layout_changes":["Grid changed"]}}`
		var rec ComparisonRecord
		if err := json.Unmarshal([]byte(input), &rec); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if rec.SubjectA != "page_v1.html" || rec.SubjectB != "page_v2.html" {
			t.Errorf("unexpected subjects: %s, %s", rec.SubjectA, rec.SubjectB)
		}
		if !rec.CapturedAt.Equal(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected timestamp: %v", rec.CapturedAt)
		}
		if len(rec.Differences.Get(Layout)) != 1 {
			t.Errorf("expected 1 layout change, got %v", rec.Differences.Get(Layout))
		}
	})

	t.Run("legacy subjects", func(t *testing.T) {
		input := `{"file1":"a.html","file2":"b.html","differences":{"raw_response":"text"}}`
		var rec ComparisonRecord
		if err := json.Unmarshal([]byte(input), &rec); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if rec.SubjectA != "a.html" || rec.SubjectB != "b.html" {
			t.Errorf("legacy subjects not mapped: %s, %s", rec.SubjectA, rec.SubjectB)
		}
		if rec.Differences.Raw() != "text" {
			t.Errorf("expected raw output, got %q", rec.Differences.Raw())
		}
	})

	t.Run("missing differences", func(t *testing.T) {
		var rec ComparisonRecord
		err := json.Unmarshal([]byte(`{"subject_a":"a","subject_b":"b"}`), &rec)
		if !errors.Is(err, ErrNoDifferences) {
			t.Errorf("expected ErrNoDifferences, got %v", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		rec := ComparisonRecord{
			ID:          "id-1",
			SubjectA:    "a.html",
			SubjectB:    "b.html",
			Differences: NewStructuredDiff(),
			CapturedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		rec.Differences.Changes[Style] = []string{"Background darker"}

		out, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var back ComparisonRecord
		if err := json.Unmarshal(out, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if back.ID != rec.ID || !back.CapturedAt.Equal(rec.CapturedAt) {
			t.Errorf("round trip mismatch: %+v", back)
		}
		if got := back.Differences.Get(Style); len(got) != 1 || got[0] != "Background darker" {
			t.Errorf("style changes lost: %v", got)
		}
	})
}

func TestSlugAndNames(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"page_v1.html", "page-v1"},
		{"demo/Landing Page.html", "landing-page"},
		{"https://example.com", "example-com"},
		{"https://m.wikipedia.org/wiki/Go", "m-wikipedia-org-wiki-go"},
		{"", "page"},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			if got := Slug(tt.subject); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.subject, got, tt.want)
			}
		})
	}

	ts := time.Date(2026, 10, 15, 9, 30, 5, 0, time.UTC)
	record := RecordName(ts, "page_v1.html", "page_v2.html")
	if record != "comparison_2026-10-15T093005_page-v1_vs_page-v2.json" {
		t.Errorf("unexpected record name: %s", record)
	}
	if got := ReportNameForRecord(record); got != ReportName(ts, "page_v1.html", "page_v2.html") {
		t.Errorf("report name mismatch: %s", got)
	}
	if got := ScreenshotName(ts, "page_v1.html"); got != "2026-10-15T093005_page-v1_screenshot.png" {
		t.Errorf("unexpected screenshot name: %s", got)
	}
}
