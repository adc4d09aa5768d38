package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pders01/visionqa/internal/catalog"
	"github.com/pders01/visionqa/internal/metrics"
	"github.com/pders01/visionqa/internal/models"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()

	r, err := New()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	r.Now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestReportWithChanges(t *testing.T) {
	r := newRenderer(t)

	diff := models.NewStructuredDiff()
	diff.Changes[models.Layout] = []string{"Header moved to right"}
	diff.Changes[models.Style] = []string{"Button color <b>changed</b>", "Dark theme enabled"}
	rec := models.ComparisonRecord{
		SubjectA:    "page_v1.html",
		SubjectB:    "page_v2.html",
		Differences: diff,
		Provider:    "ollama",
		Model:       "llava:7b",
		Screenshots: &models.Screenshots{A: "a_screenshot.png", B: "b_screenshot.png"},
	}

	out, err := r.Report(rec, metrics.Aggregate(diff, metrics.DashboardPolicy))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"page_v1.html vs page_v2.html",
		"Medium Impact",
		"Layout Changes",
		"Style Changes",
		"33.3%",
		"66.7%",
		`src="a_screenshot.png"`,
		"Button color &lt;b&gt;changed&lt;/b&gt;",
		"llava:7b",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}

	for _, unwanted := range []string{"Text Changes", "No Visual Changes Detected", "Model analysis"} {
		if strings.Contains(html, unwanted) {
			t.Errorf("report should not contain %q", unwanted)
		}
	}
}

func TestReportNoChanges(t *testing.T) {
	r := newRenderer(t)

	raw := "**Not JSON** at all.\n\n<script>alert(1)</script>"
	diff := models.NewStructuredDiff()
	diff.RawModelOutput = &raw

	out, err := r.Report(models.ComparisonRecord{SubjectA: "a", SubjectB: "b", Differences: diff}, metrics.Aggregate(diff, metrics.DashboardPolicy))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	html := string(out)

	if !strings.Contains(html, "No Visual Changes Detected") {
		t.Error("expected identical panel")
	}
	if strings.Contains(html, "Analysis Dashboard") {
		t.Error("no-changes report should not render the dashboard")
	}
	if !strings.Contains(html, "<strong>Not JSON</strong>") {
		t.Error("expected model analysis rendered as markdown")
	}
	if strings.Contains(html, "<script>") {
		t.Error("model analysis must be sanitized")
	}
}

func TestIndex(t *testing.T) {
	r := newRenderer(t)
	r.LinkPrefix = "/files/"

	cat := catalog.Catalog{
		Summary: catalog.Summary{Reports: 2, TotalChanges: 7, Identical: 1, HighImpact: 1},
		Entries: []catalog.Entry{
			{Name: "comparison_b.json", SubjectA: "x.html", SubjectB: "y.html", TotalChanges: 7, Severity: metrics.SeverityHigh, Report: "visual_report_b.html"},
			{Name: "comparison_a.json", SubjectA: "a.html", SubjectB: "b.html", Severity: metrics.SeverityNone},
		},
		Faults: []catalog.RecordFault{{Source: "comparison_bad.json", Err: errors.New("unexpected end of JSON input")}},
	}

	out, err := r.Index(cat)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"x.html vs y.html",
		`href="/files/visual_report_b.html"`,
		`class="badge high"`,
		"No Changes",
		"Identical Pages",
		"comparison_bad.json",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Index(html, "x.html vs y.html") > strings.Index(html, "a.html vs b.html") {
		t.Error("entries should keep catalog order")
	}
}

func TestIndexEmpty(t *testing.T) {
	out, err := newRenderer(t).Index(catalog.Catalog{})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(string(out), "No comparison records found.") {
		t.Error("expected empty state")
	}
}
