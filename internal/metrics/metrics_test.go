package metrics

import (
	"fmt"
	"testing"

	"github.com/pders01/visionqa/internal/models"
	"github.com/pders01/visionqa/internal/normalize"
)

func diffWith(counts map[models.Category]int) models.StructuredDiff {
	d := models.NewStructuredDiff()
	for cat, n := range counts {
		for i := 0; i < n; i++ {
			d.Changes[cat] = append(d.Changes[cat], fmt.Sprintf("%s change %d", cat, i+1))
		}
	}
	return d
}

func TestAggregateSingleLayoutChange(t *testing.T) {
	raw := `{"layout_changes":["Header moved to right"],"text_changes":[],"style_changes":[],"element_changes":[]}`

	m := Aggregate(normalize.New().Normalize(raw), DashboardPolicy)

	if m.NoChanges {
		t.Fatal("expected changes")
	}
	if m.TotalChanges != 1 {
		t.Errorf("expected total 1, got %d", m.TotalChanges)
	}
	if m.CategoriesAffected != 1 {
		t.Errorf("expected 1 category affected, got %d", m.CategoriesAffected)
	}
	if m.Severity != SeverityLow {
		t.Errorf("expected low severity, got %s", m.Severity)
	}
	layout, ok := m.Lookup(models.Layout)
	if !ok {
		t.Fatal("expected layout metric")
	}
	if layout.Percentage != 100 || layout.Display() != "100.0%" {
		t.Errorf("expected 100.0%%, got %v (%s)", layout.Percentage, layout.Display())
	}
}

func TestAggregateNoChanges(t *testing.T) {
	raw := "Not JSON at all, just a sentence with no category keywords."

	m := Aggregate(normalize.New().Normalize(raw), DashboardPolicy)

	if !m.NoChanges {
		t.Fatal("expected the no-changes state")
	}
	if m.Severity != SeverityNone {
		t.Errorf("expected severity none, got %s", m.Severity)
	}
	if m.TotalChanges != 0 || m.CategoriesAffected != 0 || len(m.Categories) != 0 {
		t.Errorf("no-changes state must carry no table: %+v", m)
	}
}

func TestPercentagesSumToHundred(t *testing.T) {
	tests := []map[models.Category]int{
		{models.Layout: 1},
		{models.Layout: 1, models.Text: 1, models.Style: 1},
		{models.Layout: 1, models.Text: 2, models.Style: 3, models.Element: 7},
		{models.Text: 5, models.Element: 1},
		{models.Layout: 3, models.Text: 3, models.Style: 3},
	}

	for i, counts := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			m := Aggregate(diffWith(counts), DashboardPolicy)
			sum := 0.0
			for _, c := range m.Categories {
				sum += c.Percentage
			}
			if sum < 99.9 || sum > 100.1 {
				t.Errorf("percentages sum to %v", sum)
			}
			if m.CategoriesAffected != len(counts) {
				t.Errorf("expected %d categories affected, got %d", len(counts), m.CategoriesAffected)
			}
		})
	}
}

func TestAggregateCategoryOrder(t *testing.T) {
	m := Aggregate(diffWith(map[models.Category]int{models.Element: 1, models.Layout: 1, models.Style: 2}), DashboardPolicy)

	want := []models.Category{models.Layout, models.Style, models.Element}
	if len(m.Categories) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(m.Categories))
	}
	for i, cat := range want {
		if m.Categories[i].Category != cat {
			t.Errorf("position %d: expected %s, got %s", i, cat, m.Categories[i].Category)
		}
	}
	if style, _ := m.Lookup(models.Style); style.Display() != "50.0%" {
		t.Errorf("expected style 50.0%%, got %s", style.Display())
	}
}

func TestDashboardPolicyTiers(t *testing.T) {
	tests := []struct {
		total int
		want  Severity
	}{
		{1, SeverityLow},
		{2, SeverityLow},
		{3, SeverityMedium},
		{5, SeverityMedium},
		{6, SeverityHigh},
		{40, SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.total), func(t *testing.T) {
			m := Aggregate(diffWith(map[models.Category]int{models.Text: tt.total}), DashboardPolicy)
			if m.Severity != tt.want {
				t.Errorf("total %d: expected %s, got %s", tt.total, tt.want, m.Severity)
			}
		})
	}

	if got := DashboardPolicy.Classify(0); got != SeverityLow {
		t.Errorf("three-tier policy has no identical tier, got %s", got)
	}
}

func TestCatalogPolicyTiers(t *testing.T) {
	tests := []struct {
		total      int
		want       Severity
		highImpact bool
	}{
		{0, SeverityNone, false},
		{1, SeverityLow, false},
		{2, SeverityLow, false},
		{3, SeverityMedium, false},
		{5, SeverityMedium, false},
		{6, SeverityHigh, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.total), func(t *testing.T) {
			if got := CatalogPolicy.Classify(tt.total); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if got := CatalogPolicy.IsHighImpact(tt.total); got != tt.highImpact {
				t.Errorf("expected high impact %v, got %v", tt.highImpact, got)
			}
		})
	}
}

func TestCustomPolicy(t *testing.T) {
	p := Policy{LowMax: 0, MediumMax: 10}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := Aggregate(diffWith(map[models.Category]int{models.Style: 1}), p)
	if m.Severity != SeverityMedium {
		t.Errorf("expected medium, got %s", m.Severity)
	}

	if err := (Policy{LowMax: 5, MediumMax: 2}).Validate(); err == nil {
		t.Error("expected error for inverted thresholds")
	}
	if err := (Policy{LowMax: -1, MediumMax: 2}).Validate(); err == nil {
		t.Error("expected error for negative threshold")
	}

	if !DashboardPolicy.WithIdentical(true).Identical || DashboardPolicy.Identical {
		t.Error("WithIdentical must return a modified copy")
	}
}

func TestSeverityLabel(t *testing.T) {
	if SeverityNone.Label() != "No Changes" || SeverityHigh.Label() != "High" {
		t.Errorf("unexpected labels: %s, %s", SeverityNone.Label(), SeverityHigh.Label())
	}
}
