// Package metrics aggregates a structured diff into change counts,
// per-category shares and a severity tier.
package metrics

import (
	"fmt"

	"github.com/pders01/visionqa/internal/models"
)

// CategoryMetric is the count and share of one affected category.
// Percentage is exact; use Display for the one-decimal form.
type CategoryMetric struct {
	Category   models.Category `json:"category" yaml:"category"`
	Title      string          `json:"title" yaml:"title"`
	Count      int             `json:"count" yaml:"count"`
	Percentage float64         `json:"percentage" yaml:"percentage"`
}

// Display formats the percentage with one decimal place
func (c CategoryMetric) Display() string {
	return fmt.Sprintf("%.1f%%", c.Percentage)
}

// DiffMetrics summarizes one structured diff.
// When NoChanges is set the diff had nothing to report and Categories is empty.
type DiffMetrics struct {
	NoChanges          bool             `json:"no_changes" yaml:"no_changes"`
	TotalChanges       int              `json:"total_changes" yaml:"total_changes"`
	CategoriesAffected int              `json:"categories_affected" yaml:"categories_affected"`
	Severity           Severity         `json:"severity" yaml:"severity"`
	Categories         []CategoryMetric `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Count is the counting rule shared by the aggregator and the catalog:
// the number of entries across all categories. Callers pass sanitized diffs.
func Count(d models.StructuredDiff) int {
	total := 0
	for _, cat := range models.Categories {
		total += len(d.Get(cat))
	}
	return total
}

// Aggregate computes metrics for d under policy.
func Aggregate(d models.StructuredDiff, policy Policy) DiffMetrics {
	total := Count(d)
	if total == 0 {
		return DiffMetrics{NoChanges: true, Severity: SeverityNone}
	}

	m := DiffMetrics{
		TotalChanges: total,
		Severity:     policy.Classify(total),
	}
	for _, cat := range models.Categories {
		n := len(d.Get(cat))
		if n == 0 {
			continue
		}
		m.CategoriesAffected++
		m.Categories = append(m.Categories, CategoryMetric{
			Category:   cat,
			Title:      cat.Title(),
			Count:      n,
			Percentage: 100 * float64(n) / float64(total),
		})
	}
	return m
}

// Lookup returns the metric for cat, if that category was affected
func (m DiffMetrics) Lookup(cat models.Category) (CategoryMetric, bool) {
	for _, c := range m.Categories {
		if c.Category == cat {
			return c, true
		}
	}
	return CategoryMetric{}, false
}
