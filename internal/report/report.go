// Package report renders comparison reports and the catalog dashboard as
// standalone HTML pages.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pders01/visionqa/internal/catalog"
	"github.com/pders01/visionqa/internal/metrics"
	"github.com/pders01/visionqa/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Section is one category with its change descriptions
type Section struct {
	Title   string
	Entries []string
}

type reportView struct {
	Record    models.ComparisonRecord
	Metrics   metrics.DiffMetrics
	Sections  []Section
	Analysis  template.HTML
	Generated time.Time
}

type indexView struct {
	Catalog   catalog.Catalog
	Prefix    string
	Generated time.Time
}

// Renderer turns records and catalogs into HTML. It is safe for concurrent use.
type Renderer struct {
	report   *template.Template
	index    *template.Template
	markdown goldmark.Markdown
	policy   *bluemonday.Policy

	// Now defaults to time.Now
	Now func() time.Time
	// LinkPrefix is prepended to report links on the dashboard
	LinkPrefix string
}

// New parses the embedded templates
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"width": func(p float64) string { return fmt.Sprintf("%.1f", p) },
		"stamp": func(t time.Time) string {
			if t.IsZero() {
				return "unknown"
			}
			return t.Local().Format("2006-01-02 15:04:05")
		},
	}

	report, err := template.New("report.html").Funcs(funcs).ParseFS(templateFS, "templates/report.html", "templates/style.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	index, err := template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/index.html", "templates/style.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	return &Renderer{
		report:   report,
		index:    index,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
	}, nil
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Report renders one comparison. Metrics must come from the record's diff.
func (r *Renderer) Report(rec models.ComparisonRecord, m metrics.DiffMetrics) ([]byte, error) {
	view := reportView{
		Record:    rec,
		Metrics:   m,
		Generated: r.now(),
	}

	for _, cat := range models.Categories {
		if entries := rec.Differences.Get(cat); len(entries) > 0 {
			view.Sections = append(view.Sections, Section{Title: cat.Title(), Entries: entries})
		}
	}

	if rec.Differences.HasRaw() {
		analysis, err := r.Markdown(rec.Differences.Raw())
		if err != nil {
			return nil, err
		}
		view.Analysis = analysis
	}

	var buf bytes.Buffer
	if err := r.report.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// Index renders the catalog dashboard
func (r *Renderer) Index(cat catalog.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	err := r.index.Execute(&buf, indexView{
		Catalog:   cat,
		Prefix:    r.LinkPrefix,
		Generated: r.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render index: %w", err)
	}
	return buf.Bytes(), nil
}

// Markdown converts untrusted model text to sanitized HTML
func (r *Renderer) Markdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to convert model output: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}
