package normalize

import (
	"testing"

	"github.com/pders01/visionqa/internal/models"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier(nil)

	tests := []struct {
		name   string
		unit   string
		want   models.Category
		wantOK bool
	}{
		{"layout", "The GRID alignment shifted", models.Layout, true},
		{"text", "Paragraph text was rewritten", models.Text, true},
		{"style", "Dark theme applied to the page", models.Style, true},
		{"element", "A new banner component appears", models.Element, true},
		{"highest wins", "Button border and shadow updated", models.Style, true},
		{"tie discards", "The button color changed", 0, false},
		{"zero discards", "Nothing relevant happened", 0, false},
		{"repeated keyword counts once", "grid grid grid font title", models.Text, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(tt.unit)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (scores %v)", tt.wantOK, ok, c.Scores(tt.unit))
			}
			if ok && got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestKeywordClassifierCustomTable(t *testing.T) {
	c := NewKeywordClassifier(KeywordTable{
		models.Text:  {"  Copy ", ""},
		models.Style: {"HUE"},
	})

	scores := c.Scores("copy and hue and copy")
	if scores[models.Text] != 1 || scores[models.Style] != 1 {
		t.Errorf("unexpected scores: %v", scores)
	}
	if scores[models.Layout] != 0 || scores[models.Element] != 0 {
		t.Errorf("categories without keywords must score zero: %v", scores)
	}

	if got, ok := c.Classify("the copy was edited"); !ok || got != models.Text {
		t.Errorf("expected text, got %v %v", got, ok)
	}
}

func TestSanitizeEntry(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"  Logo moved  ", "Logo moved", true},
		{"", "", false},
		{"   ", "", false},
		{"[", "", false},
		{"{}", "", false},
		{"element_changes", "", false},
		{`"layout_changes": [`, "", false},
		{"style_changes: none", "", false},
		{`text_changes"`, "", false},
		{"Changes to layout_changes spacing", "Changes to layout_changes spacing", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := SanitizeEntry(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("SanitizeEntry(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSanitizeKeepsRaw(t *testing.T) {
	raw := `{"layout_changes": ["layout_changes"]}`
	diff := models.NewStructuredDiff()
	diff.Changes[models.Layout] = []string{"layout_changes", "Nav moved"}
	diff.RawModelOutput = &raw

	out := Sanitize(diff)
	if out.Raw() != raw {
		t.Errorf("raw output must be carried unfiltered, got %q", out.Raw())
	}
	if got := out.Get(models.Layout); len(got) != 1 || got[0] != "Nav moved" {
		t.Errorf("unexpected layout entries: %v", got)
	}
	if len(diff.Get(models.Layout)) != 2 {
		t.Error("Sanitize must not mutate its input")
	}
}
