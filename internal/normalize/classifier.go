package normalize

import (
	"strings"

	"github.com/pders01/visionqa/internal/models"
)

// Classifier assigns a free-form unit of text to at most one category.
// ok is false when the unit should not contribute to any category.
type Classifier interface {
	Classify(unit string) (cat models.Category, ok bool)
}

// KeywordTable lists the keywords that vote for each category
type KeywordTable map[models.Category][]string

// DefaultKeywords is the table used by the fallback path
var DefaultKeywords = KeywordTable{
	models.Layout:  {"layout", "position", "grid", "flex", "alignment", "structure", "spacing", "moved"},
	models.Text:    {"text", "font", "typography", "content", "heading", "paragraph", "title", "label"},
	models.Style:   {"color", "background", "border", "shadow", "gradient", "style", "theme", "dark"},
	models.Element: {"button", "element", "component", "widget", "card", "section", "badge", "banner"},
}

// KeywordClassifier scores a unit by how many of each category's
// keywords it contains (case-insensitive substring match).
type KeywordClassifier struct {
	table KeywordTable
}

// NewKeywordClassifier creates a classifier over table; nil uses DefaultKeywords
func NewKeywordClassifier(table KeywordTable) *KeywordClassifier {
	if table == nil {
		table = DefaultKeywords
	}

	lowered := make(KeywordTable, len(table))
	for cat, words := range table {
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				lowered[cat] = append(lowered[cat], w)
			}
		}
	}

	return &KeywordClassifier{table: lowered}
}

// Scores returns the keyword score of unit for every category
func (k *KeywordClassifier) Scores(unit string) map[models.Category]int {
	lower := strings.ToLower(unit)
	scores := make(map[models.Category]int, len(models.Categories))
	for _, cat := range models.Categories {
		score := 0
		for _, w := range k.table[cat] {
			if strings.Contains(lower, w) {
				score++
			}
		}
		scores[cat] = score
	}
	return scores
}

// Classify picks the category with the strictly highest score.
// A zero score or a tie for the top score yields ok == false.
func (k *KeywordClassifier) Classify(unit string) (models.Category, bool) {
	scores := k.Scores(unit)

	var best models.Category
	bestScore := 0
	tied := false
	for _, cat := range models.Categories {
		switch s := scores[cat]; {
		case s > bestScore:
			best, bestScore, tied = cat, s, false
		case s == bestScore && s > 0:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return 0, false
	}
	return best, true
}
