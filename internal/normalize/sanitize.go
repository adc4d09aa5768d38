package normalize

import (
	"strings"

	"github.com/pders01/visionqa/internal/models"
)

var bracketArtifacts = map[string]bool{
	"[": true, "]": true, "{": true, "}": true, "[]": true, "{}": true,
}

// isKeyLeak reports whether s is a category key, or starts with one
// followed by a quote or colon (JSON fragments from malformed output).
func isKeyLeak(s string) bool {
	for _, cat := range models.Categories {
		key := cat.Key()
		if s == key ||
			strings.HasPrefix(s, `"`+key+`"`) ||
			strings.HasPrefix(s, key+":") ||
			strings.HasPrefix(s, key+`"`) {
			return true
		}
	}
	return false
}

// SanitizeEntry trims one description and reports whether it is a real
// change rather than an empty string, bracket artifact or leaked key.
func SanitizeEntry(entry string) (string, bool) {
	s := strings.TrimSpace(entry)
	if s == "" || bracketArtifacts[s] || isKeyLeak(s) {
		return "", false
	}
	return s, true
}

// Sanitize returns a copy of d with every list filtered through
// SanitizeEntry. The retained raw output is carried over untouched.
func Sanitize(d models.StructuredDiff) models.StructuredDiff {
	out := models.NewStructuredDiff()
	out.RawModelOutput = d.RawModelOutput

	for _, cat := range models.Categories {
		for _, entry := range d.Get(cat) {
			if clean, ok := SanitizeEntry(entry); ok {
				out.Changes[cat] = append(out.Changes[cat], clean)
			}
		}
	}
	return out
}
