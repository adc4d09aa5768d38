// Package normalize turns an untrusted vision-model response into a
// canonical StructuredDiff.
//
// The strict path accepts the brace-delimited JSON object in the response
// when all of its keys are category keys. Anything else goes through the
// fallback path, which splits the text into sentence-like units and
// assigns each one to a category with a Classifier. Both paths end in
// Sanitize, so no leaked keys or bracket artifacts survive.
//
// A Normalizer holds no mutable state and is safe for concurrent use.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/pders01/visionqa/internal/logging"
	"github.com/pders01/visionqa/internal/models"
)

// Path names the route a response took through the normalizer
type Path string

const (
	PathStrict   Path = "strict"
	PathFallback Path = "fallback"
	// PathStored means a persisted diff was used as-is after sanitizing
	PathStored Path = "stored"
)

// minUnitLength is the shortest fallback unit, in runes, worth classifying
const minUnitLength = 10

// unitCutset is trimmed from both ends of a fallback unit before insertion
const unitCutset = ".-,[]\"' \t\r\n"

// Result is a normalized diff plus the path that produced it
type Result struct {
	Diff models.StructuredDiff
	Path Path
}

// Normalizer converts raw model responses into structured diffs
type Normalizer struct {
	classifier Classifier
	keepRaw    bool
	logger     logging.Logger
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithClassifier replaces the keyword classifier used on the fallback path
func WithClassifier(c Classifier) Option {
	return func(n *Normalizer) {
		if c != nil {
			n.classifier = c
		}
	}
}

// WithKeepRaw retains the verbatim response on the strict path as well
func WithKeepRaw(keep bool) Option {
	return func(n *Normalizer) {
		n.keepRaw = keep
	}
}

// WithLogger sets the logger used for path decisions
func WithLogger(logger logging.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logging.OrNop(logger)
	}
}

// New creates a Normalizer using the default keyword table unless overridden
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		classifier: NewKeywordClassifier(nil),
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the structured diff for raw. It never fails.
func (n *Normalizer) Normalize(raw string) models.StructuredDiff {
	return n.Run(raw).Diff
}

// Run normalizes raw and reports which path was taken
func (n *Normalizer) Run(raw string) Result {
	diff := models.NewStructuredDiff()

	if changes, ok := parseStrict(raw); ok {
		for cat, entries := range changes {
			diff.Changes[cat] = entries
		}
		if n.keepRaw {
			diff.RawModelOutput = &raw
		}
		n.logger.Debug("model output accepted as structured data", "bytes", len(raw))
		return Result{Diff: Sanitize(diff), Path: PathStrict}
	}

	n.logger.Debug("model output is not structured, classifying prose", "bytes", len(raw))
	for cat, entries := range n.fallback(raw) {
		diff.Changes[cat] = entries
	}
	diff.RawModelOutput = &raw

	return Result{Diff: Sanitize(diff), Path: PathFallback}
}

// Reconcile prepares a persisted diff for aggregation. A diff that holds
// only a raw response, as written by older tools, is normalized from that
// response; any other diff is sanitized and used as stored.
func (n *Normalizer) Reconcile(d models.StructuredDiff) Result {
	clean := Sanitize(d)
	if !clean.HasRaw() {
		return Result{Diff: clean, Path: PathStored}
	}
	for _, cat := range models.Categories {
		if len(clean.Get(cat)) > 0 {
			return Result{Diff: clean, Path: PathStored}
		}
	}

	res := n.Run(clean.Raw())
	res.Diff.RawModelOutput = d.RawModelOutput
	return res
}

// parseStrict extracts the span from the first '{' to the last '}' and
// accepts it when it is a JSON object whose keys are all category keys.
func parseStrict(raw string) (map[models.Category][]string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return nil, false
	}

	body := raw[start : end+1]
	if !gjson.Valid(body) {
		return nil, false
	}

	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return nil, false
	}

	changes := make(map[models.Category][]string, len(models.Categories))
	ok := true
	doc.ForEach(func(key, value gjson.Result) bool {
		cat, known := models.CategoryFromKey(key.String())
		if !known {
			ok = false
			return false
		}
		entries, valid := strictEntries(value)
		if !valid {
			ok = false
			return false
		}
		changes[cat] = append(changes[cat], entries...)
		return true
	})

	if !ok {
		return nil, false
	}
	return changes, true
}

func strictEntries(value gjson.Result) ([]string, bool) {
	switch {
	case value.Type == gjson.Null:
		return nil, true
	case value.Type == gjson.String:
		return []string{value.String()}, true
	case value.IsArray():
		items := value.Array()
		entries := make([]string, 0, len(items))
		for _, item := range items {
			if item.Type == gjson.Null {
				continue
			}
			// Objects and arrays stringify to their raw JSON text.
			entries = append(entries, item.String())
		}
		return entries, true
	default:
		return nil, false
	}
}

func (n *Normalizer) fallback(raw string) map[models.Category][]string {
	changes := make(map[models.Category][]string, len(models.Categories))

	for _, unit := range splitUnits(raw) {
		if skipUnit(unit) {
			continue
		}

		cat, ok := n.classifier.Classify(unit)
		if !ok {
			continue
		}

		clean := cleanUnit(unit)
		if clean == "" || strings.HasSuffix(strings.ToLower(clean), "_changes") {
			continue
		}
		changes[cat] = append(changes[cat], clean)
	}

	return changes
}

// splitUnits breaks text on newlines and on sentence boundaries (". ")
func splitUnits(raw string) []string {
	text := strings.ReplaceAll(raw, ". ", ".\n")
	lines := strings.Split(text, "\n")

	units := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			units = append(units, line)
		}
	}
	return units
}

func skipUnit(unit string) bool {
	if utf8.RuneCountInString(unit) < minUnitLength {
		return true
	}
	if isPunctuationOnly(unit) {
		return true
	}
	return isKeyLeak(unit)
}

func isPunctuationOnly(s string) bool {
	return strings.Trim(s, "[]{},:\"' \t") == ""
}

// cleanUnit trims surrounding punctuation and quotes, then upper-cases
// the first letter.
func cleanUnit(unit string) string {
	s := strings.Trim(unit, unitCutset)
	if s == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsLower(r) {
		return string(unicode.ToUpper(r)) + s[size:]
	}
	return s
}
