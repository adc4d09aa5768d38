package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// RawResponseKey is the persisted field holding the verbatim model output
const RawResponseKey = "raw_response"

// StructuredDiff maps each category to its ordered change descriptions.
// RawModelOutput is non-nil whenever the response was not accepted as
// structured data; it always holds the complete, unfiltered response.
type StructuredDiff struct {
	Changes        map[Category][]string
	RawModelOutput *string
}

// NewStructuredDiff returns a diff with every category present and empty
func NewStructuredDiff() StructuredDiff {
	changes := make(map[Category][]string, len(Categories))
	for _, cat := range Categories {
		changes[cat] = []string{}
	}
	return StructuredDiff{Changes: changes}
}

// Get returns the descriptions recorded for a category
func (d StructuredDiff) Get(c Category) []string {
	return d.Changes[c]
}

// HasRaw reports whether the verbatim model output was retained
func (d StructuredDiff) HasRaw() bool {
	return d.RawModelOutput != nil
}

// Raw returns the retained model output, or "" when none was kept
func (d StructuredDiff) Raw() string {
	if d.RawModelOutput == nil {
		return ""
	}
	return *d.RawModelOutput
}

// MarshalJSON writes the persisted "differences" shape: every category
// key as a list, plus raw_response when retained.
func (d StructuredDiff) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if d.RawModelOutput != nil {
		raw, err := json.Marshal(*d.RawModelOutput)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%q:%s,", RawResponseKey, raw)
	}
	for i, cat := range Categories {
		list := d.Changes[cat]
		if list == nil {
			list = []string{}
		}
		enc, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%s", cat.Key(), enc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a persisted "differences" object without
// sanitizing it. List entries of any JSON type are coerced to strings;
// a bare string counts as a one-element list and any other value as no
// changes.
func (d *StructuredDiff) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("differences must be an object: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("differences must be an object")
	}

	out := NewStructuredDiff()
	for key, value := range fields {
		if key == RawResponseKey {
			var raw string
			if err := json.Unmarshal(value, &raw); err != nil {
				return fmt.Errorf("%s must be a string: %w", RawResponseKey, err)
			}
			out.RawModelOutput = &raw
			continue
		}

		cat, ok := CategoryFromKey(key)
		if !ok {
			// Unknown keys are tolerated; they never count as changes.
			continue
		}

		out.Changes[cat] = decodeEntries(value)
	}

	*d = out
	return nil
}

func decodeEntries(value json.RawMessage) []string {
	var v any
	if err := json.Unmarshal(value, &v); err != nil {
		return []string{}
	}

	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		entries := make([]string, 0, len(t))
		for _, item := range t {
			entries = append(entries, entryString(item))
		}
		return entries
	default:
		// null, numbers, bools and objects carry no change list
		return []string{}
	}
}

func entryString(item any) string {
	if item == nil {
		return ""
	}
	if s, err := cast.ToStringE(item); err == nil {
		return s
	}
	enc, err := json.Marshal(item)
	if err != nil {
		return fmt.Sprint(item)
	}
	return string(enc)
}
