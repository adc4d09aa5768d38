package models

import "fmt"

// Category identifies one bucket of visual change
type Category int

const (
	Layout Category = iota
	Text
	Style
	Element
)

// Categories lists every category in reporting order
var Categories = []Category{Layout, Text, Style, Element}

var categoryNames = [...]string{"layout", "text", "style", "element"}

var categoryTitles = [...]string{"Layout Changes", "Text Changes", "Style Changes", "Element Changes"}

func (c Category) valid() bool {
	return c >= Layout && c <= Element
}

// String returns the short lowercase name (layout, text, style, element)
func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Key returns the persisted field name, e.g. "layout_changes"
func (c Category) Key() string {
	return c.String() + "_changes"
}

// Title returns the human heading used in reports
func (c Category) Title() string {
	if !c.valid() {
		return c.String()
	}
	return categoryTitles[c]
}

// MarshalText lets categories act as JSON/YAML map keys.
func (c Category) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("invalid category: %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts either the short name or the persisted key.
func (c *Category) UnmarshalText(b []byte) error {
	s := string(b)
	for _, cat := range Categories {
		if s == cat.String() || s == cat.Key() {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown category: %q", s)
}

// CategoryFromKey maps a persisted field name back to its category
func CategoryFromKey(key string) (Category, bool) {
	for _, cat := range Categories {
		if cat.Key() == key {
			return cat, true
		}
	}
	return 0, false
}
