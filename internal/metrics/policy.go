package metrics

import "fmt"

// Severity is a coarse review-priority bucket derived from a change count
type Severity string

const (
	// SeverityNone marks the "no changes" state
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Label returns the display form used in reports and badges
func (s Severity) Label() string {
	switch s {
	case SeverityNone:
		return "No Changes"
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	default:
		return string(s)
	}
}

// Policy maps a total change count to a Severity.
//
// A count of 0 maps to SeverityNone only when Identical is set; otherwise
// it falls into the lowest tier.
type Policy struct {
	LowMax    int  `mapstructure:"low_max" json:"low_max"`
	MediumMax int  `mapstructure:"medium_max" json:"medium_max"`
	Identical bool `mapstructure:"identical" json:"identical"`
}

// DashboardPolicy is the three-tier scheme used for a single comparison
var DashboardPolicy = Policy{LowMax: 2, MediumMax: 5}

// CatalogPolicy adds a distinct identical tier at zero changes
var CatalogPolicy = Policy{LowMax: 2, MediumMax: 5, Identical: true}

// Validate checks that the thresholds are ordered and non-negative
func (p Policy) Validate() error {
	if p.LowMax < 0 {
		return fmt.Errorf("severity low_max must be >= 0, got %d", p.LowMax)
	}
	if p.MediumMax < p.LowMax {
		return fmt.Errorf("severity medium_max (%d) must be >= low_max (%d)", p.MediumMax, p.LowMax)
	}
	return nil
}

// Classify returns the tier for total
func (p Policy) Classify(total int) Severity {
	switch {
	case total <= 0 && p.Identical:
		return SeverityNone
	case total <= p.LowMax:
		return SeverityLow
	case total <= p.MediumMax:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// IsHighImpact reports whether total is above the medium tier
func (p Policy) IsHighImpact(total int) bool {
	return total > p.MediumMax
}

// WithIdentical returns a copy of p with the identical tier toggled
func (p Policy) WithIdentical(identical bool) Policy {
	p.Identical = identical
	return p
}
