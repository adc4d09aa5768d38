package models

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// StampLayout is the timestamp format embedded in artifact names
const StampLayout = "2006-01-02T150405"

const (
	recordPrefix = "comparison_"
	reportPrefix = "visual_report_"
	// RecordPattern matches persisted comparison records
	RecordPattern = recordPrefix + "*.json"
	// IndexName is the catalog dashboard file
	IndexName = "index.html"
)

// Slug turns a subject (file name, path or URL) into a file-name-safe token.
// Format: lowercase alphanumerics separated by single hyphens.
func Slug(subject string) string {
	s := subject
	if u, err := url.Parse(subject); err == nil && u.Scheme != "" && u.Host != "" {
		s = u.Host + u.Path
	} else {
		s = path.Base(strings.ReplaceAll(s, "\\", "/"))
	}
	s = strings.TrimSuffix(s, ".html")
	s = strings.TrimSuffix(s, ".htm")
	s = strings.ToLower(s)

	var result strings.Builder
	lastHyphen := true
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			result.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			result.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.TrimRight(result.String(), "-")
	if slug == "" {
		return "page"
	}
	return slug
}

func pairStem(timestamp time.Time, subjectA, subjectB string) string {
	return fmt.Sprintf("%s_%s_vs_%s",
		timestamp.UTC().Format(StampLayout),
		Slug(subjectA),
		Slug(subjectB),
	)
}

// RecordName generates the record file name
// Format: comparison_YYYY-MM-DDTHHMMSS_a_vs_b.json
func RecordName(timestamp time.Time, subjectA, subjectB string) string {
	return recordPrefix + pairStem(timestamp, subjectA, subjectB) + ".json"
}

// ReportName generates the rendered report file name
// Format: visual_report_YYYY-MM-DDTHHMMSS_a_vs_b.html
func ReportName(timestamp time.Time, subjectA, subjectB string) string {
	return reportPrefix + pairStem(timestamp, subjectA, subjectB) + ".html"
}

// ReportNameForRecord derives the report paired with a record file name
func ReportNameForRecord(recordName string) string {
	base := strings.TrimSuffix(strings.TrimPrefix(recordName, recordPrefix), ".json")
	return reportPrefix + base + ".html"
}

// ScreenshotName returns the PNG name for one captured subject
func ScreenshotName(timestamp time.Time, subject string) string {
	return fmt.Sprintf("%s_%s_screenshot.png", timestamp.UTC().Format(StampLayout), Slug(subject))
}
