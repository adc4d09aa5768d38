package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// ErrNoDifferences is returned when a record carries no differences object
var ErrNoDifferences = errors.New("record has no differences")

// Screenshots names the captured images stored next to a record
type Screenshots struct {
	A string `json:"a,omitempty"`
	B string `json:"b,omitempty"`
}

// ComparisonRecord is the persisted result of one comparison run
type ComparisonRecord struct {
	ID          string         `json:"id,omitempty"`
	SubjectA    string         `json:"subject_a"`
	SubjectB    string         `json:"subject_b"`
	Differences StructuredDiff `json:"differences"`
	CapturedAt  time.Time      `json:"captured_at,omitzero"`
	Provider    string         `json:"provider,omitempty"`
	Model       string         `json:"model,omitempty"`
	Screenshots *Screenshots   `json:"screenshots,omitempty"`
}

type recordAlias ComparisonRecord

// UnmarshalJSON also accepts the legacy file1/file2 subject fields and
// rejects records without a differences object.
func (r *ComparisonRecord) UnmarshalJSON(b []byte) error {
	var aux struct {
		recordAlias
		File1       string          `json:"file1"`
		File2       string          `json:"file2"`
		Differences json.RawMessage `json:"differences"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Differences)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ErrNoDifferences
	}

	var diff StructuredDiff
	if err := json.Unmarshal(raw, &diff); err != nil {
		return err
	}

	rec := ComparisonRecord(aux.recordAlias)
	rec.Differences = diff
	if rec.SubjectA == "" {
		rec.SubjectA = aux.File1
	}
	if rec.SubjectB == "" {
		rec.SubjectB = aux.File2
	}

	*r = rec
	return nil
}
