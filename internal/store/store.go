// Package store persists comparison records and their artifacts under an
// explicit storage root.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/pders01/visionqa/internal/models"
)

// ErrPersistence wraps every failure to write a record or artifact
var ErrPersistence = errors.New("persistence failure")

// Store reads and writes files below root on fs
type Store struct {
	fs   afero.Fs
	root string
}

// New creates a store rooted at root on fs
func New(fs afero.Fs, root string) *Store {
	if root == "" {
		root = "."
	}
	return &Store{fs: fs, root: filepath.Clean(root)}
}

// NewOS creates a store on the operating system filesystem
func NewOS(root string) *Store {
	return New(afero.NewOsFs(), root)
}

// Root returns the storage root
func (s *Store) Root() string {
	return s.root
}

// Fs returns the underlying filesystem
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Path joins name onto the storage root
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

func (s *Store) ensureRoot() error {
	if err := s.fs.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("%w: failed to create storage root %s: %v", ErrPersistence, s.root, err)
	}
	return nil
}

// WriteArtifact writes data to name below the root, replacing any
// existing file. The write goes to a hidden temp file first and is renamed
// into place, so readers never observe a partial artifact.
func (s *Store) WriteArtifact(name string, data []byte) (string, error) {
	if err := s.ensureRoot(); err != nil {
		return "", err
	}

	path := s.Path(name)

	f, err := afero.TempFile(s.fs, s.root, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create temp file for %s: %v", ErrPersistence, name, err)
	}
	tmp := f.Name()

	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(tmp)
		return "", fmt.Errorf("%w: failed to write %s: %v", ErrPersistence, name, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return "", fmt.Errorf("%w: failed to move %s into place: %v", ErrPersistence, name, err)
	}

	return path, nil
}

// WriteRecord persists rec under its generated record name and returns that name
func (s *Store) WriteRecord(rec models.ComparisonRecord) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal record: %v", ErrPersistence, err)
	}

	name := models.RecordName(rec.CapturedAt, rec.SubjectA, rec.SubjectB)
	if _, err := s.WriteArtifact(name, data); err != nil {
		return "", err
	}
	return name, nil
}

// ReadRecord loads the record called name from the storage root
func (s *Store) ReadRecord(name string) (models.ComparisonRecord, error) {
	return LoadRecord(s.fs, s.Path(name))
}

// ListRecords returns the names of all records below the root, sorted
func (s *Store) ListRecords() ([]string, error) {
	matches, err := afero.Glob(s.fs, s.Path(models.RecordPattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

// Stat returns file info for name below the root
func (s *Store) Stat(name string) (os.FileInfo, error) {
	return s.fs.Stat(s.Path(name))
}

// Exists reports whether name exists below the root
func (s *Store) Exists(name string) bool {
	ok, err := afero.Exists(s.fs, s.Path(name))
	return err == nil && ok
}

// LoadRecord reads and decodes one record file at path.
// Missing files satisfy errors.Is(err, fs.ErrNotExist).
func LoadRecord(fs afero.Fs, path string) (models.ComparisonRecord, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return models.ComparisonRecord{}, fmt.Errorf("failed to read record %s: %w", path, err)
	}

	var rec models.ComparisonRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.ComparisonRecord{}, fmt.Errorf("failed to parse record %s: %w", path, err)
	}

	return rec, nil
}
