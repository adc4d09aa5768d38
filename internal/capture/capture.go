// Package capture renders subjects (local documents or URLs) into PNG
// screenshots.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrMissingInput is returned when a local document to compare does not exist
var ErrMissingInput = errors.New("input file not found")

// Capturer renders a target URL into PNG bytes
type Capturer interface {
	Capture(ctx context.Context, target string) ([]byte, error)
}

// Resolver turns subjects into URLs a browser can load. Relative file
// names are looked up below InputsDir.
type Resolver struct {
	Fs        afero.Fs
	InputsDir string
}

// NewResolver creates a resolver on the operating system filesystem
func NewResolver(inputsDir string) Resolver {
	return Resolver{Fs: afero.NewOsFs(), InputsDir: inputsDir}
}

// Resolve returns the URL for subject. http(s) URLs pass through; anything
// else must name an existing local file.
func (r Resolver) Resolve(subject string) (string, error) {
	if u, err := url.Parse(subject); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return subject, nil
	}

	path := strings.TrimPrefix(subject, "file://")
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.InputsDir, path)
	}

	fs := r.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	info, err := fs.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrMissingInput, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
