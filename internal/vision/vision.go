// Package vision defines the model-inference collaborator shared by the
// vision providers.
package vision

import (
	"context"
	"errors"
)

// ComparePrompt asks for the four-category JSON object the normalizer
// understands. The image is the two screenshots stacked vertically.
const ComparePrompt = `Compare these two webpage screenshots and identify:
1. Visual differences in layout
2. Text changes
3. Color or style differences
4. Missing or new elements

The first screenshot is on top, the second is below it.
Format: JSON with keys: layout_changes, text_changes, style_changes, element_changes`

// ErrEmptyImage is returned when an analyzer is given no image data
var ErrEmptyImage = errors.New("image cannot be empty")

// Analyzer sends one image with a prompt to a vision model and returns
// the model's raw text answer.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, image []byte) (string, error)
	Provider() string
	Model() string
}
