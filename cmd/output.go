package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/alpkeskin/gotoon"
	"gopkg.in/yaml.v3"
)

// outputFormat holds the machine-readable output flags shared by commands
type outputFormat struct {
	JSON bool
	Toon bool
	YAML bool
}

// write encodes v in the selected format. It reports false when no
// structured format was requested.
func (f outputFormat) write(v any) (bool, error) {
	switch {
	case f.JSON:
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(stdout, string(output))
	case f.Toon:
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Fprintln(stdout, output)
	case f.YAML:
		output, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode YAML: %w", err)
		}
		fmt.Fprint(stdout, string(output))
	default:
		return false, nil
	}
	return true, nil
}
