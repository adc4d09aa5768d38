package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"

	"github.com/pders01/visionqa/internal/config"
	"github.com/pders01/visionqa/internal/testutil"
)

// setupCmdTest points the commands at a fresh results directory with
// default config and captures their output.
func setupCmdTest(t *testing.T) (*testutil.TempResults, *bytes.Buffer) {
	t.Helper()

	viper.Reset()
	config.SetDefaults()

	results := testutil.NewTempResults(t)
	resultsDir = results.Path
	cfgFile = ""

	buf := &bytes.Buffer{}
	oldStdout := stdout
	stdout = buf

	t.Cleanup(func() {
		stdout = oldStdout
		resultsDir = ""
		cfgFile = ""
		viper.Reset()
	})

	return results, buf
}
