package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pders01/visionqa/internal/config"
	"github.com/pders01/visionqa/internal/logging"
	"github.com/pders01/visionqa/internal/store"
)

var (
	cfgFile    string
	resultsDir string

	// stdout receives command output; tests swap it for a buffer
	stdout io.Writer = os.Stdout

	// resultsFs backs the results directory and record lookups
	resultsFs afero.Fs = afero.NewOsFs()

	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "visionqa",
	Short: "Visual regression QA with vision models",
	Long: `visionqa compares two versions of a page by:
  - capturing full-page screenshots of both
  - asking a vision model what changed
  - normalizing the answer into layout, text, style and element changes
  - scoring the result and rendering an HTML report

Every comparison is stored as a JSON record so the catalog, dashboard
and metrics can be recomputed at any time.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupLogging,
	PersistentPostRunE: closeLogging,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/visionqa/config.toml)")
	rootCmd.PersistentFlags().StringVar(&resultsDir, "results-dir", "", "directory for records, screenshots and reports (default \"results\")")
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "visionqa"), nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(dir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("visionqa")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(logging.Options{JSON: config.GetLogJSON()})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logCloser = logger

	if config.GetLogDebug() {
		logging.SetDefault(logger)
	} else {
		logging.SetDefault(logging.WithoutDebug(logger))
	}
	return nil
}

func closeLogging(cmd *cobra.Command, args []string) error {
	logging.SetDefault(nil)
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

// storageRoot returns --results-dir, falling back to storage.root
func storageRoot() string {
	if resultsDir != "" {
		return resultsDir
	}
	if root := config.GetResultsDir(); root != "" {
		return root
	}
	return "results"
}

func openStore() *store.Store {
	return store.New(resultsFs, storageRoot())
}

// warnf prints a warning to stderr and logs it
func warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, "Warning:", msg)
	logging.Default().Warn(msg)
}
