package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/pders01/visionqa/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration and results directory",
	Long: `Write a default config file and create the results directory.

This command:
  - Creates $HOME/.config/visionqa/config.toml (or --config) if it doesn't exist
  - Creates the results directory

Run this once to get an editable configuration with every setting listed.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Fprintf(stdout, "Config already exists: %s\n", path)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config.Defaults()); err != nil {
			return fmt.Errorf("failed to encode default config: %w", err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		fmt.Fprintf(stdout, "✓ Created default config: %s\n", path)
	}

	root := storageRoot()
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	fmt.Fprintf(stdout, "✓ Results directory: %s\n", root)

	fmt.Fprintln(stdout, "\n✓ visionqa initialized successfully!")
	fmt.Fprintln(stdout, "  You can now use: visionqa compare <a> <b>")

	return nil
}
