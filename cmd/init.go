package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/config"
)

var (
	initDir   string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the drafts configuration and store",
	Long: `Write a default config file and create the draft store directory.

This command:
  - Creates $HOME/.config/drafts/config.toml if it doesn't exist
  - Creates the file store directory

Run this once before using drafts. An existing config file is kept
unless --force is given.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initDir, "dir", "", "Config directory (default: $HOME/.config/drafts)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir := initDir
	if configDir == "" {
		dir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = dir
	}
	configPath := filepath.Join(configDir, "config.toml")

	cfg, err := config.Default(configDir)
	if err != nil {
		return err
	}

	_, statErr := os.Stat(configPath)
	switch {
	case statErr == nil && !initForce:
		fmt.Printf("Config already exists: %s\n", configPath)
	case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
		return fmt.Errorf("failed to check config file: %w", statErr)
	default:
		if err := writeConfig(configPath, cfg); err != nil {
			return err
		}
		fmt.Printf("✓ Created default config: %s\n", configPath)
	}

	if err := os.MkdirAll(cfg.Store.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	fmt.Printf("✓ Store directory: %s\n", cfg.Store.Dir)

	fmt.Println("\n✓ Drafts initialized successfully!")
	fmt.Println("  You can now use: drafts track <entity> --file form.json")

	return nil
}

func writeConfig(path string, cfg *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# drafts configuration\n# Every key can also be set as DRAFTS_<SECTION>_<KEY>, e.g. DRAFTS_STORE_BACKEND=sqlite\n\n")
	if err := config.Write(&buf, cfg); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	return nil
}
