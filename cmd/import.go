package cmd

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/draft"
)

var importOverwrite bool

var importCmd = &cobra.Command{
	Use:   "import <archive>",
	Short: "Load drafts from an export archive",
	Long: `Store every draft held in an archive created by drafts export.

Existing drafts are kept unless --overwrite is given. Entries that do not
decode as drafts are skipped.

Examples:
  drafts import drafts-all.tar.gz
  drafts import backup.tar.gz --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "Replace drafts that already exist")
}

func runImport(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	imported, skipped := 0, 0
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !strings.HasSuffix(header.Name, ".json") {
			continue
		}

		key, err := url.PathUnescape(strings.TrimSuffix(path.Base(header.Name), ".json"))
		if err != nil || strings.TrimSpace(key) == "" {
			fmt.Fprintf(os.Stderr, "Warning: skipping %s: invalid key\n", header.Name)
			skipped++
			continue
		}

		data, err := io.ReadAll(tarReader)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		value := string(data)
		if _, err := draft.Decode(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", key, err)
			skipped++
			continue
		}

		if !importOverwrite {
			_, exists, err := store.Get(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to read draft: %w", err)
			}
			if exists {
				fmt.Printf("  - %s (exists, kept)\n", key)
				skipped++
				continue
			}
		}

		if err := store.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
		fmt.Printf("  ✓ %s\n", key)
		imported++
	}

	fmt.Printf("\n✓ Imported %d draft(s), skipped %d\n", imported, skipped)
	return nil
}
