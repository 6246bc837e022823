package cmd

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/kv"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <prefix|all>",
	Short: "Bundle drafts for backup or transfer",
	Long: `Create a tar.gz archive holding the stored value of each selected draft,
one <key>.json entry per draft. The archive can be loaded back with
drafts import.

Examples:
  drafts export all
  drafts export draft-job-posting-
  drafts export all --output my-drafts.tar.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: drafts-<prefix>.tar.gz)")
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	prefix := args[0]
	if prefix == "all" {
		prefix = ""
	}

	keys, err := store.Keys(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list drafts: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("No drafts match the filter criteria")
		return nil
	}

	outputFile := exportOutput
	if outputFile == "" {
		if prefix == "" {
			outputFile = "drafts-all.tar.gz"
		} else {
			outputFile = fmt.Sprintf("drafts-%s.tar.gz", strings.Trim(archiveName(prefix), "-"))
		}
	}

	fmt.Printf("Exporting %d draft(s) to: %s\n", len(keys), outputFile)

	written, err := createExport(ctx, store, outputFile, keys)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	if fileInfo, err := os.Stat(outputFile); err == nil {
		fmt.Printf("\n✓ Archive created: %s (%s)\n", outputFile, formatSize(int(fileInfo.Size())))
	} else {
		fmt.Printf("\n✓ Archive created: %s\n", outputFile)
	}
	fmt.Printf("  %d draft(s) exported\n", written)
	return nil
}

func createExport(ctx context.Context, store kv.Store, filename string, keys []string) (int, error) {
	outFile, err := os.Create(filename)
	if err != nil {
		return 0, err
	}
	defer outFile.Close()

	gzWriter := gzip.NewWriter(outFile)
	tarWriter := tar.NewWriter(gzWriter)

	written := 0
	now := time.Now()
	for _, key := range keys {
		value, ok, err := store.Get(ctx, key)
		if err != nil {
			return written, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok {
			continue
		}

		header := &tar.Header{
			Name:    archiveName(key) + ".json",
			Mode:    0644,
			Size:    int64(len(value)),
			ModTime: now,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return written, err
		}
		if _, err := tarWriter.Write([]byte(value)); err != nil {
			return written, err
		}
		written++
	}

	if err := tarWriter.Close(); err != nil {
		return written, err
	}
	if err := gzWriter.Close(); err != nil {
		return written, err
	}
	return written, outFile.Close()
}

// archiveName escapes a key for use as an archive entry name.
func archiveName(key string) string {
	return url.PathEscape(key)
}
