package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/draft"
	"github.com/pders01/draftkeeper/internal/models"
)

var (
	saveFile string
	saveKey  string
)

var saveCmd = &cobra.Command{
	Use:   "save <entity> [id]",
	Short: "Save form data as a draft",
	Long: `Store form data as the draft for an entity.

The key is derived from the entity type and id:
  draft-<entity>-<id>     editing an existing entity
  draft-<entity>-new      creating a new one (no id given)

The payload is read as JSON from --file, or from stdin with --file -.
Values that cannot be persisted, such as picked files, are stored as null.

Examples:
  drafts save job-posting --file form.json
  drafts save job-posting 42 --file form.json
  cat form.json | drafts save mcq --file -`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)

	saveCmd.Flags().StringVarP(&saveFile, "file", "f", "", "JSON payload file, - for stdin (required)")
	saveCmd.Flags().StringVar(&saveKey, "key", "", "Override the derived key")
}

func runSave(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	entity := models.Slug(args[0])
	if entity == "" {
		return fmt.Errorf("entity is required")
	}
	id := ""
	if len(args) > 1 {
		id = args[1]
	}
	key := saveKey
	if key == "" {
		key = models.DraftKey(entity, id)
	}

	payload, err := readPayload(saveFile)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	saver, err := draft.New(store, key,
		draft.WithEntity(entity),
		draft.WithDiagnostics(diagnostics()),
		draft.WithWriteTimeout(cfg.Draft.WriteTimeout),
	)
	if err != nil {
		return err
	}
	defer saver.Close()

	replaced := saver.State().HasDraft
	if err := saver.Save(ctx, payload); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	if replaced {
		fmt.Printf("✓ Draft updated: %s\n", key)
	} else {
		fmt.Printf("✓ Draft saved: %s\n", key)
	}
	return nil
}

// readPayload decodes JSON from path, or from stdin when path is "-".
func readPayload(path string) (any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("--file is required")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	return payload, nil
}
