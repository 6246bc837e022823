package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/draft"
	"github.com/pders01/draftkeeper/internal/models"
)

var (
	cloneFile   string
	cloneEntity string
)

var cloneCmd = &cobra.Command{
	Use:   "clone [key]",
	Short: "Hand form data over to a new form",
	Long: `Stash form data so the next "new" form of the same entity type can
start from it (see drafts claim). The data comes from an existing draft, or
from --file.

Stashes are keyed <entity>-clone-<id>; the newest one is claimed first.

Examples:
  drafts clone draft-job-posting-42
  drafts clone --entity job-posting --file posting.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClone,
}

func init() {
	rootCmd.AddCommand(cloneCmd)

	cloneCmd.Flags().StringVarP(&cloneFile, "file", "f", "", "JSON payload file, - for stdin")
	cloneCmd.Flags().StringVar(&cloneEntity, "entity", "", "Entity type (default: taken from the draft)")
}

func runClone(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	var payload any
	entity := models.Slug(cloneEntity)
	switch {
	case len(args) == 1 && cloneFile != "":
		return fmt.Errorf("give either a draft key or --file, not both")
	case len(args) == 1:
		snap, err := loadSnapshot(ctx, store, args[0])
		if err != nil {
			return err
		}
		payload = snap.Payload
		if entity == "" {
			entity = snap.Entity
		}
	case cloneFile != "":
		payload, err = readPayload(cloneFile)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("a draft key or --file is required")
	}
	if entity == "" {
		return fmt.Errorf("entity type unknown (use --entity)")
	}

	key, err := draft.Stash(ctx, store, entity, payload)
	if err != nil {
		return fmt.Errorf("failed to stash clone: %w", err)
	}

	fmt.Printf("✓ Clone stashed: %s\n", key)
	fmt.Printf("  Claim it with: drafts claim %s\n", entity)
	return nil
}
