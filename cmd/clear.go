package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/draft"
	"github.com/pders01/draftkeeper/internal/models"
)

var clearEntity string

var clearCmd = &cobra.Command{
	Use:   "clear [key...]",
	Short: "Discard drafts",
	Long: `Remove drafts from the store. Clearing a draft that does not exist is
not an error.

Examples:
  drafts clear draft-job-posting-new
  drafts clear draft-mcq-1 draft-mcq-2
  drafts clear --entity mcq        # every draft of an entity type`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().StringVar(&clearEntity, "entity", "", "Clear every draft of an entity type")
}

func runClear(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	keys := append([]string(nil), args...)
	if clearEntity != "" {
		entityKeys, err := store.Keys(ctx, models.EntityPrefix(clearEntity))
		if err != nil {
			return fmt.Errorf("failed to list drafts: %w", err)
		}
		keys = append(keys, entityKeys...)
	}
	if len(keys) == 0 {
		return fmt.Errorf("at least one key or --entity is required")
	}

	failed := 0
	for _, key := range keys {
		saver, err := draft.New(store, key, draft.WithEnabled(false), draft.WithDiagnostics(diagnostics()))
		if err != nil {
			return err
		}
		err = saver.Clear(ctx)
		saver.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to clear %s: %v\n", key, err)
			failed++
			continue
		}
		fmt.Printf("✓ Cleared %s\n", key)
	}

	if failed > 0 {
		return fmt.Errorf("failed to clear %d of %d draft(s)", failed, len(keys))
	}
	return nil
}
