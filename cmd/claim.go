package cmd

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/draft"
)

var claimOutput string

var claimCmd = &cobra.Command{
	Use:   "claim <entity>",
	Short: "Take the newest clone hand-off for an entity type",
	Long: `Remove the newest clone stash for an entity type and print its form data,
or write it to --output. Older stashes are left for prune.

Examples:
  drafts claim job-posting
  drafts claim job-posting --output form.json`,
	Args: cobra.ExactArgs(1),
	RunE: runClaim,
}

func init() {
	rootCmd.AddCommand(claimCmd)

	claimCmd.Flags().StringVarP(&claimOutput, "output", "o", "", "Write the form data to this file instead of stdout")
}

func runClaim(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}

	payload, ok, err := draft.TakeLatestClone(commandContext(cmd), store, args[0])
	if err != nil {
		return fmt.Errorf("failed to claim clone: %w", err)
	}
	if !ok {
		return fmt.Errorf("no clone stashed for %s", args[0])
	}

	output, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if claimOutput == "" {
		fmt.Println(string(output))
		return nil
	}
	if err := os.WriteFile(claimOutput, append(output, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", claimOutput, err)
	}
	fmt.Printf("✓ Clone claimed into: %s\n", claimOutput)
	return nil
}
