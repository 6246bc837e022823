package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/draft"
)

var (
	restoreYes    bool
	restoreOutput string
	restoreForce  bool
)

// promptIn is where confirmations are read from
var promptIn io.Reader = os.Stdin

var restoreCmd = &cobra.Command{
	Use:   "restore <key>",
	Short: "Restore a draft",
	Long: `Print a draft's form data, or write it into a form file.

With the prompt restore policy (the default) you are asked before the
draft is restored; declining discards it. When no answer can be read
(no terminal, closed stdin) the draft is kept and the command fails. The auto policy, or --yes,
restores without asking.

A form file that already holds input is never overwritten unless --force
is given.

Examples:
  drafts restore draft-job-posting-new
  drafts restore draft-job-posting-42 --output form.json
  drafts restore draft-mcq-new --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Restore without asking")
	restoreCmd.Flags().StringVarP(&restoreOutput, "output", "o", "", "Write the form data to this file instead of stdout")
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Overwrite an output file that already holds input")
}

func runRestore(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	key := args[0]
	ctx := commandContext(cmd)

	snap, err := loadSnapshot(ctx, store, key)
	if err != nil {
		return err
	}

	policy, err := draft.ParsePolicy(cfg.Draft.RestorePolicy)
	if err != nil {
		return err
	}
	if restoreYes {
		policy = draft.PolicyAuto
	}

	formEmpty := true
	if restoreOutput != "" && !restoreForce {
		formEmpty, err = fileIsBlank(restoreOutput)
		if err != nil {
			return err
		}
	}

	saver, err := draft.New(store, key, draft.WithDiagnostics(diagnostics()))
	if err != nil {
		return err
	}
	defer saver.Close()

	question := fmt.Sprintf("Restore draft %s saved %s?", key, formatSavedAt(snap.SavedAt))
	payload, outcome := saver.Offer(ctx, policy, formEmpty, func() (bool, bool) {
		return confirm(question)
	})

	switch outcome {
	case draft.OutcomeSkipped:
		return fmt.Errorf("%s already holds input (use --force to overwrite)", restoreOutput)
	case draft.OutcomeDiscarded:
		fmt.Printf("✓ Draft discarded: %s\n", key)
		return nil
	case draft.OutcomeUnanswered:
		return fmt.Errorf("no confirmation read, draft %s kept (use --yes to restore without asking)", key)
	case draft.OutcomeNone:
		return fmt.Errorf("failed to restore draft %s", key)
	}

	output, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if restoreOutput == "" {
		fmt.Println(string(output))
		return nil
	}
	if err := os.WriteFile(restoreOutput, append(output, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", restoreOutput, err)
	}
	fmt.Printf("✓ Draft restored to: %s\n", restoreOutput)
	return nil
}

// fileIsBlank reports whether a form file is missing or holds no input.
func fileIsBlank(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return true, nil
	}
	var form any
	if err := json.Unmarshal(data, &form); err != nil {
		return false, nil
	}
	return draft.IsBlank(form), nil
}

// confirm asks a yes/no question on promptIn. ok is false when input ended
// before an answer was given.
func confirm(question string) (answer, ok bool) {
	fmt.Printf("%s [y/N]: ", question)
	line, err := bufio.NewReader(promptIn).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		fmt.Println()
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, true
	default:
		return false, true
	}
}
