package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pders01/draftkeeper/internal/draft"
	"github.com/pders01/draftkeeper/internal/models"
	"github.com/pders01/draftkeeper/internal/track"
)

var (
	trackFile       string
	trackNoAutosave bool
	trackPolicy     string
)

var trackCmd = &cobra.Command{
	Use:   "track <entity> [id]",
	Short: "Auto-save a form file while it is being edited",
	Long: `Watch a JSON form file and keep its latest content as a draft.

Every change to the file restarts the debounce period (draft.debounce,
1s by default); the draft is written once the file has been quiet that
long. The content found when tracking starts is the form's initial state
and is never saved on its own.

If a draft already exists and the form file is empty, it is offered for
restore according to draft.restore_policy (or --policy). Stopping with
Ctrl+C discards a change that has not been written yet.

Examples:
  drafts track job-posting --file form.json
  drafts track job-posting 42 --file form.json --no-autosave`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().StringVarP(&trackFile, "file", "f", "", "Form state file to watch (required)")
	trackCmd.Flags().BoolVar(&trackNoAutosave, "no-autosave", false, "Watch without saving or offering restore")
	trackCmd.Flags().StringVar(&trackPolicy, "policy", "", "Restore policy override: prompt|auto")
}

func runTrack(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	if trackFile == "" {
		return fmt.Errorf("--file is required")
	}

	policyName := cfg.Draft.RestorePolicy
	if trackPolicy != "" {
		policyName = trackPolicy
	}
	policy, err := draft.ParsePolicy(policyName)
	if err != nil {
		return err
	}

	entity := models.Slug(args[0])
	id := ""
	if len(args) > 1 {
		id = args[1]
	}
	key := models.DraftKey(entity, id)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	saver, err := draft.New(store, key,
		draft.WithEnabled(!trackNoAutosave),
		draft.WithEntity(entity),
		draft.WithDebounce(cfg.Draft.Debounce),
		draft.WithWriteTimeout(cfg.Draft.WriteTimeout),
		draft.WithDiagnostics(diagnostics()),
	)
	if err != nil {
		return err
	}
	defer saver.Close()

	if saver.State().HasDraft {
		if err := offerOnStart(ctx, saver, policy); err != nil {
			return err
		}
	}

	tracker, err := track.New(trackFile, saver, appLogger)
	if err != nil {
		return err
	}
	if err := tracker.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("Tracking %s as %s (debounce %s)\n", tracker.Path(), key, cfg.Draft.Debounce)
	if trackNoAutosave {
		fmt.Println("Auto-save is off: changes are not stored")
	}
	fmt.Println("Press Ctrl+C to stop")

	<-ctx.Done()
	tracker.Stop()

	pending := saver.State().IsSaving
	saver.Close()

	state := saver.State()
	fmt.Println()
	if pending {
		fmt.Println("Unsaved change discarded")
	}
	if state.LastSaved != nil {
		fmt.Printf("✓ Last saved: %s\n", formatSavedAt(*state.LastSaved))
	}
	appLogger.Debug("tracking stopped", zap.String("key", key), zap.Bool("has_draft", state.HasDraft))
	return nil
}

// offerOnStart applies the restore policy before watching begins. A restored
// draft is written into the form file.
func offerOnStart(ctx context.Context, saver *draft.AutoSaver, policy draft.Policy) error {
	formEmpty, err := fileIsBlank(trackFile)
	if err != nil {
		return err
	}

	payload, outcome := saver.Offer(ctx, policy, formEmpty, func() (bool, bool) {
		return confirm(fmt.Sprintf("A draft exists for %s. Restore it?", saver.Key()))
	})

	switch outcome {
	case draft.OutcomeRestored:
		output, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if err := os.WriteFile(trackFile, append(output, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", trackFile, err)
		}
		fmt.Printf("✓ Draft restored into %s\n", trackFile)
	case draft.OutcomeDiscarded:
		fmt.Println("✓ Draft discarded")
	case draft.OutcomeUnanswered:
		return fmt.Errorf("no confirmation read, draft %s kept (use --policy auto to restore without asking)", saver.Key())
	case draft.OutcomeSkipped:
		fmt.Fprintf(os.Stderr, "Warning: %s already holds input; existing draft %s will be overwritten on the next change\n", trackFile, saver.Key())
	}
	return nil
}
