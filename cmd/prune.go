package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/models"
)

var (
	pruneDryRun bool
	pruneForce  bool
)

const pruneConcurrency = 4

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove orphaned drafts based on retention policy",
	Long: `Remove drafts saved longer ago than the retention period.

Drafts are normally removed when their form is submitted or discarded.
Drafts of forms that were abandoned stay behind; prune clears them.

The retention policy is configured in ~/.config/drafts/config.toml:
  [retention]
  days = 30
  preserve_prefixes = ["draft-settings-"]

Drafts whose key starts with a preserve prefix are never pruned. Drafts
without a save time (legacy format) are kept.

Example:
  drafts prune              # Show what would be pruned
  drafts prune --force      # Actually prune drafts`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Show what would be pruned without deleting, even with --force")
	pruneCmd.Flags().BoolVar(&pruneForce, "force", false, "Actually delete drafts")
}

type pruneCandidate struct {
	Key    string
	Entity string
	Age    time.Duration
	Reason string
}

type pruneOutcome struct {
	Key string
	Err error
}

func runPrune(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	now := time.Now()
	cutoff := cfg.RetentionCutoff(now)

	fmt.Printf("Retention policy: %d days\n", cfg.Retention.Days)
	fmt.Printf("Preserve prefixes: %v\n", cfg.Retention.PreservePrefixes)
	fmt.Printf("Cutoff date: %s\n\n", cutoff.Format("2006-01-02"))

	snaps, err := loadSnapshots(ctx, store, "")
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("No drafts found")
		return nil
	}

	toPrune, toPreserve := planPrune(snaps, cfg.ShouldPreserve, cutoff, now)

	if len(toPrune) == 0 {
		fmt.Println("No drafts to prune")
		return nil
	}

	fmt.Printf("Drafts to prune (%d):\n\n", len(toPrune))
	for _, c := range toPrune {
		fmt.Printf("  %s\n", c.Key)
		fmt.Printf("    Age:    %s\n", formatDuration(c.Age))
		fmt.Printf("    Reason: %s\n", c.Reason)
		fmt.Println()
	}

	if len(toPreserve) > 0 {
		fmt.Printf("Drafts to preserve (%d):\n\n", len(toPreserve))
		for _, c := range toPreserve {
			fmt.Printf("  %s\n", c.Key)
			fmt.Printf("    Age:    %s\n", formatDuration(c.Age))
			fmt.Printf("    Reason: %s\n", c.Reason)
			fmt.Println()
		}
	}

	if !pruneForce || pruneDryRun {
		fmt.Println("\nThis is a dry run. Use --force to actually prune drafts.")
		return nil
	}

	fmt.Println("Pruning drafts...")
	p := pool.NewWithResults[pruneOutcome]().WithContext(ctx).WithMaxGoroutines(pruneConcurrency)
	for _, c := range toPrune {
		p.Go(func(ctx context.Context) (pruneOutcome, error) {
			return pruneOutcome{Key: c.Key, Err: store.Remove(ctx, c.Key)}, nil
		})
	}
	outcomes, err := p.Wait()
	if err != nil {
		return fmt.Errorf("failed to prune drafts: %w", err)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Key < outcomes[j].Key })

	pruned := 0
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("  %s\n    Error: %v\n", o.Key, o.Err)
			continue
		}
		fmt.Printf("  ✓ Deleted %s\n", o.Key)
		pruned++
	}
	fmt.Printf("\n✓ Pruned %d draft(s)\n", pruned)

	if pruned < len(toPrune) {
		return fmt.Errorf("failed to prune %d draft(s)", len(toPrune)-pruned)
	}
	return nil
}

// planPrune splits drafts into those past the cutoff and those to keep.
func planPrune(snaps []models.Snapshot, preserve func(key string) bool, cutoff, now time.Time) (toPrune, toPreserve []pruneCandidate) {
	for _, s := range snaps {
		c := pruneCandidate{Key: s.Key, Entity: s.Entity, Age: s.Age(now)}
		switch {
		case preserve(s.Key):
			c.Reason = "matches preserve prefix"
			toPreserve = append(toPreserve, c)
		case s.SavedAt.IsZero():
			c.Reason = "save time unknown"
			toPreserve = append(toPreserve, c)
		case s.SavedAt.Before(cutoff):
			c.Reason = fmt.Sprintf("saved before %s", cutoff.Format("2006-01-02"))
			toPrune = append(toPrune, c)
		default:
			c.Reason = "within retention period"
			toPreserve = append(toPreserve, c)
		}
	}
	return toPrune, toPreserve
}
