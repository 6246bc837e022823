package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <template>",
	Short: "Generate pre-defined reports",
	Long: `Generate formatted reports using pre-defined templates.

Available templates:
  daily   - Summary stats and today's drafts grouped by entity type
  stale   - Orphaned drafts past the retention period, grouped by age

Examples:
  drafts report daily
  drafts report stale`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "daily":
		return dailyReport(cmd)
	case "stale":
		return staleReport(cmd)
	default:
		return fmt.Errorf("unknown report template: %s (available: daily, stale)", args[0])
	}
}

func reportHeading(title, underline string) {
	fmt.Println(title)
	for range title {
		fmt.Print(underline)
	}
	fmt.Println()
}

func dailyReport(cmd *cobra.Command) error {
	reportHeading("Daily Draft Report", "═")
	fmt.Println()
	reportHeading("Summary", "─")

	savedStats := [2]bool{statsJSON, statsToon}
	statsJSON, statsToon = false, false
	err := runStats(cmd, []string{})
	statsJSON, statsToon = savedStats[0], savedStats[1]
	if err != nil {
		return err
	}

	fmt.Println()
	reportHeading("Today's Drafts by Entity", "─")

	type listFlags struct {
		entity, since, groupBy string
		today, asJSON, asToon  bool
	}
	saved := listFlags{listEntity, listSince, listGroupBy, listToday, listJSON, listToon}
	defer func() {
		listEntity, listSince, listGroupBy = saved.entity, saved.since, saved.groupBy
		listToday, listJSON, listToon = saved.today, saved.asJSON, saved.asToon
	}()

	listEntity, listSince, listGroupBy = "", "", "entity"
	listToday, listJSON, listToon = true, false, false
	return runList(cmd, []string{})
}

// staleReport lists the drafts prune would remove, oldest bucket first.
func staleReport(cmd *cobra.Command) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	now := time.Now()
	snaps, err := loadSnapshots(commandContext(cmd), store, "")
	if err != nil {
		return err
	}
	stale, _ := planPrune(snaps, cfg.ShouldPreserve, cfg.RetentionCutoff(now), now)

	reportHeading("Stale Draft Report", "═")
	fmt.Printf("Retention: %d days, %d of %d draft(s) past it\n\n", cfg.Retention.Days, len(stale), len(snaps))
	if len(stale) == 0 {
		fmt.Println("Nothing to prune")
		return nil
	}

	buckets := []struct {
		label string
		min   time.Duration
	}{
		{"Older than 1 year", 365 * 24 * time.Hour},
		{"Older than 90 days", 90 * 24 * time.Hour},
		{"Past retention", 0},
	}
	placed := make(map[string]bool, len(stale))
	for _, b := range buckets {
		var rows []pruneCandidate
		for _, c := range stale {
			if !placed[c.Key] && c.Age >= b.min {
				rows = append(rows, c)
				placed[c.Key] = true
			}
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Printf("%s (%d)\n", b.label, len(rows))
		for _, c := range rows {
			fmt.Printf("  %-40s %s\n", c.Key, formatDuration(c.Age))
		}
		fmt.Println()
	}
	fmt.Println("Run 'drafts prune --force' to remove them.")
	return nil
}
