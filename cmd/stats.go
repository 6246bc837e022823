package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/models"
)

var (
	statsJSON bool
	statsToon bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show draft statistics",
	Long: `Display statistics about stored drafts including:
  - Total draft count and size
  - Drafts by entity type
  - Create vs edit drafts
  - Timeline distribution
  - Drafts past the retention period

Examples:
  drafts stats
  drafts stats --json
  drafts stats --toon`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsToon, "toon", false, "Output in LLM-friendly toon format")
}

type draftStats struct {
	TotalDrafts   int             `json:"total_drafts"`
	TotalBytes    int             `json:"total_bytes"`
	ByEntity      map[string]int  `json:"by_entity"`
	ByDate        map[string]int  `json:"by_date"`
	CreateDrafts  int             `json:"create_drafts"`
	EditDrafts    int             `json:"edit_drafts"`
	CloneStashes  int             `json:"clone_stashes"`
	LegacyDrafts  int             `json:"legacy_drafts"`
	Expired       int             `json:"expired"`
	OldestDraft   *time.Time      `json:"oldest_draft,omitempty"`
	NewestDraft   *time.Time      `json:"newest_draft,omitempty"`
	TopEntities   []entityStat    `json:"top_entities"`
	DailyActivity []dailyActivity `json:"daily_activity"`
}

type entityStat struct {
	Entity string `json:"entity"`
	Count  int    `json:"count"`
}

type dailyActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	snaps, err := loadSnapshots(commandContext(cmd), store, "")
	if err != nil {
		return err
	}

	if len(snaps) == 0 && !statsJSON && !statsToon {
		fmt.Println("No drafts found")
		return nil
	}

	stats := collectStats(snaps, cfg.RetentionCutoff(time.Now()))

	if done, err := printStructured(stats, statsJSON, statsToon); done {
		return err
	}

	fmt.Println("Draft Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Total Drafts: %d (%s)\n", stats.TotalDrafts, formatSize(stats.TotalBytes))
	if stats.OldestDraft != nil && stats.NewestDraft != nil {
		fmt.Printf("Date Range:   %s to %s\n",
			stats.OldestDraft.Local().Format("2006-01-02"),
			stats.NewestDraft.Local().Format("2006-01-02"))
	}
	fmt.Println()

	fmt.Println("By Kind:")
	for _, row := range []struct {
		label string
		count int
	}{
		{"create", stats.CreateDrafts},
		{"edit", stats.EditDrafts},
		{"clone", stats.CloneStashes},
	} {
		if row.count == 0 {
			continue
		}
		percentage := float64(row.count) / float64(stats.TotalDrafts) * 100
		fmt.Printf("  %-15s %3d  (%.1f%%)\n", row.label, row.count, percentage)
	}
	fmt.Println()

	if stats.Expired > 0 || stats.LegacyDrafts > 0 {
		fmt.Println("Housekeeping:")
		if stats.Expired > 0 {
			fmt.Printf("  Older than %d days: %3d  (run: drafts prune)\n", cfg.Retention.Days, stats.Expired)
		}
		if stats.LegacyDrafts > 0 {
			fmt.Printf("  Legacy format:      %3d\n", stats.LegacyDrafts)
		}
		fmt.Println()
	}

	if len(stats.TopEntities) > 0 {
		fmt.Println("Top Entities:")
		limit := min(10, len(stats.TopEntities))
		for _, es := range stats.TopEntities[:limit] {
			fmt.Printf("  %-20s %3d\n", es.Entity, es.Count)
		}
		fmt.Println()
	}

	if len(stats.DailyActivity) > 0 {
		fmt.Println("Recent Activity:")
		limit := min(7, len(stats.DailyActivity))
		for _, da := range stats.DailyActivity[:limit] {
			bar := strings.Repeat("█", min(da.Count, 20))
			fmt.Printf("  %s  %3d  %s\n", da.Date, da.Count, bar)
		}
	}

	return nil
}

func collectStats(snaps []models.Snapshot, cutoff time.Time) *draftStats {
	stats := &draftStats{
		TotalDrafts: len(snaps),
		ByEntity:    make(map[string]int),
		ByDate:      make(map[string]int),
	}

	for _, s := range snaps {
		stats.TotalBytes += s.Size

		switch {
		case models.IsCloneKey(s.Key):
			stats.CloneStashes++
		case models.IsEditKey(s.Key):
			stats.EditDrafts++
		default:
			stats.CreateDrafts++
		}
		if s.Legacy {
			stats.LegacyDrafts++
		}

		entity := s.Entity
		if entity == "" {
			entity = "(none)"
		}
		stats.ByEntity[entity]++

		if s.SavedAt.IsZero() {
			continue
		}
		if s.SavedAt.Before(cutoff) {
			stats.Expired++
		}
		if stats.OldestDraft == nil || s.SavedAt.Before(*stats.OldestDraft) {
			t := s.SavedAt
			stats.OldestDraft = &t
		}
		if stats.NewestDraft == nil || s.SavedAt.After(*stats.NewestDraft) {
			t := s.SavedAt
			stats.NewestDraft = &t
		}
		stats.ByDate[s.SavedAt.Local().Format("2006-01-02")]++
	}

	for entity, count := range stats.ByEntity {
		stats.TopEntities = append(stats.TopEntities, entityStat{Entity: entity, Count: count})
	}
	sort.Slice(stats.TopEntities, func(i, j int) bool {
		if stats.TopEntities[i].Count != stats.TopEntities[j].Count {
			return stats.TopEntities[i].Count > stats.TopEntities[j].Count
		}
		return stats.TopEntities[i].Entity < stats.TopEntities[j].Entity
	})

	for date, count := range stats.ByDate {
		stats.DailyActivity = append(stats.DailyActivity, dailyActivity{Date: date, Count: count})
	}
	sort.Slice(stats.DailyActivity, func(i, j int) bool {
		return stats.DailyActivity[i].Date > stats.DailyActivity[j].Date
	})

	return stats
}
