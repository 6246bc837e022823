package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/models"
)

var (
	listEntity  string
	listToday   bool
	listSince   string
	listGroupBy string
	listJSON    bool
	listToon    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored drafts",
	Long: `List stored drafts with optional filtering.

Examples:
  drafts list
  drafts list --entity job-posting
  drafts list --today
  drafts list --since 2025-10-01
  drafts list --group-by entity --toon`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listEntity, "entity", "", "Filter by entity type")
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show only drafts saved today")
	listCmd.Flags().StringVar(&listSince, "since", "", "Show drafts saved since date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listGroupBy, "group-by", "", "Group output by: entity|date")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.Flags().BoolVar(&listToon, "toon", false, "Output in LLM-friendly toon format")
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}

	var since time.Time
	if listSince != "" {
		since, err = time.ParseInLocation("2006-01-02", listSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since date format (use YYYY-MM-DD): %w", err)
		}
	}
	switch listGroupBy {
	case "", "entity", "date":
	default:
		return fmt.Errorf("invalid --group-by: %s (must be: entity, date)", listGroupBy)
	}

	snaps, err := loadSnapshots(commandContext(cmd), store, "")
	if err != nil {
		return err
	}

	today := time.Now().Format("2006-01-02")
	entity := models.Slug(listEntity)
	summaries := make([]models.Summary, 0, len(snaps))
	for _, s := range snaps {
		if listEntity != "" && s.Entity != entity {
			continue
		}
		if listToday && s.SavedAt.Local().Format("2006-01-02") != today {
			continue
		}
		if !since.IsZero() && s.SavedAt.Before(since) {
			continue
		}
		summaries = append(summaries, s.Summary())
	}

	if done, err := printStructured(summaries, listJSON, listToon); done {
		return err
	}

	if len(snaps) == 0 {
		fmt.Println("No drafts found")
		return nil
	}
	if len(summaries) == 0 {
		fmt.Println("No drafts match the filter criteria")
		return nil
	}

	fmt.Printf("Found %d draft(s):\n\n", len(summaries))
	if listGroupBy == "" {
		printSummaries(summaries)
		return nil
	}

	groups := make(map[string][]models.Summary)
	for _, s := range summaries {
		label := s.Entity
		if listGroupBy == "date" {
			label = formatSavedAt(s.SavedAt)
			if !s.SavedAt.IsZero() {
				label = s.SavedAt.Local().Format("2006-01-02")
			}
		}
		if label == "" {
			label = "(none)"
		}
		groups[label] = append(groups[label], s)
	}
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		fmt.Printf("%s (%d)\n", label, len(groups[label]))
		printSummaries(groups[label])
	}
	return nil
}

func printSummaries(summaries []models.Summary) {
	for _, s := range summaries {
		fmt.Printf("  %s\n", s.Key)
		if s.Entity != "" {
			fmt.Printf("    Entity:  %s\n", s.Entity)
		}
		fmt.Printf("    Saved:   %s\n", formatSavedAt(s.SavedAt))
		fmt.Printf("    Size:    %s\n", formatSize(s.Size))
		if len(s.Fields) > 0 {
			fields := fmt.Sprintf("%v", s.Fields)
			if len(fields) > 60 {
				fields = fields[:60] + "..."
			}
			fmt.Printf("    Fields:  %s\n", fields)
		}
		fmt.Println()
	}
}
