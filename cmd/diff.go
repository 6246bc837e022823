package cmd

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/models"
)

var (
	diffJSON bool
	diffToon bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <key1> <key2>",
	Short: "Compare two drafts",
	Long: `Compare two drafts field by field and show:
  - fields only in one of them
  - fields whose value changed
  - the time between the two saves

Example:
  drafts diff draft-job-posting-new draft-job-posting-42`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output as JSON")
	diffCmd.Flags().BoolVar(&diffToon, "toon", false, "Output in LLM-friendly toon format")
}

type draftDiff struct {
	Draft1         models.Summary `json:"draft1"`
	Draft2         models.Summary `json:"draft2"`
	TimeDifference string         `json:"time_difference"`
	EntityChanged  bool           `json:"entity_changed"`
	FieldsAdded    []string       `json:"fields_added"`
	FieldsRemoved  []string       `json:"fields_removed"`
	FieldsChanged  []fieldChange  `json:"fields_changed"`
	FieldsSame     []string       `json:"fields_same"`
}

type fieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	snap1, err := loadSnapshot(ctx, store, args[0])
	if err != nil {
		return err
	}
	snap2, err := loadSnapshot(ctx, store, args[1])
	if err != nil {
		return err
	}

	diff := compareDrafts(snap1, snap2)

	if done, err := printStructured(diff, diffJSON, diffToon); done {
		return err
	}

	fmt.Println("Draft Comparison")
	fmt.Println("━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Draft 1: %s (%s)\n", diff.Draft1.Key, formatSavedAt(diff.Draft1.SavedAt))
	fmt.Printf("Draft 2: %s (%s)\n", diff.Draft2.Key, formatSavedAt(diff.Draft2.SavedAt))
	fmt.Println()

	fmt.Printf("Time Difference: %s\n", diff.TimeDifference)
	if diff.EntityChanged {
		fmt.Printf("Entity: %s → %s\n", diff.Draft1.Entity, diff.Draft2.Entity)
	}
	fmt.Println()

	if len(diff.FieldsAdded) > 0 {
		fmt.Printf("Added:     %v\n", diff.FieldsAdded)
	}
	if len(diff.FieldsRemoved) > 0 {
		fmt.Printf("Removed:   %v\n", diff.FieldsRemoved)
	}
	if len(diff.FieldsChanged) > 0 {
		fmt.Println("Changed:")
		for _, c := range diff.FieldsChanged {
			fmt.Printf("  %s: %s → %s\n", c.Field, c.From, c.To)
		}
	}
	if len(diff.FieldsSame) > 0 {
		fmt.Printf("Unchanged: %v\n", diff.FieldsSame)
	}
	if len(diff.FieldsAdded)+len(diff.FieldsRemoved)+len(diff.FieldsChanged) == 0 {
		fmt.Println("Form data: (identical)")
	}

	return nil
}

func compareDrafts(a, b models.Snapshot) draftDiff {
	diff := draftDiff{
		Draft1:        a.Summary(),
		Draft2:        b.Summary(),
		EntityChanged: a.Entity != b.Entity,
	}

	switch {
	case a.SavedAt.IsZero() || b.SavedAt.IsZero():
		diff.TimeDifference = "unknown"
	default:
		d := b.SavedAt.Sub(a.SavedAt)
		if d < 0 {
			diff.TimeDifference = fmt.Sprintf("%s (draft2 is older)", formatElapsed(-d))
		} else {
			diff.TimeDifference = fmt.Sprintf("%s (draft2 is newer)", formatElapsed(d))
		}
	}

	fields1 := asFields(a.Payload)
	fields2 := asFields(b.Payload)

	for name, v1 := range fields1 {
		v2, ok := fields2[name]
		switch {
		case !ok:
			diff.FieldsRemoved = append(diff.FieldsRemoved, name)
		case reflect.DeepEqual(v1, v2):
			diff.FieldsSame = append(diff.FieldsSame, name)
		default:
			diff.FieldsChanged = append(diff.FieldsChanged, fieldChange{Field: name, From: preview(v1), To: preview(v2)})
		}
	}
	for name := range fields2 {
		if _, ok := fields1[name]; !ok {
			diff.FieldsAdded = append(diff.FieldsAdded, name)
		}
	}

	sort.Strings(diff.FieldsAdded)
	sort.Strings(diff.FieldsRemoved)
	sort.Strings(diff.FieldsSame)
	sort.Slice(diff.FieldsChanged, func(i, j int) bool {
		return diff.FieldsChanged[i].Field < diff.FieldsChanged[j].Field
	})
	return diff
}

// asFields views a payload as named fields; a non-object payload is one field.
func asFields(payload any) map[string]any {
	if m, ok := payload.(map[string]any); ok {
		return m
	}
	return map[string]any{"(payload)": payload}
}

func formatElapsed(d time.Duration) string {
	if d < 24*time.Hour {
		return d.Round(time.Second).String()
	}
	return formatDuration(d)
}
