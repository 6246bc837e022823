package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/draftkeeper/internal/models"
)

var (
	showJSON bool
	showToon bool
)

var showCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show details of a draft",
	Long: `Display a draft's envelope metadata and its top-level fields.

Example:
  drafts show draft-job-posting-new
  drafts show draft-job-posting-new --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	showCmd.Flags().BoolVar(&showToon, "toon", false, "Output in LLM-friendly toon format")
}

type draftDetail struct {
	Key     string         `json:"key"`
	Entity  string         `json:"entity,omitempty"`
	SavedAt *time.Time     `json:"saved_at,omitempty"`
	Age     string         `json:"age"`
	Size    int            `json:"size"`
	Legacy  bool           `json:"legacy"`
	Edit    bool           `json:"edit"`
	Fields  []fieldPreview `json:"fields"`
}

type fieldPreview struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}

	snap, err := loadSnapshot(commandContext(cmd), store, args[0])
	if err != nil {
		return err
	}
	detail := buildDetail(snap, time.Now())

	if done, err := printStructured(detail, showJSON, showToon); done {
		return err
	}

	fmt.Printf("Draft: %s\n", detail.Key)
	fmt.Println("━━━━━━━━━━━━━━━━━━━")
	if detail.Entity != "" {
		fmt.Printf("Entity:  %s\n", detail.Entity)
	}
	fmt.Printf("Saved:   %s (%s ago)\n", formatSavedAt(snap.SavedAt), detail.Age)
	fmt.Printf("Size:    %s\n", formatSize(detail.Size))
	if detail.Edit {
		fmt.Println("Mode:    edit")
	} else {
		fmt.Println("Mode:    create")
	}
	if detail.Legacy {
		fmt.Println("Format:  legacy (no envelope)")
	}

	if len(detail.Fields) > 0 {
		fmt.Println()
		fmt.Println("Fields:")
		for _, f := range detail.Fields {
			fmt.Printf("  %-20s %-8s %s\n", f.Name, f.Type, f.Value)
		}
	}
	return nil
}

func buildDetail(snap models.Snapshot, now time.Time) draftDetail {
	detail := draftDetail{
		Key:    snap.Key,
		Entity: snap.Entity,
		Age:    formatDuration(snap.Age(now)),
		Size:   snap.Size,
		Legacy: snap.Legacy,
		Edit:   models.IsEditKey(snap.Key),
	}
	if !snap.SavedAt.IsZero() {
		t := snap.SavedAt
		detail.SavedAt = &t
	}

	fields, ok := snap.Payload.(map[string]any)
	if !ok {
		detail.Fields = []fieldPreview{{Name: "(payload)", Type: valueType(snap.Payload), Value: preview(snap.Payload)}}
		return detail
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		detail.Fields = append(detail.Fields, fieldPreview{
			Name:  name,
			Type:  valueType(fields[name]),
			Value: preview(fields[name]),
		})
	}
	return detail
}

func valueType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func preview(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return "-"
	case []any:
		s = fmt.Sprintf("%d item(s)", len(val))
	case map[string]any:
		s = fmt.Sprintf("%d field(s)", len(val))
	default:
		s = fmt.Sprintf("%v", val)
	}
	if len(s) > 50 {
		s = s[:50] + "..."
	}
	return s
}
