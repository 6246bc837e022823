package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/pders01/draftkeeper/internal/models"
)

func TestCollectStats(t *testing.T) {
	now := time.Now()
	snaps := []models.Snapshot{
		{Key: "draft-mcq-new", Entity: "mcq", SavedAt: now, Size: 100},
		{Key: "draft-mcq-3", Entity: "mcq", SavedAt: now.AddDate(0, 0, -40), Size: 200},
		{Key: "mcq-clone-abc", Entity: "mcq", SavedAt: now, Size: 50},
		{Key: "draft-job-posting-7", Entity: "job-posting", Legacy: true, Size: 10},
	}

	stats := collectStats(snaps, now.AddDate(0, 0, -30))

	if stats.TotalDrafts != 4 || stats.TotalBytes != 360 {
		t.Errorf("totals = %d / %d", stats.TotalDrafts, stats.TotalBytes)
	}
	if stats.CreateDrafts != 1 || stats.EditDrafts != 2 || stats.CloneStashes != 1 {
		t.Errorf("kinds = create %d, edit %d, clone %d", stats.CreateDrafts, stats.EditDrafts, stats.CloneStashes)
	}
	if stats.LegacyDrafts != 1 {
		t.Errorf("LegacyDrafts = %d", stats.LegacyDrafts)
	}
	if stats.Expired != 1 {
		t.Errorf("Expired = %d, want 1", stats.Expired)
	}
	if len(stats.TopEntities) != 2 || stats.TopEntities[0].Entity != "mcq" || stats.TopEntities[0].Count != 3 {
		t.Errorf("TopEntities = %+v", stats.TopEntities)
	}
	if len(stats.DailyActivity) != 2 || stats.DailyActivity[0].Count != 2 {
		t.Errorf("DailyActivity = %+v", stats.DailyActivity)
	}
	if stats.OldestDraft == nil || !stats.OldestDraft.Equal(snaps[1].SavedAt) {
		t.Errorf("OldestDraft = %v", stats.OldestDraft)
	}
}

func TestStatsCommand(t *testing.T) {
	ts := useTempStore(t)
	statsJSON, statsToon = false, false

	out, err := captureOutput(t, func() error { return runStats(nil, []string{}) })
	if err != nil {
		t.Fatalf("stats command failed: %v", err)
	}
	if !strings.Contains(out, "No drafts found") {
		t.Errorf("unexpected output: %q", out)
	}

	ts.Seed("draft-mcq-new", "mcq", map[string]any{"q": "a"}, daysAgo(0))
	ts.Seed("draft-mcq-9", "mcq", map[string]any{"q": "b"}, daysAgo(45))

	out, err = captureOutput(t, func() error { return runStats(nil, []string{}) })
	if err != nil {
		t.Fatalf("stats command failed: %v", err)
	}
	for _, want := range []string{"Total Drafts: 2", "Older than 30 days:   1", "mcq"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
