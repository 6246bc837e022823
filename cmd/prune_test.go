package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/pders01/draftkeeper/internal/models"
	"github.com/pders01/draftkeeper/internal/testutil"
)

func seedPruneFixtures(ts *testutil.TempStore) {
	ts.Seed("draft-mcq-new", "mcq", map[string]any{"q": "fresh"}, daysAgo(1))
	ts.Seed("draft-mcq-3", "mcq", map[string]any{"q": "stale"}, daysAgo(45))
	ts.Seed("draft-settings-profile", "settings", map[string]any{"theme": "dark"}, daysAgo(90))
	ts.SeedRaw("draft-legacy-new", `{"q": "bare"}`)
}

func TestPruneNoDrafts(t *testing.T) {
	useTempStore(t)
	pruneDryRun, pruneForce = false, false

	if _, err := captureOutput(t, func() error { return runPrune(nil, []string{}) }); err != nil {
		t.Fatalf("prune command failed: %v", err)
	}
}

func TestPruneDryRun(t *testing.T) {
	ts := useTempStore(t)
	seedPruneFixtures(ts)
	pruneDryRun, pruneForce = false, false

	out, err := captureOutput(t, func() error { return runPrune(nil, []string{}) })
	if err != nil {
		t.Fatalf("prune command failed: %v", err)
	}
	if !strings.Contains(out, "Drafts to prune (2)") || !strings.Contains(out, "This is a dry run") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if len(ts.Keys("")) != 4 {
		t.Errorf("dry run deleted drafts: %v", ts.Keys(""))
	}
}

func TestPruneDryRunOverridesForce(t *testing.T) {
	ts := useTempStore(t)
	seedPruneFixtures(ts)
	pruneDryRun, pruneForce = true, true
	defer func() { pruneDryRun, pruneForce = false, false }()

	if _, err := captureOutput(t, func() error { return runPrune(nil, []string{}) }); err != nil {
		t.Fatalf("prune command failed: %v", err)
	}
	if len(ts.Keys("")) != 4 {
		t.Errorf("--dry-run should win over --force: %v", ts.Keys(""))
	}
}

func TestPruneForce(t *testing.T) {
	ts := useTempStore(t)
	seedPruneFixtures(ts)
	ts.Config.Retention.PreservePrefixes = []string{"draft-settings-"}
	pruneDryRun, pruneForce = false, true
	defer func() { pruneForce = false }()

	out, err := captureOutput(t, func() error { return runPrune(nil, []string{}) })
	if err != nil {
		t.Fatalf("prune command failed: %v", err)
	}
	if !strings.Contains(out, "✓ Pruned 1 draft(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}

	want := []string{"draft-legacy-new", "draft-mcq-new", "draft-settings-profile"}
	if got := ts.Keys(""); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("remaining drafts = %v, want %v", got, want)
	}
}

func TestPlanPrune(t *testing.T) {
	now := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, 0, -30)
	snaps := []models.Snapshot{
		{Key: "draft-mcq-old", SavedAt: now.AddDate(0, 0, -31)},
		{Key: "draft-mcq-recent", SavedAt: now.AddDate(0, 0, -29)},
		{Key: "draft-keep-old", SavedAt: now.AddDate(0, 0, -100)},
		{Key: "draft-legacy-new"},
	}
	preserve := func(key string) bool { return strings.HasPrefix(key, "draft-keep-") }

	toPrune, toPreserve := planPrune(snaps, preserve, cutoff, now)

	if len(toPrune) != 1 || toPrune[0].Key != "draft-mcq-old" {
		t.Fatalf("toPrune = %+v", toPrune)
	}
	if toPrune[0].Reason != "saved before 2025-09-20" {
		t.Errorf("Reason = %q", toPrune[0].Reason)
	}

	reasons := make(map[string]string)
	for _, c := range toPreserve {
		reasons[c.Key] = c.Reason
	}
	want := map[string]string{
		"draft-mcq-recent": "within retention period",
		"draft-keep-old":   "matches preserve prefix",
		"draft-legacy-new": "save time unknown",
	}
	for key, reason := range want {
		if reasons[key] != reason {
			t.Errorf("%s: reason = %q, want %q", key, reasons[key], reason)
		}
	}
}
