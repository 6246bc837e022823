package cmd

import (
	"testing"
)

func TestClearKeys(t *testing.T) {
	ts := useTempStore(t)
	ts.Seed("draft-mcq-1", "mcq", map[string]any{"q": "a"}, daysAgo(0))
	ts.Seed("draft-mcq-2", "mcq", map[string]any{"q": "b"}, daysAgo(0))
	clearEntity = ""

	if _, err := captureOutput(t, func() error { return runClear(nil, []string{"draft-mcq-1", "draft-missing-new"}) }); err != nil {
		t.Fatalf("clear command failed: %v", err)
	}
	if ts.Has("draft-mcq-1") {
		t.Error("expected draft-mcq-1 to be cleared")
	}
	if !ts.Has("draft-mcq-2") {
		t.Error("draft-mcq-2 should be kept")
	}
}

func TestClearEntity(t *testing.T) {
	ts := useTempStore(t)
	ts.Seed("draft-mcq-1", "mcq", map[string]any{"q": "a"}, daysAgo(0))
	ts.Seed("draft-mcq-new", "mcq", map[string]any{"q": "b"}, daysAgo(0))
	ts.Seed("draft-job-posting-new", "job-posting", map[string]any{"title": "x"}, daysAgo(0))
	clearEntity = "mcq"
	defer func() { clearEntity = "" }()

	if _, err := captureOutput(t, func() error { return runClear(nil, []string{}) }); err != nil {
		t.Fatalf("clear command failed: %v", err)
	}
	if keys := ts.Keys(""); len(keys) != 1 || keys[0] != "draft-job-posting-new" {
		t.Errorf("unexpected remaining drafts: %v", keys)
	}
}

func TestClearRequiresTarget(t *testing.T) {
	useTempStore(t)
	clearEntity = ""

	if err := runClear(nil, []string{}); err == nil {
		t.Error("expected error without keys or --entity")
	}
}
