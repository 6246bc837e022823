package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/alpkeskin/gotoon"
	json "github.com/goccy/go-json"
	"github.com/sourcegraph/conc/iter"

	"github.com/pders01/draftkeeper/internal/draft"
	"github.com/pders01/draftkeeper/internal/kv"
	"github.com/pders01/draftkeeper/internal/models"
)

const loadConcurrency = 8

type loadResult struct {
	snap models.Snapshot
	err  error
	ok   bool
}

// loadSnapshots reads and decodes every draft whose key starts with prefix,
// newest first. Unreadable drafts are reported on stderr and skipped.
func loadSnapshots(ctx context.Context, store kv.Store, prefix string) ([]models.Snapshot, error) {
	keys, err := store.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	mapper := iter.Mapper[string, loadResult]{MaxGoroutines: loadConcurrency}
	results := mapper.Map(keys, func(key *string) loadResult {
		snap, ok, err := readSnapshot(ctx, store, *key)
		return loadResult{snap: snap, err: err, ok: ok}
	})

	snaps := make([]models.Snapshot, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to read draft %s: %v\n", keys[i], r.err)
			continue
		}
		if r.ok {
			snaps = append(snaps, r.snap)
		}
	}

	sortNewestFirst(snaps)
	return snaps, nil
}

// loadSnapshot reads one draft, failing if it does not exist.
func loadSnapshot(ctx context.Context, store kv.Store, key string) (models.Snapshot, error) {
	snap, ok, err := readSnapshot(ctx, store, key)
	if err != nil {
		return models.Snapshot{}, err
	}
	if !ok {
		return models.Snapshot{}, fmt.Errorf("draft does not exist: %s", key)
	}
	return snap, nil
}

func readSnapshot(ctx context.Context, store kv.Store, key string) (models.Snapshot, bool, error) {
	value, ok, err := store.Get(ctx, key)
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("failed to read draft: %w", err)
	}
	if !ok {
		return models.Snapshot{}, false, nil
	}
	snap, err := draft.Decode(key, value)
	if err != nil {
		return models.Snapshot{}, false, err
	}
	if snap.Entity == "" {
		snap.Entity = models.EntityOf(key)
	}
	return snap, true, nil
}

func sortNewestFirst(snaps []models.Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].SavedAt.Equal(snaps[j].SavedAt) {
			return snaps[i].SavedAt.After(snaps[j].SavedAt)
		}
		return snaps[i].Key < snaps[j].Key
	})
}

// printStructured writes v as JSON or toon when requested and reports whether
// it did.
func printStructured(v any, asJSON, asToon bool) (bool, error) {
	if asJSON {
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return true, nil
	}
	if asToon {
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return true, nil
	}
	return false, nil
}

func formatSavedAt(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	switch {
	case d <= 0:
		return "unknown"
	case days == 0:
		return "< 1 day"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

func formatSize(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}
