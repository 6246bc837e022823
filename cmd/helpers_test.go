package cmd

import (
	"io"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pders01/draftkeeper/internal/testutil"
)

// useTempStore points the commands at a fresh file store for the test
func useTempStore(t *testing.T) *testutil.TempStore {
	t.Helper()

	ts := testutil.NewTempStore(t)
	oldStore, oldConfig, oldLogger := appStore, appConfig, appLogger
	appStore = ts.Store
	appConfig = ts.Config
	appLogger = zap.NewNop()
	t.Cleanup(func() {
		appStore, appConfig, appLogger = oldStore, oldConfig, oldLogger
	})
	return ts
}

// captureOutput runs fn with stdout redirected and returns what it printed
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	old := os.Stdout
	os.Stdout = w

	done := make(chan string)
	go func() {
		data, _ := io.ReadAll(r)
		done <- string(data)
	}()

	runErr := fn()
	w.Close()
	os.Stdout = old
	out := <-done
	r.Close()
	return out, runErr
}

func daysAgo(n int) time.Time {
	return time.Now().AddDate(0, 0, -n)
}
