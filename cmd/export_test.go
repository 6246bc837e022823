package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := useTempStore(t)
	src.Seed("draft-mcq-new", "mcq", map[string]any{"q": "2+2?"}, daysAgo(0))
	src.Seed("draft-job-posting-42", "job-posting", map[string]any{"title": "Engineer"}, daysAgo(1))
	src.SeedRaw("draft-legacy-new", `{"bare": true}`)

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	exportOutput = archive
	defer func() { exportOutput = "" }()

	out, err := captureOutput(t, func() error { return runExport(nil, []string{"all"}) })
	if err != nil {
		t.Fatalf("export command failed: %v", err)
	}
	if !strings.Contains(out, "3 draft(s) exported") {
		t.Errorf("unexpected output:\n%s", out)
	}

	dst := useTempStore(t)
	dst.Seed("draft-mcq-new", "mcq", map[string]any{"q": "local"}, daysAgo(0))
	importOverwrite = false

	if _, err := captureOutput(t, func() error { return runImport(nil, []string{archive}) }); err != nil {
		t.Fatalf("import command failed: %v", err)
	}
	if got := dst.Keys(""); len(got) != 3 {
		t.Fatalf("expected 3 drafts after import, got %v", got)
	}
	if q := dst.Snapshot("draft-mcq-new").Payload.(map[string]any)["q"]; q != "local" {
		t.Errorf("existing draft replaced without --overwrite: %v", q)
	}
	if !reflect.DeepEqual(dst.Snapshot("draft-job-posting-42"), src.Snapshot("draft-job-posting-42")) {
		t.Error("imported draft differs from the exported one")
	}
	if !dst.Snapshot("draft-legacy-new").Legacy {
		t.Error("legacy draft should stay legacy")
	}

	importOverwrite = true
	defer func() { importOverwrite = false }()
	if _, err := captureOutput(t, func() error { return runImport(nil, []string{archive}) }); err != nil {
		t.Fatalf("import --overwrite failed: %v", err)
	}
	if q := dst.Snapshot("draft-mcq-new").Payload.(map[string]any)["q"]; q != "2+2?" {
		t.Errorf("expected --overwrite to replace the draft, got %v", q)
	}
}

func TestExportPrefix(t *testing.T) {
	ts := useTempStore(t)
	ts.Seed("draft-mcq-new", "mcq", map[string]any{"q": "a"}, daysAgo(0))
	ts.Seed("draft-job-posting-new", "job-posting", map[string]any{"title": "x"}, daysAgo(0))

	archive := filepath.Join(t.TempDir(), "mcq.tar.gz")
	exportOutput = archive
	defer func() { exportOutput = "" }()

	out, err := captureOutput(t, func() error { return runExport(nil, []string{"draft-mcq-"}) })
	if err != nil {
		t.Fatalf("export command failed: %v", err)
	}
	if !strings.Contains(out, "1 draft(s) exported") {
		t.Errorf("unexpected output:\n%s", out)
	}

	exportOutput = filepath.Join(t.TempDir(), "none.tar.gz")
	out, err = captureOutput(t, func() error { return runExport(nil, []string{"draft-nothing-"}) })
	if err != nil {
		t.Fatalf("export command failed: %v", err)
	}
	if !strings.Contains(out, "No drafts match") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(exportOutput); !os.IsNotExist(err) {
		t.Error("no archive should be written for an empty selection")
	}
}

func TestImportInvalidArchive(t *testing.T) {
	ts := useTempStore(t)
	path := ts.CreateFile("broken.tar.gz", "not gzip")

	if err := runImport(nil, []string{path}); err == nil {
		t.Error("expected error for an invalid archive")
	}
	if err := runImport(nil, []string{filepath.Join(ts.Path, "missing.tar.gz")}); err == nil {
		t.Error("expected error for a missing archive")
	}
}

func TestArchiveName(t *testing.T) {
	if got := archiveName("draft-a/b c"); got != "draft-a%2Fb%20c" {
		t.Errorf("archiveName() = %q", got)
	}
}
