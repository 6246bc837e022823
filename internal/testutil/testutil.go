package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/pders01/draftkeeper/internal/config"
	"github.com/pders01/draftkeeper/internal/draft"
	"github.com/pders01/draftkeeper/internal/kv"
	"github.com/pders01/draftkeeper/internal/models"
)

// TempStore is a file-backed draft store in a temporary directory
type TempStore struct {
	Path   string
	Store  *kv.FileStore
	Config *config.Config
	T      *testing.T
}

// NewTempStore creates a file store under t.TempDir with default configuration
func NewTempStore(t *testing.T) *TempStore {
	t.Helper()

	dir := t.TempDir()
	cfg, err := config.Default(dir)
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	store, err := kv.NewFileStore(afero.NewOsFs(), cfg.Store.Dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return &TempStore{
		Path:   dir,
		Store:  store,
		Config: cfg,
		T:      t,
	}
}

// Seed stores payload under key as an envelope saved at savedAt
func (s *TempStore) Seed(key, entity string, payload any, savedAt time.Time) {
	s.T.Helper()
	value, err := draft.Encode(key, entity, payload, savedAt)
	if err != nil {
		s.T.Fatalf("failed to encode draft %s: %v", key, err)
	}
	s.SeedRaw(key, value)
}

// SeedRaw stores value under key as is
func (s *TempStore) SeedRaw(key, value string) {
	s.T.Helper()
	if err := s.Store.Set(context.Background(), key, value); err != nil {
		s.T.Fatalf("failed to seed %s: %v", key, err)
	}
}

// Has reports whether key is stored
func (s *TempStore) Has(key string) bool {
	s.T.Helper()
	_, ok, err := s.Store.Get(context.Background(), key)
	if err != nil {
		s.T.Fatalf("failed to read %s: %v", key, err)
	}
	return ok
}

// Snapshot decodes the draft under key
func (s *TempStore) Snapshot(key string) models.Snapshot {
	s.T.Helper()
	value, ok, err := s.Store.Get(context.Background(), key)
	if err != nil || !ok {
		s.T.Fatalf("draft %s not found (err: %v)", key, err)
	}
	snap, err := draft.Decode(key, value)
	if err != nil {
		s.T.Fatalf("failed to decode %s: %v", key, err)
	}
	return snap
}

// Keys lists stored keys with prefix
func (s *TempStore) Keys(prefix string) []string {
	s.T.Helper()
	keys, err := s.Store.Keys(context.Background(), prefix)
	if err != nil {
		s.T.Fatalf("failed to list keys: %v", err)
	}
	return keys
}

// CreateFile writes a file relative to the temp directory and returns its path
func (s *TempStore) CreateFile(name, content string) string {
	s.T.Helper()
	path := filepath.Join(s.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		s.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		s.T.Fatalf("failed to create file: %v", err)
	}
	return path
}
