package kv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const (
	fileExt       = ".json"
	tempPrefix    = ".tmp-"
	filePerm      = 0o644
	directoryPerm = 0o755
)

// FileStore keeps one file per key in a directory.
type FileStore struct {
	fs     afero.Fs
	dir    string
	mu     sync.RWMutex
	closed bool
}

// NewFileStore creates a store rooted at dir on the given filesystem, creating dir if needed.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file store: directory required")
	}
	if err := fs.MkdirAll(dir, directoryPerm); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file path backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileExt)
}

// Get reads the file for key.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx, key, "file store get"); err != nil {
		return "", false, err
	}
	data, err := afero.ReadFile(s.fs, s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes value to a temp file and renames it over the file for key.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := s.check(ctx, key, "file store set"); err != nil {
		return err
	}
	tmp, err := afero.TempFile(s.fs, s.dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := s.fs.Chmod(tmpName, filePerm); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.Path(key)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

// Remove deletes the file for key.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := s.check(ctx, key, "file store remove"); err != nil {
		return err
	}
	err := s.fs.Remove(s.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Keys lists keys whose files are present in the store directory.
func (s *FileStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := checkContext(ctx, "file store keys"); err != nil {
		return nil, err
	}
	if s.isClosed() {
		return nil, ErrClosed
	}
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the store closed. Files are left in place.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *FileStore) check(ctx context.Context, key, op string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := checkContext(ctx, op); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrClosed
	}
	return nil
}
