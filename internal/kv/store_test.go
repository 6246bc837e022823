package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/draftkeeper/internal/config"
)

// storeContract runs the behaviour every backend must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		v, ok, err := s.Get(context.Background(), "draft-none-new")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "draft-job-new", `{"title":"a"}`))

		v, ok, err := s.Get(ctx, "draft-job-new")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"title":"a"}`, v)
	})

	t.Run("last write wins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", "one"))
		require.NoError(t, s.Set(ctx, "k", "two"))

		v, _, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", v)

		keys, err := s.Keys(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"k"}, keys)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", "v"))
		require.NoError(t, s.Remove(ctx, "k"))
		require.NoError(t, s.Remove(ctx, "k"))

		_, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys by prefix sorted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, k := range []string{"draft-mcq-2", "draft-job-new", "draft-mcq-1", "mcq-clone-x", "draft-mcq/slash"} {
			require.NoError(t, s.Set(ctx, k, "{}"))
		}

		keys, err := s.Keys(ctx, "draft-mcq")
		require.NoError(t, err)
		assert.Equal(t, []string{"draft-mcq-1", "draft-mcq-2", "draft-mcq/slash"}, keys)

		all, err := s.Keys(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		s := newStore(t)
		err := s.Set(context.Background(), "  ", "v")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s := NewMemoryStore()
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	_, _, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(context.Background(), "k", "v"), ErrClosed)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := NewFileStore(afero.NewMemMapFs(), "/drafts")
		require.NoError(t, err)
		return s
	})
}

func TestFileStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(afero.NewOsFs(), filepath.Join(dir, "store"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "draft-a/b-new", "payload"))

	data, err := os.ReadFile(s.Path("draft-a/b-new"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewFileStore(fs, "/drafts")
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "/drafts/notes.txt", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/drafts/.tmp-123", []byte("x"), 0o644))
	require.NoError(t, s.Set(context.Background(), "k", "v"))

	keys, err := s.Keys(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)
}

func TestFileStoreRequiresDir(t *testing.T) {
	_, err := NewFileStore(afero.NewMemMapFs(), "")
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "drafts.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStoreInMemory(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	v, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DRAFTS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DRAFTS_TEST_POSTGRES_DSN not set")
	}
	storeContract(t, func(t *testing.T) Store {
		ctx := context.Background()
		s, err := OpenPostgres(ctx, dsn)
		require.NoError(t, err)
		_, err = s.Pool().Exec(ctx, "TRUNCATE drafts")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestPostgresStoreNilPool(t *testing.T) {
	s := NewPostgresStore(nil)
	err := s.Set(context.Background(), "k", "v")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Store{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.Store{Backend: config.BackendFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, config.Store{Backend: "etcd"})
	assert.Error(t, err)
}
