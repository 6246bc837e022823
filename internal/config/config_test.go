package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default("/data")
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "/data/store", cfg.Store.Dir)
	assert.Equal(t, time.Second, cfg.Draft.Debounce)
	assert.Equal(t, PolicyPrompt, cfg.Draft.RestorePolicy)
	assert.Equal(t, 30, cfg.Retention.Days)
	assert.Empty(t, cfg.Retention.PreservePrefixes)
}

func TestLoadFromTOML(t *testing.T) {
	v := viper.New()
	SetDefaults(v, "/data")
	v.SetConfigType("toml")
	err := v.ReadConfig(strings.NewReader(`
[store]
backend = "SQLite"
sqlite_path = "/tmp/drafts.db"

[draft]
debounce = "250ms"
restore_policy = "auto"

[retention]
days = 7
preserve_prefixes = ["draft-govt-vacancy-"]
`))
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Draft.Debounce)
	assert.Equal(t, PolicyAuto, cfg.Draft.RestorePolicy)
	assert.Equal(t, 7, cfg.Retention.Days)
	assert.True(t, cfg.ShouldPreserve("draft-govt-vacancy-new"))
	assert.False(t, cfg.ShouldPreserve("draft-mcq-new"))
}

func TestLoadCommaSeparatedPrefixes(t *testing.T) {
	v := viper.New()
	SetDefaults(v, "/data")
	v.Set("retention.preserve_prefixes", "draft-a-,draft-b-")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"draft-a-", "draft-b-"}, cfg.Retention.PreservePrefixes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "memory needs nothing", mutate: func(c *Config) { c.Store.Backend = BackendMemory; c.Store.Dir = "" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "redis" }, wantErr: "invalid store.backend"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Backend = BackendPostgres }, wantErr: "postgres_dsn"},
		{name: "zero debounce", mutate: func(c *Config) { c.Draft.Debounce = 0 }, wantErr: "draft.debounce"},
		{name: "bad policy", mutate: func(c *Config) { c.Draft.RestorePolicy = "always" }, wantErr: "restore_policy"},
		{name: "negative retention", mutate: func(c *Config) { c.Retention.Days = -1 }, wantErr: "retention.days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default("/data")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRetentionCutoff(t *testing.T) {
	cfg := &Config{Retention: Retention{Days: 10}}
	now := time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), cfg.RetentionCutoff(now))
}

func TestWriteReadsBack(t *testing.T) {
	cfg, err := Default("/data")
	require.NoError(t, err)
	cfg.Draft.Debounce = 1500 * time.Millisecond
	cfg.Retention.PreservePrefixes = []string{"draft-settings-"}

	var buf strings.Builder
	require.NoError(t, Write(&buf, cfg))
	assert.Contains(t, buf.String(), `debounce = "1.5s"`)
	assert.NotContains(t, buf.String(), "postgres_dsn")

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(buf.String())))
	got, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
