package config

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// fileConfig is the on-disk layout; durations are written as "1s" strings
type fileConfig struct {
	Store      Store      `toml:"store"`
	Draft      fileDraft  `toml:"draft"`
	Retention  Retention  `toml:"retention"`
	Log        Log        `toml:"log"`
	Embeddings Embeddings `toml:"embeddings"`
	Search     Search     `toml:"search"`
}

type fileDraft struct {
	Debounce      string `toml:"debounce"`
	WriteTimeout  string `toml:"write_timeout"`
	RestorePolicy string `toml:"restore_policy"`
}

// Write encodes cfg as a TOML config file
func Write(w io.Writer, cfg *Config) error {
	out := fileConfig{
		Store: cfg.Store,
		Draft: fileDraft{
			Debounce:      cfg.Draft.Debounce.String(),
			WriteTimeout:  cfg.Draft.WriteTimeout.String(),
			RestorePolicy: cfg.Draft.RestorePolicy,
		},
		Retention:  cfg.Retention,
		Log:        cfg.Log,
		Embeddings: cfg.Embeddings,
		Search:     cfg.Search,
	}
	if out.Retention.PreservePrefixes == nil {
		out.Retention.PreservePrefixes = []string{}
	}
	if err := toml.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
