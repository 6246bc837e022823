// Package kv defines the key-value store drafts are persisted in and its backends.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned by every operation on a closed store.
	ErrClosed = errors.New("kv: store closed")
	// ErrInvalidKey is returned for empty or whitespace-only keys.
	ErrInvalidKey = errors.New("kv: invalid key")
)

// Store is a flat string-to-string store. Writes are whole-value overwrites.
type Store interface {
	// Get returns the value under key. A missing key is ("", false, nil).
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites the value under key.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys lists keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

func checkContext(ctx context.Context, op string) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}
