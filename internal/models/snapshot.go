package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// KeyPrefix starts every auto-save key
const KeyPrefix = "draft-"

// NewID is used in place of an entity id while the entity is being created
const NewID = "new"

// Snapshot is a decoded draft as held by a store
type Snapshot struct {
	Key     string
	Entity  string
	SavedAt time.Time
	Payload any
	Size    int
	Legacy  bool // bare payload written without an envelope
}

// Summary is the listing view of a snapshot
type Summary struct {
	Key     string    `json:"key"`
	Entity  string    `json:"entity,omitempty"`
	SavedAt time.Time `json:"saved_at"`
	Size    int       `json:"size"`
	Fields  []string  `json:"fields,omitempty"`
}

// DraftKey generates the storage key for one logical form instance
// Format: draft-<entity>-<id|new>
func DraftKey(entity, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewID
	}
	return fmt.Sprintf("%s%s-%s", KeyPrefix, Slug(entity), id)
}

// EntityPrefix returns the key prefix shared by every draft of an entity type
func EntityPrefix(entity string) string {
	return KeyPrefix + Slug(entity) + "-"
}

// CloneKeyPrefix returns the prefix of clone hand-off keys for an entity type
func CloneKeyPrefix(entity string) string {
	return Slug(entity) + CloneMarker
}

// CloneMarker separates the entity from the id in clone hand-off keys
const CloneMarker = "-clone-"

// EntityOf extracts the entity slug from a draft or clone key
// Returns "" for keys in neither format
func EntityOf(key string) string {
	if rest, ok := strings.CutPrefix(key, KeyPrefix); ok {
		if i := strings.LastIndex(rest, "-"); i > 0 {
			return rest[:i]
		}
		return ""
	}
	if i := strings.Index(key, CloneMarker); i > 0 {
		return key[:i]
	}
	return ""
}

// IsCloneKey reports whether the key holds a clone hand-off
func IsCloneKey(key string) bool {
	return !strings.HasPrefix(key, KeyPrefix) && strings.Contains(key, CloneMarker)
}

// IsEditKey reports whether the key belongs to an existing entity rather than a new one
func IsEditKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix) && !strings.HasSuffix(key, "-"+NewID)
}

// Age returns how long ago the snapshot was saved, zero when unknown
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.SavedAt.IsZero() {
		return 0
	}
	return now.Sub(s.SavedAt)
}

// Summary builds the listing view of the snapshot
func (s Snapshot) Summary() Summary {
	sum := Summary{
		Key:     s.Key,
		Entity:  s.Entity,
		SavedAt: s.SavedAt,
		Size:    s.Size,
	}
	if m, ok := s.Payload.(map[string]any); ok {
		for k := range m {
			sum.Fields = append(sum.Fields, k)
		}
		sort.Strings(sum.Fields)
	}
	return sum
}

// Slug normalises an entity type name for use in keys
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
