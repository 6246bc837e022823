package draft

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/draftkeeper/internal/kv"
	"github.com/pders01/draftkeeper/internal/models"
)

// Stash writes payload as a clone hand-off for entity and returns its key.
// Keys are time ordered, so the newest stash sorts last.
func Stash(ctx context.Context, store kv.Store, entity string, payload any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate clone id: %w", err)
	}
	key := models.CloneKeyPrefix(entity) + id.String()

	value, err := Encode(key, entity, payload, time.Now())
	if err != nil {
		return "", keyed(KindSerialization, key, err)
	}
	if err := store.Set(ctx, key, value); err != nil {
		return "", newError(KindStorageWrite, key, err)
	}
	return key, nil
}

// TakeLatestClone removes and returns the newest clone hand-off for entity.
// Older stashes are left for prune.
func TakeLatestClone(ctx context.Context, store kv.Store, entity string) (any, bool, error) {
	keys, err := store.Keys(ctx, models.CloneKeyPrefix(entity))
	if err != nil {
		return nil, false, newError(KindStorageRead, "", err)
	}
	if len(keys) == 0 {
		return nil, false, nil
	}
	key := keys[len(keys)-1]

	value, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, false, newError(KindStorageRead, key, err)
	}
	if !ok {
		return nil, false, nil
	}
	snap, err := Decode(key, value)
	if err != nil {
		return nil, false, err
	}
	if err := store.Remove(ctx, key); err != nil {
		return nil, false, newError(KindStorageRemove, key, err)
	}
	return snap.Payload, true, nil
}
