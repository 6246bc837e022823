package draft

import (
	"bytes"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pders01/draftkeeper/internal/models"
)

const envelopeVersion = 1

// envelope is the stored form of a draft.
type envelope struct {
	Version int             `json:"version"`
	Key     string          `json:"key"`
	Entity  string          `json:"entity,omitempty"`
	SavedAt time.Time       `json:"saved_at"`
	Payload json.RawMessage `json:"payload"`
}

// Encode sanitises payload and wraps it in the stored envelope.
func Encode(key, entity string, payload any, savedAt time.Time) (string, error) {
	clean, err := Sanitize(payload)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return "", &Error{Kind: KindSerialization, Err: err}
	}
	data, err := json.Marshal(envelope{
		Version: envelopeVersion,
		Key:     key,
		Entity:  entity,
		SavedAt: savedAt.UTC(),
		Payload: raw,
	})
	if err != nil {
		return "", &Error{Kind: KindSerialization, Err: err}
	}
	return string(data), nil
}

// Decode parses a stored value. A value that is not an envelope is read as a
// bare payload, which is how the browser panel stored drafts.
func Decode(key, value string) (models.Snapshot, error) {
	env, legacy, err := unwrap(value)
	if err != nil {
		return models.Snapshot{}, newError(KindDeserialization, key, err)
	}
	var payload any
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return models.Snapshot{}, newError(KindDeserialization, key, err)
	}
	return models.Snapshot{
		Key:     key,
		Entity:  env.Entity,
		SavedAt: env.SavedAt,
		Payload: payload,
		Size:    len(value),
		Legacy:  legacy,
	}, nil
}

// DecodeInto decodes the payload of a stored value into dst.
func DecodeInto(key, value string, dst any) error {
	env, _, err := unwrap(value)
	if err != nil {
		return newError(KindDeserialization, key, err)
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return newError(KindDeserialization, key, err)
	}
	return nil
}

func unwrap(value string) (envelope, bool, error) {
	data := bytes.TrimSpace([]byte(value))
	if len(data) == 0 {
		return envelope{}, false, fmt.Errorf("empty value")
	}
	var env envelope
	if data[0] == '{' {
		if err := json.Unmarshal(data, &env); err == nil && env.Version > 0 && len(env.Payload) > 0 {
			if env.Version > envelopeVersion {
				return envelope{}, false, fmt.Errorf("unsupported envelope version %d", env.Version)
			}
			return env, false, nil
		}
	}
	if !json.Valid(data) {
		return envelope{}, false, fmt.Errorf("invalid json")
	}
	return envelope{Payload: data}, true, nil
}
