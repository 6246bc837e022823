package draft

import (
	"errors"
	"fmt"
)

// Kind classifies a persistence failure.
type Kind int

const (
	KindSerialization Kind = iota + 1
	KindStorageWrite
	KindStorageRead
	KindDeserialization
	KindStorageRemove
)

func (k Kind) String() string {
	switch k {
	case KindSerialization:
		return "serialization"
	case KindStorageWrite:
		return "storage write"
	case KindStorageRead:
		return "storage read"
	case KindDeserialization:
		return "deserialization"
	case KindStorageRemove:
		return "storage remove"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrSerialization   = &Error{Kind: KindSerialization}
	ErrStorageWrite    = &Error{Kind: KindStorageWrite}
	ErrStorageRead     = &Error{Kind: KindStorageRead}
	ErrDeserialization = &Error{Kind: KindDeserialization}
	ErrStorageRemove   = &Error{Kind: KindStorageRemove}
)

// Error is a persistence failure for one draft key.
type Error struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " failure"
	if e.Key != "" {
		msg = fmt.Sprintf("draft %s: %s", e.Key, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so callers can match on the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Key == "" && t.Err == nil
}

func newError(kind Kind, key string, err error) *Error {
	return &Error{Kind: kind, Key: key, Err: err}
}

// keyed returns err as an *Error for key. An *Error without a key gets one;
// anything else is wrapped with kind.
func keyed(kind Kind, key string, err error) error {
	var derr *Error
	if errors.As(err, &derr) {
		if derr.Key != "" {
			return derr
		}
		return &Error{Kind: derr.Kind, Key: key, Err: derr.Err}
	}
	return newError(kind, key, err)
}
