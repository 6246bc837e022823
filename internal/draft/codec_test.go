package draft

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	value, err := Encode("draft-post-new", "post", map[string]any{"title": "a"}, at)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(value, `{"version":1,`), value)

	snap, err := Decode("draft-post-new", value)
	require.NoError(t, err)
	assert.Equal(t, "draft-post-new", snap.Key)
	assert.Equal(t, "post", snap.Entity)
	assert.True(t, at.Equal(snap.SavedAt))
	assert.Equal(t, map[string]any{"title": "a"}, snap.Payload)
	assert.Equal(t, len(value), snap.Size)
	assert.False(t, snap.Legacy)
}

func TestDecodeLegacy(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  any
	}{
		{"object", `{"title":"a","photo":null}`, map[string]any{"title": "a", "photo": nil}},
		{"object with version field", `{"version":3,"title":"a"}`, map[string]any{"version": float64(3), "title": "a"}},
		{"array", `[1,2]`, []any{float64(1), float64(2)}},
		{"string", `"x"`, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Decode("k", tt.value)
			require.NoError(t, err)
			assert.True(t, snap.Legacy)
			assert.True(t, snap.SavedAt.IsZero())
			assert.Equal(t, tt.want, snap.Payload)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"garbage", "{not json"},
		{"future version", `{"version":9,"key":"k","payload":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("k", tt.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDeserialization)

			var derr *Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, "k", derr.Key)
		})
	}
}

func TestDecodeInto(t *testing.T) {
	value, err := Encode("k", "", map[string]any{"title": "a", "count": 2}, time.Now())
	require.NoError(t, err)

	var dst struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}
	require.NoError(t, DecodeInto("k", value, &dst))
	assert.Equal(t, "a", dst.Title)
	assert.Equal(t, 2, dst.Count)

	assert.ErrorIs(t, DecodeInto("k", "nope", &dst), ErrDeserialization)
}

func TestEncodeRejectsUnserialisable(t *testing.T) {
	_, err := Encode("k", "", map[string]any{"c": complex(1, 1)}, time.Now())
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestErrorMessage(t *testing.T) {
	err := newError(KindStorageWrite, "draft-x", errBoom)
	assert.Equal(t, "draft draft-x: storage write failure: boom", err.Error())
	assert.ErrorIs(t, err, ErrStorageWrite)
	assert.NotErrorIs(t, err, ErrStorageRead)
	assert.Equal(t, "serialization failure", ErrSerialization.Error())
}
