package pagination

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_EncodeDecode(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.FixedZone("IST", 5*3600+1800))

	encoded := EncodeCursor("7f0c6a52-2d7e-4b8a-9a43-0e3f1c2b9d10", ts)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "=")

	c, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "7f0c6a52-2d7e-4b8a-9a43-0e3f1c2b9d10", c.LastID)
	assert.True(t, c.Timestamp.Equal(ts))
	assert.Equal(t, time.UTC, c.Timestamp.Location())
}

func TestEncodeCursor_EmptyID(t *testing.T) {
	assert.Empty(t, EncodeCursor("", time.Now()))
}

func TestDecodeCursor_Empty(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "%%%"},
		{"no separator", enc("abc")},
		{"empty id", enc("|2025-01-01T00:00:00Z")},
		{"bad timestamp", enc("abc|yesterday")},
		{"std padding", base64.StdEncoding.EncodeToString([]byte("a|2025-01-01T00:00:00Z"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.cursor)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

type row struct {
	id string
	at time.Time
}

func position(r row) (string, time.Time) { return r.id, r.at }

func TestTrim(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{{"c", base.Add(3 * time.Second)}, {"b", base.Add(2 * time.Second)}, {"a", base.Add(time.Second)}}

	t.Run("extra row means more", func(t *testing.T) {
		page, next, more := Trim(rows, 2, position)
		assert.Len(t, page, 2)
		assert.True(t, more)

		c, err := DecodeCursor(next)
		require.NoError(t, err)
		assert.Equal(t, "b", c.LastID)
	})

	t.Run("exact fit is the last page", func(t *testing.T) {
		page, next, more := Trim(rows, 3, position)
		assert.Len(t, page, 3)
		assert.False(t, more)
		assert.Empty(t, next)
	})

	t.Run("empty", func(t *testing.T) {
		page, next, more := Trim([]row{}, 5, position)
		assert.Empty(t, page)
		assert.False(t, more)
		assert.Empty(t, next)
	})

	t.Run("zero limit", func(t *testing.T) {
		page, next, more := Trim(rows, 0, position)
		assert.Empty(t, page)
		assert.True(t, more)
		assert.False(t, strings.Contains(next, "|"))
	})
}
