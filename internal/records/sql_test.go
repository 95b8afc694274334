package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStoreRoundTrip(t *testing.T) {
	s, err := OpenSQL("sqlite3", ":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Load(ctx, "AB12C")
	assert.ErrorIs(t, err, ErrNotFound)

	rec := &Record{RoomID: "AB12C", ScoresByName: map[string]int{"amy": 16, "bob": -16}}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, "AB12C")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"amy": 16, "bob": -16}, got.ScoresByName)
	assert.Equal(t, "AB12C", got.RoomID)
	assert.False(t, got.UpdatedAt.IsZero())

	// Upsert: a second save replaces the row.
	rec.ScoresByName["amy"] = 25
	require.NoError(t, s.Save(ctx, rec))
	got, err = s.Load(ctx, "AB12C")
	require.NoError(t, err)
	assert.Equal(t, 25, got.ScoresByName["amy"])

	other, err := s.Load(ctx, "ZZ99Z")
	assert.Nil(t, other)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenSQLBadDriver(t *testing.T) {
	_, err := OpenSQL("not-a-driver", "dsn")
	assert.Error(t, err)
}
