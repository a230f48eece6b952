package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_SeedsGreeting(t *testing.T) {
	now := time.Now().UTC()
	s := NewSession("s-1", "Hello!", SessionStateIdle, now)

	require.Len(t, s.Turns, 1)
	assert.Equal(t, RoleAssistant, s.Turns[0].Role)
	assert.Equal(t, "Hello!", s.Turns[0].Content)
	assert.Equal(t, SessionStateIdle, s.State)
	assert.Equal(t, now, s.LastActiveAt)
}

func TestSession_AppendBumpsActivity(t *testing.T) {
	start := time.Now().UTC()
	s := NewSession("s-1", "Hello!", SessionStateIdle, start)

	later := start.Add(time.Minute)
	s.Append(Turn{Role: RoleUser, Content: "hi", Timestamp: later})

	assert.Len(t, s.Turns, 2)
	assert.Equal(t, later, s.LastActiveAt)
}

func TestSession_SnapshotIsIndependent(t *testing.T) {
	s := NewSession("s-1", "Hello!", SessionStateIdle, time.Now())
	snap := s.Snapshot()

	s.Append(Turn{Role: RoleUser, Content: "hi", Timestamp: time.Now()})

	assert.Len(t, snap.Turns, 1)
	assert.Len(t, s.Turns, 2)
}

func TestRecentTurns(t *testing.T) {
	var turns []Turn
	for i := 0; i < 20; i++ {
		turns = append(turns, Turn{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	recent := RecentTurns(turns, 4)
	require.Len(t, recent, 4)
	assert.Equal(t, "m16", recent[0].Content)
	assert.Equal(t, "m19", recent[3].Content)

	assert.Len(t, RecentTurns(turns[:2], 4), 2)
	assert.Nil(t, RecentTurns(turns, 0))
}

func TestValidateTurn(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
		want error
	}{
		{name: "user", turn: Turn{Role: RoleUser, Content: "hi"}},
		{name: "assistant", turn: Turn{Role: RoleAssistant, Content: "Hello!"}},
		{name: "unknown role", turn: Turn{Role: "system", Content: "hi"}, want: ErrInvalidRole},
		{name: "empty", turn: Turn{Role: RoleAssistant}, want: ErrEmptyMessage},
		{name: "whitespace", turn: Turn{Role: RoleUser, Content: " \n\t"}, want: ErrEmptyMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTurn(tt.turn)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
