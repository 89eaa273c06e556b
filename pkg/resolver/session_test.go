package resolver

import (
	"errors"
	"testing"
	"time"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingQueries() (*da.PlaceQuery, *da.PlaceQuery) {
	start := da.NewPlaceQuery("Springfield", springfields)
	end := da.NewPlaceQuery("Yogyakarta", []da.CandidateLocation{
		da.NewCandidateLocation("Yogyakarta, Indonesia", -7.7956, 110.3695),
	})
	return start, end
}

func TestSessionsChoose(t *testing.T) {
	sessions := NewSessions(time.Minute, 3)
	start, end := pendingQueries()

	sess := sessions.Begin(start, end, da.STRATEGY_ASTAR)
	require.NotEmpty(t, sess.Token)
	assert.False(t, sess.Start.IsResolved())
	assert.True(t, sess.End.IsResolved())
	assert.Equal(t, 1, sessions.Len())

	got, err := sessions.Choose(sess.Token, "2", "")
	require.NoError(t, err)
	picked, ok := got.Start.Resolved()
	require.True(t, ok)
	assert.Equal(t, springfields[1], picked)
	assert.Equal(t, da.STRATEGY_ASTAR, got.Strategy)

	// sessions are one-shot
	assert.Equal(t, 0, sessions.Len())
	_, err = sessions.Choose(sess.Token, "2", "")
	require.Error(t, err)
	assert.Equal(t, util.ErrBadParamInput, util.CodeOf(err))
}

func TestSessionsRetryBudget(t *testing.T) {
	sessions := NewSessions(time.Minute, 3)
	start, end := pendingQueries()
	sess := sessions.Begin(start, end, da.STRATEGY_QAOA)

	for attempt := 1; attempt < 3; attempt++ {
		_, err := sessions.Choose(sess.Token, "9", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, da.ErrInvalidSelection))
		assert.False(t, errors.Is(err, da.ErrSelectionExhausted))
		assert.Equal(t, util.ErrUnprocessable, util.CodeOf(err))

		var selErr *SelectionError
		require.True(t, errors.As(err, &selErr))
		assert.Equal(t, 3-attempt, selErr.Remaining)
		assert.Len(t, selErr.Session.Start.Candidates, 3)
	}

	_, err := sessions.Choose(sess.Token, "abc", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, da.ErrSelectionExhausted))
	assert.True(t, errors.Is(err, da.ErrInvalidSelection))
	assert.Equal(t, util.ErrBadParamInput, util.CodeOf(err))
	assert.Equal(t, 0, sessions.Len())
}

func TestSessionsMissingChoice(t *testing.T) {
	sessions := NewSessions(time.Minute, 3)
	start, end := pendingQueries()
	sess := sessions.Begin(start, end, da.STRATEGY_ASTAR)

	_, err := sessions.Choose(sess.Token, "", "")
	require.Error(t, err)
	assert.Equal(t, util.ErrUnprocessable, util.CodeOf(err))

	got, err := sessions.Choose(sess.Token, "1", "1")
	require.NoError(t, err)
	picked, _ := got.Start.Resolved()
	assert.Equal(t, springfields[0], picked)
}

func TestSessionsExpire(t *testing.T) {
	sessions := NewSessions(time.Minute, 3)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	start, end := pendingQueries()
	sess := sessions.Begin(start, end, da.STRATEGY_ASTAR)

	now = now.Add(2 * time.Minute)
	_, err := sessions.Choose(sess.Token, "1", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, da.ErrInvalidSelection))
	assert.Equal(t, util.ErrBadParamInput, util.CodeOf(err))
}

func TestSessionsUnknownToken(t *testing.T) {
	sessions := NewSessions(time.Minute, 3)
	_, err := sessions.Choose("not-a-token", "1", "1")
	require.Error(t, err)
	assert.Equal(t, util.ErrBadParamInput, util.CodeOf(err))
}
