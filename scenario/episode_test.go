package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEpisode(t *testing.T) *Episode {
	t.Helper()
	s, err := New("mass: '${uniform: 0.5, 2.0}'\n", Config{Seed: seedPtr(1)})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.NoError(t, err)
	return NewEpisode("run-1", "", res)
}

func TestEpisode_StartsRunning(t *testing.T) {
	e := newTestEpisode(t)
	assert.Equal(t, EpisodeRunning, e.Status())
	assert.Equal(t, "run-1", e.RunID())
	assert.NotEmpty(t, e.ID())
	assert.Contains(t, e.Result().Values, "mass")
}

func TestEpisode_ExplicitID(t *testing.T) {
	e := NewEpisode("run-1", "ep-7", nil)
	assert.Equal(t, "ep-7", e.ID())
}

func TestEpisode_LogDuplicateKey(t *testing.T) {
	e := newTestEpisode(t)
	require.NoError(t, e.Log("reward", 1.5, false))
	err := e.Log("reward", 2.0, false)
	require.ErrorIs(t, err, ErrDuplicateLogKey)
	assert.Equal(t, 1.5, e.Logs()["reward"])
}

func TestEpisode_LogReplace(t *testing.T) {
	e := newTestEpisode(t)
	require.NoError(t, e.Log("reward", 1.5, false))
	require.NoError(t, e.Log("reward", 2.0, true))
	assert.Equal(t, 2.0, e.Logs()["reward"])
}

func TestEpisode_LogReservedKey(t *testing.T) {
	e := newTestEpisode(t)
	err := e.Log("scenario", "nope", false)
	require.ErrorIs(t, err, ErrDuplicateLogKey)
	// replace does not bypass the reservation
	err = e.Log("scenario", "nope", true)
	require.ErrorIs(t, err, ErrDuplicateLogKey)
}

func TestEpisode_FinishTransitions(t *testing.T) {
	e := newTestEpisode(t)
	require.NoError(t, e.Success())
	assert.Equal(t, EpisodeSuccess, e.Status())
}

func TestEpisode_FinishTwice(t *testing.T) {
	e := newTestEpisode(t)
	require.NoError(t, e.Fail())
	err := e.Discard()
	require.ErrorIs(t, err, ErrEpisodeFinished)
	assert.Equal(t, EpisodeFailed, e.Status(), "first terminal status wins")
}
