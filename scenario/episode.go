package scenario

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// EpisodeStatus is the lifecycle state of one episode.
type EpisodeStatus string

const (
	EpisodeRunning  EpisodeStatus = "running"
	EpisodeSuccess  EpisodeStatus = "success"
	EpisodeFailed   EpisodeStatus = "failed"
	EpisodeErrored  EpisodeStatus = "errored"
	EpisodeCanceled EpisodeStatus = "canceled"
)

// reservedLogKeys may not be logged under; they are populated by the
// engine itself.
var reservedLogKeys = map[string]bool{
	"scenario": true,
}

// Episode binds one resolution Result to a run for the duration of one
// episode: it carries the concrete configuration, the sampled values, and
// a key→value log that downstream layers serialize as episode artifacts.
type Episode struct {
	mu sync.Mutex

	runID  string
	id     string
	result *Result

	status   EpisodeStatus
	finished bool
	logs     map[string]any
}

// NewEpisode starts an episode for the given run around one Resolve
// result. An empty episodeID generates a fresh UUID.
func NewEpisode(runID, episodeID string, result *Result) *Episode {
	if episodeID == "" {
		episodeID = uuid.NewString()
	}
	return &Episode{
		runID:  runID,
		id:     episodeID,
		result: result,
		status: EpisodeRunning,
		logs:   make(map[string]any),
	}
}

func (e *Episode) RunID() string { return e.runID }
func (e *Episode) ID() string    { return e.id }

// Result returns the resolution result this episode runs under.
func (e *Episode) Result() *Result { return e.result }

// Status returns the current lifecycle state.
func (e *Episode) Status() EpisodeStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Log records a value under key. Reserved keys are rejected, and a key
// that already holds a value is rejected unless replace is set; both
// conditions report ErrDuplicateLogKey.
func (e *Episode) Log(key string, value any, replace bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if reservedLogKeys[key] {
		return fmt.Errorf("%w: %q is reserved", ErrDuplicateLogKey, key)
	}
	if _, exists := e.logs[key]; exists && !replace {
		return fmt.Errorf("%w: %q already holds a value", ErrDuplicateLogKey, key)
	}
	e.logs[key] = value
	return nil
}

// Logs returns a copy of the logged values.
func (e *Episode) Logs() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]any, len(e.logs))
	for k, v := range e.logs {
		out[k] = v
	}
	return out
}

// Finish transitions the episode to a terminal status. Finishing twice is
// an error.
func (e *Episode) Finish(status EpisodeStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return fmt.Errorf("%w: %s", ErrEpisodeFinished, e.id)
	}
	e.finished = true
	e.status = status
	return nil
}

// Success finishes the episode as successful.
func (e *Episode) Success() error { return e.Finish(EpisodeSuccess) }

// Fail finishes the episode as failed.
func (e *Episode) Fail() error { return e.Finish(EpisodeFailed) }

// Discard finishes the episode as canceled.
func (e *Episode) Discard() error { return e.Finish(EpisodeCanceled) }
