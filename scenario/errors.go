package scenario

import "errors"

var (
	// ErrInvalidScenarioID reports a malformed scenario identifier or
	// version string passed to New or Reset.
	ErrInvalidScenarioID = errors.New("scenario: invalid scenario id")

	// ErrDuplicateLogKey reports an attempt to log under a reserved key or
	// a key that already holds a value, without replace set.
	ErrDuplicateLogKey = errors.New("scenario: duplicate or reserved log key")

	// ErrEpisodeFinished reports a second Finish on an already-finished
	// episode.
	ErrEpisodeFinished = errors.New("scenario: episode already finished")
)
