package counter

import goerrors "github.com/goliatone/go-errors"

var (
	// ErrHackathonNotFound is returned when the parent of a counter update is missing.
	ErrHackathonNotFound = goerrors.New("counter: hackathon not found", goerrors.CategoryNotFound)

	// ErrCounterContended is returned when every compare-and-set attempt of a
	// counter write found the counter changed.
	ErrCounterContended = goerrors.New("counter: counter kept changing during update", goerrors.CategoryConflict)
)
