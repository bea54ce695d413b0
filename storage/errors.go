package storage

import goerrors "github.com/goliatone/go-errors"

var (
	// ErrNotFound is returned when no record matches a key pair.
	ErrNotFound = goerrors.New("storage: record not found", goerrors.CategoryNotFound)

	// ErrAlreadyExists is returned by Insert when the key pair is taken.
	ErrAlreadyExists = goerrors.New("storage: record already exists", goerrors.CategoryConflict)

	// ErrConditionFailed is returned by MergeIf when the stored record no
	// longer holds the expected values.
	ErrConditionFailed = goerrors.New("storage: condition failed", goerrors.CategoryConflict)

	// ErrPartitionRequired is returned by QueryPaged when the filter has no partition key.
	ErrPartitionRequired = goerrors.New("storage: query requires a partition key", goerrors.CategoryBadInput)
)

// IsNotFound reports whether err is, or wraps, a missing record error.
func IsNotFound(err error) bool {
	return goerrors.Is(err, ErrNotFound) || goerrors.HasCategory(err, goerrors.CategoryNotFound)
}
