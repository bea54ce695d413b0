package enrollment

import goerrors "github.com/goliatone/go-errors"

var (
	// ErrAlreadyEnrolled is returned by Create when the user already has an
	// enrollment for the hackathon.
	ErrAlreadyEnrolled = goerrors.New("enrollment: user already enrolled", goerrors.CategoryConflict)

	// ErrEnrollmentNotStarted is returned by Create before the enrollment window opens.
	ErrEnrollmentNotStarted = goerrors.New("enrollment: enrollment has not started", goerrors.CategoryValidation)

	// ErrEnrollmentEnded is returned by Create after the enrollment window closed.
	ErrEnrollmentEnded = goerrors.New("enrollment: enrollment has ended", goerrors.CategoryValidation)

	// ErrInvalidStatus is returned by TransitionStatus for an unknown status.
	ErrInvalidStatus = goerrors.New("enrollment: invalid status", goerrors.CategoryBadInput)
)
