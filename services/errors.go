package services

import "errors"

// Shared sentinel errors, mapped to HTTP statuses in the handlers package.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrPollClosed          = errors.New("poll is not open for voting")
	ErrBallotTooLarge      = errors.New("ballot exceeds the allowed number of ranks")
	ErrBallotRankInvalid   = errors.New("ballot rank out of range")
	ErrBallotRankReused    = errors.New("ballot assigns the same rank twice")
	ErrBallotOptionForeign = errors.New("ballot ranks an option outside the poll")

	// Conflicts
	ErrUserEmailConflict   = errors.New("email address is already in use")
	ErrPollNameConflict    = errors.New("poll name already exists")
	ErrOptionTitleConflict = errors.New("option title already exists in this poll")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Entity-specific not-found errors
	ErrUserNotFound   = errors.New("user not found")
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrGameNotFound   = errors.New("bracket game not found")

	// Uploads
	ErrUnsupportedPhotoType = errors.New("unsupported photo content type")
)
