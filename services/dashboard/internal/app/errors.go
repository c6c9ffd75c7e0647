package app

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials is shown to users as is; it must not reveal which
	// part of the credentials was wrong.
	ErrInvalidCredentials = errors.New("Invalid username or password")

	ErrCurrentPasswordIncorrect = errors.New("Current password is incorrect.")
	ErrPasswordUpdateFailed     = errors.New("Failed to update password. Please try again.")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("admin role required")

	ErrEmptyUpload          = errors.New("uploaded file is empty")
	ErrUnsupportedTable     = errors.New("unsupported table")
	ErrUnsupportedDimension = errors.New("unsupported breakdown dimension")
	ErrUnsupportedFormat    = errors.New("unsupported export format")

	ErrArchiveFailed = errors.New("Failed to archive upload.")
	ErrCommitFailed  = errors.New("Failed to load data. Previous data is unchanged.")
)

// ValidationError carries every problem found in user input.
type ValidationError struct {
	Message string
	Errors  []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Errors, "; ")
}
