package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by every "missing record" error.
	ErrNotFound = errors.New("not found")

	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrCommunityNotFound = fmt.Errorf("community %w", ErrNotFound)
	ErrFAQNotFound       = fmt.Errorf("faq %w", ErrNotFound)

	// ErrNotMember is returned when a non-member tries to post.
	ErrNotMember = errors.New("user is not a member of this community")

	// ErrForbidden is returned for admin-only operations.
	ErrForbidden = errors.New("only the community creator may do this")

	// ErrValidation is wrapped by every input validation error.
	ErrValidation = errors.New("validation failed")

	ErrEmptyMessage = fmt.Errorf("%w: message text is empty", ErrValidation)

	// ErrJoinFailed wraps the cause of a rolled-back membership write.
	ErrJoinFailed = errors.New("join failed")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
