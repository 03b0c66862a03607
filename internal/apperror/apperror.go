package apperror

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Handlers and callers branch on these with errors.Is;
// only ErrNetwork and ErrPartialWrite are safe to retry.
var (
	ErrNetwork           = errors.New("network error")
	ErrPermission        = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateRequest  = errors.New("duplicate friend request")
	ErrSelfRequest       = errors.New("self friend request")
	ErrInvalidTransition = errors.New("invalid relationship transition")
	ErrPartialWrite      = errors.New("partial write")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation error")
)

// AppError wraps a sentinel kind with a human-readable message.
type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Network classifies a transient store/connectivity failure.
func Network(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrNetwork,
		Message: fmt.Sprintf("%s failed: %v", op, cause),
	}
}

// Permission classifies an access-rule rejection from the store.
func Permission(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrPermission,
		Message: fmt.Sprintf("%s rejected by access rules: %v", op, cause),
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// DuplicateRequest reports a send while an identical request is already
// pending. A duplicate is also an illegal transition, so the error satisfies
// errors.Is for both ErrDuplicateRequest and ErrInvalidTransition.
func DuplicateRequest(fromID, toID string) *AppError {
	return &AppError{
		Err:     errors.Join(ErrDuplicateRequest, ErrInvalidTransition),
		Message: fmt.Sprintf("a pending friend request from %s to %s already exists", fromID, toID),
	}
}

func SelfRequest(userID string) *AppError {
	return &AppError{
		Err:     ErrSelfRequest,
		Message: fmt.Sprintf("user %s cannot send a friend request to themselves", userID),
	}
}

func InvalidTransition(from, action string) *AppError {
	return &AppError{
		Err:     ErrInvalidTransition,
		Message: fmt.Sprintf("cannot %s while relationship status is %s", action, from),
	}
}

// PartialWrite reports a two-sided write that completed only one side. The
// completed side is kept; retrying the whole operation fills in the rest.
func PartialWrite(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrPartialWrite,
		Message: fmt.Sprintf("%s partially applied, retry to complete: %v", op, cause),
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
	}
}

// Retryable reports whether the error is transient and the same call may be
// re-issued as-is.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrPartialWrite)
}
