package repositories

import (
	"github.com/clutch-social/backend/internal/apperror"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// mapStoreError normalizes a Firestore RPC failure into the application error
// taxonomy. Callers handle codes.NotFound themselves where absence is a valid
// answer; everything else is either retryable (network) or terminal
// (permission).
func mapStoreError(op string, err error) error {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return apperror.Permission(op, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted, codes.Canceled:
		return apperror.Network(op, err)
	default:
		// Unknown RPC failures are treated as transient rather than being
		// silently swallowed.
		return apperror.Network(op, err)
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
