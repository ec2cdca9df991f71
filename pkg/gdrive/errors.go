package gdrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/dmitrymomot/drivedesk/pkg/oauth"
)

// Sentinel errors for provider status classification.
// Use errors.Is(err, gdrive.ErrNotFound) to check.
var (
	ErrNotConfigured = errors.New("gdrive: not configured")
	ErrBadRequest    = errors.New("gdrive: bad request")
	ErrUnauthorized  = errors.New("gdrive: unauthorized")
	ErrForbidden     = errors.New("gdrive: forbidden")
	ErrNotFound      = errors.New("gdrive: not found")
	ErrConflict      = errors.New("gdrive: conflict")
	ErrThrottled     = errors.New("gdrive: throttled")
	ErrServerError   = errors.New("gdrive: server error")

	// ErrNoMatch is returned when a lookup by name finds nothing.
	ErrNoMatch = errors.New("gdrive: no file with that name")
	// ErrAmbiguousName is returned when a lookup by name finds several files.
	ErrAmbiguousName = errors.New("gdrive: more than one file with that name")
	// ErrEmptyName is returned when a folder is created without a name.
	ErrEmptyName = errors.New("gdrive: empty name")
	// ErrNoFiles is returned when an upload carries no files.
	ErrNoFiles = errors.New("gdrive: no files to upload")
)

// Error wraps a sentinel with the failed operation and the provider's message.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()

	cause error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gdrive: %s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("gdrive: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.cause}
}

// UploadError is returned when a batch upload fails after some of its files
// were already created. Created holds those files; they are not rolled back.
type UploadError struct {
	Created []File
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("gdrive: upload failed after %d file(s) were created: %v", len(e.Created), e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict, http.StatusPreconditionFailed:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}
		return ErrBadRequest
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func rejectedGrant(rerr *oauth2.RetrieveError) bool {
	return rerr.Response != nil &&
		rerr.Response.StatusCode >= http.StatusBadRequest &&
		rerr.Response.StatusCode < http.StatusInternalServerError
}

// wrap classifies an SDK error for op. It returns nil for a nil err.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		// Drive reports rate limits as 403 with a rateLimitExceeded reason.
		sentinel := classifyStatus(gerr.Code)
		for _, item := range gerr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				sentinel = ErrThrottled
			}
		}
		return &Error{
			Op:         op,
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			Err:        sentinel,
			cause:      err,
		}
	}

	// A token endpoint outage says nothing about the refresh token.
	var rerr *oauth2.RetrieveError
	if errors.Is(err, oauth.ErrRefreshUnavailable) ||
		(errors.As(err, &rerr) && !errors.Is(err, oauth.ErrRefreshFailed) && !rejectedGrant(rerr)) {
		return &Error{
			Op:         op,
			StatusCode: http.StatusServiceUnavailable,
			Message:    "token endpoint unavailable",
			Err:        ErrServerError,
			cause:      err,
		}
	}

	if rerr != nil || errors.Is(err, oauth.ErrTokenExpired) || errors.Is(err, oauth.ErrRefreshFailed) {
		return &Error{
			Op:         op,
			StatusCode: http.StatusUnauthorized,
			Message:    "credentials are no longer valid",
			Err:        ErrUnauthorized,
			cause:      err,
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gdrive: %s canceled: %w", op, err)
	}

	return fmt.Errorf("gdrive: %s: %w", op, err)
}
