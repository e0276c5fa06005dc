package addons

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork    = errors.New("network error")
	ErrUpstream   = errors.New("upstream error")
	ErrValidation = errors.New("validation error")

	ErrNotFound  = errors.New("addon not found")
	ErrDuplicate = errors.New("addon already installed")
	ErrBusy      = errors.New("another operation is in progress")
	ErrReadOnly  = errors.New("collection is read-only")
)

// UpstreamError is an application-level error returned by the platform API
type UpstreamError struct {
	Code    int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("upstream error %d: %s", e.Code, e.Message)
	}
	return "upstream error: " + e.Message
}

// Is lets errors.Is(err, ErrUpstream) match any UpstreamError
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// IsAuth reports whether the platform rejected the session
func (e *UpstreamError) IsAuth() bool {
	return e.Code == 1 || e.Code == 401 || e.Code == 403
}

// IsAuthError reports whether err carries an upstream session rejection
func IsAuthError(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.IsAuth()
}
