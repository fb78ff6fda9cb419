package civitai

import (
	"errors"
	"fmt"
)

var (
	// ErrCookieNotConfigured means the settings hold no session cookie
	ErrCookieNotConfigured = errors.New("civitai cookie not configured, set it in settings")

	// ErrInvalidCookie means the cookie string lacks the session token
	ErrInvalidCookie = errors.New("invalid cookie string, must contain civitai token")

	// ErrInvalidResponse means the body did not carry result.data
	ErrInvalidResponse = errors.New("invalid response format from civitai api")
)

// APIError is an error reported inside a tRPC response body
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("civitai api error (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("civitai api error (%d): %s", e.Status, e.Message)
}

// ErrRateLimited is returned when retries are exhausted on 429 responses
type ErrRateLimited struct {
	RetryAfter int // seconds
}

func (e ErrRateLimited) Error() string {
	return fmt.Sprintf("civitai rate limited, retry after %d seconds", e.RetryAfter)
}
