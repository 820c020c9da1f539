package common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response is quoted in messages.
const maxErrorBody = 512

// ParseRetryAfter reads a Retry-After header value given either as seconds
// or as an HTTP date. Unparseable or past values yield zero.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// StatusError classifies a non-2xx collaborator response.
// 429 becomes a RateLimitError carrying the Retry-After hint; 401, 403,
// 408 and 5xx become ErrCollaboratorUnavailable; other statuses are returned
// as plain, non-retryable errors.
func StatusError(collaborator string, status int, header http.Header, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	base := fmt.Errorf("%s: status %d: %s", collaborator, status, msg)

	switch {
	case status == http.StatusTooManyRequests:
		var retryAfter time.Duration
		if header != nil {
			retryAfter = ParseRetryAfter(header.Get("Retry-After"), time.Now())
		}
		return NewRateLimitError(fmt.Errorf("%w: %w", ErrRateLimited, base), retryAfter)
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusRequestTimeout, status >= 500:
		return fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, base)
	default:
		return base
	}
}
