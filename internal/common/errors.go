// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Common application errors.
var (
	// Collaborator errors.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrRateLimited             = errors.New("rate limited")
	ErrMalformedResponse       = errors.New("malformed collaborator response")

	// Provider selection errors.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// RateLimitError carries the retry-after hint a collaborator sent with a
// throttled response. It matches ErrRateLimited under errors.Is.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%v (retry after %s)", e.Err, e.RetryAfter)
	}
	return e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// NewRateLimitError wraps err as a rate-limit failure with an optional hint.
func NewRateLimitError(err error, retryAfter time.Duration) error {
	if err == nil {
		err = ErrRateLimited
	}
	return &RateLimitError{Err: err, RetryAfter: retryAfter}
}

// Unavailable wraps a transport or server failure so it matches
// ErrCollaboratorUnavailable.
func Unavailable(collaborator string, err error) error {
	return fmt.Errorf("%s: %w: %w", collaborator, ErrCollaboratorUnavailable, err)
}

// Malformed wraps a parse failure so it matches ErrMalformedResponse.
func Malformed(collaborator string, err error) error {
	return fmt.Errorf("%s: %w: %w", collaborator, ErrMalformedResponse, err)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation and deadlines come from the caller; retrying cannot help.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, ErrMalformedResponse) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrCollaboratorUnavailable)
}

// IsCancellation reports whether err stems from context cancellation or a deadline.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ItemError records the failure of one element of a batch.
type ItemError struct {
	Err   error
	Stage string
	Index int
}

func (e *ItemError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("item %d (%s): %v", e.Index, e.Stage, e.Err)
	}
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// BatchError aggregates per-index failures of a batch call whose other
// elements succeeded.
type BatchError struct {
	Failures []*ItemError
	Total    int
}

// Add records a failure for index.
func (b *BatchError) Add(index int, stage string, err error) {
	b.Failures = append(b.Failures, &ItemError{Index: index, Stage: stage, Err: err})
}

// Failed reports whether index failed.
func (b *BatchError) Failed(index int) bool {
	return b.For(index) != nil
}

// For returns the failure recorded for index, or nil.
func (b *BatchError) For(index int) *ItemError {
	if b == nil {
		return nil
	}
	for _, f := range b.Failures {
		if f.Index == index {
			return f
		}
	}
	return nil
}

// ErrOrNil returns b if any failures were recorded, otherwise nil.
func (b *BatchError) ErrOrNil() error {
	if b == nil || len(b.Failures) == 0 {
		return nil
	}
	sort.Slice(b.Failures, func(i, j int) bool { return b.Failures[i].Index < b.Failures[j].Index })
	return b
}

func (b *BatchError) Error() string {
	msgs := make([]string, 0, len(b.Failures))
	for _, f := range b.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d of %d items failed: %s", len(b.Failures), b.Total, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (b *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(b.Failures))
	for _, f := range b.Failures {
		errs = append(errs, f)
	}
	return errs
}
