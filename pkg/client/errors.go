package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stemsi/jadwal-backend/internal/model"
)

// Error classes, matched with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("schedule conflict")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("transport failure")
)

// ValidationError means the server rejected the input. Fields maps the
// offending members to messages.
type ValidationError struct {
	Code    string
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError means the requested slot collides with existing schedules.
type ConflictError struct {
	Code      string
	Rule      string
	Dimension string
	Conflicts []model.Schedule
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s (%d schedules)", e.Dimension, e.Rule, len(e.Conflicts))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError means the addressed entity does not exist.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransportKind tells apart the ways a call can fail before the API answers
// with a domain error.
type TransportKind string

const (
	// KindUnreachable: the server could not be reached at all.
	KindUnreachable TransportKind = "unreachable"
	// KindTimeout: the call was cancelled or timed out; the outcome is unknown.
	KindTimeout TransportKind = "timeout"
	// KindRouteMissing: a 404 without an API envelope, usually a wrong base URL.
	KindRouteMissing TransportKind = "route_missing"
	// KindAuth: the token is missing, invalid or lacks a permission.
	KindAuth TransportKind = "auth"
	// KindRateLimited: too many writes; retry later.
	KindRateLimited TransportKind = "rate_limited"
	// KindServerFault: a 5xx, including an unavailable store.
	KindServerFault TransportKind = "server_fault"
	// KindDecode: the response could not be understood.
	KindDecode TransportKind = "decode"
)

// TransportError covers every failure that is not a domain answer.
type TransportError struct {
	Kind   TransportKind
	Op     string
	Status int
	Code   string
	Err    error

	// RetryAfter is the server's hint for KindRateLimited, zero when absent.
	RetryAfter time.Duration
}

func (e *TransportError) Error() string {
	var msg string
	switch e.Kind {
	case KindUnreachable:
		msg = "server unreachable"
	case KindTimeout:
		msg = "request timed out, outcome unknown"
	case KindRouteMissing:
		msg = "route not found, check the base URL"
	case KindAuth:
		msg = "not authorized"
	case KindRateLimited:
		msg = "rate limited"
	case KindServerFault:
		msg = "server error"
	default:
		msg = "unreadable response"
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return e.Op + ": " + msg
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// Retryable reports whether repeating the call may succeed. A timed-out write
// may already have been applied, so callers should re-read before retrying it.
func (e *TransportError) Retryable() bool {
	switch e.Kind {
	case KindUnreachable, KindTimeout, KindRateLimited:
		return true
	case KindServerFault:
		return e.Status == 502 || e.Status == 503 || e.Status == 504
	}
	return false
}

// IsRetryable reports whether err is a TransportError worth retrying.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Retryable()
}
