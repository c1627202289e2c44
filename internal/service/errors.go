package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository"
)

// Error classes. Every error returned by the scheduling services matches
// exactly one of these through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("schedule conflict")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("store unavailable")
)

// ValidationError reports malformed or missing input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictDimension names what two colliding schedules share.
type ConflictDimension string

const (
	DimensionRoom       ConflictDimension = "room"
	DimensionInstructor ConflictDimension = "instructor"
	DimensionCourse     ConflictDimension = "course"
)

// Conflict rules.
const (
	RuleSlotBooked     = "time slot already booked"
	RuleCourseTime     = "course already scheduled at a different time in this section"
	RuleInstructorBusy = "instructor already teaches at this time"
)

// ConflictError reports a proposed slot that collides with existing bookings.
// Conflicts is empty when the store rejected the write without naming them.
type ConflictError struct {
	Rule      string
	Dimension ConflictDimension
	Conflicts []model.Schedule
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return fmt.Sprintf("%s (%s)", e.Rule, e.Dimension)
	}
	ids := make([]string, len(e.Conflicts))
	for i, s := range e.Conflicts {
		ids[i] = fmt.Sprintf("#%d %s", s.ID, s.Slot())
	}
	return fmt.Sprintf("%s (%s): %s", e.Rule, e.Dimension, strings.Join(ids, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TransportError reports a store call whose outcome is unknown: the store was
// unreachable, timed out or failed mid-request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// storeError converts a repository failure into a service error class.
func storeError(op, entity string, id int, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrTransport):
		return err
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrMissingReference):
		return &NotFoundError{Entity: entity, ID: id}
	case errors.Is(err, repository.ErrOverlap):
		return &ConflictError{Rule: RuleSlotBooked, Dimension: DimensionRoom}
	case errors.Is(err, repository.ErrDuplicate):
		return newValidationError(entity, "already exists")
	default:
		return &TransportError{Op: op, Err: err}
	}
}
