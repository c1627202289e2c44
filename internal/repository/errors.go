package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store-level error classes. Every repository, whatever its backend, reports
// failures through one of these so callers can tell them apart.
var (
	ErrNotFound         = errors.New("record not found")
	ErrOverlap          = errors.New("time range overlaps an existing booking")
	ErrMissingReference = errors.New("referenced record does not exist")
	ErrDuplicate        = errors.New("duplicate record")
	ErrUnavailable      = errors.New("store unavailable")
)

// PostgreSQL SQLSTATE codes the repositories care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgExclusionViolation  = "23P01"
)

// Classify maps a driver error onto the store-level error classes.
// The original error stays reachable through errors.Unwrap.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrOverlap, ErrMissingReference, ErrDuplicate, ErrUnavailable} {
		if errors.Is(err, known) {
			return err
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return fmt.Errorf("%w: %s", ErrOverlap, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrMissingReference, pgErr.ConstraintName)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		}
	}

	// Everything else (refused connections, timeouts, cancelled contexts,
	// server faults) leaves the outcome unknown.
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintName
}
