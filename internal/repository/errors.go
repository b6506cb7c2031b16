// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"community/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRetryable marks conflicts that a caller may resolve by re-running its transaction.
var ErrRetryable = errors.New("retryable persistence conflict")

// PostgreSQL SQLSTATE codes the repositories distinguish.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// IsRetryable reports whether err is a transient concurrency conflict.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}

// translate maps driver errors onto the AppError taxonomy. AppErrors pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.NewInternalError(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return models.NewConflictError("Concurrent update, please retry", fmt.Errorf("%w: %w", ErrRetryable, err))
		case sqlStateUniqueViolation:
			return models.NewConflictError("Resource already exists", err)
		}
		return models.NewInternalError(err)
	}

	// SQLite reports lock contention as SQLITE_BUSY.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy") {
		return models.NewConflictError("Concurrent update, please retry", fmt.Errorf("%w: %w", ErrRetryable, err))
	}
	if isUniqueConstraintError(err) {
		return models.NewConflictError("Resource already exists", err)
	}
	return models.NewInternalError(err)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}
