package repository

import (
	"context"
	"errors"
	"testing"

	"community/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      string
		retryable bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, models.CodeConflict, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, models.CodeConflict, true},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, models.CodeConflict, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, models.CodeConflict, false},
		{"check violation", &pgconn.PgError{Code: "23514"}, models.CodeInternal, false},
		{"sqlite busy", errors.New("database is locked"), models.CodeConflict, true},
		{"canceled", context.Canceled, models.CodeInternal, false},
		{"other", errors.New("connection reset"), models.CodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate(tt.err)
			assert.True(t, models.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, translate(nil))
	nf := models.NewPostNotFoundError(1)
	assert.Same(t, nf, translate(nf))
}
