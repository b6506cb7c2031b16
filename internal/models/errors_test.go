package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundErrors_WrapSentinels(t *testing.T) {
	err := fmt.Errorf("toggle: %w", NewUserNotFoundError(7))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrPostNotFound)
	assert.True(t, HasCode(err, CodeNotFound))

	assert.ErrorIs(t, NewPostNotFoundError(100), ErrPostNotFound)
	assert.ErrorIs(t, NewCommentNotFoundError(1), ErrCommentNotFound)
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewConflictError("busy", errors.New("40001")), CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
	assert.Equal(t, "Internal server error: boom", NewInternalError(errors.New("boom")).Error())
}
