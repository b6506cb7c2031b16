package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedBoard struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr())
	require.NoError(t, err)
	SetClient(c)
	t.Cleanup(func() {
		SetClient(nil)
		_ = c.Close()
	})
	return mr
}

func TestAside_FetchesOnceThenServesFromRedis(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedBoard) func() error {
		return func() error {
			calls++
			*dest = cachedBoard{ID: 100, Title: "hello"}
			return nil
		}
	}

	var first cachedBoard
	require.NoError(t, Aside(ctx, BoardKey(100), &first, BoardTTL, fetch(&first)))
	assert.Equal(t, "hello", first.Title)
	assert.True(t, mr.Exists("board:100"))

	var second cachedBoard
	require.NoError(t, Aside(ctx, BoardKey(100), &second, BoardTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	mr.FastForward(BoardTTL + time.Second)
	assert.False(t, mr.Exists("board:100"))
}

func TestAside_FetchErrorIsReturnedAndNothingCached(t *testing.T) {
	mr := setupMiniredis(t)

	var dest cachedBoard
	err := Aside(context.Background(), BoardKey(1), &dest, BoardTTL, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("board:1"))
}

func TestAside_RedisDownFallsBackToFetch(t *testing.T) {
	mr := setupMiniredis(t)
	mr.Close()

	var dest cachedBoard
	err := Aside(context.Background(), BoardKey(2), &dest, BoardTTL, func() error {
		dest.ID = 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(2), dest.ID)
}

func TestInvalidateBoard(t *testing.T) {
	mr := setupMiniredis(t)
	require.NoError(t, mr.Set("board:5", "{}"))

	InvalidateBoard(context.Background(), 5)
	assert.False(t, mr.Exists("board:5"))
}

func TestNilClientIsANoop(t *testing.T) {
	SetClient(nil)
	found, err := GetJSON(context.Background(), "k", &cachedBoard{})
	assert.False(t, found)
	assert.NoError(t, err)
	assert.NoError(t, SetJSON(context.Background(), "k", 1, time.Minute))
	Invalidate(context.Background(), "k")
}
