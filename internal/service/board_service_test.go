package service

import (
	"context"
	"strings"
	"testing"

	"community/internal/cache"
	"community/internal/models"
	"community/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestBoardService_CreateValidation(t *testing.T) {
	t.Parallel()
	svc := NewBoardService(nil, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateBoardInput
	}{
		{"empty title", CreateBoardInput{UserID: 1, Title: "  ", Contents: "body"}},
		{"title too long", CreateBoardInput{UserID: 1, Title: strings.Repeat("t", 201), Contents: "body"}},
		{"empty contents", CreateBoardInput{UserID: 1, Title: "title"}},
		{"bad image url", CreateBoardInput{UserID: 1, Title: "title", Contents: "body", ImageURLs: []string{"ftp://x/y.png"}}},
		{"too many images", CreateBoardInput{UserID: 1, Title: "title", Contents: "body", ImageURLs: make([]string, 11)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Create(ctx, tc.in)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestBoardService_CreateAndGet(t *testing.T) {
	store, db := setupStore(t)
	seedUser(t, db, 1)
	seedUser(t, db, 2)
	svc := NewBoardService(store, nil)
	likes := newTestLikeService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBoardInput{
		UserID:    1,
		Title:     "  First post ",
		Contents:  "hello board",
		ImageURLs: []string{"https://cdn.example.com/b.png", "https://cdn.example.com/a.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "First post", created.Title)
	assert.Equal(t, []string{"https://cdn.example.com/b.png", "https://cdn.example.com/a.png"}, created.ImageURLs)
	assert.Equal(t, models.BoardStats{PostID: created.ID}, created.Stats, "counters start at zero")
	assert.Equal(t, "user1", created.Author.Nickname)

	_, err = likes.Toggle(ctx, 2, created.ID)
	require.NoError(t, err)

	detail, err := svc.Get(ctx, created.ID, 2)
	require.NoError(t, err)
	assert.True(t, detail.Liked)
	assert.Equal(t, int64(1), detail.Stats.LikeCount)
	assert.Equal(t, int64(1), detail.Stats.ViewCount)

	detail, err = svc.Get(ctx, created.ID, 0)
	require.NoError(t, err)
	assert.False(t, detail.Liked)
	assert.Equal(t, int64(2), detail.Stats.ViewCount)

	_, err = svc.Get(ctx, 9999, 0)
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestBoardService_CreateUnknownUserWritesNothing(t *testing.T) {
	store, db := setupStore(t)
	svc := NewBoardService(store, nil)

	_, err := svc.Create(context.Background(), CreateBoardInput{UserID: 42, Title: "t", Contents: "c"})
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	var boards, stats int64
	require.NoError(t, db.Model(&models.Board{}).Count(&boards).Error)
	require.NoError(t, db.Model(&models.BoardStats{}).Count(&stats).Error)
	assert.Zero(t, boards)
	assert.Zero(t, stats)
}

func TestBoardService_UpdateAndDeleteRequireAuthor(t *testing.T) {
	store, db := setupStore(t)
	seedUser(t, db, 1)
	seedUser(t, db, 2)
	svc := NewBoardService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBoardInput{UserID: 1, Title: "mine", Contents: "c"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateBoardInput{UserID: 2, PostID: created.ID, Title: ptr("stolen")})
	assertCode(t, err, models.CodeForbidden)

	err = svc.Delete(ctx, 2, created.ID)
	assertCode(t, err, models.CodeForbidden)

	updated, err := svc.Update(ctx, UpdateBoardInput{
		UserID:    1,
		PostID:    created.ID,
		Contents:  ptr("edited"),
		ImageURLs: ptr([]string{"https://cdn.example.com/new.png"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "mine", updated.Title)
	assert.Equal(t, "edited", updated.Contents)
	assert.Equal(t, []string{"https://cdn.example.com/new.png"}, updated.ImageURLs)

	_, err = svc.Update(ctx, UpdateBoardInput{UserID: 1, PostID: 404, Title: ptr("x")})
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestBoardService_DeleteCascades(t *testing.T) {
	store, db := setupStore(t)
	seedUser(t, db, 1)
	seedUser(t, db, 2)
	pub := &recordingPublisher{}
	svc := NewBoardService(store, pub)
	comments := NewCommentService(store, nil)
	likes := newTestLikeService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBoardInput{
		UserID: 1, Title: "doomed", Contents: "c",
		ImageURLs: []string{"https://cdn.example.com/x.png"},
	})
	require.NoError(t, err)
	_, err = likes.Toggle(ctx, 2, created.ID)
	require.NoError(t, err)
	_, err = comments.Create(ctx, CreateCommentInput{UserID: 2, PostID: created.ID, Contents: "nice"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, created.ID))

	for _, model := range []any{&models.Board{}, &models.BoardStats{}, &models.BoardLike{}, &models.Comment{}, &models.BoardImage{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T rows must be removed with the board", model)
	}
	assert.Equal(t, []string{notifications.EventBoardDeleted}, pub.Types())

	err = svc.Delete(ctx, 1, created.ID)
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestBoardService_ListAndFeed(t *testing.T) {
	store, db := setupStore(t)
	seedUser(t, db, 1)
	svc := NewBoardService(store, nil)
	ctx := context.Background()

	var ids []uint
	for i := range 5 {
		b, err := svc.Create(ctx, CreateBoardInput{UserID: 1, Title: "post " + string(rune('a'+i)), Contents: "c"})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	page, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Items, 2)

	last, err := svc.List(ctx, 3, 2)
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)

	defaults, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, DefaultPageSize, defaults.Size)

	feed, err := svc.Feed(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, ids[4], feed.Items[0].ID)
	assert.Equal(t, ids[3], feed.NextCursor)

	var seen []uint
	for cursor := uint(0); ; {
		f, err := svc.Feed(ctx, cursor, 2)
		require.NoError(t, err)
		for _, item := range f.Items {
			seen = append(seen, item.ID)
		}
		if f.NextCursor == 0 {
			break
		}
		cursor = f.NextCursor
	}
	assert.Equal(t, []uint{ids[4], ids[3], ids[2], ids[1], ids[0]}, seen)
}

func TestBoardService_BodyIsCachedCountersAreNot(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	store, db := setupStore(t)
	seedUser(t, db, 1)
	svc := NewBoardService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBoardInput{UserID: 1, Title: "cached", Contents: "c"})
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.BoardKey(created.ID)))

	// A direct write is invisible until the entry is invalidated, counters are always fresh.
	require.NoError(t, db.Model(&models.Board{}).Where("id = ?", created.ID).Update("title", "changed behind the cache").Error)
	detail, err := svc.Get(ctx, created.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "cached", detail.Title)
	assert.Equal(t, int64(1), detail.Stats.ViewCount)

	updated, err := svc.Update(ctx, UpdateBoardInput{UserID: 1, PostID: created.ID, Title: ptr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	require.NoError(t, svc.Delete(ctx, 1, created.ID))
	assert.False(t, mr.Exists(cache.BoardKey(created.ID)))
}

func TestBoardService_WithdrawnAuthor(t *testing.T) {
	store, db := setupStore(t)
	seedUser(t, db, 1)
	svc := NewBoardService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBoardInput{UserID: 1, Title: "orphan", Contents: "c"})
	require.NoError(t, err)
	require.NoError(t, store.Users().Delete(ctx, 1))

	page, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
	assert.Equal(t, models.DeletedMemberNickname, page.Items[0].Author.Nickname)
}
