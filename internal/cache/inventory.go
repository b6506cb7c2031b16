package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%d"
	BoardKeyPrefix = "board:%d"
	BlacklistKey   = "blacklist:%s"
)

const (
	UserTTL  = 5 * time.Minute
	BoardTTL = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// BoardKey caches a board body with its author and images. Counters are never cached.
func BoardKey(postID uint) string {
	return fmt.Sprintf(BoardKeyPrefix, postID)
}

func BlacklistTokenKey(jti string) string {
	return fmt.Sprintf(BlacklistKey, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateBoard(ctx context.Context, postID uint) {
	Invalidate(ctx, BoardKey(postID))
}
