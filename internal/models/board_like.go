package models

import "time"

// LikeState is the state of an existing like row.
type LikeState int

const (
	// LikeInactive means the user liked the post and later withdrew the like.
	LikeInactive LikeState = iota
	// LikeActive means the user currently likes the post.
	LikeActive
)

func (s LikeState) String() string {
	if s == LikeActive {
		return "active"
	}
	return "inactive"
}

// BoardLike is the per-(user, post) like row. The row is soft-flagged rather than
// deleted, so a pair has at most one row for its whole lifetime.
type BoardLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	IsDeleted bool      `gorm:"not null;default:false" json:"is_deleted"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BoardLike) TableName() string {
	return "board_likes"
}

// State reports whether the row is an active like.
func (l *BoardLike) State() LikeState {
	if l.IsDeleted {
		return LikeInactive
	}
	return LikeActive
}

// Flip toggles the row and returns the new state.
func (l *BoardLike) Flip() LikeState {
	l.IsDeleted = !l.IsDeleted
	return l.State()
}

// LikeToggleResult is returned by a like toggle and by the like status query.
type LikeToggleResult struct {
	PostID    uint  `json:"post_id"`
	LikeCount int64 `json:"like_count"`
	Liked     bool  `json:"liked"`
}
