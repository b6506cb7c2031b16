package models

// BoardStats holds the denormalized counters of a board. Every counter is non-negative
// and like_count equals the number of active board_likes rows of the post.
type BoardStats struct {
	PostID       uint  `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	ViewCount    int64 `gorm:"not null;default:0;check:chk_board_stats_view_count,view_count >= 0" json:"view_count"`
	LikeCount    int64 `gorm:"not null;default:0;check:chk_board_stats_like_count,like_count >= 0" json:"like_count"`
	CommentCount int64 `gorm:"not null;default:0;check:chk_board_stats_comment_count,comment_count >= 0" json:"comment_count"`
}

func (BoardStats) TableName() string {
	return "board_stats"
}
