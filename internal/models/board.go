package models

import (
	"time"
)

// Board is a post on the community board.
type Board struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;index" json:"user_id"`
	User      *User        `gorm:"foreignKey:UserID" json:"-"`
	Title     string       `gorm:"size:200;not null" json:"title"`
	Contents  string       `gorm:"type:text;not null" json:"contents"`
	Images    []BoardImage `gorm:"foreignKey:PostID" json:"images,omitempty"`
	Stats     *BoardStats  `gorm:"foreignKey:PostID" json:"stats,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// BoardImage is an image URL attached to a board, ordered by SortOrder.
type BoardImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	PostID    uint   `gorm:"not null;index" json:"post_id"`
	URL       string `gorm:"size:1024;not null" json:"url"`
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`
}

// BoardSummary is a row of the board list.
type BoardSummary struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Author       Author    `json:"author"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	ViewCount    int64     `json:"view_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// BoardDetail is the full view of a single board.
type BoardDetail struct {
	ID        uint          `json:"id"`
	Title     string        `json:"title"`
	Contents  string        `json:"contents"`
	Author    Author        `json:"author"`
	ImageURLs []string      `json:"image_urls"`
	Stats     BoardStats    `json:"stats"`
	Comments  []CommentView `json:"comments"`
	Liked     bool          `json:"liked"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// BoardPage is an offset-paginated board list.
type BoardPage struct {
	Items []BoardSummary `json:"items"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Total int64          `json:"total"`
}

// BoardFeed is a cursor-paginated board list. NextCursor is zero when the feed is exhausted.
type BoardFeed struct {
	Items      []BoardSummary `json:"items"`
	NextCursor uint           `json:"next_cursor,omitempty"`
}

// SummaryOf builds the list view of b. b.User and b.Stats may be nil.
func SummaryOf(b *Board) BoardSummary {
	s := BoardSummary{
		ID:        b.ID,
		Title:     b.Title,
		Author:    AuthorOf(b.User, b.UserID),
		CreatedAt: b.CreatedAt,
	}
	if b.Stats != nil {
		s.LikeCount = b.Stats.LikeCount
		s.CommentCount = b.Stats.CommentCount
		s.ViewCount = b.Stats.ViewCount
	}
	return s
}
