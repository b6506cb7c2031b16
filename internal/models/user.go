// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// DeletedMemberNickname is shown in place of the author of content whose account was withdrawn.
const DeletedMemberNickname = "(deleted member)"

// User represents a member of the community board.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Nickname  string         `gorm:"size:30;uniqueIndex;not null" json:"nickname"`
	Image     string         `json:"image,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Author is the public projection of a user attached to boards and comments.
type Author struct {
	ID       uint   `json:"id"`
	Nickname string `json:"nickname"`
	Image    string `json:"image,omitempty"`
}

// AuthorOf returns the public author view, or the withdrawn-member placeholder when u is nil.
func AuthorOf(u *User, id uint) Author {
	if u == nil || u.DeletedAt.Valid {
		return Author{ID: id, Nickname: DeletedMemberNickname}
	}
	return Author{ID: u.ID, Nickname: u.Nickname, Image: u.Image}
}
