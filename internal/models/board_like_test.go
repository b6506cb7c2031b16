package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoardLike_StateAndFlip(t *testing.T) {
	like := &BoardLike{UserID: 7, PostID: 100}
	assert.Equal(t, LikeActive, like.State())

	assert.Equal(t, LikeInactive, like.Flip())
	assert.True(t, like.IsDeleted)

	assert.Equal(t, LikeActive, like.Flip())
	assert.False(t, like.IsDeleted)
	assert.Equal(t, "active", like.State().String())
}

func TestAuthorOf_WithdrawnMember(t *testing.T) {
	assert.Equal(t, DeletedMemberNickname, AuthorOf(nil, 3).Nickname)
	assert.Equal(t, uint(3), AuthorOf(nil, 3).ID)

	u := &User{ID: 4, Nickname: "dana"}
	assert.Equal(t, "dana", AuthorOf(u, 4).Nickname)

	u.DeletedAt.Valid = true
	assert.Equal(t, DeletedMemberNickname, AuthorOf(u, 4).Nickname)
}
