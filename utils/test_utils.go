package utils

import (
	"testing"
	"time"

	"github.com/Luismorlan/socialmux/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// create user with name, do sanity checks and returns its Id
func TestCreateUserAndValidate(t *testing.T, name string, city string, db *gorm.DB) (id string) {
	t.Helper()
	user := model.User{
		Id:           uuid.New().String(),
		Name:         name,
		UserName:     name + "_" + RandomAlphabetString(6),
		LocationCity: city,
	}
	result := db.Create(&user)
	require.NoError(t, result.Error)
	require.Equal(t, int64(1), result.RowsAffected)
	return user.Id
}

// create post authored by authorId at the given time, do sanity checks and
// returns its Id
func TestCreatePostAndValidate(
	t *testing.T, authorId string, likes int, comments int, city string,
	createdAt time.Time, db *gorm.DB) (id string) {
	t.Helper()
	post := model.Post{
		Id:            uuid.New().String(),
		AuthorId:      authorId,
		Content:       "post_" + RandomAlphabetString(8),
		LikesCount:    likes,
		CommentsCount: comments,
		LocationCity:  city,
	}
	result := db.Create(&post)
	require.NoError(t, result.Error)
	require.Equal(t, int64(1), result.RowsAffected)
	// Create with an explicit timestamp, gorm would otherwise overwrite it
	// with now() on insert.
	require.NoError(t, db.Model(&model.Post{}).Where("id = ?", post.Id).
		Update("created_at", createdAt).Error)
	return post.Id
}

// create a follow edge, do sanity checks
func TestCreateFollowAndValidate(t *testing.T, followerId string, followingId string, db *gorm.DB) {
	t.Helper()
	edge := model.FollowEdge{FollowerId: followerId, FollowingId: followingId}
	result := db.Create(&edge)
	require.NoError(t, result.Error)
	require.Equal(t, int64(1), result.RowsAffected)
}

// create an accepted friendship between two users, bypassing the request
// lifecycle, for tests that only need the end state
func TestCreateFriendshipAndValidate(t *testing.T, u1 string, u2 string, db *gorm.DB) {
	t.Helper()
	edge := model.FriendEdge{
		Id:         uuid.New().String(),
		SenderId:   u1,
		ReceiverId: u2,
		PairKey:    model.PairKeyOf(u1, u2),
		Status:     model.FriendshipStatusAccepted,
	}
	result := db.Create(&edge)
	require.NoError(t, result.Error)
	require.Equal(t, int64(1), result.RowsAffected)
}
