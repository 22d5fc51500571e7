package social

import (
	"context"

	"github.com/Luismorlan/socialmux/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Follow creates a directed follow edge. Following twice is a no-op, the
// composite primary key makes the insert idempotent. Returns true iff a new
// edge was created.
func (e *Engine) Follow(ctx context.Context, followerId string, followingId string) (bool, error) {
	if followerId == followingId {
		return false, NewSelfReferenceError("cannot follow yourself")
	}
	var changed bool
	err := e.withTransaction(ctx, "follow user", func(tx *gorm.DB) error {
		edge := model.FollowEdge{FollowerId: followerId, FollowingId: followingId}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		changed = true
		return insertEvent(tx, model.SocialEventUserFollowed, followerId, followingId)
	})
	return changed, err
}

// Unfollow deletes the follow edge. Unfollowing a user that was never
// followed is a no-op. Returns true iff an edge was deleted.
func (e *Engine) Unfollow(ctx context.Context, followerId string, followingId string) (bool, error) {
	if followerId == followingId {
		return false, NewSelfReferenceError("cannot unfollow yourself")
	}
	var changed bool
	err := e.withTransaction(ctx, "unfollow user", func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND following_id = ?", followerId, followingId).
			Delete(&model.FollowEdge{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		changed = true
		return insertEvent(tx, model.SocialEventUserUnfollowed, followerId, followingId)
	})
	return changed, err
}
