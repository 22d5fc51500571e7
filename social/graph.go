package social

import (
	"context"
	"sort"

	"github.com/Luismorlan/socialmux/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Graph queries. Friendship rows are stored directionally (sender/receiver)
// but the relationship is undirected, so every read here either matches on
// the canonical pair key or checks both columns. Reads never error on "no
// data": they return empty slices.

// AreFriends returns true iff an ACCEPTED edge exists between the pair in
// either direction.
func (e *Engine) AreFriends(ctx context.Context, u1 string, u2 string) (bool, error) {
	if u1 == u2 {
		return false, nil
	}
	var count int64
	err := e.DB.WithContext(ctx).Model(&model.FriendEdge{}).
		Where("pair_key = ? AND status = ?", model.PairKeyOf(u1, u2), model.FriendshipStatusAccepted).
		Count(&count).Error
	if err != nil {
		return false, NewStorageError(err, "query friendship")
	}
	return count > 0, nil
}

// friendIds returns the ids of every user sharing an ACCEPTED edge with
// userId, whichever side of the edge they are on. BLOCKED counterparts are
// excluded by construction: a blocked pair's only row carries status BLOCKED.
func (e *Engine) friendIds(ctx context.Context, userId string) ([]string, error) {
	var edges []model.FriendEdge
	err := e.DB.WithContext(ctx).Model(&model.FriendEdge{}).
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?",
			userId, userId, model.FriendshipStatusAccepted).
		Find(&edges).Error
	if err != nil {
		return nil, NewStorageError(err, "query friends")
	}
	ids := []string{}
	for idx := range edges {
		ids = append(ids, edges[idx].OtherParty(userId))
	}
	return ids, nil
}

// GetFriends returns the users sharing an ACCEPTED edge with userId.
func (e *Engine) GetFriends(ctx context.Context, userId string) ([]model.User, error) {
	ids, err := e.friendIds(ctx, userId)
	if err != nil {
		return nil, err
	}
	return e.usersByIds(ctx, ids)
}

// MutualFriends intersects the two users' friend sets, truncating the list to
// limit while count reports the untruncated size. Symmetric in its first two
// arguments.
func (e *Engine) MutualFriends(ctx context.Context, u1 string, u2 string, limit int) ([]model.User, int, error) {
	ids1, err := e.friendIds(ctx, u1)
	if err != nil {
		return nil, 0, err
	}
	ids2, err := e.friendIds(ctx, u2)
	if err != nil {
		return nil, 0, err
	}

	seen := map[string]bool{}
	for _, id := range ids1 {
		seen[id] = true
	}
	mutual := []string{}
	for _, id := range ids2 {
		if seen[id] && id != u1 && id != u2 {
			mutual = append(mutual, id)
		}
	}
	count := len(mutual)

	// Sort before truncation so the returned slice is deterministic and
	// identical for (u1,u2) and (u2,u1).
	sort.Strings(mutual)
	if limit >= 0 && len(mutual) > limit {
		mutual = mutual[:limit]
	}

	users, err := e.usersByIds(ctx, mutual)
	if err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

// GetFriendRequestStatus resolves the pair's single edge (if any) into a
// status relative to the viewer. A REJECTED edge reads as NONE: it no longer
// binds the pair.
func (e *Engine) GetFriendRequestStatus(ctx context.Context, viewerId string, otherId string) (model.RelationStatus, error) {
	var edge model.FriendEdge
	err := e.DB.WithContext(ctx).
		Where("pair_key = ?", model.PairKeyOf(viewerId, otherId)).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.RelationStatusNone, nil
	}
	if err != nil {
		return model.RelationStatusNone, NewStorageError(err, "query request status")
	}

	switch edge.Status {
	case model.FriendshipStatusPending:
		if edge.SenderId == viewerId {
			return model.RelationStatusPendingOutgoing, nil
		}
		return model.RelationStatusPendingIncoming, nil
	case model.FriendshipStatusAccepted:
		return model.RelationStatusAccepted, nil
	case model.FriendshipStatusBlocked:
		return model.RelationStatusBlocked, nil
	default:
		return model.RelationStatusNone, nil
	}
}

// GetFollowers returns the users following userId.
func (e *Engine) GetFollowers(ctx context.Context, userId string) ([]model.User, error) {
	var users []model.User
	err := e.DB.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN follow_edges ON follow_edges.follower_id = users.id").
		Where("follow_edges.following_id = ?", userId).
		Find(&users).Error
	if err != nil {
		return nil, NewStorageError(err, "query followers")
	}
	return users, nil
}

// GetFollowing returns the users userId follows.
func (e *Engine) GetFollowing(ctx context.Context, userId string) ([]model.User, error) {
	var users []model.User
	err := e.DB.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN follow_edges ON follow_edges.following_id = users.id").
		Where("follow_edges.follower_id = ?", userId).
		Find(&users).Error
	if err != nil {
		return nil, NewStorageError(err, "query following")
	}
	return users, nil
}

// FollowingIds returns just the ids userId follows, for callers that don't
// need full user rows (feed candidate resolution).
func (e *Engine) FollowingIds(ctx context.Context, userId string) ([]string, error) {
	ids := []string{}
	err := e.DB.WithContext(ctx).Model(&model.FollowEdge{}).
		Where("follower_id = ?", userId).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, NewStorageError(err, "query following ids")
	}
	return ids, nil
}

// FriendIds is the id-only counterpart of GetFriends.
func (e *Engine) FriendIds(ctx context.Context, userId string) ([]string, error) {
	return e.friendIds(ctx, userId)
}

// CountFriends returns the number of ACCEPTED edges involving userId.
func (e *Engine) CountFriends(ctx context.Context, userId string) (int64, error) {
	var count int64
	err := e.DB.WithContext(ctx).Model(&model.FriendEdge{}).
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?",
			userId, userId, model.FriendshipStatusAccepted).
		Count(&count).Error
	if err != nil {
		return 0, NewStorageError(err, "count friends")
	}
	return count, nil
}

// CountFollowers returns the number of users following userId.
func (e *Engine) CountFollowers(ctx context.Context, userId string) (int64, error) {
	var count int64
	err := e.DB.WithContext(ctx).Model(&model.FollowEdge{}).
		Where("following_id = ?", userId).
		Count(&count).Error
	if err != nil {
		return 0, NewStorageError(err, "count followers")
	}
	return count, nil
}

// CountFollowing returns the number of users userId follows.
func (e *Engine) CountFollowing(ctx context.Context, userId string) (int64, error) {
	var count int64
	err := e.DB.WithContext(ctx).Model(&model.FollowEdge{}).
		Where("follower_id = ?", userId).
		Count(&count).Error
	if err != nil {
		return 0, NewStorageError(err, "count following")
	}
	return count, nil
}

func (e *Engine) usersByIds(ctx context.Context, ids []string) ([]model.User, error) {
	users := []model.User{}
	if len(ids) == 0 {
		return users, nil
	}
	// Ordered so callers comparing result sets (mutual friends symmetry) get
	// deterministic output.
	err := e.DB.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error
	if err != nil {
		return nil, NewStorageError(err, "query users")
	}
	return users, nil
}
