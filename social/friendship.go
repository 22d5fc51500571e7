package social

import (
	"context"
	"strings"

	"github.com/Luismorlan/socialmux/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The friend request lifecycle: NONE -> PENDING -> {ACCEPTED, REJECTED};
// ACCEPTED -> NONE via RemoveFriend; any state -> BLOCKED via BlockUser, and
// BLOCKED -> NONE only via UnblockUser by the blocker.
//
// Every mutation here is an atomic check-then-write: the pair row is locked
// FOR UPDATE inside a transaction, and the unique index on the canonical pair
// key backstops the one-edge-per-pair invariant against writers that race
// before either row exists.

// SendRequest creates a PENDING edge from sender to receiver. A previously
// REJECTED edge between the same pair is revived to PENDING and re-oriented to
// the new sender; any active edge in either direction is a conflict.
func (e *Engine) SendRequest(ctx context.Context, senderId string, receiverId string) (*model.FriendEdge, error) {
	if senderId == receiverId {
		return nil, NewSelfReferenceError("cannot send a friend request to yourself")
	}

	var edge model.FriendEdge
	err := e.withTransaction(ctx, "send friend request", func(tx *gorm.DB) error {
		existing, err := lockPairEdge(tx, senderId, receiverId)
		if err != nil {
			return err
		}
		if existing == nil {
			edge = model.FriendEdge{
				Id:         uuid.New().String(),
				SenderId:   senderId,
				ReceiverId: receiverId,
				PairKey:    model.PairKeyOf(senderId, receiverId),
				Status:     model.FriendshipStatusPending,
			}
			if err := tx.Create(&edge).Error; err != nil {
				// Two first-time requests for the same pair can both observe
				// no row; the pair key unique index rejects the loser.
				if strings.Contains(err.Error(), "duplicate key") {
					return NewConflictError("a relationship already exists between these users")
				}
				return err
			}
			return insertEvent(tx, model.SocialEventFriendRequestSent, senderId, receiverId)
		}
		if existing.IsActive() {
			return NewConflictError("a relationship already exists between these users")
		}
		// Revive the rejected edge instead of inserting a second row, keeping
		// the pair key unique index total.
		edge = *existing
		edge.SenderId = senderId
		edge.ReceiverId = receiverId
		edge.Status = model.FriendshipStatusPending
		if err := tx.Model(&model.FriendEdge{}).Where("id = ?", edge.Id).
			Updates(map[string]interface{}{
				"sender_id":   senderId,
				"receiver_id": receiverId,
				"status":      model.FriendshipStatusPending,
			}).Error; err != nil {
			return err
		}
		return insertEvent(tx, model.SocialEventFriendRequestSent, senderId, receiverId)
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// AcceptRequest transitions a PENDING edge to ACCEPTED. Only the receiver of
// the request may accept it.
func (e *Engine) AcceptRequest(ctx context.Context, requestId string, actingUserId string) (*model.FriendEdge, error) {
	return e.resolveRequest(ctx, requestId, actingUserId,
		model.FriendshipStatusAccepted, model.SocialEventFriendRequestAccepted)
}

// RejectRequest transitions a PENDING edge to REJECTED. Only the receiver of
// the request may reject it.
func (e *Engine) RejectRequest(ctx context.Context, requestId string, actingUserId string) (*model.FriendEdge, error) {
	return e.resolveRequest(ctx, requestId, actingUserId,
		model.FriendshipStatusRejected, model.SocialEventFriendRequestRejected)
}

func (e *Engine) resolveRequest(
	ctx context.Context, requestId string, actingUserId string,
	to model.FriendshipStatus, eventKind model.SocialEventKind) (*model.FriendEdge, error) {
	var edge model.FriendEdge
	err := e.withTransaction(ctx, "resolve friend request", func(tx *gorm.DB) error {
		if err := lockEdgeById(tx, requestId, &edge); err != nil {
			return err
		}
		if actingUserId != edge.ReceiverId {
			return NewAuthorizationError("only the request receiver can resolve it")
		}
		if edge.Status != model.FriendshipStatusPending {
			return NewInvalidStateError("friend request is not pending")
		}
		edge.Status = to
		if err := tx.Model(&model.FriendEdge{}).Where("id = ?", edge.Id).
			Update("status", to).Error; err != nil {
			return err
		}
		return insertEvent(tx, eventKind, actingUserId, edge.SenderId)
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// RemoveFriend deletes the ACCEPTED edge between the pair, regardless of who
// originally sent the request. Removing a non-existent friendship is a no-op.
func (e *Engine) RemoveFriend(ctx context.Context, userId1 string, userId2 string) error {
	if userId1 == userId2 {
		return NewSelfReferenceError("cannot unfriend yourself")
	}
	return e.withTransaction(ctx, "remove friend", func(tx *gorm.DB) error {
		existing, err := lockPairEdge(tx, userId1, userId2)
		if err != nil {
			return err
		}
		if existing == nil || existing.Status != model.FriendshipStatusAccepted {
			return nil
		}
		if err := tx.Delete(&model.FriendEdge{}, "id = ?", existing.Id).Error; err != nil {
			return err
		}
		return insertEvent(tx, model.SocialEventFriendRemoved, userId1, userId2)
	})
}

// BlockUser forces the pair's edge to BLOCKED, creating one when absent, and
// re-orients it so the blocker is recorded as the sender. A pair already
// blocked by the other party cannot be taken over.
func (e *Engine) BlockUser(ctx context.Context, blockerId string, blockedId string) (*model.FriendEdge, error) {
	if blockerId == blockedId {
		return nil, NewSelfReferenceError("cannot block yourself")
	}

	var edge model.FriendEdge
	err := e.withTransaction(ctx, "block user", func(tx *gorm.DB) error {
		existing, err := lockPairEdge(tx, blockerId, blockedId)
		if err != nil {
			return err
		}
		if existing == nil {
			edge = model.FriendEdge{
				Id:         uuid.New().String(),
				SenderId:   blockerId,
				ReceiverId: blockedId,
				PairKey:    model.PairKeyOf(blockerId, blockedId),
				Status:     model.FriendshipStatusBlocked,
			}
			if err := tx.Create(&edge).Error; err != nil {
				if strings.Contains(err.Error(), "duplicate key") {
					return NewConflictError("a relationship already exists between these users")
				}
				return err
			}
			return insertEvent(tx, model.SocialEventUserBlocked, blockerId, blockedId)
		}
		if existing.Status == model.FriendshipStatusBlocked {
			if existing.SenderId == blockerId {
				edge = *existing
				return nil
			}
			return NewConflictError("user is already blocked by the other party")
		}
		edge = *existing
		edge.SenderId = blockerId
		edge.ReceiverId = blockedId
		edge.Status = model.FriendshipStatusBlocked
		if err := tx.Model(&model.FriendEdge{}).Where("id = ?", edge.Id).
			Updates(map[string]interface{}{
				"sender_id":   blockerId,
				"receiver_id": blockedId,
				"status":      model.FriendshipStatusBlocked,
			}).Error; err != nil {
			return err
		}
		return insertEvent(tx, model.SocialEventUserBlocked, blockerId, blockedId)
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// UnblockUser removes a BLOCKED edge, returning the pair to NONE. Only the
// user who placed the block can lift it.
func (e *Engine) UnblockUser(ctx context.Context, blockerId string, blockedId string) error {
	if blockerId == blockedId {
		return NewSelfReferenceError("cannot unblock yourself")
	}
	return e.withTransaction(ctx, "unblock user", func(tx *gorm.DB) error {
		existing, err := lockPairEdge(tx, blockerId, blockedId)
		if err != nil {
			return err
		}
		if existing == nil || existing.Status != model.FriendshipStatusBlocked {
			return NewNotFoundError("no block exists between these users")
		}
		if existing.SenderId != blockerId {
			return NewAuthorizationError("only the blocker can unblock")
		}
		if err := tx.Delete(&model.FriendEdge{}, "id = ?", existing.Id).Error; err != nil {
			return err
		}
		return insertEvent(tx, model.SocialEventUserUnblocked, blockerId, blockedId)
	})
}
