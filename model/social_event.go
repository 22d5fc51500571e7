package model

import (
	"time"

	"gorm.io/datatypes"
)

// SocialEventKind enumerates relationship mutations recorded to the outbox.
type SocialEventKind string

const (
	SocialEventFriendRequestSent     SocialEventKind = "friend_request_sent"
	SocialEventFriendRequestAccepted SocialEventKind = "friend_request_accepted"
	SocialEventFriendRequestRejected SocialEventKind = "friend_request_rejected"
	SocialEventFriendRemoved         SocialEventKind = "friend_removed"
	SocialEventUserBlocked           SocialEventKind = "user_blocked"
	SocialEventUserUnblocked         SocialEventKind = "user_unblocked"
	SocialEventUserFollowed          SocialEventKind = "user_followed"
	SocialEventUserUnfollowed        SocialEventKind = "user_unfollowed"
)

/*

SocialEvent is a transactional outbox row. Every successful relationship
mutation appends one in the same transaction as the edge write, so an event
exists iff the mutation committed. A relayer drains unpublished rows onto the
in-process event bus.

*/
type SocialEvent struct {
	Id        string          `gorm:"primaryKey"`
	Kind      SocialEventKind `gorm:"not null;index"`
	ActorId   string          `gorm:"not null"`
	SubjectId string          `gorm:"not null"`
	Payload   datatypes.JSON
	Published bool `gorm:"not null;default:false;index"`
	CreatedAt time.Time
}
