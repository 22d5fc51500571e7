package model

import (
	"time"
)

// FriendshipStatus is the state of a FriendEdge. An edge is "active" in any
// state except REJECTED.
type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "PENDING"
	FriendshipStatusAccepted FriendshipStatus = "ACCEPTED"
	FriendshipStatusRejected FriendshipStatus = "REJECTED"
	FriendshipStatusBlocked  FriendshipStatus = "BLOCKED"
)

/*

FriendEdge is a directed friendship proposal between two users. Once ACCEPTED
the relationship it denotes is undirected: friendship has no direction, only
the original proposal does.

Id: primary key, use to identify an edge
SenderId: user who initiated the current state (proposal sender, or blocker)
ReceiverId: the other party
PairKey: order-independent key for the unordered pair {SenderId, ReceiverId},
		 always the two ids sorted and joined. The unique index on it is what
		 actually guarantees at most one edge per pair, regardless of how many
		 writers race on the same two users.
Status: PENDING -> {ACCEPTED, REJECTED}; any state -> BLOCKED

*/
type FriendEdge struct {
	Id         string           `gorm:"primaryKey"`
	SenderId   string           `gorm:"not null;index"`
	ReceiverId string           `gorm:"not null;index"`
	PairKey    string           `gorm:"not null;uniqueIndex"`
	Status     FriendshipStatus `gorm:"not null;default:'PENDING'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PairKeyOf returns the canonical unordered-pair key for two user ids.
func PairKeyOf(a string, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}

// OtherParty returns the counterpart of userId on this edge.
func (e *FriendEdge) OtherParty(userId string) string {
	if e.SenderId == userId {
		return e.ReceiverId
	}
	return e.SenderId
}

// IsActive returns true for any state that forbids a new request between the
// same pair.
func (e *FriendEdge) IsActive() bool {
	return e.Status != FriendshipStatusRejected
}
