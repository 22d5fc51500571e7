package model

import "time"

/*

FollowEdge is a directed follow relation, no status attached. Unlike
FriendEdge there is no directional ambiguity: (follower, following) and
(following, follower) are two independent edges.

*/
type FollowEdge struct {
	FollowerId  string `gorm:"primaryKey"`
	FollowingId string `gorm:"primaryKey"`
	CreatedAt   time.Time
}
