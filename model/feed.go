package model

// FeedMode selects the ordering of a composed feed page.
type FeedMode string

const (
	FeedModeChronological FeedMode = "chronological"
	FeedModePersonalized  FeedMode = "personalized"
)

// FeedSource identifies where a candidate post was gathered from. Dedup
// attribution follows the declared priority order, not code order.
type FeedSource string

const (
	FeedSourceFollowed FeedSource = "followed"
	FeedSourceFriends  FeedSource = "friends"
	FeedSourceTrending FeedSource = "trending"
	FeedSourceGeo      FeedSource = "geo"
)

// FeedSourcePriority is the declared source priority, highest first. A post
// appearing in multiple sources is attributed to the first matching entry.
var FeedSourcePriority = []FeedSource{
	FeedSourceFollowed,
	FeedSourceFriends,
	FeedSourceTrending,
	FeedSourceGeo,
}

// FeedItem is one post reference in a composed page, tagged with the source
// it was attributed to.
type FeedItem struct {
	Post   Post
	Source FeedSource
}

// FeedStats summarizes per-source contributions for one page request, over
// the whole merged candidate set (not just the returned slice).
type FeedStats struct {
	TotalPosts   int  `json:"totalPosts"`
	FromFollowed int  `json:"fromFollowed"`
	FromFriends  int  `json:"fromFriends"`
	FromTrending int  `json:"fromTrending"`
	FromNearby   int  `json:"fromNearby"`
	HasLocation  bool `json:"hasLocation"`
	HasFollows   bool `json:"hasFollows"`
	HasFriends   bool `json:"hasFriends"`
}

// FeedPage is ephemeral: recomputed per request, never persisted.
type FeedPage struct {
	Items        []FeedItem
	NextCursor   int
	HasMorePages bool
	Stats        FeedStats
}

// RelationStatus is the viewpoint-relative resolution of the single edge (if
// any) between a viewer and another user.
type RelationStatus string

const (
	RelationStatusNone            RelationStatus = "NONE"
	RelationStatusPendingOutgoing RelationStatus = "PENDING_OUTGOING"
	RelationStatusPendingIncoming RelationStatus = "PENDING_INCOMING"
	RelationStatusAccepted        RelationStatus = "ACCEPTED"
	RelationStatusBlocked         RelationStatus = "BLOCKED"
)
