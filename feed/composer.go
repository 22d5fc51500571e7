package feed

import (
	"context"
	"sort"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/socialmux/model"
	"github.com/Luismorlan/socialmux/social"
	. "github.com/Luismorlan/socialmux/utils/log"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// TrendingCache is the seam between the composer and redis. A nil cache means
// every trending lookup goes to the database.
type TrendingCache interface {
	GetTrendingPostIds() ([]string, error)
	SetTrendingPostIds(ids []string, ttl time.Duration) error
}

// Composer assembles one feed page per request out of four candidate sources.
// It is stateless; pages are never persisted.
type Composer struct {
	DB     *gorm.DB
	Graph  *social.Engine
	Cache  TrendingCache
	Statsd *statsd.Client
	Config Config
}

func NewComposer(db *gorm.DB, graph *social.Engine, cache TrendingCache, statsdClient *statsd.Client, config Config) *Composer {
	return &Composer{
		DB:     db,
		Graph:  graph,
		Cache:  cache,
		Statsd: statsdClient,
		Config: config,
	}
}

type candidate struct {
	post   model.Post
	source model.FeedSource
}

// Compose builds one feed page:
//  1. resolve the user's followed and friend author sets
//  2. gather per-source candidates, each over-fetched past pageSize
//  3. dedup by post id, attributing each post to its highest-priority source
//  4. order the merged set (chronological or personalized)
//  5. slice at the offset cursor
//
// A user with no follows and no friends still gets a valid trending+geo feed;
// that is not an error or an empty state.
func (c *Composer) Compose(ctx context.Context, userId string, cursor int, pageSize int, mode model.FeedMode) (*model.FeedPage, error) {
	start := time.Now()
	if cursor < 0 {
		return nil, social.NewInvalidStateError("cursor should be >= 0")
	}
	if pageSize <= 0 {
		return nil, social.NewInvalidStateError("pageSize should be > 0")
	}
	if pageSize > c.Config.MAX_PAGE_SIZE {
		pageSize = c.Config.MAX_PAGE_SIZE
	}

	followedIds, err := c.Graph.FollowingIds(ctx, userId)
	if err != nil {
		return nil, errors.Wrap(err, "resolve followed authors")
	}
	friendIds, err := c.Graph.FriendIds(ctx, userId)
	if err != nil {
		return nil, errors.Wrap(err, "resolve friend authors")
	}
	city := c.userCity(ctx, userId)

	limit := c.candidateLimit(pageSize)
	sourcePosts := map[model.FeedSource][]model.Post{
		model.FeedSourceFollowed: {},
		model.FeedSourceFriends:  {},
		model.FeedSourceTrending: {},
		model.FeedSourceGeo:      {},
	}
	if len(followedIds) > 0 {
		if sourcePosts[model.FeedSourceFollowed], err = c.postsByAuthors(ctx, followedIds, limit); err != nil {
			return nil, err
		}
	}
	if len(friendIds) > 0 {
		if sourcePosts[model.FeedSourceFriends], err = c.postsByAuthors(ctx, friendIds, limit); err != nil {
			return nil, err
		}
	}
	if sourcePosts[model.FeedSourceTrending], err = c.trendingPosts(ctx, limit); err != nil {
		return nil, err
	}
	if city != "" {
		if sourcePosts[model.FeedSourceGeo], err = c.geoPosts(ctx, city, limit); err != nil {
			return nil, err
		}
	}

	// Dedup by post id. Sources are visited in declared priority order, so the
	// first source to claim a post wins attribution.
	merged := []candidate{}
	seen := map[string]bool{}
	for _, source := range model.FeedSourcePriority {
		for _, post := range sourcePosts[source] {
			if seen[post.Id] {
				continue
			}
			seen[post.Id] = true
			merged = append(merged, candidate{post: post, source: source})
		}
	}

	switch mode {
	case model.FeedModePersonalized:
		c.rankPersonalized(merged)
	default:
		sortChronological(merged)
	}

	stats := model.FeedStats{
		TotalPosts:  len(merged),
		HasLocation: city != "",
		HasFollows:  len(followedIds) > 0,
		HasFriends:  len(friendIds) > 0,
	}
	for _, cand := range merged {
		switch cand.source {
		case model.FeedSourceFollowed:
			stats.FromFollowed++
		case model.FeedSourceFriends:
			stats.FromFriends++
		case model.FeedSourceTrending:
			stats.FromTrending++
		case model.FeedSourceGeo:
			stats.FromNearby++
		}
	}

	end := cursor + pageSize
	if end > len(merged) {
		end = len(merged)
	}
	items := []model.FeedItem{}
	for idx := cursor; idx < end; idx++ {
		var item model.FeedItem
		if err := copier.Copy(&item.Post, &merged[idx].post); err != nil {
			return nil, social.NewStorageError(err, "copy feed item")
		}
		item.Source = merged[idx].source
		items = append(items, item)
	}

	page := &model.FeedPage{
		Items:        items,
		NextCursor:   cursor + len(items),
		HasMorePages: len(merged) > cursor+pageSize,
		Stats:        stats,
	}

	c.Statsd.Incr("feed.compose", []string{"mode:" + string(mode)}, 1)
	c.Statsd.Timing("feed.compose.latency", time.Since(start), nil, 1)
	Log.Info("composed feed for user: ", userId,
		" cursor: ", cursor, " merged: ", len(merged), " returned: ", len(items))
	return page, nil
}

func (c *Composer) candidateLimit(pageSize int) int {
	limit := pageSize * c.Config.CANDIDATE_MULTIPLIER
	if limit > c.Config.MAX_CANDIDATE_PER_SOURCE {
		limit = c.Config.MAX_CANDIDATE_PER_SOURCE
	}
	if limit <= pageSize {
		limit = pageSize + 1
	}
	return limit
}

// userCity returns the user's recorded city, empty when unknown. An unknown
// user simply composes without the geo source.
func (c *Composer) userCity(ctx context.Context, userId string) string {
	var user model.User
	if err := c.DB.WithContext(ctx).Where("id = ?", userId).First(&user).Error; err != nil {
		return ""
	}
	return user.LocationCity
}

func (c *Composer) postsByAuthors(ctx context.Context, authorIds []string, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := c.DB.WithContext(ctx).Model(&model.Post{}).
		Where("author_id IN ?", authorIds).
		Order("created_at desc").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, social.NewStorageError(err, "query author posts")
	}
	return posts, nil
}

// trendingPosts reads globally trending candidates, serving ids from the
// redis cache when warm. Cache failures fall back to the database, they never
// fail the feed.
func (c *Composer) trendingPosts(ctx context.Context, limit int) ([]model.Post, error) {
	if c.Cache != nil {
		if ids, err := c.Cache.GetTrendingPostIds(); err == nil && len(ids) > 0 {
			posts, err := c.postsByIdsRanked(ctx, ids, limit)
			if err == nil {
				return posts, nil
			}
		} else if err != nil {
			Log.Warn("trending cache read failed, falling back to DB: ", err)
		}
	}

	var posts []model.Post
	err := c.DB.WithContext(ctx).Model(&model.Post{}).
		Where("likes_count >= ?", c.Config.MIN_TRENDING_LIKES).
		Order("likes_count desc").
		Order("comments_count desc").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, social.NewStorageError(err, "query trending posts")
	}

	if c.Cache != nil {
		ids := []string{}
		for _, post := range posts {
			ids = append(ids, post.Id)
		}
		ttl := time.Duration(c.Config.TRENDING_CACHE_TTL_SECOND) * time.Second
		if err := c.Cache.SetTrendingPostIds(ids, ttl); err != nil {
			Log.Warn("trending cache write failed: ", err)
		}
	}
	return posts, nil
}

// postsByIdsRanked fetches posts by id preserving the cached ranking order.
func (c *Composer) postsByIdsRanked(ctx context.Context, ids []string, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := c.DB.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	if err != nil {
		return nil, social.NewStorageError(err, "query posts by ids")
	}
	byId := map[string]model.Post{}
	for _, post := range posts {
		byId[post.Id] = post
	}
	ranked := []model.Post{}
	for _, id := range ids {
		if post, ok := byId[id]; ok {
			ranked = append(ranked, post)
			if len(ranked) >= limit {
				break
			}
		}
	}
	return ranked, nil
}

func (c *Composer) geoPosts(ctx context.Context, city string, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := c.DB.WithContext(ctx).Model(&model.Post{}).
		Where("location_city = ?", city).
		Order("created_at desc").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, social.NewStorageError(err, "query geo posts")
	}
	return posts, nil
}

func sortChronological(merged []candidate) {
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].post.CreatedAt.Equal(merged[j].post.CreatedAt) {
			return merged[i].post.CreatedAt.After(merged[j].post.CreatedAt)
		}
		return merged[i].post.Id < merged[j].post.Id
	})
}
