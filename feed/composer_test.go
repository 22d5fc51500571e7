package feed

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Luismorlan/socialmux/model"
	"github.com/Luismorlan/socialmux/social"
	"github.com/Luismorlan/socialmux/utils"
	"github.com/Luismorlan/socialmux/utils/dotenv"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

// fakeTrendingCache is an in-memory stand-in for redis.
type fakeTrendingCache struct {
	ids  []string
	sets int
	gets int
}

func (f *fakeTrendingCache) GetTrendingPostIds() ([]string, error) {
	f.gets++
	return f.ids, nil
}

func (f *fakeTrendingCache) SetTrendingPostIds(ids []string, ttl time.Duration) error {
	f.sets++
	f.ids = ids
	return nil
}

func newTestComposer(db *gorm.DB, cache TrendingCache) *Composer {
	return NewComposer(db, social.NewEngine(db), cache, nil, DefaultConfig())
}

func TestComposeWithNoFollowsOrFriends(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	composer := newTestComposer(db, nil)
	ctx := context.Background()

	viewer := utils.TestCreateUserAndValidate(t, "viewer", "tokyo", db)
	author := utils.TestCreateUserAndValidate(t, "author", "", db)

	now := time.Now()
	utils.TestCreatePostAndValidate(t, author, 50, 5, "", now.Add(-time.Hour), db)
	utils.TestCreatePostAndValidate(t, author, 30, 2, "tokyo", now.Add(-2*time.Hour), db)

	page, err := composer.Compose(ctx, viewer, 0, 10, model.FeedModeChronological)
	require.NoError(t, err)

	// A user with nobody followed and no friends still gets a valid feed out
	// of trending + geo, never an error or forced-empty state.
	require.Equal(t, 2, len(page.Items))
	require.Equal(t, 0, page.Stats.FromFollowed)
	require.Equal(t, 0, page.Stats.FromFriends)
	require.False(t, page.Stats.HasFollows)
	require.False(t, page.Stats.HasFriends)
	require.True(t, page.Stats.HasLocation)
	require.True(t, page.Stats.FromTrending+page.Stats.FromNearby > 0)
}

func TestComposeDedupAttribution(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	composer := newTestComposer(db, nil)
	ctx := context.Background()
	engine := social.NewEngine(db)

	viewer := utils.TestCreateUserAndValidate(t, "viewer", "", db)
	author := utils.TestCreateUserAndValidate(t, "author", "", db)

	// The author is both followed and a friend, and their post clears the
	// trending floor: three sources claim the same post.
	_, err := engine.Follow(ctx, viewer, author)
	require.NoError(t, err)
	utils.TestCreateFriendshipAndValidate(t, viewer, author, db)
	postId := utils.TestCreatePostAndValidate(t, author, 100, 10, "", time.Now().Add(-time.Hour), db)

	page, err := composer.Compose(ctx, viewer, 0, 10, model.FeedModeChronological)
	require.NoError(t, err)

	require.Equal(t, 1, len(page.Items))
	require.Equal(t, postId, page.Items[0].Post.Id)
	require.Equal(t, model.FeedSourceFollowed, page.Items[0].Source)
	require.Equal(t, 1, page.Stats.FromFollowed)
	require.Equal(t, 0, page.Stats.FromFriends)
	require.Equal(t, 0, page.Stats.FromTrending)
	require.Equal(t, 1, page.Stats.TotalPosts)
}

func TestComposeChronologicalOrderAndPagination(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	composer := newTestComposer(db, nil)
	ctx := context.Background()
	engine := social.NewEngine(db)

	viewer := utils.TestCreateUserAndValidate(t, "viewer", "", db)
	author := utils.TestCreateUserAndValidate(t, "author", "", db)
	_, err := engine.Follow(ctx, viewer, author)
	require.NoError(t, err)

	now := time.Now()
	ids := []string{}
	for i := 0; i < 7; i++ {
		id := utils.TestCreatePostAndValidate(t, author, 0, 0, "", now.Add(-time.Duration(i)*time.Hour), db)
		ids = append(ids, id)
	}

	first, err := composer.Compose(ctx, viewer, 0, 3, model.FeedModeChronological)
	require.NoError(t, err)
	require.Equal(t, 3, len(first.Items))
	require.True(t, first.HasMorePages)
	require.Equal(t, 3, first.NextCursor)
	// Newest first.
	require.Equal(t, ids[0], first.Items[0].Post.Id)
	require.Equal(t, ids[1], first.Items[1].Post.Id)
	require.Equal(t, ids[2], first.Items[2].Post.Id)

	second, err := composer.Compose(ctx, viewer, first.NextCursor, 3, model.FeedModeChronological)
	require.NoError(t, err)
	require.Equal(t, 3, len(second.Items))
	require.True(t, second.HasMorePages)

	last, err := composer.Compose(ctx, viewer, second.NextCursor, 3, model.FeedModeChronological)
	require.NoError(t, err)
	require.Equal(t, 1, len(last.Items))
	require.False(t, last.HasMorePages)
	require.Equal(t, ids[6], last.Items[0].Post.Id)
}

func TestComposeTrendingFloor(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	composer := newTestComposer(db, nil)
	ctx := context.Background()

	viewer := utils.TestCreateUserAndValidate(t, "viewer", "", db)
	author := utils.TestCreateUserAndValidate(t, "author", "", db)

	utils.TestCreatePostAndValidate(t, author, composer.Config.MIN_TRENDING_LIKES, 0, "", time.Now(), db)
	utils.TestCreatePostAndValidate(t, author, composer.Config.MIN_TRENDING_LIKES-1, 50, "", time.Now(), db)

	page, err := composer.Compose(ctx, viewer, 0, 10, model.FeedModeChronological)
	require.NoError(t, err)
	// Only the post at or above the engagement floor trends, comment count
	// alone cannot rescue one below it.
	require.Equal(t, 1, len(page.Items))
	require.Equal(t, 1, page.Stats.FromTrending)
}

func TestComposeUsesTrendingCache(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	cache := &fakeTrendingCache{}
	composer := newTestComposer(db, cache)
	ctx := context.Background()

	viewer := utils.TestCreateUserAndValidate(t, "viewer", "", db)
	author := utils.TestCreateUserAndValidate(t, "author", "", db)
	utils.TestCreatePostAndValidate(t, author, 100, 0, "", time.Now(), db)

	// Cold cache: DB query populates it.
	_, err := composer.Compose(ctx, viewer, 0, 10, model.FeedModeChronological)
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)
	require.Equal(t, 1, len(cache.ids))

	// Warm cache: ids served from the cache, no second write.
	_, err = composer.Compose(ctx, viewer, 0, 10, model.FeedModeChronological)
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)
	require.Equal(t, 2, cache.gets)
}

func TestComposeInputValidation(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	composer := newTestComposer(db, nil)
	ctx := context.Background()

	viewer := utils.TestCreateUserAndValidate(t, "viewer", "", db)

	_, err := composer.Compose(ctx, viewer, -1, 10, model.FeedModeChronological)
	require.Error(t, err)
	_, err = composer.Compose(ctx, viewer, 0, 0, model.FeedModeChronological)
	require.Error(t, err)

	// Empty store composes an empty page, not an error.
	page, err := composer.Compose(ctx, viewer, 0, 10, model.FeedModeChronological)
	require.NoError(t, err)
	require.Equal(t, 0, len(page.Items))
	require.False(t, page.HasMorePages)
	require.Equal(t, 0, page.Stats.TotalPosts)
}
