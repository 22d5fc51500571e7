// Package prefetcher implements the client-held pagination controller that
// decides, from the current scroll position, when to request the next feed
// page ahead of the user reaching the end.
package prefetcher

import (
	"context"
	"sync"

	"github.com/Luismorlan/socialmux/model"
	"github.com/pkg/errors"
)

// Fetcher is the controller's view of the feed composer, usually a thin
// client over the transport.
type Fetcher interface {
	FetchPage(ctx context.Context, cursor int, pageSize int) (*model.FeedPage, error)
}

// Controller tracks loaded posts and issues at most one in-flight fetch at a
// time. The isLoadingMore flag is the sole concurrency guard: a second
// eligible scroll event while a fetch is outstanding is a no-op, never a
// queued request. The generation counter discards responses that resolve
// after a Reset, so navigating away and back cannot be overwritten by a stale
// page.
type Controller struct {
	mu sync.Mutex

	fetcher  Fetcher
	pageSize int

	loadedPosts   []model.FeedItem
	nextCursor    int
	hasMorePages  bool
	isLoadingMore bool
	generation    uint64
}

func NewController(fetcher Fetcher, pageSize int) *Controller {
	return &Controller{
		fetcher:      fetcher,
		pageSize:     pageSize,
		hasMorePages: true,
	}
}

// Posts returns a copy of the loaded posts in display order.
func (c *Controller) Posts() []model.FeedItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	posts := make([]model.FeedItem, len(c.loadedPosts))
	copy(posts, c.loadedPosts)
	return posts
}

func (c *Controller) HasMorePages() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMorePages
}

func (c *Controller) IsLoadingMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isLoadingMore
}

// Reset clears all loaded state and bumps the generation so that any fetch
// still in flight is discarded when it resolves.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.loadedPosts = nil
	c.nextCursor = 0
	c.hasMorePages = true
	c.isLoadingMore = false
}

// CheckForMorePosts is called as the user scrolls past currentPostId. When
// the post sits at or beyond the prefetch threshold (70% of loaded items,
// minimum 3) and more pages exist, it loads the next page synchronously and
// returns true. Every other case is a no-op.
//
// With fewer than 3 loaded posts the threshold index goes negative, making
// every position eligible. That is intentional for very small feeds.
func (c *Controller) CheckForMorePosts(ctx context.Context, currentPostId string) (bool, error) {
	c.mu.Lock()
	index := -1
	for idx := range c.loadedPosts {
		if c.loadedPosts[idx].Post.Id == currentPostId {
			index = idx
			break
		}
	}
	if index < 0 {
		c.mu.Unlock()
		return false, nil
	}

	threshold := 3
	if t := (len(c.loadedPosts) * 7) / 10; t > threshold {
		threshold = t
	}
	thresholdIndex := len(c.loadedPosts) - threshold

	if index < thresholdIndex || !c.hasMorePages || c.isLoadingMore {
		c.mu.Unlock()
		return false, nil
	}
	c.isLoadingMore = true
	cursor := c.nextCursor
	generation := c.generation
	c.mu.Unlock()

	return true, c.loadPage(ctx, cursor, generation)
}

// LoadInitial fetches the first page into an empty controller. Calling it on
// a non-empty controller is a no-op.
func (c *Controller) LoadInitial(ctx context.Context) error {
	c.mu.Lock()
	if len(c.loadedPosts) > 0 || c.isLoadingMore {
		c.mu.Unlock()
		return nil
	}
	c.isLoadingMore = true
	cursor := c.nextCursor
	generation := c.generation
	c.mu.Unlock()

	if err := c.loadPage(ctx, cursor, generation); err != nil {
		return err
	}
	return nil
}

// loadPage performs the suspending fetch outside the lock, then applies the
// result unless the controller was reset while the call was in flight.
func (c *Controller) loadPage(ctx context.Context, cursor int, generation uint64) error {
	page, err := c.fetcher.FetchPage(ctx, cursor, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		// Stale response from before a Reset, drop it on the floor. The reset
		// already cleared isLoadingMore.
		return nil
	}
	c.isLoadingMore = false
	if err != nil {
		return errors.Wrap(err, "load more posts")
	}
	c.loadedPosts = append(c.loadedPosts, page.Items...)
	c.nextCursor = page.NextCursor
	c.hasMorePages = page.HasMorePages
	return nil
}
