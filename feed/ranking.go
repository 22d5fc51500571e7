package feed

import (
	"math"
	"sort"
	"time"

	"github.com/Luismorlan/socialmux/model"
	"gonum.org/v1/gonum/stat"
)

// sourceRank orders sources for personalized ranking, higher wins. Derived
// from the declared priority list so the two can never drift apart.
var sourceRank = func() map[model.FeedSource]int {
	rank := map[model.FeedSource]int{}
	for idx, source := range model.FeedSourcePriority {
		rank[source] = len(model.FeedSourcePriority) - idx
	}
	return rank
}()

// rankPersonalized orders candidates so that recency buckets come first, and
// inside one time window source priority dominates. Engagement only breaks
// ties between posts of the same window and source, normalized to a z-score
// across the candidate set so a single viral post cannot distort the scale.
func (c *Composer) rankPersonalized(merged []candidate) {
	window := time.Duration(c.Config.RANK_WINDOW_HOUR) * time.Hour
	if window <= 0 {
		window = 6 * time.Hour
	}

	engagement := make([]float64, len(merged))
	for idx := range merged {
		engagement[idx] = float64(merged[idx].post.LikesCount + merged[idx].post.CommentsCount)
	}
	mean := stat.Mean(engagement, nil)
	stddev := stat.StdDev(engagement, nil)

	zscore := func(idx int) float64 {
		// StdDev is NaN for fewer than two samples.
		if stddev == 0 || math.IsNaN(stddev) {
			return 0
		}
		return (engagement[idx] - mean) / stddev
	}
	bucket := func(idx int) int64 {
		return merged[idx].post.CreatedAt.UnixNano() / int64(window)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if bucket(i) != bucket(j) {
			return bucket(i) > bucket(j)
		}
		if sourceRank[merged[i].source] != sourceRank[merged[j].source] {
			return sourceRank[merged[i].source] > sourceRank[merged[j].source]
		}
		if zscore(i) != zscore(j) {
			return zscore(i) > zscore(j)
		}
		if !merged[i].post.CreatedAt.Equal(merged[j].post.CreatedAt) {
			return merged[i].post.CreatedAt.After(merged[j].post.CreatedAt)
		}
		return merged[i].post.Id < merged[j].post.Id
	})
}
