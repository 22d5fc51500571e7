package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Post is a piece of user generated content. This subsystem never creates or
mutates posts, it only reads them to compose feeds.

Id: primary key, use to identify a post
AuthorId: user who published the post, "belongs-to" relation
LikesCount / CommentsCount: denormalized engagement counters maintained by the
	interaction pipeline, read here for trending ranking
LocationCity: city the post was published from, empty when the author did not
	attach a location

*/
type Post struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	DeletedAt     gorm.DeletedAt
	AuthorId      string `gorm:"not null;index"`
	Author        User   `gorm:"foreignKey:AuthorId"`
	Content       string
	LikesCount    int `gorm:"not null;default:0"`
	CommentsCount int `gorm:"not null;default:0"`
	LocationCity  string `gorm:"index"`
}
