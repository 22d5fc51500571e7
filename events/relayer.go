package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Luismorlan/socialmux/model"
	. "github.com/Luismorlan/socialmux/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

// Relayer drains unpublished SocialEvent outbox rows onto the bus. Because
// the rows were written in the same transaction as the edge mutation, every
// committed mutation is eventually published, at least once.
type Relayer struct {
	DB  *gorm.DB
	Bus *gochannel.GoChannel

	batchSize int
	interval  time.Duration
}

func NewRelayer(db *gorm.DB, bus *gochannel.GoChannel) *Relayer {
	return &Relayer{
		DB:        db,
		Bus:       bus,
		batchSize: 200,
		interval:  time.Second,
	}
}

// Run drains the outbox every interval until the context is cancelled.
func (r *Relayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce publishes one batch of unpublished events, oldest first. Rows
// that fail to publish stay unpublished and are retried next tick.
func (r *Relayer) DrainOnce(ctx context.Context) {
	var rows []model.SocialEvent
	err := r.DB.WithContext(ctx).
		Where("published = ?", false).
		Order("created_at ASC").
		Limit(r.batchSize).
		Find(&rows).Error
	if err != nil {
		Log.Error("outbox query failed: ", err)
		return
	}

	for idx := range rows {
		event := rows[idx]
		payload, err := json.Marshal(&event)
		if err != nil {
			Log.Error("cannot marshal outbox event ", event.Id, ": ", err)
			continue
		}
		if err := r.Bus.Publish(TopicSocialEvents, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
			Log.Error("cannot publish outbox event ", event.Id, ": ", err)
			continue
		}
		if err := r.DB.WithContext(ctx).Model(&model.SocialEvent{}).
			Where("id = ?", event.Id).
			Update("published", true).Error; err != nil {
			Log.Error("cannot mark outbox event published ", event.Id, ": ", err)
		}
	}
}
