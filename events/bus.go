// Package events relays the relationship outbox onto an in-process event bus
// and aggregates what flows through it for monitoring. Delivery to external
// systems (push, email) is somebody else's job; subscribers here only observe.
package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const TopicSocialEvents = "social_events"

// NewBus creates the in-process pub/sub bus shared by the relayer and its
// subscribers.
func NewBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}
