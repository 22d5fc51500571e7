package events

import (
	"context"
	"encoding/json"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/socialmux/model"
	. "github.com/Luismorlan/socialmux/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Reporter's job is to listen to the social event topic and aggregate
// results, sending to Datadog (Or other service if there's any) for
// monitoring purpose.
type Reporter struct {
	Statsd *statsd.Client

	Bus *gochannel.GoChannel
}

func NewReporter(statsdClient *statsd.Client, bus *gochannel.GoChannel) *Reporter {
	return &Reporter{
		Statsd: statsdClient,
		Bus:    bus,
	}
}

// Run consumes social events until the context is cancelled.
func (r *Reporter) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := r.Bus.Subscribe(ctx, TopicSocialEvents)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		event := model.SocialEvent{}
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			Log.Error("cannot unmarshal social event: ", err)
			continue
		}

		if err := r.Statsd.Incr("social.event", []string{"kind:" + string(event.Kind)}, 1); err != nil {
			Log.Infoln("cannot report social event")
		}
		Log.Info("social event: ", event.Kind, " actor: ", event.ActorId, " subject: ", event.SubjectId)
	}

	return nil
}
