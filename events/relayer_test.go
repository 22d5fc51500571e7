package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/Luismorlan/socialmux/model"
	"github.com/Luismorlan/socialmux/social"
	"github.com/Luismorlan/socialmux/utils"
	"github.com/Luismorlan/socialmux/utils/dotenv"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestRelayerPublishesOutboxRows(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := social.NewEngine(db)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus()
	messages, err := bus.Subscribe(ctx, TopicSocialEvents)
	require.NoError(t, err)

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	bob := utils.TestCreateUserAndValidate(t, "bob", "", db)
	_, err = engine.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	relayer := NewRelayer(db, bus)
	relayer.DrainOnce(ctx)

	select {
	case msg := <-messages:
		msg.Ack()
		var event model.SocialEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		require.Equal(t, model.SocialEventFriendRequestSent, event.Kind)
		require.Equal(t, alice, event.ActorId)
		require.Equal(t, bob, event.SubjectId)
	case <-time.After(time.Second):
		t.Fatal("no event published within deadline")
	}

	// The drained row is marked published and not re-delivered.
	var unpublished int64
	require.NoError(t, db.Model(&model.SocialEvent{}).
		Where("published = ?", false).
		Count(&unpublished).Error)
	require.Equal(t, int64(0), unpublished)

	relayer.DrainOnce(ctx)
	select {
	case msg := <-messages:
		t.Fatalf("unexpected re-delivery: %s", string(msg.Payload))
	case <-time.After(100 * time.Millisecond):
	}
}
