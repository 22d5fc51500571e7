package social

import (
	"context"
	"os"
	"testing"

	"github.com/Luismorlan/socialmux/model"
	"github.com/Luismorlan/socialmux/utils"
	"github.com/Luismorlan/socialmux/utils/dotenv"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestSendRequestToSelf(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := NewEngine(db)

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	_, err := engine.SendRequest(context.Background(), alice, alice)
	require.Error(t, err)
	require.Equal(t, KindSelfReference, KindOf(err))
}

func TestSendAcceptLifecycle(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	bob := utils.TestCreateUserAndValidate(t, "bob", "", db)

	edge, err := engine.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, model.FriendshipStatusPending, edge.Status)
	require.Equal(t, alice, edge.SenderId)
	require.Equal(t, bob, edge.ReceiverId)

	accepted, err := engine.AcceptRequest(ctx, edge.Id, bob)
	require.NoError(t, err)
	require.Equal(t, model.FriendshipStatusAccepted, accepted.Status)

	areFriends, err := engine.AreFriends(ctx, alice, bob)
	require.NoError(t, err)
	require.True(t, areFriends)

	aliceFriends, err := engine.GetFriends(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 1, len(aliceFriends))
	require.Equal(t, bob, aliceFriends[0].Id)

	bobFriends, err := engine.GetFriends(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, 1, len(bobFriends))
	require.Equal(t, alice, bobFriends[0].Id)
}

func TestOppositeDirectionRequestConflicts(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	bob := utils.TestCreateUserAndValidate(t, "bob", "", db)

	_, err := engine.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	_, err = engine.SendRequest(ctx, bob, alice)
	require.Error(t, err)
	require.Equal(t, KindConflict, KindOf(err))

	// Still exactly one edge between the pair.
	var count int64
	require.NoError(t, db.Model(&model.FriendEdge{}).
		Where("pair_key = ?", model.PairKeyOf(alice, bob)).
		Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestResolveRequestGates(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	bob := utils.TestCreateUserAndValidate(t, "bob", "", db)

	edge, err := engine.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	t.Run("unknown request id", func(t *testing.T) {
		_, err := engine.AcceptRequest(ctx, "no_such_edge", bob)
		require.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("only receiver can accept", func(t *testing.T) {
		_, err := engine.AcceptRequest(ctx, edge.Id, alice)
		require.Equal(t, KindAuthorization, KindOf(err))
	})

	t.Run("accept is not idempotent", func(t *testing.T) {
		_, err := engine.AcceptRequest(ctx, edge.Id, bob)
		require.NoError(t, err)
		_, err = engine.AcceptRequest(ctx, edge.Id, bob)
		require.Equal(t, KindInvalidState, KindOf(err))
	})
}

func TestRejectedPairCanReceiveNewRequest(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	bob := utils.TestCreateUserAndValidate(t, "bob", "", db)

	edge, err := engine.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	_, err = engine.RejectRequest(ctx, edge.Id, bob)
	require.NoError(t, err)

	status, err := engine.GetFriendRequestStatus(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, model.RelationStatusNone, status)

	// The revived request is re-oriented to the new sender.
	revived, err := engine.SendRequest(ctx, bob, alice)
	require.NoError(t, err)
	require.Equal(t, edge.Id, revived.Id)
	require.Equal(t, bob, revived.SenderId)
	require.Equal(t, model.FriendshipStatusPending, revived.Status)
}

func TestRemoveFriend(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	bob := utils.TestCreateUserAndValidate(t, "bob", "", db)

	// Removing a friendship that never existed is a no-op, not an error.
	require.NoError(t, engine.RemoveFriend(ctx, alice, bob))

	utils.TestCreateFriendshipAndValidate(t, alice, bob, db)
	require.NoError(t, engine.RemoveFriend(ctx, bob, alice))

	areFriends, err := engine.AreFriends(ctx, alice, bob)
	require.NoError(t, err)
	require.False(t, areFriends)
}

func TestBlockLifecycle(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	bob := utils.TestCreateUserAndValidate(t, "bob", "", db)

	edge, err := engine.BlockUser(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, model.FriendshipStatusBlocked, edge.Status)
	require.Equal(t, alice, edge.SenderId)

	t.Run("blocked pair rejects requests both ways", func(t *testing.T) {
		_, err := engine.SendRequest(ctx, alice, bob)
		require.Equal(t, KindConflict, KindOf(err))
		_, err = engine.SendRequest(ctx, bob, alice)
		require.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("only the blocker can unblock", func(t *testing.T) {
		err := engine.UnblockUser(ctx, bob, alice)
		require.Equal(t, KindAuthorization, KindOf(err))
	})

	t.Run("unblock returns the pair to NONE", func(t *testing.T) {
		require.NoError(t, engine.UnblockUser(ctx, alice, bob))
		status, err := engine.GetFriendRequestStatus(ctx, alice, bob)
		require.NoError(t, err)
		require.Equal(t, model.RelationStatusNone, status)

		_, err = engine.SendRequest(ctx, bob, alice)
		require.NoError(t, err)
	})
}

func TestBlockOverridesExistingFriendship(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	bob := utils.TestCreateUserAndValidate(t, "bob", "", db)
	utils.TestCreateFriendshipAndValidate(t, alice, bob, db)

	edge, err := engine.BlockUser(ctx, bob, alice)
	require.NoError(t, err)
	require.Equal(t, model.FriendshipStatusBlocked, edge.Status)
	require.Equal(t, bob, edge.SenderId)

	areFriends, err := engine.AreFriends(ctx, alice, bob)
	require.NoError(t, err)
	require.False(t, areFriends)
}

func TestMutationsRecordOutboxEvents(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	alice := utils.TestCreateUserAndValidate(t, "alice", "", db)
	bob := utils.TestCreateUserAndValidate(t, "bob", "", db)

	edge, err := engine.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	_, err = engine.AcceptRequest(ctx, edge.Id, bob)
	require.NoError(t, err)

	var kinds []string
	require.NoError(t, db.Model(&model.SocialEvent{}).
		Order("created_at ASC").
		Pluck("kind", &kinds).Error)
	require.Equal(t, []string{
		string(model.SocialEventFriendRequestSent),
		string(model.SocialEventFriendRequestAccepted),
	}, kinds)
}
