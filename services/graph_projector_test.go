package services

import (
	"testing"

	"circleup-api/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptedFollow(t *testing.T, env *testEnv, senderID, receiverID string) *models.RelationshipEdge {
	t.Helper()

	edge := &models.RelationshipEdge{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       models.EdgeKindFollow,
		Status:     models.EdgeStatusAccepted,
	}
	require.NoError(t, env.repo.CreateEdge(edge))
	return edge
}

func TestApplyAcceptedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "alice", false)
	b := env.createAccount(t, "bob", false)

	edge := acceptedFollow(t, env, a.ID, b.ID)

	require.NoError(t, env.projector.ApplyAccepted(edge))
	require.NoError(t, env.projector.ApplyAccepted(edge))

	reloaded := env.reload(t, a.ID)
	assert.Len(t, reloaded.FollowingIDs, 1)
	assert.Len(t, env.reload(t, b.ID).FollowerIDs, 1)
}

func TestApplyAcceptedDetectsMutuality(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "alice", false)
	b := env.createAccount(t, "bob", false)

	forward := acceptedFollow(t, env, a.ID, b.ID)
	require.NoError(t, env.projector.ApplyAccepted(forward))

	assert.Empty(t, env.reload(t, a.ID).FriendIDs)

	reverse := acceptedFollow(t, env, b.ID, a.ID)
	require.NoError(t, env.projector.ApplyAccepted(reverse))

	assert.True(t, env.reload(t, a.ID).FriendIDs.Contains(b.ID))
	assert.True(t, env.reload(t, b.ID).FriendIDs.Contains(a.ID))
}

func TestApplyRemovedBreaksFriendship(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "alice", false)
	b := env.createAccount(t, "bob", false)

	forward := acceptedFollow(t, env, a.ID, b.ID)
	reverse := acceptedFollow(t, env, b.ID, a.ID)
	require.NoError(t, env.projector.ApplyAccepted(forward))
	require.NoError(t, env.projector.ApplyAccepted(reverse))

	require.NoError(t, env.projector.ApplyRemoved(a.ID, b.ID, models.EdgeKindFollow))

	reloadedA := env.reload(t, a.ID)
	reloadedB := env.reload(t, b.ID)
	assert.False(t, reloadedA.FollowingIDs.Contains(b.ID))
	assert.False(t, reloadedB.FollowerIDs.Contains(a.ID))
	assert.Empty(t, reloadedA.FriendIDs)
	assert.Empty(t, reloadedB.FriendIDs)

	// The untouched direction survives
	assert.True(t, reloadedA.FollowerIDs.Contains(b.ID))
	assert.True(t, reloadedB.FollowingIDs.Contains(a.ID))
}

func TestReconcileRepairsDrift(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "alice", false)
	b := env.createAccount(t, "bob", false)
	c := env.createAccount(t, "carol", false)

	// a follows b (mutual) and c (one way); none of it projected yet,
	// simulating a crash between edge write and projection
	acceptedFollow(t, env, a.ID, b.ID)
	acceptedFollow(t, env, b.ID, a.ID)
	acceptedFollow(t, env, a.ID, c.ID)

	// Plant garbage in the cache
	require.NoError(t, env.db.Model(&models.Account{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"follower_ids":  models.IDSet{"stale-id"},
		"following_ids": models.IDSet{},
		"friend_ids":    models.IDSet{"stale-id"},
	}).Error)

	require.NoError(t, env.projector.Reconcile(a.ID))

	reloaded := env.reload(t, a.ID)
	assert.ElementsMatch(t, []string{b.ID}, []string(reloaded.FollowerIDs))
	assert.ElementsMatch(t, []string{b.ID, c.ID}, []string(reloaded.FollowingIDs))
	assert.ElementsMatch(t, []string{b.ID}, []string(reloaded.FriendIDs))

	// Convergent: a second run changes nothing
	require.NoError(t, env.projector.Reconcile(a.ID))
	again := env.reload(t, a.ID)
	assert.Equal(t, reloaded.FollowerIDs, again.FollowerIDs)
	assert.Equal(t, reloaded.FollowingIDs, again.FollowingIDs)
	assert.Equal(t, reloaded.FriendIDs, again.FriendIDs)
}

func TestReconcileUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	err := env.projector.Reconcile("missing-account")
	require.Error(t, err)
}
