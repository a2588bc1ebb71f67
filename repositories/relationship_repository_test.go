package repositories

import (
	"fmt"
	"testing"

	"circleup-api/apperrors"
	"circleup-api/database"
	"circleup-api/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *RelationshipRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return NewRelationshipRepository(db)
}

func newEdge(sender, receiver string, kind models.EdgeKind, status models.EdgeStatus) *models.RelationshipEdge {
	return &models.RelationshipEdge{
		ID:         uuid.New().String(),
		SenderID:   sender,
		ReceiverID: receiver,
		Kind:       kind,
		Status:     status,
	}
}

func TestCreateEdgeRejectsDuplicatePair(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateEdge(newEdge("a", "b", models.EdgeKindFollow, models.EdgeStatusPending)))

	err := repo.CreateEdge(newEdge("a", "b", models.EdgeKindFollow, models.EdgeStatusPending))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindDuplicate))

	// Different kind or direction is a different pair key
	require.NoError(t, repo.CreateEdge(newEdge("a", "b", models.EdgeKindFriend, models.EdgeStatusPending)))
	require.NoError(t, repo.CreateEdge(newEdge("b", "a", models.EdgeKindFollow, models.EdgeStatusPending)))
}

func TestRejectReleasesPairKey(t *testing.T) {
	repo := newTestRepo(t)

	edge := newEdge("a", "b", models.EdgeKindFollow, models.EdgeStatusPending)
	require.NoError(t, repo.CreateEdge(edge))

	ok, err := repo.UpdateStatusIfPending(edge.ID, models.EdgeStatusRejected)
	require.NoError(t, err)
	require.True(t, ok)

	// The rejected row stays for audit but no longer occupies the pair key
	kept, err := repo.GetEdge(edge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EdgeStatusRejected, kept.Status)
	assert.Nil(t, kept.PairKey)

	require.NoError(t, repo.CreateEdge(newEdge("a", "b", models.EdgeKindFollow, models.EdgeStatusPending)))
}

func TestUpdateStatusIfPendingIsCompareAndSwap(t *testing.T) {
	repo := newTestRepo(t)

	edge := newEdge("a", "b", models.EdgeKindFollow, models.EdgeStatusPending)
	require.NoError(t, repo.CreateEdge(edge))

	ok, err := repo.UpdateStatusIfPending(edge.ID, models.EdgeStatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second transition loses the race
	ok, err = repo.UpdateStatusIfPending(edge.ID, models.EdgeStatusAccepted)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.UpdateStatusIfPending(edge.ID, models.EdgeStatusRejected)
	require.NoError(t, err)
	assert.False(t, ok)

	kept, err := repo.GetEdge(edge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EdgeStatusAccepted, kept.Status)
}

func TestDeleteEdgeIfStatus(t *testing.T) {
	repo := newTestRepo(t)

	edge := newEdge("a", "b", models.EdgeKindFollow, models.EdgeStatusAccepted)
	require.NoError(t, repo.CreateEdge(edge))

	// Wrong status expectation does not delete
	removed, err := repo.DeleteEdgeIfStatus("a", "b", models.EdgeKindFollow, models.EdgeStatusPending)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.DeleteEdgeIfStatus("a", "b", models.EdgeKindFollow, models.EdgeStatusAccepted)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteEdgeIfStatus("a", "b", models.EdgeKindFollow, models.EdgeStatusAccepted)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFindLiveEdgeIgnoresRejected(t *testing.T) {
	repo := newTestRepo(t)

	edge := newEdge("a", "b", models.EdgeKindFollow, models.EdgeStatusPending)
	require.NoError(t, repo.CreateEdge(edge))

	found, err := repo.FindLiveEdge("a", "b", models.EdgeKindFollow)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, edge.ID, found.ID)

	_, err = repo.UpdateStatusIfPending(edge.ID, models.EdgeStatusRejected)
	require.NoError(t, err)

	found, err = repo.FindLiveEdge("a", "b", models.EdgeKindFollow)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestEdgesBetweenCoversBothDirectionsAndKinds(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateEdge(newEdge("a", "b", models.EdgeKindFollow, models.EdgeStatusAccepted)))
	require.NoError(t, repo.CreateEdge(newEdge("b", "a", models.EdgeKindFollow, models.EdgeStatusPending)))
	require.NoError(t, repo.CreateEdge(newEdge("a", "b", models.EdgeKindFriend, models.EdgeStatusPending)))
	require.NoError(t, repo.CreateEdge(newEdge("a", "c", models.EdgeKindFollow, models.EdgeStatusAccepted)))

	edges, err := repo.EdgesBetween("a", "b")
	require.NoError(t, err)
	assert.Len(t, edges, 3)
}

func TestAcceptedFollowPartners(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateEdge(newEdge("a", "b", models.EdgeKindFollow, models.EdgeStatusAccepted)))
	require.NoError(t, repo.CreateEdge(newEdge("c", "a", models.EdgeKindFollow, models.EdgeStatusAccepted)))
	require.NoError(t, repo.CreateEdge(newEdge("a", "d", models.EdgeKindFollow, models.EdgeStatusPending)))

	following, followers, err := repo.AcceptedFollowPartners("a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b"}, following)
	assert.ElementsMatch(t, []string{"c"}, followers)
}

func TestBlockUniquenessAndDirection(t *testing.T) {
	repo := newTestRepo(t)

	block := &models.BlockEdge{ID: uuid.New().String(), BlockerID: "a", BlockedID: "b"}
	require.NoError(t, repo.CreateBlock(block))

	err := repo.CreateBlock(&models.BlockEdge{ID: uuid.New().String(), BlockerID: "a", BlockedID: "b"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindDuplicate))

	// Reverse direction is its own record
	require.NoError(t, repo.CreateBlock(&models.BlockEdge{ID: uuid.New().String(), BlockerID: "b", BlockedID: "a"}))

	exists, err := repo.BlockExistsBetween("a", "b")
	require.NoError(t, err)
	assert.True(t, exists)

	removed, err := repo.DeleteBlock("a", "b")
	require.NoError(t, err)
	assert.True(t, removed)

	// The reverse block still suppresses the pair
	exists, err = repo.BlockExistsBetween("a", "b")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListPendingIncomingFiltersKindAndLimit(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateEdge(newEdge("a", "z", models.EdgeKindFollow, models.EdgeStatusPending)))
	require.NoError(t, repo.CreateEdge(newEdge("b", "z", models.EdgeKindFollow, models.EdgeStatusPending)))
	require.NoError(t, repo.CreateEdge(newEdge("c", "z", models.EdgeKindFriend, models.EdgeStatusPending)))
	require.NoError(t, repo.CreateEdge(newEdge("d", "z", models.EdgeKindFollow, models.EdgeStatusAccepted)))

	edges, err := repo.ListPendingIncoming("z", models.EdgeKindFollow, 0)
	require.NoError(t, err)
	assert.Len(t, edges, 2)

	edges, err = repo.ListPendingIncoming("z", "", 0)
	require.NoError(t, err)
	assert.Len(t, edges, 3)

	edges, err = repo.ListPendingIncoming("z", models.EdgeKindFollow, 1)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}
