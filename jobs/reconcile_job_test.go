package jobs

import (
	"fmt"
	"testing"
	"time"

	"circleup-api/database"
	"circleup-api/models"
	"circleup-api/repositories"
	"circleup-api/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestJob(t *testing.T, batchSize int) (*ReconcileJob, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := zap.NewNop()
	repo := repositories.NewRelationshipRepository(db)
	projector := services.NewGraphProjector(db, repo, log)

	return NewReconcileJob(db, projector, time.Hour, batchSize, log), db
}

func seedAccount(t *testing.T, db *gorm.DB, sets models.IDSet) *models.Account {
	t.Helper()

	account := &models.Account{
		ID:           uuid.New().String(),
		Name:         "Account",
		Handle:       "acct_" + uuid.New().String()[:8],
		Email:        uuid.New().String() + "@example.com",
		Password:     "hashed",
		FollowerIDs:  sets,
		FollowingIDs: sets,
		FriendIDs:    sets,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestSweepRepairsDriftedSets(t *testing.T) {
	job, db := newTestJob(t, 100)

	// b's cached sets carry garbage that no edge backs
	a := seedAccount(t, db, models.IDSet{})
	b := seedAccount(t, db, models.IDSet{"ghost"})

	edge := &models.RelationshipEdge{
		ID:         uuid.New().String(),
		SenderID:   a.ID,
		ReceiverID: b.ID,
		Kind:       models.EdgeKindFollow,
		Status:     models.EdgeStatusAccepted,
	}
	key := models.EdgePairKey(a.ID, b.ID, models.EdgeKindFollow)
	edge.PairKey = &key
	require.NoError(t, db.Create(edge).Error)

	job.sweep()

	var repaired models.Account
	require.NoError(t, db.First(&repaired, "id = ?", b.ID).Error)
	assert.Equal(t, models.IDSet{a.ID}, repaired.FollowerIDs)
	assert.Empty(t, repaired.FollowingIDs)
	assert.Empty(t, repaired.FriendIDs)
}

func TestSweepHonorsBatchSize(t *testing.T) {
	job, db := newTestJob(t, 1)

	// Stalest account first; only it should be touched
	stale := seedAccount(t, db, models.IDSet{"ghost"})
	fresh := seedAccount(t, db, models.IDSet{"ghost"})
	require.NoError(t, db.Model(stale).Update("updated_at", time.Now().Add(-time.Hour)).Error)

	job.sweep()

	var got models.Account
	require.NoError(t, db.First(&got, "id = ?", stale.ID).Error)
	assert.Empty(t, got.FollowerIDs)

	require.NoError(t, db.First(&got, "id = ?", fresh.ID).Error)
	assert.Equal(t, models.IDSet{"ghost"}, got.FollowerIDs)
}

func TestStartAndStop(t *testing.T) {
	job, _ := newTestJob(t, 10)

	job.Start()
	// Stop must not hang while the worker is between sweeps
	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not stop")
	}
}
