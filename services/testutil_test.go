package services

import (
	"fmt"
	"sync"
	"testing"

	"circleup-api/database"
	"circleup-api/models"
	"circleup-api/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	events []fakeEvent
}

type fakeEvent struct {
	Type     models.NotificationType
	ActorID  string
	TargetID string
	EdgeID   string
}

func (f *fakeDispatcher) Emit(notifType models.NotificationType, actorID, targetID, edgeID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fakeEvent{Type: notifType, ActorID: actorID, TargetID: targetID, EdgeID: edgeID})
}

func (f *fakeDispatcher) Shutdown() {}

func (f *fakeDispatcher) byType(t models.NotificationType) []fakeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeEvent
	for _, ev := range f.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	db         *gorm.DB
	repo       *repositories.RelationshipRepository
	projector  *GraphProjector
	blocks     *BlockEnforcer
	service    *RelationshipService
	dispatcher *fakeDispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	repo := repositories.NewRelationshipRepository(db)
	log := zap.NewNop()
	projector := NewGraphProjector(db, repo, log)
	blocks := NewBlockEnforcer(repo, projector, log)
	dispatcher := &fakeDispatcher{}
	service := NewRelationshipService(repo, NewPrivacyGate(), blocks, projector, dispatcher, log)

	return &testEnv{
		db:         db,
		repo:       repo,
		projector:  projector,
		blocks:     blocks,
		service:    service,
		dispatcher: dispatcher,
	}
}

func (env *testEnv) createAccount(t *testing.T, name string, private bool) *models.Account {
	t.Helper()

	account := &models.Account{
		ID:           uuid.New().String(),
		Name:         name,
		Handle:       name + "_" + uuid.New().String()[:8],
		Email:        name + "+" + uuid.New().String()[:8] + "@example.com",
		Password:     "hashed",
		IsPrivate:    private,
		FollowerIDs:  models.IDSet{},
		FollowingIDs: models.IDSet{},
		FriendIDs:    models.IDSet{},
	}
	require.NoError(t, env.db.Create(account).Error)
	return account
}

func (env *testEnv) reload(t *testing.T, id string) *models.Account {
	t.Helper()

	var account models.Account
	require.NoError(t, env.db.First(&account, "id = ?", id).Error)
	return &account
}
