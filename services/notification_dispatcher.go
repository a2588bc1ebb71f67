package services

import (
	"sync"
	"time"

	"circleup-api/models"
	"circleup-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dispatcher is the fire-and-forget event sink the lifecycle emits into.
// Implementations must never fail a relationship transition: delivery errors
// are swallowed and logged.
type Dispatcher interface {
	Emit(notifType models.NotificationType, actorID, targetID, edgeID string)
	Shutdown()
}

type emitEvent struct {
	notifType models.NotificationType
	actorID   string
	targetID  string
	edgeID    string
}

// StoreDispatcher persists notification rows and optionally emails the
// target, processed by a single worker goroutine so emits never block the
// triggering transition.
type StoreDispatcher struct {
	db     *gorm.DB
	repo   *repositories.RelationshipRepository
	email  *EmailService
	log    *zap.Logger
	events chan emitEvent
	wg     sync.WaitGroup
	once   sync.Once
}

func NewStoreDispatcher(db *gorm.DB, repo *repositories.RelationshipRepository, email *EmailService, log *zap.Logger) *StoreDispatcher {
	d := &StoreDispatcher{
		db:     db,
		repo:   repo,
		email:  email,
		log:    log,
		events: make(chan emitEvent, 256),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Emit queues a notification event. Drops the event with a log line when the
// queue is full rather than blocking the caller.
func (d *StoreDispatcher) Emit(notifType models.NotificationType, actorID, targetID, edgeID string) {
	select {
	case d.events <- emitEvent{notifType: notifType, actorID: actorID, targetID: targetID, edgeID: edgeID}:
	default:
		d.log.Warn("notification queue full, dropping event",
			zap.String("type", string(notifType)),
			zap.String("target_id", targetID))
	}
}

// Shutdown drains the queue and stops the worker
func (d *StoreDispatcher) Shutdown() {
	d.once.Do(func() {
		close(d.events)
	})
	d.wg.Wait()
}

func (d *StoreDispatcher) run() {
	defer d.wg.Done()

	for ev := range d.events {
		d.deliver(ev)
	}
}

func (d *StoreDispatcher) deliver(ev emitEvent) {
	notification := models.Notification{
		ID:           uuid.New().String(),
		Type:         ev.notifType,
		ActorUserID:  ev.actorID,
		TargetUserID: ev.targetID,
		CreatedAt:    time.Now(),
	}
	if ev.edgeID != "" {
		notification.EdgeID = &ev.edgeID
	}

	if err := d.db.Create(&notification).Error; err != nil {
		d.log.Warn("failed to persist notification",
			zap.String("type", string(ev.notifType)),
			zap.String("target_id", ev.targetID),
			zap.Error(err))
		return
	}

	if d.email == nil {
		return
	}

	target, err := d.repo.GetAccount(ev.targetID)
	if err != nil {
		d.log.Warn("failed to load notification target for email", zap.Error(err))
		return
	}
	actor, err := d.repo.GetAccount(ev.actorID)
	if err != nil {
		d.log.Warn("failed to load notification actor for email", zap.Error(err))
		return
	}

	if err := d.email.SendRelationshipEmail(target.Email, target.Name, actor.Name, notification.GetNotificationMessage()); err != nil {
		d.log.Warn("failed to send notification email",
			zap.String("target_id", ev.targetID),
			zap.Error(err))
	}
}
