package jobs

import (
	"time"

	"circleup-api/models"
	"circleup-api/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReconcileJob periodically recomputes membership sets from the edge records.
// Projection updates after an edge write are best-effort, so a crashed process
// can leave an account's cached sets behind the edges; the sweep converges
// them. Stalest accounts go first.
type ReconcileJob struct {
	db        *gorm.DB
	projector *services.GraphProjector
	batchSize int
	ticker    *time.Ticker
	done      chan bool
	log       *zap.Logger
}

func NewReconcileJob(db *gorm.DB, projector *services.GraphProjector, interval time.Duration, batchSize int, log *zap.Logger) *ReconcileJob {
	return &ReconcileJob{
		db:        db,
		projector: projector,
		batchSize: batchSize,
		ticker:    time.NewTicker(interval),
		done:      make(chan bool),
		log:       log,
	}
}

// Start begins the sweep loop
func (j *ReconcileJob) Start() {
	j.log.Info("reconcile job started")

	go func() {
		// Run immediately on start
		j.sweep()

		for {
			select {
			case <-j.ticker.C:
				j.sweep()
			case <-j.done:
				j.log.Info("reconcile job stopped")
				return
			}
		}
	}()
}

// Stop stops the sweep loop
func (j *ReconcileJob) Stop() {
	j.ticker.Stop()
	j.done <- true
}

func (j *ReconcileJob) sweep() {
	start := time.Now()

	var ids []string
	err := j.db.Model(&models.Account{}).
		Order("updated_at ASC").
		Limit(j.batchSize).
		Pluck("id", &ids).Error
	if err != nil {
		j.log.Error("reconcile sweep failed to list accounts", zap.Error(err))
		return
	}

	repaired := 0
	for _, id := range ids {
		if err := j.projector.Reconcile(id); err != nil {
			j.log.Warn("reconcile failed for account", zap.String("account_id", id), zap.Error(err))
			continue
		}
		repaired++
	}

	j.log.Info("reconcile sweep completed",
		zap.Int("accounts", repaired),
		zap.Duration("took", time.Since(start)),
	)
}
