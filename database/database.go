package database

import (
	"fmt"

	"circleup-api/logger"
	"circleup-api/models"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Account{},
		&models.RelationshipEdge{},
		&models.BlockEdge{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	if err := addDatabaseConstraints(db); err != nil {
		return fmt.Errorf("failed to add database constraints: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	log := logger.Get()

	// Pair scans for status derivation and block cleanup
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_edges_sender_receiver ON relationship_edges(sender_id, receiver_id)").Error; err != nil {
		log.Warn("Could not create index for relationship_edges pair", zap.Error(err))
	}

	// Pending incoming requests per receiver (bulk-accept, request lists)
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_edges_receiver_status ON relationship_edges(receiver_id, status)").Error; err != nil {
		log.Warn("Could not create index for relationship_edges receiver status", zap.Error(err))
	}

	// Notifications per target, newest first
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_target_created ON notifications(target_user_id, created_at DESC)").Error; err != nil {
		log.Warn("Could not create index for notifications", zap.Error(err))
	}

	return nil
}

func addDatabaseConstraints(db *gorm.DB) error {
	log := logger.Get()

	// Reject self-edges at the storage layer as well
	if err := db.Exec("ALTER TABLE relationship_edges ADD CONSTRAINT ck_edges_no_self CHECK (sender_id != receiver_id)").Error; err != nil {
		// Ignore error if constraint already exists
		log.Warn("Could not add check constraint for relationship_edges", zap.Error(err))
	}

	if err := db.Exec("ALTER TABLE block_edges ADD CONSTRAINT ck_blocks_no_self CHECK (blocker_id != blocked_id)").Error; err != nil {
		log.Warn("Could not add check constraint for block_edges", zap.Error(err))
	}

	return nil
}
