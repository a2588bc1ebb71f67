package services

import (
	"time"

	"circleup-api/apperrors"
	"circleup-api/models"
	"circleup-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlockEnforcer owns block records and the suppression of relationships
// between blocked pairs.
type BlockEnforcer struct {
	repo      *repositories.RelationshipRepository
	projector *GraphProjector
	log       *zap.Logger
}

func NewBlockEnforcer(repo *repositories.RelationshipRepository, projector *GraphProjector, log *zap.Logger) *BlockEnforcer {
	return &BlockEnforcer{repo: repo, projector: projector, log: log}
}

// Block creates the block edge, then tears down every relationship edge
// between the pair. Cleanup is best-effort and sequential: if it fails part
// way the block itself stands and Reconcile corrects stale membership later.
func (be *BlockEnforcer) Block(blockerID, blockedID string) error {
	if blockerID == blockedID {
		return apperrors.Validation("Cannot block yourself")
	}

	if _, err := be.repo.GetAccount(blockedID); err != nil {
		return err
	}

	block := &models.BlockEdge{
		ID:        uuid.New().String(),
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now(),
	}
	if err := be.repo.CreateBlock(block); err != nil {
		return err
	}

	edges, err := be.repo.EdgesBetween(blockerID, blockedID)
	if err != nil {
		be.log.Warn("block cleanup could not list edges, membership may be stale until reconcile",
			zap.String("blocker_id", blockerID), zap.String("blocked_id", blockedID), zap.Error(err))
		return nil
	}

	for _, edge := range edges {
		if edge.Status == models.EdgeStatusAccepted {
			if err := be.projector.ApplyRemoved(edge.SenderID, edge.ReceiverID, edge.Kind); err != nil {
				be.log.Warn("block cleanup projection failed",
					zap.String("edge_id", edge.ID), zap.Error(err))
			}
		}
		if err := be.repo.DeleteEdgeByID(edge.ID); err != nil {
			be.log.Warn("block cleanup edge delete failed",
				zap.String("edge_id", edge.ID), zap.Error(err))
		}
	}

	return nil
}

// Unblock removes only the block edge; prior relationships are not restored.
// Returns NotFoundError when no block existed.
func (be *BlockEnforcer) Unblock(blockerID, blockedID string) error {
	removed, err := be.repo.DeleteBlock(blockerID, blockedID)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NotFound("No block exists for this account")
	}
	return nil
}

// Guard reports whether a block exists between the pair in either direction
func (be *BlockEnforcer) Guard(a, b string) (bool, error) {
	return be.repo.BlockExistsBetween(a, b)
}
