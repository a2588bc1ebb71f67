package repositories

import (
	"errors"
	"time"

	"circleup-api/apperrors"
	"circleup-api/models"
	"gorm.io/gorm"
)

// RelationshipRepository is the single source of truth for relationship and
// block edges. Every state change is a single conditional statement: inserts
// ride on the unique pair key, updates and deletes are guarded by the status
// they expect, so concurrent callers cannot interleave a check with a write.
type RelationshipRepository struct {
	db *gorm.DB
}

func NewRelationshipRepository(db *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// CreateEdge inserts a new live edge. The unique index on pair_key makes the
// insert atomic: a concurrent duplicate submission surfaces as DuplicateError
// instead of a second row.
func (r *RelationshipRepository) CreateEdge(edge *models.RelationshipEdge) error {
	key := models.EdgePairKey(edge.SenderID, edge.ReceiverID, edge.Kind)
	edge.PairKey = &key

	if err := r.db.Create(edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Duplicate("A request of this kind already exists for this pair")
		}
		return apperrors.Internal("Failed to create relationship edge", err)
	}
	return nil
}

// GetEdge fetches an edge by id
func (r *RelationshipRepository) GetEdge(id string) (*models.RelationshipEdge, error) {
	var edge models.RelationshipEdge
	if err := r.db.First(&edge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Relationship request not found")
		}
		return nil, apperrors.Internal("Failed to load relationship edge", err)
	}
	return &edge, nil
}

// FindLiveEdge returns the pending or accepted edge sender→receiver of the
// given kind, or nil if none exists
func (r *RelationshipRepository) FindLiveEdge(senderID, receiverID string, kind models.EdgeKind) (*models.RelationshipEdge, error) {
	var edge models.RelationshipEdge
	err := r.db.Where("sender_id = ? AND receiver_id = ? AND kind = ? AND status <> ?",
		senderID, receiverID, kind, models.EdgeStatusRejected).First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to query relationship edge", err)
	}
	return &edge, nil
}

// UpdateStatusIfPending transitions an edge from pending to the given status
// in one conditional update. Returns false when the edge was no longer
// pending, which lets concurrent accept/reject calls race safely. Rejection
// releases the pair key so the pair can submit again later.
func (r *RelationshipRepository) UpdateStatusIfPending(id string, to models.EdgeStatus) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if to == models.EdgeStatusRejected {
		updates["pair_key"] = nil
	}

	res := r.db.Model(&models.RelationshipEdge{}).
		Where("id = ? AND status = ?", id, models.EdgeStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, apperrors.Internal("Failed to update relationship edge", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteEdgeIfStatus removes the sender→receiver edge of the given kind only
// while it holds the expected status. Returns false when nothing matched.
func (r *RelationshipRepository) DeleteEdgeIfStatus(senderID, receiverID string, kind models.EdgeKind, status models.EdgeStatus) (bool, error) {
	res := r.db.Where("sender_id = ? AND receiver_id = ? AND kind = ? AND status = ?",
		senderID, receiverID, kind, status).Delete(&models.RelationshipEdge{})
	if res.Error != nil {
		return false, apperrors.Internal("Failed to delete relationship edge", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteEdgeByID removes an edge unconditionally (block cleanup path)
func (r *RelationshipRepository) DeleteEdgeByID(id string) error {
	if err := r.db.Delete(&models.RelationshipEdge{}, "id = ?", id).Error; err != nil {
		return apperrors.Internal("Failed to delete relationship edge", err)
	}
	return nil
}

// EdgesBetween returns every edge between the pair, both directions and both
// kinds, regardless of status
func (r *RelationshipRepository) EdgesBetween(a, b string) ([]models.RelationshipEdge, error) {
	var edges []models.RelationshipEdge
	err := r.db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		a, b, b, a).Find(&edges).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to query edges between pair", err)
	}
	return edges, nil
}

// AcceptedFollowExists reports whether an accepted follow edge sender→receiver exists
func (r *RelationshipRepository) AcceptedFollowExists(senderID, receiverID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.RelationshipEdge{}).
		Where("sender_id = ? AND receiver_id = ? AND kind = ? AND status = ?",
			senderID, receiverID, models.EdgeKindFollow, models.EdgeStatusAccepted).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Internal("Failed to query follow edge", err)
	}
	return count > 0, nil
}

// ListPendingIncoming returns up to limit pending edges addressed to the
// receiver, optionally filtered by kind
func (r *RelationshipRepository) ListPendingIncoming(receiverID string, kind models.EdgeKind, limit int) ([]models.RelationshipEdge, error) {
	query := r.db.Where("receiver_id = ? AND status = ?", receiverID, models.EdgeStatusPending)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var edges []models.RelationshipEdge
	if err := query.Order("created_at ASC").Find(&edges).Error; err != nil {
		return nil, apperrors.Internal("Failed to list pending requests", err)
	}
	return edges, nil
}

// ListPendingOutgoing returns pending edges sent by the sender
func (r *RelationshipRepository) ListPendingOutgoing(senderID string, limit int) ([]models.RelationshipEdge, error) {
	query := r.db.Where("sender_id = ? AND status = ?", senderID, models.EdgeStatusPending)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var edges []models.RelationshipEdge
	if err := query.Order("created_at ASC").Find(&edges).Error; err != nil {
		return nil, apperrors.Internal("Failed to list sent requests", err)
	}
	return edges, nil
}

// AcceptedFollowPartners returns the ids this account follows and the ids
// following it, computed from accepted follow edges. Used by reconciliation.
func (r *RelationshipRepository) AcceptedFollowPartners(accountID string) (following []string, followers []string, err error) {
	rows := []models.RelationshipEdge{}
	err = r.db.Where("(sender_id = ? OR receiver_id = ?) AND kind = ? AND status = ?",
		accountID, accountID, models.EdgeKindFollow, models.EdgeStatusAccepted).Find(&rows).Error
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to load accepted follow edges", err)
	}

	for _, e := range rows {
		if e.SenderID == accountID {
			following = append(following, e.ReceiverID)
		} else {
			followers = append(followers, e.SenderID)
		}
	}
	return following, followers, nil
}

// CreateBlock inserts a block edge; the unique pair index rejects duplicates
func (r *RelationshipRepository) CreateBlock(block *models.BlockEdge) error {
	if err := r.db.Create(block).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Duplicate("This account is already blocked")
		}
		return apperrors.Internal("Failed to create block", err)
	}
	return nil
}

// DeleteBlock removes the blocker→blocked block edge. Returns false when no
// block existed.
func (r *RelationshipRepository) DeleteBlock(blockerID, blockedID string) (bool, error) {
	res := r.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&models.BlockEdge{})
	if res.Error != nil {
		return false, apperrors.Internal("Failed to delete block", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// BlockExistsBetween reports whether a block exists in either direction
func (r *RelationshipRepository) BlockExistsBetween(a, b string) (bool, error) {
	var count int64
	err := r.db.Model(&models.BlockEdge{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Internal("Failed to query blocks", err)
	}
	return count > 0, nil
}

// GetAccount fetches an account by id
func (r *RelationshipRepository) GetAccount(id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Account not found")
		}
		return nil, apperrors.Internal("Failed to load account", err)
	}
	return &account, nil
}
