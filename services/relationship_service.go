package services

import (
	"time"

	"circleup-api/apperrors"
	"circleup-api/models"
	"circleup-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RelationshipService drives the request lifecycle: submit, accept, reject,
// cancel, unfollow, unfriend. It composes the privacy gate, the block guard,
// the store and the graph projector; notifications are emitted best-effort
// through the injected dispatcher.
type RelationshipService struct {
	repo       *repositories.RelationshipRepository
	gate       *PrivacyGate
	blocks     *BlockEnforcer
	projector  *GraphProjector
	dispatcher Dispatcher
	log        *zap.Logger
}

func NewRelationshipService(
	repo *repositories.RelationshipRepository,
	gate *PrivacyGate,
	blocks *BlockEnforcer,
	projector *GraphProjector,
	dispatcher Dispatcher,
	log *zap.Logger,
) *RelationshipService {
	return &RelationshipService{
		repo:       repo,
		gate:       gate,
		blocks:     blocks,
		projector:  projector,
		dispatcher: dispatcher,
		log:        log,
	}
}

// SubmitResult is returned from Submit
type SubmitResult struct {
	Edge      *models.RelationshipEdge `json:"edge"`
	IsPending bool                     `json:"is_pending"`
}

// BulkAcceptResult aggregates a privacy-toggle bulk-accept batch
type BulkAcceptResult struct {
	Accepted  int      `json:"accepted"`
	Reapplied int      `json:"reapplied"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// Submit creates a new follow or friend request from sender to receiver. The
// insert is an atomic conditional upsert on the pair key, so two concurrent
// submissions produce exactly one edge. Auto-accepted requests are projected
// into the membership sets before returning.
func (rs *RelationshipService) Submit(senderID, receiverID string, kind models.EdgeKind) (*SubmitResult, error) {
	if senderID == "" || receiverID == "" {
		return nil, apperrors.Validation("Account id must not be empty")
	}
	if senderID == receiverID {
		return nil, apperrors.Validation("Cannot send a request to yourself")
	}

	blocked, err := rs.blocks.Guard(senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperrors.Blocked("Requests between these accounts are not allowed")
	}

	receiver, err := rs.repo.GetAccount(receiverID)
	if err != nil {
		return nil, err
	}

	if kind == models.EdgeKindFriend {
		alreadyFriends, err := rs.areFriends(senderID, receiverID)
		if err != nil {
			return nil, err
		}
		if alreadyFriends {
			return nil, apperrors.Duplicate("Already friends with this account")
		}
	}

	edge := &models.RelationshipEdge{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       kind,
		Status:     rs.gate.Decide(receiver, kind),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := rs.repo.CreateEdge(edge); err != nil {
		return nil, err
	}

	if edge.Status == models.EdgeStatusAccepted {
		if err := rs.projector.ApplyAccepted(edge); err != nil {
			rs.log.Warn("projection failed after submit, reconcile will repair",
				zap.String("edge_id", edge.ID), zap.Error(err))
		}
		rs.dispatcher.Emit(models.NotificationTypeNewFollower, senderID, receiverID, edge.ID)
	} else {
		notifType := models.NotificationTypeFollowRequest
		if kind == models.EdgeKindFriend {
			notifType = models.NotificationTypeFriendRequest
		}
		rs.dispatcher.Emit(notifType, senderID, receiverID, edge.ID)
	}

	return &SubmitResult{Edge: edge, IsPending: edge.IsPending()}, nil
}

// Accept transitions a pending request to accepted. Only the receiver may
// accept. Accepting a friend request materializes accepted follow edges in
// both directions, which is what makes the pair friends.
func (rs *RelationshipService) Accept(edgeID, actingAccountID string) (*models.RelationshipEdge, error) {
	edge, err := rs.repo.GetEdge(edgeID)
	if err != nil {
		return nil, err
	}
	if edge.ReceiverID != actingAccountID {
		return nil, apperrors.Forbidden("Only the receiver can accept this request")
	}

	ok, err := rs.repo.UpdateStatusIfPending(edgeID, models.EdgeStatusAccepted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState("Request is no longer pending")
	}
	edge.Status = models.EdgeStatusAccepted

	if edge.Kind == models.EdgeKindFollow {
		if err := rs.projector.ApplyAccepted(edge); err != nil {
			rs.log.Warn("projection failed after accept, reconcile will repair",
				zap.String("edge_id", edge.ID), zap.Error(err))
		}
	} else {
		// Friendship is canonically mutual follows. The friend request is
		// consumed after both follow directions exist.
		if err := rs.ensureAcceptedFollow(edge.SenderID, edge.ReceiverID); err != nil {
			return nil, err
		}
		if err := rs.ensureAcceptedFollow(edge.ReceiverID, edge.SenderID); err != nil {
			return nil, err
		}
		if err := rs.repo.DeleteEdgeByID(edge.ID); err != nil {
			rs.log.Warn("failed to consume accepted friend request",
				zap.String("edge_id", edge.ID), zap.Error(err))
		}
	}

	rs.dispatcher.Emit(models.NotificationTypeRequestAccepted, actingAccountID, edge.SenderID, edge.ID)

	return edge, nil
}

// Reject marks a pending request rejected. The row is retained for audit and
// does not stand in the way of a future submit for the same pair.
func (rs *RelationshipService) Reject(edgeID, actingAccountID string) (*models.RelationshipEdge, error) {
	edge, err := rs.repo.GetEdge(edgeID)
	if err != nil {
		return nil, err
	}
	if edge.ReceiverID != actingAccountID {
		return nil, apperrors.Forbidden("Only the receiver can reject this request")
	}

	ok, err := rs.repo.UpdateStatusIfPending(edgeID, models.EdgeStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState("Request is no longer pending")
	}
	edge.Status = models.EdgeStatusRejected

	rs.dispatcher.Emit(models.NotificationTypeRequestRejected, actingAccountID, edge.SenderID, edge.ID)

	return edge, nil
}

// Cancel withdraws a still-pending request the sender submitted. Idempotent:
// cancelling a request that no longer exists succeeds, so client retries are
// safe.
func (rs *RelationshipService) Cancel(senderID, receiverID string, kind models.EdgeKind) error {
	_, err := rs.repo.DeleteEdgeIfStatus(senderID, receiverID, kind, models.EdgeStatusPending)
	return err
}

// Unfollow removes the accepted follow edge sender→receiver and undoes its
// projection. Idempotent.
func (rs *RelationshipService) Unfollow(senderID, receiverID string) error {
	removed, err := rs.repo.DeleteEdgeIfStatus(senderID, receiverID, models.EdgeKindFollow, models.EdgeStatusAccepted)
	if err != nil {
		return err
	}
	if removed {
		if err := rs.projector.ApplyRemoved(senderID, receiverID, models.EdgeKindFollow); err != nil {
			rs.log.Warn("projection failed after unfollow, reconcile will repair",
				zap.String("sender_id", senderID), zap.String("receiver_id", receiverID), zap.Error(err))
		}
	}
	return nil
}

// Unfriend severs the friendship completely by removing both directions of
// follow edges. Idempotent no-op when no edges exist.
func (rs *RelationshipService) Unfriend(accountA, accountB string) error {
	if accountA == accountB {
		return apperrors.Validation("Cannot unfriend yourself")
	}

	if err := rs.Unfollow(accountA, accountB); err != nil {
		return err
	}
	return rs.Unfollow(accountB, accountA)
}

// Status derives the caller-facing a→b relationship summary
func (rs *RelationshipService) Status(a, b string) (models.RelationStatus, error) {
	blocked, err := rs.blocks.Guard(a, b)
	if err != nil {
		return "", err
	}
	if blocked {
		return models.RelationStatusBlocked, nil
	}

	follows, err := rs.repo.AcceptedFollowExists(a, b)
	if err != nil {
		return "", err
	}
	if follows {
		followedBack, err := rs.repo.AcceptedFollowExists(b, a)
		if err != nil {
			return "", err
		}
		if followedBack {
			return models.RelationStatusFriends, nil
		}
		return models.RelationStatusFollowing, nil
	}

	for _, kind := range []models.EdgeKind{models.EdgeKindFollow, models.EdgeKindFriend} {
		edge, err := rs.repo.FindLiveEdge(a, b, kind)
		if err != nil {
			return "", err
		}
		if edge != nil && edge.IsPending() {
			return models.RelationStatusPendingSent, nil
		}
	}
	for _, kind := range []models.EdgeKind{models.EdgeKindFollow, models.EdgeKindFriend} {
		edge, err := rs.repo.FindLiveEdge(b, a, kind)
		if err != nil {
			return "", err
		}
		if edge != nil && edge.IsPending() {
			return models.RelationStatusPendingReceived, nil
		}
	}

	return models.RelationStatusNone, nil
}

// BulkAcceptPending accepts every pending incoming follow request for the
// account, one edge at a time, through the normal projection path. Runs after
// an account turns public. Continues past per-item failures and tolerates
/// redundant re-processing: edges already accepted get their projection
// re-applied idempotently.
func (rs *RelationshipService) BulkAcceptPending(accountID string, batchSize int) (*BulkAcceptResult, error) {
	edges, err := rs.repo.ListPendingIncoming(accountID, models.EdgeKindFollow, batchSize)
	if err != nil {
		return nil, err
	}

	result := &BulkAcceptResult{}
	for i := range edges {
		edge := edges[i]

		ok, err := rs.repo.UpdateStatusIfPending(edge.ID, models.EdgeStatusAccepted)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		edge.Status = models.EdgeStatusAccepted
		if err := rs.projector.ApplyAccepted(&edge); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		if ok {
			result.Accepted++
			rs.dispatcher.Emit(models.NotificationTypeRequestAccepted, accountID, edge.SenderID, edge.ID)
		} else {
			// Another worker already flipped the status; projection above is
			// the safe re-application.
			result.Reapplied++
		}
	}

	return result, nil
}

// ensureAcceptedFollow guarantees an accepted follow edge a→b exists and is
// projected, whether it was absent, pending or already accepted
func (rs *RelationshipService) ensureAcceptedFollow(a, b string) error {
	existing, err := rs.repo.FindLiveEdge(a, b, models.EdgeKindFollow)
	if err != nil {
		return err
	}

	if existing == nil {
		existing = &models.RelationshipEdge{
			ID:         uuid.New().String(),
			SenderID:   a,
			ReceiverID: b,
			Kind:       models.EdgeKindFollow,
			Status:     models.EdgeStatusAccepted,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if err := rs.repo.CreateEdge(existing); err != nil {
			// A concurrent submit won the insert; fall through to projection
			// with the edge it created.
			if !apperrors.IsKind(err, apperrors.KindDuplicate) {
				return err
			}
			if existing, err = rs.repo.FindLiveEdge(a, b, models.EdgeKindFollow); err != nil {
				return err
			}
			if existing == nil {
				return apperrors.Internal("Follow edge disappeared during friend accept", nil)
			}
		}
	}

	if existing.IsPending() {
		if _, err := rs.repo.UpdateStatusIfPending(existing.ID, models.EdgeStatusAccepted); err != nil {
			return err
		}
		existing.Status = models.EdgeStatusAccepted
	}

	return rs.projector.ApplyAccepted(existing)
}

func (rs *RelationshipService) areFriends(a, b string) (bool, error) {
	follows, err := rs.repo.AcceptedFollowExists(a, b)
	if err != nil || !follows {
		return false, err
	}
	return rs.repo.AcceptedFollowExists(b, a)
}
