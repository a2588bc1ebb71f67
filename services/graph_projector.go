package services

import (
	"time"

	"circleup-api/apperrors"
	"circleup-api/models"
	"circleup-api/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GraphProjector maintains the denormalized membership sets on accounts from
// accepted edges. Projection runs right after the edge write but is not
// atomic with it; Reconcile is the repair path when the two drift apart.
type GraphProjector struct {
	db   *gorm.DB
	repo *repositories.RelationshipRepository
	log  *zap.Logger
}

func NewGraphProjector(db *gorm.DB, repo *repositories.RelationshipRepository, log *zap.Logger) *GraphProjector {
	return &GraphProjector{db: db, repo: repo, log: log}
}

// ApplyAccepted projects an accepted follow edge into both membership caches.
// Set insertion is idempotent, so replaying the same edge is harmless. When
// the reverse follow edge is also accepted, both accounts gain each other as
// friends.
func (gp *GraphProjector) ApplyAccepted(edge *models.RelationshipEdge) error {
	if edge.Kind != models.EdgeKindFollow {
		return nil
	}

	if err := gp.mutateSets(edge.SenderID, func(a *models.Account) {
		a.FollowingIDs = a.FollowingIDs.Add(edge.ReceiverID)
	}); err != nil {
		return err
	}
	if err := gp.mutateSets(edge.ReceiverID, func(a *models.Account) {
		a.FollowerIDs = a.FollowerIDs.Add(edge.SenderID)
	}); err != nil {
		return err
	}

	mutual, err := gp.repo.AcceptedFollowExists(edge.ReceiverID, edge.SenderID)
	if err != nil {
		return err
	}
	if mutual {
		if err := gp.mutateSets(edge.SenderID, func(a *models.Account) {
			a.FriendIDs = a.FriendIDs.Add(edge.ReceiverID)
		}); err != nil {
			return err
		}
		if err := gp.mutateSets(edge.ReceiverID, func(a *models.Account) {
			a.FriendIDs = a.FriendIDs.Add(edge.SenderID)
		}); err != nil {
			return err
		}
	}

	return nil
}

// ApplyRemoved undoes the projection of a removed follow edge. Removing
// either direction of a mutual pair breaks the friendship on both sides.
func (gp *GraphProjector) ApplyRemoved(senderID, receiverID string, kind models.EdgeKind) error {
	if kind != models.EdgeKindFollow {
		return nil
	}

	if err := gp.mutateSets(senderID, func(a *models.Account) {
		a.FollowingIDs = a.FollowingIDs.Remove(receiverID)
		a.FriendIDs = a.FriendIDs.Remove(receiverID)
	}); err != nil {
		return err
	}
	return gp.mutateSets(receiverID, func(a *models.Account) {
		a.FollowerIDs = a.FollowerIDs.Remove(senderID)
		a.FriendIDs = a.FriendIDs.Remove(senderID)
	})
}

// Reconcile recomputes all three membership sets for the account from the
// current accepted follow edges and overwrites the cache in one update.
// Convergent: running it twice yields the same result as running it once.
func (gp *GraphProjector) Reconcile(accountID string) error {
	following, followers, err := gp.repo.AcceptedFollowPartners(accountID)
	if err != nil {
		return err
	}

	followingSet := models.IDSet{}
	for _, id := range following {
		followingSet = followingSet.Add(id)
	}
	followerSet := models.IDSet{}
	for _, id := range followers {
		followerSet = followerSet.Add(id)
	}

	// Friends are the intersection: accounts this one follows that follow back
	friendSet := models.IDSet{}
	for _, id := range followingSet {
		if followerSet.Contains(id) {
			friendSet = friendSet.Add(id)
		}
	}

	res := gp.db.Model(&models.Account{}).Where("id = ?", accountID).Updates(map[string]interface{}{
		"follower_ids":  followerSet,
		"following_ids": followingSet,
		"friend_ids":    friendSet,
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		return apperrors.Internal("Failed to reconcile membership sets", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Account not found")
	}

	gp.log.Debug("reconciled membership sets",
		zap.String("account_id", accountID),
		zap.Int("followers", len(followerSet)),
		zap.Int("following", len(followingSet)),
		zap.Int("friends", len(friendSet)))

	return nil
}

// mutateSets loads the account, applies fn to its membership sets and writes
// them back. A single store round trip per side; lost updates under true
// concurrency are accepted drift, repaired by Reconcile.
func (gp *GraphProjector) mutateSets(accountID string, fn func(*models.Account)) error {
	account, err := gp.repo.GetAccount(accountID)
	if err != nil {
		return err
	}

	fn(account)

	res := gp.db.Model(&models.Account{}).Where("id = ?", accountID).Updates(map[string]interface{}{
		"follower_ids":  account.FollowerIDs,
		"following_ids": account.FollowingIDs,
		"friend_ids":    account.FriendIDs,
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		return apperrors.Internal("Failed to update membership sets", res.Error)
	}
	return nil
}
