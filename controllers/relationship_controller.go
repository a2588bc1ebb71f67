package controllers

import (
	"net/http"
	"strconv"

	"circleup-api/models"
	"circleup-api/services"
	"circleup-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RelationshipController struct {
	db            *gorm.DB
	relationships *services.RelationshipService
	blocks        *services.BlockEnforcer
}

func NewRelationshipController(db *gorm.DB, relationships *services.RelationshipService, blocks *services.BlockEnforcer) *RelationshipController {
	return &RelationshipController{
		db:            db,
		relationships: relationships,
		blocks:        blocks,
	}
}

func (rc *RelationshipController) SubmitFollow(c *gin.Context) {
	rc.submit(c, models.EdgeKindFollow)
}

func (rc *RelationshipController) SubmitFriend(c *gin.Context) {
	rc.submit(c, models.EdgeKindFriend)
}

func (rc *RelationshipController) submit(c *gin.Context, kind models.EdgeKind) {
	userID := c.GetString("user_id")
	targetID := c.Param("id")

	if !utils.IsValidAccountID(targetID) {
		utils.SendValidationError(c, "Invalid account id")
		return
	}

	result, err := rc.relationships.Submit(userID, targetID, kind)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	message := "Now following this account"
	if result.IsPending {
		message = "Request sent"
	}
	utils.SendCreated(c, message, result)
}

func (rc *RelationshipController) AcceptRequest(c *gin.Context) {
	userID := c.GetString("user_id")
	requestID := c.Param("request_id")

	edge, err := rc.relationships.Accept(requestID, userID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Request accepted", edge)
}

func (rc *RelationshipController) RejectRequest(c *gin.Context) {
	userID := c.GetString("user_id")
	requestID := c.Param("request_id")

	edge, err := rc.relationships.Reject(requestID, userID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Request rejected", edge)
}

func (rc *RelationshipController) CancelFollowRequest(c *gin.Context) {
	rc.cancel(c, models.EdgeKindFollow)
}

func (rc *RelationshipController) CancelFriendRequest(c *gin.Context) {
	rc.cancel(c, models.EdgeKindFriend)
}

func (rc *RelationshipController) cancel(c *gin.Context, kind models.EdgeKind) {
	userID := c.GetString("user_id")
	targetID := c.Param("id")

	if !utils.IsValidAccountID(targetID) {
		utils.SendValidationError(c, "Invalid account id")
		return
	}

	if err := rc.relationships.Cancel(userID, targetID, kind); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Request cancelled", nil)
}

func (rc *RelationshipController) Unfollow(c *gin.Context) {
	userID := c.GetString("user_id")
	targetID := c.Param("id")

	if err := rc.relationships.Unfollow(userID, targetID); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Unfollowed", nil)
}

func (rc *RelationshipController) Unfriend(c *gin.Context) {
	userID := c.GetString("user_id")
	targetID := c.Param("id")

	if err := rc.relationships.Unfriend(userID, targetID); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Friend removed", nil)
}

func (rc *RelationshipController) Block(c *gin.Context) {
	userID := c.GetString("user_id")
	targetID := c.Param("id")

	if err := rc.blocks.Block(userID, targetID); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Account blocked", nil)
}

func (rc *RelationshipController) Unblock(c *gin.Context) {
	userID := c.GetString("user_id")
	targetID := c.Param("id")

	if err := rc.blocks.Unblock(userID, targetID); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Account unblocked", nil)
}

func (rc *RelationshipController) GetStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	targetID := c.Param("id")

	status, err := rc.relationships.Status(userID, targetID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (rc *RelationshipController) GetFollowers(c *gin.Context) {
	rc.listMembership(c, func(a *models.Account) models.IDSet { return a.FollowerIDs })
}

func (rc *RelationshipController) GetFollowing(c *gin.Context) {
	rc.listMembership(c, func(a *models.Account) models.IDSet { return a.FollowingIDs })
}

func (rc *RelationshipController) GetFriends(c *gin.Context) {
	rc.listMembership(c, func(a *models.Account) models.IDSet { return a.FriendIDs })
}

// listMembership serves a membership set as a paginated account list. Reads
// come from the denormalized cache, not from edge scans.
func (rc *RelationshipController) listMembership(c *gin.Context, pick func(*models.Account) models.IDSet) {
	userID := c.GetString("user_id")
	page, limit := pagination(c)

	var account models.Account
	if err := rc.db.First(&account, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	ids := pick(&account)
	total := int64(len(ids))

	start := (page - 1) * limit
	if start > len(ids) {
		start = len(ids)
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}
	pageIDs := ids[start:end]

	accounts := []models.Account{}
	if len(pageIDs) > 0 {
		if err := rc.db.Where("id IN ?", []string(pageIDs)).Find(&accounts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch accounts"})
			return
		}
		for i := range accounts {
			accounts[i].Password = ""
		}
	}

	utils.SendPaginated(c, accounts, page, limit, total)
}

func (rc *RelationshipController) GetPendingRequests(c *gin.Context) {
	userID := c.GetString("user_id")
	page, limit := pagination(c)
	offset := (page - 1) * limit

	var requests []models.RelationshipEdge
	if err := rc.db.Preload("Sender").
		Where("receiver_id = ? AND status = ?", userID, models.EdgeStatusPending).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending requests"})
		return
	}

	for i := range requests {
		requests[i].Sender.Password = ""
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (rc *RelationshipController) GetSentRequests(c *gin.Context) {
	userID := c.GetString("user_id")
	page, limit := pagination(c)
	offset := (page - 1) * limit

	var requests []models.RelationshipEdge
	if err := rc.db.Preload("Receiver").
		Where("sender_id = ? AND status = ?", userID, models.EdgeStatusPending).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sent requests"})
		return
	}

	for i := range requests {
		requests[i].Receiver.Password = ""
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return page, limit
}
