package controllers

import (
	"net/http"
	"time"

	"circleup-api/models"
	"circleup-api/services"
	"circleup-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AccountController struct {
	db            *gorm.DB
	relationships *services.RelationshipService
	projector     *services.GraphProjector
	batchSize     int
}

func NewAccountController(db *gorm.DB, relationships *services.RelationshipService, projector *services.GraphProjector, batchSize int) *AccountController {
	return &AccountController{
		db:            db,
		relationships: relationships,
		projector:     projector,
		batchSize:     batchSize,
	}
}

func (ac *AccountController) GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var account models.Account
	if err := ac.db.First(&account, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	account.Password = ""
	c.JSON(http.StatusOK, account)
}

func (ac *AccountController) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := ac.db.Model(&models.Account{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// UpdatePrivacy toggles the private flag. Turning a private account public
// bulk-accepts its pending incoming follow requests and reports the batch
// outcome.
func (ac *AccountController) UpdatePrivacy(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		IsPrivate *bool `json:"is_private" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account models.Account
	if err := ac.db.First(&account, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	wasPrivate := account.IsPrivate
	if err := ac.db.Model(&models.Account{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"is_private": *req.IsPrivate,
		"updated_at": time.Now(),
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update privacy"})
		return
	}

	response := gin.H{"message": "Privacy updated successfully", "is_private": *req.IsPrivate}

	if wasPrivate && !*req.IsPrivate {
		result, err := ac.relationships.BulkAcceptPending(userID, ac.batchSize)
		if err != nil {
			utils.SendAppError(c, err)
			return
		}
		response["bulk_accept"] = result
	}

	c.JSON(http.StatusOK, response)
}

// Reconcile recomputes the caller's membership sets from the edge records
func (ac *AccountController) Reconcile(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := ac.projector.Reconcile(userID); err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Membership sets reconciled"})
}

func (ac *AccountController) GetStatistics(c *gin.Context) {
	userID := c.GetString("user_id")

	var account models.Account
	if err := ac.db.First(&account, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	c.JSON(http.StatusOK, account.Statistics())
}
