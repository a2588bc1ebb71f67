package routes

import (
	"circleup-api/config"
	"circleup-api/controllers"
	"circleup-api/middleware"
	"circleup-api/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, relationships *services.RelationshipService, blocks *services.BlockEnforcer, projector *services.GraphProjector) {
	authController := controllers.NewAuthController(db, cfg.JWTSecret)
	accountController := controllers.NewAccountController(db, relationships, projector, cfg.BulkAcceptBatchSize)
	relationshipController := controllers.NewRelationshipController(db, relationships, blocks)
	notificationController := controllers.NewNotificationController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		accounts := protected.Group("/accounts")
		{
			accounts.GET("/profile", accountController.GetProfile)
			accounts.PUT("/profile", accountController.UpdateProfile)
			accounts.PUT("/privacy", accountController.UpdatePrivacy)
			accounts.POST("/reconcile", accountController.Reconcile)
			accounts.GET("/statistics", accountController.GetStatistics)
		}

		relationships := protected.Group("/relationships")
		{
			relationships.POST("/follow/:id", relationshipController.SubmitFollow)
			relationships.DELETE("/follow/:id", relationshipController.Unfollow)
			relationships.DELETE("/follow/:id/request", relationshipController.CancelFollowRequest)
			relationships.POST("/friend/:id", relationshipController.SubmitFriend)
			relationships.DELETE("/friend/:id", relationshipController.Unfriend)
			relationships.DELETE("/friend/:id/request", relationshipController.CancelFriendRequest)

			relationships.POST("/requests/:request_id/accept", relationshipController.AcceptRequest)
			relationships.POST("/requests/:request_id/reject", relationshipController.RejectRequest)
			relationships.GET("/requests/pending", relationshipController.GetPendingRequests)
			relationships.GET("/requests/sent", relationshipController.GetSentRequests)

			relationships.POST("/block/:id", relationshipController.Block)
			relationships.DELETE("/block/:id", relationshipController.Unblock)

			relationships.GET("/status/:id", relationshipController.GetStatus)
			relationships.GET("/followers", relationshipController.GetFollowers)
			relationships.GET("/following", relationshipController.GetFollowing)
			relationships.GET("/friends", relationshipController.GetFriends)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("/", notificationController.GetNotifications)
			notifications.GET("/stats", notificationController.GetNotificationStats)
			notifications.PUT("/:id/read", notificationController.MarkAsRead)
			notifications.PUT("/read-all", notificationController.MarkAllAsRead)
		}
	}
}
