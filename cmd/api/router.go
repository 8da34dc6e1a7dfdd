package api

import (
	"net/http"

	accountdelivery "jobtrail-backend/internal/account/delivery"
	accountusecase "jobtrail-backend/internal/account/usecase"
	jobdelivery "jobtrail-backend/internal/job/delivery"
	pipelinedelivery "jobtrail-backend/internal/pipeline/delivery"
	reviewdelivery "jobtrail-backend/internal/review/delivery"
	"jobtrail-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	authUsecase accountusecase.AuthUsecase,
	authHandler *accountdelivery.AuthHandler,
	syncHandler *pipelinedelivery.SyncHandler,
	jobHandler *jobdelivery.JobHandler,
	reviewHandler *reviewdelivery.ReviewHandler,
	sseManager *sse.Manager,
) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint; streams sync progress and job events per account
		api.GET("/events", accountdelivery.AuthMiddleware(authUsecase), func(c *gin.Context) {
			sseManager.ServeHTTP(c, c.Query("account_id"))
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/google", authHandler.GoogleSignIn)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", accountdelivery.AuthMiddleware(authUsecase), authHandler.Me)
		}

		// Connected mailbox routes (protected)
		accounts := api.Group("/accounts")
		accounts.Use(accountdelivery.AuthMiddleware(authUsecase))
		{
			accounts.GET("", authHandler.ListAccounts)
			accounts.POST("/gmail", authHandler.ConnectGmail)
			accounts.POST("/imap", authHandler.ConnectIMAP)
			accounts.DELETE("/:id", authHandler.DisconnectAccount)
		}

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(accountdelivery.AuthMiddleware(authUsecase))
		{
			fcm.POST("/register", authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", authHandler.UnregisterFCMToken)
		}

		// Sync pipeline routes (protected)
		sync := api.Group("/sync")
		sync.Use(accountdelivery.AuthMiddleware(authUsecase))
		{
			sync.POST("", syncHandler.StartSync)
			sync.POST("/cancel", syncHandler.CancelSync)
			sync.GET("/status", syncHandler.SyncStatus)
			sync.GET("/runs", syncHandler.ListRuns)
			sync.POST("/reset-stage", syncHandler.ResetStage)
			sync.GET("/needs-attention", syncHandler.ListNeedsAttention)
		}

		// Job record routes (protected)
		jobs := api.Group("/jobs")
		jobs.Use(accountdelivery.AuthMiddleware(authUsecase))
		{
			jobs.GET("", jobHandler.List)
			jobs.GET("/:id", jobHandler.Get)
			jobs.DELETE("/:id", jobHandler.Delete)
		}

		// Search routes (protected)
		search := api.Group("/search")
		search.Use(accountdelivery.AuthMiddleware(authUsecase))
		{
			search.POST("/semantic", jobHandler.SemanticSearch)
		}

		// Review queue routes (protected)
		review := api.Group("/review")
		review.Use(accountdelivery.AuthMiddleware(authUsecase))
		{
			review.GET("", reviewHandler.List)
			review.GET("/count", reviewHandler.Count)
			review.POST("/:id/confirm", reviewHandler.Confirm)
			review.POST("/:id/reject", reviewHandler.Reject)
		}

		// Settings routes (public) - Runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/ollama", GetOllamaSettings)
			settings.PUT("/ollama", UpdateOllamaSettings)
			settings.POST("/ollama/test", TestOllamaConnection)
		}
	}
}
