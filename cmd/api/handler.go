package api

import (
	accountdelivery "jobtrail-backend/internal/account/delivery"
	accountusecase "jobtrail-backend/internal/account/usecase"
	jobdelivery "jobtrail-backend/internal/job/delivery"
	pipelinedelivery "jobtrail-backend/internal/pipeline/delivery"
	reviewdelivery "jobtrail-backend/internal/review/delivery"
	"jobtrail-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

// Server assembles the HTTP layer
type Server struct {
	authUsecase   accountusecase.AuthUsecase
	authHandler   *accountdelivery.AuthHandler
	syncHandler   *pipelinedelivery.SyncHandler
	jobHandler    *jobdelivery.JobHandler
	reviewHandler *reviewdelivery.ReviewHandler
	sseManager    *sse.Manager
}

func NewServer(
	authUsecase accountusecase.AuthUsecase,
	authHandler *accountdelivery.AuthHandler,
	syncHandler *pipelinedelivery.SyncHandler,
	jobHandler *jobdelivery.JobHandler,
	reviewHandler *reviewdelivery.ReviewHandler,
	sseManager *sse.Manager,
) *Server {
	return &Server{
		authUsecase:   authUsecase,
		authHandler:   authHandler,
		syncHandler:   syncHandler,
		jobHandler:    jobHandler,
		reviewHandler: reviewHandler,
		sseManager:    sseManager,
	}
}

func (s *Server) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, s.authUsecase, s.authHandler, s.syncHandler, s.jobHandler, s.reviewHandler, s.sseManager)

	return r.Run(addr)
}
