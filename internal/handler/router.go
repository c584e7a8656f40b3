package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gocial/backend/internal/config"
	"gocial/backend/internal/handler/middleware"
	jwtpkg "gocial/backend/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	activityHandler *ActivityHandler,
	participationHandler *ParticipationHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	RegisterValidators()

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))

	activities := protected.Group("/activities")
	{
		activities.GET("", activityHandler.Feed)
		activities.POST("", activityHandler.Create)
		activities.GET("/hosting", activityHandler.ListHosted)
		activities.GET("/participating", activityHandler.ListParticipating)
		activities.GET("/liked", activityHandler.ListLiked)

		activities.GET("/:id", activityHandler.Get)
		activities.PUT("/:id", activityHandler.Update)
		activities.PATCH("/:id", activityHandler.Update)
		activities.DELETE("/:id", activityHandler.Cancel)

		activities.POST("/:id/like", activityHandler.Like)
		activities.DELETE("/:id/like", activityHandler.Unlike)
		activities.POST("/:id/share", activityHandler.Share)

		// Participation
		activities.POST("/:id/participate", participationHandler.Participate)
		activities.DELETE("/:id/participate", participationHandler.Leave)
		activities.GET("/:id/participants", participationHandler.ListParticipants)
		activities.PUT("/:id/participants/:user_id", participationHandler.Decide)
		activities.POST("/:id/participants/:user_id/rate", participationHandler.RateParticipant)
		activities.POST("/:id/rate-host", participationHandler.RateHost)
	}

	return r
}
