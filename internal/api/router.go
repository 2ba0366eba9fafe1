package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lichen18/navi-profile-go/internal/handler"
	"github.com/lichen18/navi-profile-go/internal/middleware"
)

// SetupRouter wires the HTTP routes.
func SetupRouter(profileHandler *handler.ProfileHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(60, time.Minute)))

	// CORS for the dashboard frontend
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Navi Profile API is running",
		})
	})

	api := r.Group("/api/v1")
	{
		profiles := api.Group("/profiles")
		{
			profiles.POST("", profileHandler.Upload)
			profiles.GET("", profileHandler.List)
			profiles.GET("/:id/trips", profileHandler.GetTrips)
			profiles.GET("/:id/features", profileHandler.GetFeatures)
			profiles.GET("/:id/graph", profileHandler.GetGraph)
			profiles.GET("/:id/prediction", profileHandler.GetPrediction)
			profiles.GET("/:id/persona", profileHandler.GetPersona)
			profiles.GET("/:id/timeline", profileHandler.GetTimeline)
		}
	}

	return r
}
