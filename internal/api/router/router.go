package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/platformlab/jobcore/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "jobcore-api",
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.CreateJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/stats", jobHandler.GetJobStats)
			jobs.GET("/:job_id", jobHandler.GetJob)
			jobs.POST("/:job_id/retry", jobHandler.RetryJob)
		}

		deadLetters := v1.Group("/dead-letters")
		{
			deadLetters.GET("", jobHandler.ListDeadLetters)
			deadLetters.GET("/stats", jobHandler.GetDeadLetterStats)
			deadLetters.POST("/:id/resolve", jobHandler.ResolveDeadLetter)
			deadLetters.POST("/:id/retry", jobHandler.RetryDeadLetter)
		}

		v1.GET("/workers", jobHandler.ListWorkers)
	}

	return r
}
