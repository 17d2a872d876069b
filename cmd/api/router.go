package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blacx/annotator/internal/middleware"
)

func setupRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(api.log))
	router.Use(middleware.RateLimit(api.cache, api.log, 60, time.Minute))

	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/annotations", api.annotate)
		v1.POST("/jobs", api.enqueueJob)
		v1.GET("/jobs/:id", api.getJob)
		v1.GET("/records/:id", api.getRecord)
		v1.GET("/formats", api.listFormats)

		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:id", api.getSession)
			sessions.DELETE("/:id", api.deleteSession)
			sessions.GET("/:id/stats", api.sessionStats)
			sessions.POST("/:id/context", api.createContext)
			sessions.POST("/:id/query", api.askQuery)
			sessions.GET("/:id/export", api.exportRecord)
		}
	}

	return router
}
