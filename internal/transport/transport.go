package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/course-import/internal/transport/middleware"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	// StaticPath is served under /storage when images are published to local disk.
	StaticPath string
}

func InitRoutes(handler Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger(), middleware.Recovery(), middleware.Timeout(cfg.RequestTimeout))

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := router.Group("/api")
	handler.RegisterRoutes(api)

	if cfg.StaticPath != "" {
		router.Static("/storage", cfg.StaticPath)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "course-import",
		})
	})
	return router
}
