package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/levoseto/zodiac-app/internal/handlers"
)

// RegisterSystemRoutes wires health, storage status and usage stats.
func RegisterSystemRoutes(r gin.IRouter) {
	r.GET("/health", handlers.HealthCheck)
	r.GET("/storage/status", handlers.StorageStatus)
	r.GET("/stats", handlers.GetStats)
}
