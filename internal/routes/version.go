package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/levoseto/zodiac-app/internal/handlers"
)

// RegisterVersionRoutes wires the read side of the API: latest lookup,
// update comparison, listing and downloads, plus the admin delete.
func RegisterVersionRoutes(r gin.IRouter) {
	r.GET("/version/latest", handlers.GetLatestVersion)
	r.GET("/version/compare/:currentVersion", handlers.CompareVersion)
	r.GET("/versions", handlers.ListVersions)
	r.GET("/download/:version", handlers.DownloadAPK)
	r.DELETE("/version/:version", handlers.DeleteVersion)
}
