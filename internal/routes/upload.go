package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/levoseto/zodiac-app/internal/handlers"
)

// RegisterUploadRoutes wires both upload paths: the three-step presigned
// protocol and the single-request multipart fallback.
func RegisterUploadRoutes(r gin.IRouter) {
	upload := r.Group("/upload")
	{
		upload.POST("", handlers.UploadAPK)
		upload.POST("/presigned", handlers.GeneratePresignedUpload)
		upload.POST("/confirm", handlers.ConfirmUpload)
	}
}
