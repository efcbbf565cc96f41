package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/levoseto/zodiac-app/internal/services"
)

// DownloadAPK resolves a version to its artifact: a redirect when the
// backend exposes public URLs, a byte stream otherwise. Missing rows and
// missing blobs both answer 404.
func DownloadAPK(c *gin.Context) {
	res, err := services.ResolveDownload(c.Request.Context(), c.Param("version"))
	if err != nil {
		failFromError(c, err)
		return
	}

	if res.RedirectURL != "" {
		c.Redirect(http.StatusFound, res.RedirectURL)
		return
	}

	defer res.Body.Close()
	c.DataFromReader(http.StatusOK, res.FileSize, services.APKContentType, res.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", res.FileName),
	})
}
