package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/levoseto/zodiac-app/internal/services"
	"github.com/levoseto/zodiac-app/internal/storage"
	"github.com/levoseto/zodiac-app/internal/store"
	apperrors "github.com/levoseto/zodiac-app/pkg/errors"
	"github.com/levoseto/zodiac-app/pkg/logger"
)

// fail writes the standard failure envelope.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": msg,
	})
}

// failApp records an AppError for the boundary middleware to render as the
// failure envelope.
func failApp(c *gin.Context, err *apperrors.AppError) {
	c.Error(err)
	c.Abort()
}

// failFromError maps service and store errors onto an AppError. Anything
// unrecognized is logged and reported as a generic server error so no
// internal detail leaks.
func failFromError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, services.ErrInvalidVersion):
		appErr = apperrors.BadRequest("Invalid version. Use semver format (e.g. 1.0.0)")
	case errors.Is(err, services.ErrInvalidMetadata):
		appErr = apperrors.BadRequest("Invalid release metadata")
	case errors.Is(err, services.ErrUnsupportedMedia):
		appErr = apperrors.UnsupportedMedia("Only APK files are allowed")
	case errors.Is(err, services.ErrPayloadTooLarge):
		appErr = apperrors.PayloadTooLarge("File exceeds the upload size limit")
	case errors.Is(err, services.ErrBlobMissing):
		appErr = apperrors.BadRequest("Uploaded file not found in storage")
	case errors.Is(err, store.ErrDuplicateVersion):
		appErr = apperrors.Conflict("Version already exists")
	case errors.Is(err, store.ErrNotFound):
		appErr = apperrors.NotFound("Version not found")
	case errors.Is(err, storage.ErrPresignUnsupported):
		appErr = apperrors.BadRequest("Direct uploads are not supported by the configured storage backend; use the traditional upload")
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		appErr = apperrors.Internal("Server error")
	}
	failApp(c, appErr)
}
