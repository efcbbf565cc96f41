package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/levoseto/zodiac-app/internal/config"
	"github.com/levoseto/zodiac-app/internal/services"
)

// uploadTimeout bounds a single upload request. Generous because large
// APKs over slow links legitimately take minutes.
const uploadTimeout = 10 * time.Minute

// multipartOverhead is the allowance on top of the file size limit for
// boundaries and the metadata form fields.
const multipartOverhead = 1 << 20

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

type presignedRequest struct {
	Version  string `json:"version" binding:"required"`
	FileSize int64  `json:"fileSize" binding:"required"`
	FileName string `json:"fileName" binding:"required"`
}

// GeneratePresignedUpload issues a direct-upload slot (step 1 of the
// presigned path). The release only becomes visible after ConfirmUpload.
func GeneratePresignedUpload(c *gin.Context) {
	var req presignedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "version, fileSize and fileName are required")
		return
	}

	slot, err := services.RequestUploadSlot(c.Request.Context(), req.Version, req.FileSize, req.FileName)
	if err != nil {
		failFromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"presignedUrl": slot.URL,
			"s3Key":        slot.Key,
			"s3Bucket":     slot.Bucket,
			"expiresIn":    slot.ExpiresIn,
			"contentType":  slot.ContentType,
		},
	})
}

type confirmRequest struct {
	Version           string `json:"version" binding:"required"`
	S3Key             string `json:"s3Key" binding:"required"`
	S3Bucket          string `json:"s3Bucket"`
	FileSize          int64  `json:"fileSize"`
	FileName          string `json:"fileName" binding:"required"`
	ReleaseNotes      string `json:"releaseNotes"`
	MinAndroidVersion string `json:"minAndroidVersion"`
	TargetSdkVersion  int    `json:"targetSdkVersion"`
}

// ConfirmUpload completes the presigned path (step 3): verifies the blob
// landed and publishes the release row.
func ConfirmUpload(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "version, s3Key and fileName are required")
		return
	}

	release, err := services.ConfirmUpload(c.Request.Context(), services.ConfirmUploadInput{
		Version:           req.Version,
		Key:               req.S3Key,
		Bucket:            req.S3Bucket,
		FileSize:          req.FileSize,
		FileName:          req.FileName,
		ReleaseNotes:      req.ReleaseNotes,
		MinAndroidVersion: req.MinAndroidVersion,
		TargetSdkVersion:  req.TargetSdkVersion,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Upload confirmed",
		"data":    release.Summarize(),
	})
}

// UploadAPK is the traditional server-mediated path: one multipart request
// carrying the APK plus its metadata. Used by the admin panel for payloads
// below the direct-upload threshold and as the fallback when presigned
// uploads are unavailable.
func UploadAPK(c *gin.Context) {
	// Cap the body before multipart parsing buffers it, so an oversized
	// request is cut off at the limit instead of read to completion.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body,
		config.AppConfig.MaxUploadBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("apk")
	if err != nil {
		if isBodyTooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
			return
		}
		fail(c, http.StatusBadRequest, "No APK file provided")
		return
	}
	defer file.Close()

	if header.Size > config.AppConfig.MaxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
		return
	}

	targetSdk := 0
	if raw := c.PostForm("targetSdkVersion"); raw != "" {
		targetSdk, err = strconv.Atoi(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "targetSdkVersion must be an integer")
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadTimeout)
	defer cancel()

	release, err := services.DirectUpload(ctx, services.DirectUploadInput{
		Version:           c.PostForm("version"),
		ReleaseNotes:      c.PostForm("releaseNotes"),
		MinAndroidVersion: c.PostForm("minAndroidVersion"),
		TargetSdkVersion:  targetSdk,
		FileName:          header.Filename,
		ContentType:       header.Header.Get("Content-Type"),
		Size:              header.Size,
	}, file)
	if err != nil {
		failFromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Version uploaded successfully",
		"data":    release.Summarize(),
	})
}
