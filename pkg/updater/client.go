// Package updater is the Go client for the update API. It mirrors what the
// mobile app and the admin panel do against the HTTP surface: update
// checks, downloads with percent progress, and both upload paths with the
// size-based path selection done client-side.
package updater

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/levoseto/zodiac-app/pkg/progress"
)

const apkContentType = "application/vnd.android.package-archive"

// DefaultDirectUploadThreshold is the payload size above which Upload
// prefers the presigned path. Either path works for any size; this is a
// reliability trade-off, not a correctness rule.
const DefaultDirectUploadThreshold = int64(50 * 1024 * 1024)

// Client talks to one updater API deployment.
type Client struct {
	baseURL   string
	http      *http.Client
	threshold int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithDirectUploadThreshold overrides the path-selection threshold.
func WithDirectUploadThreshold(bytes int64) Option {
	return func(c *Client) { c.threshold = bytes }
}

// New builds a client for the API at baseURL (e.g. "https://updates.example.com").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Minute},
		threshold: DefaultDirectUploadThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VersionInfo mirrors the API's release summary payload.
type VersionInfo struct {
	Version           string    `json:"version"`
	ReleaseNotes      string    `json:"releaseNotes"`
	FileSize          int64     `json:"fileSize"`
	FileSizeMB        string    `json:"fileSizeMB"`
	UploadDate        time.Time `json:"uploadDate"`
	MinAndroidVersion string    `json:"minAndroidVersion"`
	TargetSdkVersion  int       `json:"targetSdkVersion"`
	DownloadCount     int64     `json:"downloadCount"`
	DownloadURL       string    `json:"downloadUrl"`
}

// Comparison mirrors the update-check payload.
type Comparison struct {
	Success        bool    `json:"success"`
	HasUpdate      bool    `json:"hasUpdate"`
	CurrentVersion string  `json:"currentVersion"`
	LatestVersion  string  `json:"latestVersion"`
	ReleaseNotes   *string `json:"releaseNotes"`
	DownloadURL    *string `json:"downloadUrl"`
	FileSize       *int64  `json:"fileSize"`
	Message        string  `json:"message"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CheckForUpdates asks whether a release newer than currentVersion exists.
func (c *Client) CheckForUpdates(ctx context.Context, currentVersion string) (*Comparison, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/version/compare/"+currentVersion, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var cmp Comparison
	if err := json.NewDecoder(resp.Body).Decode(&cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// Latest fetches the newest active release.
func (c *Client) Latest(ctx context.Context) (*VersionInfo, error) {
	env, err := c.getJSON(ctx, "/api/version/latest")
	if err != nil {
		return nil, err
	}
	var info VersionInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Download fetches the APK for version into destDir, reporting percent
// progress and honoring ctx cancellation between chunks. It returns the
// local file path. A cancelled download leaves no file behind.
func (c *Client) Download(ctx context.Context, version, destDir string, sink progress.Sink) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/download/"+version, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(destDir, fmt.Sprintf("zodiac-app-v%s.apk", version))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	_, copyErr := progress.Copy(ctx, f, resp.Body, resp.ContentLength, sink)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(path)
		if copyErr != nil {
			return "", copyErr
		}
		return "", closeErr
	}
	return path, nil
}

// UploadRequest describes an APK to publish.
type UploadRequest struct {
	Version           string
	ReleaseNotes      string
	MinAndroidVersion string
	TargetSdkVersion  int
	FileName          string
	Size              int64
	Body              io.Reader
}

// Upload publishes a release, choosing the upload path by payload size:
// above the threshold it runs the three-step presigned protocol, otherwise
// a single multipart request. Progress is reported either way.
func (c *Client) Upload(ctx context.Context, req UploadRequest, sink progress.Sink) (*VersionInfo, error) {
	if req.Size > c.threshold {
		return c.uploadPresigned(ctx, req, sink)
	}
	return c.uploadMultipart(ctx, req, sink)
}

func (c *Client) uploadPresigned(ctx context.Context, req UploadRequest, sink progress.Sink) (*VersionInfo, error) {
	// Step 1: obtain the slot
	slotEnv, err := c.postJSON(ctx, "/api/upload/presigned", map[string]any{
		"version":  req.Version,
		"fileSize": req.Size,
		"fileName": req.FileName,
	}, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var slot struct {
		PresignedURL string `json:"presignedUrl"`
		S3Key        string `json:"s3Key"`
		S3Bucket     string `json:"s3Bucket"`
		ContentType  string `json:"contentType"`
	}
	if err := json.Unmarshal(slotEnv.Data, &slot); err != nil {
		return nil, err
	}

	// Step 2: direct PUT to the blob store. Interrupted transfers are
	// retried by re-running the whole protocol, not resumed.
	put, err := http.NewRequestWithContext(ctx, http.MethodPut, slot.PresignedURL,
		progress.NewTracker(ctx, req.Body, req.Size, sink))
	if err != nil {
		return nil, err
	}
	put.ContentLength = req.Size
	contentType := slot.ContentType
	if contentType == "" {
		contentType = apkContentType
	}
	put.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(put)
	if err != nil {
		return nil, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("direct upload failed: status %d", resp.StatusCode)
	}

	// Step 3: confirm; this is when the release becomes visible
	confirmEnv, err := c.postJSON(ctx, "/api/upload/confirm", map[string]any{
		"version":           req.Version,
		"s3Key":             slot.S3Key,
		"s3Bucket":          slot.S3Bucket,
		"fileSize":          req.Size,
		"fileName":          req.FileName,
		"releaseNotes":      req.ReleaseNotes,
		"minAndroidVersion": req.MinAndroidVersion,
		"targetSdkVersion":  req.TargetSdkVersion,
	}, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	var info VersionInfo
	if err := json.Unmarshal(confirmEnv.Data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) uploadMultipart(ctx context.Context, req UploadRequest, sink progress.Sink) (*VersionInfo, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(ctx, writer, req, sink)
		writer.Close()
		pw.CloseWithError(err)
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	var info VersionInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func writeMultipart(ctx context.Context, w *multipart.Writer, req UploadRequest, sink progress.Sink) error {
	fields := map[string]string{
		"version":           req.Version,
		"releaseNotes":      req.ReleaseNotes,
		"minAndroidVersion": req.MinAndroidVersion,
	}
	if req.TargetSdkVersion != 0 {
		fields["targetSdkVersion"] = fmt.Sprintf("%d", req.TargetSdkVersion)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}

	part, err := w.CreateFormFile("apk", req.FileName)
	if err != nil {
		return err
	}
	_, err = progress.Copy(ctx, part, req.Body, req.Size, sink)
	return err
}

func (c *Client) getJSON(ctx context.Context, path string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, wantStatus int) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return nil, apiError(resp)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

// apiError extracts the failure envelope's message when present.
func apiError(resp *http.Response) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Message != "" {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, env.Message)
	}
	return fmt.Errorf("api error: status %d", resp.StatusCode)
}
