// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/kubelens/kubelens/pkg/async"
	"github.com/kubelens/kubelens/pkg/httputil"
)

const (
	clientName    = "kubelens-extensions"
	clientVersion = "1.0.0"

	// uploadFieldName is the multipart form field the server expects the
	// archive under.
	uploadFieldName = "extension"
)

// ManagementError is a failure reported by the management API. Message
// carries the server's error text verbatim so the user sees exactly what the
// server said.
type ManagementError struct {
	StatusCode int
	Message    string
}

func (e *ManagementError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("management API returned %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return e.Message
}

// newManagementError drains the response body and builds a ManagementError
// from the `{"error": ...}` payload the server responds with on failures.
func newManagementError(response *http.Response) error {
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		log.Printf("failed reading error response body: %v", err)
	}

	return &ManagementError{
		StatusCode: response.StatusCode,
		Message:    httputil.ErrorBody(body),
	}
}

// ServerInfo is the management server's version descriptor.
type ServerInfo struct {
	Version string `json:"version"`
}

// UploadResult is the server's response to a successful archive upload.
type UploadResult struct {
	// Message is the optional human readable confirmation returned by the
	// server.
	Message string
}

// ManagementClient talks to the dashboard server's extension management API.
type ManagementClient struct {
	endpoint string
	pipeline runtime.Pipeline
}

// NewManagementClient creates a client for the management API rooted at
// endpoint. The transport is injectable for testing.
func NewManagementClient(endpoint string, transport policy.Transporter) *ManagementClient {
	pipeline := runtime.NewPipeline(clientName, clientVersion, runtime.PipelineOptions{}, &policy.ClientOptions{
		Transport: transport,
		// Lifecycle calls are user actions and must not be replayed by the
		// transport layer.
		Retry: policy.RetryOptions{
			MaxRetries: -1,
		},
	})

	return &ManagementClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		pipeline: pipeline,
	}
}

// ListExtensions fetches every installed extension.
func (c *ManagementClient) ListExtensions(ctx context.Context) ([]*Extension, error) {
	req, err := c.createRequest(ctx, http.MethodGet, "extensions")
	if err != nil {
		return nil, err
	}

	res, err := c.pipeline.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing extensions: %w", err)
	}

	if !runtime.HasStatusCode(res, http.StatusOK) {
		return nil, newManagementError(res)
	}

	list, err := httputil.ReadRawResponse[[]*Extension](res)
	if err != nil {
		return nil, err
	}

	return *list, nil
}

// GetExtension fetches a single extension by name.
func (c *ManagementClient) GetExtension(ctx context.Context, name string) (*Extension, error) {
	req, err := c.createRequest(ctx, http.MethodGet, fmt.Sprintf("extensions/%s", name))
	if err != nil {
		return nil, err
	}

	res, err := c.pipeline.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getting extension '%s': %w", name, err)
	}

	if res.StatusCode == http.StatusNotFound {
		drainResponse(res)
		return nil, fmt.Errorf("'%s' %w", name, ErrExtensionNotFound)
	}

	if !runtime.HasStatusCode(res, http.StatusOK) {
		return nil, newManagementError(res)
	}

	return httputil.ReadRawResponse[Extension](res)
}

// UpdateConfig replaces the extension's configuration map. The save is
// all-or-nothing: on failure the server keeps its previous configuration.
func (c *ManagementClient) UpdateConfig(ctx context.Context, name string, cfg map[string]string) error {
	req, err := c.createRequest(ctx, http.MethodPut, fmt.Sprintf("extensions/%s/config", name))
	if err != nil {
		return err
	}

	if cfg == nil {
		cfg = map[string]string{}
	}

	payload := struct {
		Config map[string]string `json:"config"`
	}{Config: cfg}

	if err := runtime.MarshalAsJSON(req, payload); err != nil {
		return fmt.Errorf("marshalling config payload: %w", err)
	}

	res, err := c.pipeline.Do(req)
	if err != nil {
		return fmt.Errorf("updating config for '%s': %w", name, err)
	}

	if !runtime.HasStatusCode(res, http.StatusOK, http.StatusNoContent) {
		return newManagementError(res)
	}

	drainResponse(res)
	return nil
}

// EnableExtension requests the extension be started. Enabling an already
// enabled extension is a no-op on the server.
func (c *ManagementClient) EnableExtension(ctx context.Context, name string) error {
	return c.postLifecycle(ctx, name, "enable")
}

// DisableExtension requests the extension be stopped. Disabling an already
// disabled extension is a no-op on the server.
func (c *ManagementClient) DisableExtension(ctx context.Context, name string) error {
	return c.postLifecycle(ctx, name, "disable")
}

func (c *ManagementClient) postLifecycle(ctx context.Context, name string, action string) error {
	req, err := c.createRequest(ctx, http.MethodPost, fmt.Sprintf("extensions/%s/%s", name, action))
	if err != nil {
		return err
	}

	res, err := c.pipeline.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s of '%s': %w", action, name, err)
	}

	if !runtime.HasStatusCode(res, http.StatusOK, http.StatusAccepted, http.StatusNoContent) {
		return newManagementError(res)
	}

	drainResponse(res)
	return nil
}

// DeleteExtension removes the extension from the server. Confirmation is the
// caller's responsibility, this call is destructive and immediate.
func (c *ManagementClient) DeleteExtension(ctx context.Context, name string) error {
	req, err := c.createRequest(ctx, http.MethodDelete, fmt.Sprintf("extensions/%s", name))
	if err != nil {
		return err
	}

	res, err := c.pipeline.Do(req)
	if err != nil {
		return fmt.Errorf("deleting extension '%s': %w", name, err)
	}

	if !runtime.HasStatusCode(res, http.StatusOK, http.StatusAccepted, http.StatusNoContent) {
		return newManagementError(res)
	}

	drainResponse(res)
	return nil
}

// ServerVersion fetches the dashboard server's version descriptor.
func (c *ManagementClient) ServerVersion(ctx context.Context) (*ServerInfo, error) {
	req, err := c.createRequest(ctx, http.MethodGet, "version")
	if err != nil {
		return nil, err
	}

	res, err := c.pipeline.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getting server version: %w", err)
	}

	if !runtime.HasStatusCode(res, http.StatusOK) {
		return nil, newManagementError(res)
	}

	return httputil.ReadRawResponse[ServerInfo](res)
}

// UploadExtension uploads an extension archive as multipart form data,
// reporting percent progress while the body is transmitted.
func (c *ManagementClient) UploadExtension(
	ctx context.Context,
	archivePath string,
	progress *async.Progress[int],
) (*UploadResult, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening extension archive: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(uploadFieldName, filepath.Base(archivePath))
	if err != nil {
		return nil, fmt.Errorf("creating multipart payload: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("reading extension archive: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart payload: %w", err)
	}

	req, err := c.createRequest(ctx, http.MethodPost, "extensions/upload")
	if err != nil {
		return nil, err
	}

	payload := newProgressReader(bytes.NewReader(body.Bytes()), int64(body.Len()), progress)
	if err := req.SetBody(payload, writer.FormDataContentType()); err != nil {
		return nil, fmt.Errorf("attaching upload payload: %w", err)
	}

	res, err := c.pipeline.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading extension archive: %w", err)
	}

	if !runtime.HasStatusCode(res, http.StatusOK, http.StatusCreated, http.StatusAccepted) {
		return nil, newManagementError(res)
	}

	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upload response: %w", err)
	}

	return &UploadResult{Message: httputil.MessageBody(resBody)}, nil
}

func (c *ManagementClient) createRequest(ctx context.Context, httpMethod string, path string) (*policy.Request, error) {
	req, err := runtime.NewRequest(ctx, httpMethod, fmt.Sprintf("%s/%s", c.endpoint, path))
	if err != nil {
		return nil, fmt.Errorf("failed creating request: %w", err)
	}

	return req, nil
}

func drainResponse(res *http.Response) {
	if res.Body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}

// progressReader reports percent progress as the pipeline reads the request
// body. Rewinds reset the counter so a reissued body reports from zero.
type progressReader struct {
	inner       io.ReadSeeker
	total       int64
	read        int64
	lastPercent int
	progress    *async.Progress[int]
}

func newProgressReader(inner io.ReadSeeker, total int64, progress *async.Progress[int]) io.ReadSeekCloser {
	if progress == nil {
		return streaming.NopCloser(inner)
	}

	return &progressReader{
		inner:       inner,
		total:       total,
		lastPercent: -1,
		progress:    progress,
	}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	r.read += int64(n)

	if r.total > 0 {
		percent := int(r.read * 100 / r.total)
		if percent > 100 {
			percent = 100
		}

		if percent != r.lastPercent {
			r.lastPercent = percent
			r.progress.SetProgress(percent)
		}
	}

	return n, err
}

func (r *progressReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := r.inner.Seek(offset, whence)
	if err == nil && pos == 0 && whence == io.SeekStart {
		r.read = 0
		r.lastPercent = -1
	}

	return pos, err
}

func (r *progressReader) Close() error {
	return nil
}
