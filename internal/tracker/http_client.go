package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// RequestError represents a non-2xx response from the tracking service.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("tracker request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *RequestError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPClient talks to the tracking service's REST API with bearer auth.
type HTTPClient struct {
	baseURL    string
	token      string
	project    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token, project string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		project: project,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) FindPublishedFiles(ctx context.Context, q PublishedFileQuery) ([]PublishedFile, error) {
	params := url.Values{}
	params.Set("project", c.project)
	params.Set("shot", q.Shot)
	params.Set("order", "version_number.desc")
	if q.Task != "" {
		params.Set("task", q.Task)
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}

	endpoint := fmt.Sprintf("%s/api/published_files?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var wrapper struct {
		PublishedFiles []PublishedFile `json:"published_files"`
	}
	if err := json.Unmarshal(respBody, &wrapper); err != nil {
		return nil, fmt.Errorf("unmarshal published files response: %w", err)
	}

	c.logger.Debug("published file query",
		"shot", q.Shot,
		"task", q.Task,
		"type", q.Type,
		"matches", len(wrapper.PublishedFiles),
	)

	return wrapper.PublishedFiles, nil
}

func (c *HTTPClient) GetShot(ctx context.Context, code string) (*Shot, error) {
	endpoint := fmt.Sprintf("%s/api/shots/%s?project=%s", c.baseURL, url.PathEscape(code), url.QueryEscape(c.project))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 65536))

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var shot Shot
	if err := json.Unmarshal(respBody, &shot); err != nil {
		return nil, fmt.Errorf("unmarshal shot response: %w", err)
	}

	return &shot, nil
}

func (c *HTTPClient) CreateVersion(ctx context.Context, v NewVersion) (*Version, error) {
	if v.Project == "" {
		v.Project = c.project
	}

	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal version payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/versions", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("creating tracker version",
		"shot", v.Shot,
		"code", v.Code,
		"frames", fmt.Sprintf("%d-%d", v.FirstFrame, v.LastFrame),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 65536))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var version Version
	if err := json.Unmarshal(respBody, &version); err != nil {
		return nil, fmt.Errorf("unmarshal version response: %w", err)
	}

	return &version, nil
}

func (c *HTTPClient) UploadMovie(ctx context.Context, versionID, moviePath string) error {
	file, err := os.Open(moviePath)
	if err != nil {
		return fmt.Errorf("open movie: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("movie", filepath.Base(moviePath))
	if err != nil {
		return fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read movie: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/versions/%s/movie", c.baseURL, url.PathEscape(versionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Info("uploading movie to tracker",
		"version_id", versionID,
		"movie", filepath.Base(moviePath),
		"body_bytes", buf.Len(),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}
