package streakcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/streakcard/internal/domain/streak"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// computeRemote posts one case to /streak/compute.
func computeRemote(ctx context.Context, client *HTTPClient, baseURL string, c Case) (streak.Result, error) {
	resp, err := client.Post(ctx, baseURL+"/streak/compute", struct {
		Records []Record `json:"records"`
		Now     string   `json:"now"`
	}{c.Records, c.Now})
	if err != nil {
		return streak.Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return streak.Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return streak.Result{}, fmt.Errorf("%w: status %d: %s", ErrRequest, resp.StatusCode, bytes.TrimSpace(body))
	}

	var res streak.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return streak.Result{}, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}
