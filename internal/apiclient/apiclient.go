package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	internal_errors "github.com/itchan-dev/postsweb/internal/errors"
	"github.com/itchan-dev/postsweb/internal/metrics"
)

// APIClient struct handles all communication with the posts API.
// Every call is a single attempt with caching disabled.
type APIClient struct {
	BaseURL    string
	HttpClient *http.Client
}

// New creates a new client for interacting with the posts API.
func New(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		BaseURL:    baseURL,
		HttpClient: &http.Client{Timeout: timeout},
	}
}

// do is the single, unified helper for making API requests.
func (c *APIClient) do(ctx context.Context, op, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	started := time.Now()
	resp, err := c.HttpClient.Do(req)
	if err != nil {
		metrics.ObserveAPI(op, 0, started)
		return nil, fmt.Errorf("posts API unavailable: %w", err)
	}
	metrics.ObserveAPI(op, resp.StatusCode, started)
	return resp, nil
}

func decode(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return &internal_errors.ErrorWithStatusCode{Message: "posts API returned invalid json", StatusCode: http.StatusBadGateway}
	}
	return nil
}

// readBody returns a short excerpt of an error response for logs.
func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}

func statusIn(code int, accepted ...int) bool {
	for _, a := range accepted {
		if code == a {
			return true
		}
	}
	return false
}
