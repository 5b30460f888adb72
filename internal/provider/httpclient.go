package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBodyBytes bounds how much of an error response is read when
// building an error message.
const maxErrorBodyBytes = 2048

// HTTPClient is a small JSON-over-HTTPS helper shared by the provider
// adapters. It owns the base URL, default headers (API version pins and
// the like) and the bounded per-call timeout every remote call carries.
type HTTPClient struct {
	baseURL string
	headers map[string]string
	client  *http.Client
}

// NewHTTPClient creates a client for one provider API. The timeout
// applies to every call made through the client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: make(map[string]string),
		client:  &http.Client{Timeout: timeout},
	}
}

// SetHeader adds a default header sent with every request (e.g. the
// Notion-Version pin).
func (c *HTTPClient) SetHeader(name, value string) {
	c.headers[name] = value
}

// DoJSON performs one authenticated JSON request. A non-nil body is
// JSON-encoded; a non-nil out receives the decoded response body.
// Non-2xx responses are translated into an error carrying the remote
// error message, so callers never parse provider error shapes.
func (c *HTTPClient) DoJSON(ctx context.Context, method, path string, accessToken string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s", remoteErrorMessage(resp))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

// remoteErrorMessage extracts a human-readable message from an error
// response. Google and Microsoft nest it under error.message, Notion
// uses a top-level message; anything else falls back to the status.
func remoteErrorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &nested); err == nil {
		if nested.Error.Message != "" {
			return nested.Error.Message
		}
		if nested.Message != "" {
			return nested.Message
		}
	}
	return fmt.Sprintf("remote call failed with status %d", resp.StatusCode)
}
