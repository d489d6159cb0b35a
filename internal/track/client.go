package track

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FallbackServerMessage is shown when a failed response carries no usable
// error field.
const FallbackServerMessage = "Unable to retrieve information."

// ServerError is a structured rejection from the tracking endpoint
// (non-2xx status). Error() is exactly the message the server supplied, so
// it can be surfaced to the user verbatim.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

type apiError struct {
	Error string `json:"error"`
}

// Client performs barcode lookups against a single tracking endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Track submits one lookup for the given barcode. Non-2xx responses come
// back as *ServerError; transport and decode failures come back wrapped
// with context.
func (c *Client) Track(ctx context.Context, barcode string) (*Result, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("barcode is required")
	}

	blob, err := json.Marshal(map[string]string{"barcode": barcode})
	if err != nil {
		return nil, fmt.Errorf("marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/track", bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && strings.TrimSpace(apiErr.Error) != "" {
			return nil, &ServerError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(apiErr.Error)}
		}
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: FallbackServerMessage}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return Decode(payload), nil
}
