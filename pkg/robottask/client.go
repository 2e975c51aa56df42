// Package robottask is a client for the robot-task market-data API: one GET
// per chain returning a JSON array of market records.
package robottask

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoint returns the snapshot URL for a chain served by baseURL.
func Endpoint(baseURL, robotID string) string {
	return strings.TrimRight(baseURL, "/") + "/api/robot-task?robotId=" + url.QueryEscape(robotID)
}

// Client fetches market snapshots from the robot-task API.
type Client struct {
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout bounds every request. Zero, the default, means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new robot-task API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch issues a GET against endpoint and classifies the outcome. A non-nil
// error is always a *FetchError; on success the slice is non-empty.
func (c *Client) Fetch(ctx context.Context, source, endpoint string) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Outcome: TransportError, Source: source, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Outcome: TransportError, Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Outcome: NetworkError, Source: source, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Outcome: TransportError, Source: source, Err: fmt.Errorf("read body: %w", err)}
	}

	return decodeRecords(source, body)
}

// decodeRecords accepts only a non-empty JSON array whose elements are all
// objects. Anything else is empty or malformed data.
func decodeRecords(source string, body []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if len(trimmed) > 0 && !json.Valid(trimmed) {
			return nil, &FetchError{Outcome: EmptyDataError, Source: source, Err: errors.New("invalid json")}
		}
		return nil, &FetchError{Outcome: EmptyDataError, Source: source}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, &FetchError{Outcome: EmptyDataError, Source: source, Err: fmt.Errorf("decode json: %w", err)}
	}
	if len(elems) == 0 {
		return nil, &FetchError{Outcome: EmptyDataError, Source: source}
	}

	records := make([]Record, len(elems))
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			return nil, &FetchError{Outcome: EmptyDataError, Source: source,
				Err: fmt.Errorf("element %d is not an object", i)}
		}
		if err := json.Unmarshal(elem, &records[i]); err != nil {
			return nil, &FetchError{Outcome: EmptyDataError, Source: source,
				Err: fmt.Errorf("decode element %d: %w", i, err)}
		}
	}
	return records, nil
}
