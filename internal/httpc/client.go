// Package httpc is a small client for the pointing service's HTTP API.
package httpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-pointer/internal/config"
	"github.com/teslashibe/go-pointer/pkg/protocol"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultKeepAlive      = 30 * time.Second
)

// NewHTTPClient creates an HTTP client with the given overall timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Client talks to one pointing service.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for the service at baseURL, e.g. http://localhost:8090.
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: NewHTTPClient(DefaultTimeout),
	}
}

// Session is the service's reply to a session creation.
type Session struct {
	ID   string            `json:"id"`
	Pose protocol.PoseData `json:"pose"`
}

// CreateSession creates a session; a nil profile uses the service default.
func (c *Client) CreateSession(ctx context.Context, p *config.Profile) (*Session, error) {
	var body []byte
	if p != nil {
		var err error
		if body, err = json.Marshal(p); err != nil {
			return nil, fmt.Errorf("failed to encode profile: %w", err)
		}
	}

	var out Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pose fetches a session's current pose.
func (c *Client) Pose(ctx context.Context, id string) (*protocol.PoseData, error) {
	var out protocol.PoseData
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+id, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+id, nil, http.StatusNoContent, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, want int, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var e protocol.ErrorData
		json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// StatusError is an unexpected HTTP status from the service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pointer service returned %d", e.Code)
	}
	return fmt.Sprintf("pointer service returned %d: %s", e.Code, e.Message)
}
