package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const apiPrefix = "/api/v1"

// APIError is returned for non-2xx responses.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// HTTPClient makes REST calls to the SmartStocks backend.
type HTTPClient struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://localhost:8081"). The /api/v1 prefix is added per request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns the bearer token currently attached to requests.
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login sends POST /auth/login and stores the returned access token.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("login: empty access token")
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// JoinQueue sends POST /pvp/queue/join.
func (c *HTTPClient) JoinQueue(ctx context.Context) (*JoinQueueResponse, error) {
	var out JoinQueueResponse
	if err := c.post(ctx, "/pvp/queue/join", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeaveQueue sends POST /pvp/queue/leave.
func (c *HTTPClient) LeaveQueue(ctx context.Context) error {
	return c.post(ctx, "/pvp/queue/leave", nil, nil)
}

// SubmitDecision sends POST /pvp/submit. The round outcome arrives over the
// WebSocket, not in the response body.
func (c *HTTPClient) SubmitDecision(ctx context.Context, req SubmitDecisionRequest) error {
	return c.post(ctx, "/pvp/submit", req, nil)
}

// History fetches GET /pvp/history.
func (c *HTTPClient) History(ctx context.Context, limit int) (*HistoryResponse, error) {
	var out HistoryResponse
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/pvp/history?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *HTTPClient) do(req *http.Request, path string, out any) error {
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env apiResponse
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil {
			msg = env.Message
			if env.Error != "" {
				msg = env.Error
			}
		}
		return &APIError{Method: req.Method, Path: path, Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("%s %s: decode envelope: %w", req.Method, path, decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s %s: empty response data", req.Method, path)
	}
	return json.Unmarshal(env.Data, out)
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
