package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/cvasquez/chesslink/internal/session"
)

// Client talks to the identity endpoints of the game backend.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account. Success does not log the user in; the caller
// must follow up with an explicit Login.
func (c *Client) Register(ctx context.Context, username, password string) error {
	req := credentialsRequest{Username: username, Password: password}
	status, body, err := c.doJSON(ctx, "/register", req)
	if err != nil {
		return &AuthError{Kind: KindNetwork, Message: err.Error()}
	}
	if status >= 200 && status < 300 {
		return nil
	}
	kind := KindInvalid
	if status == fasthttp.StatusConflict {
		kind = KindConflict
	}
	return &AuthError{Kind: kind, Message: serverMessage(body, "registration rejected"), Status: status}
}

// Login exchanges credentials for a session credential. The returned
// credential is the caller's to persist.
func (c *Client) Login(ctx context.Context, username, password string) (*session.Credential, error) {
	req := credentialsRequest{Username: username, Password: password}
	status, body, err := c.doJSON(ctx, "/login", req)
	if err != nil {
		return nil, &AuthError{Kind: KindNetwork, Message: err.Error()}
	}
	if status < 200 || status >= 300 {
		return nil, &AuthError{Kind: KindInvalidCredentials, Message: serverMessage(body, "login rejected"), Status: status}
	}
	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &AuthError{Kind: KindNetwork, Message: fmt.Sprintf("decode response: %v", err)}
	}
	if strings.TrimSpace(resp.Token) == "" {
		return nil, &AuthError{Kind: KindInvalidCredentials, Message: "server returned no token"}
	}
	return &session.Credential{Token: resp.Token, Username: resp.Username}, nil
}

// doJSON posts the payload and returns (status, body, transport error). Only
// transport failures and retryable statuses are retried with backoff; the
// final status is always reported to the caller for classification.
func (c *Client) doJSON(ctx context.Context, path string, in any) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	payload, err := json.Marshal(in)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}
	req.SetBody(payload)

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return 0, nil, lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return 0, nil, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		body := append([]byte(nil), resp.Body()...)
		if shouldRetryStatus(status) && attempt < attempts {
			lastErr = fmt.Errorf("auth api error: status=%d body=%s", status, truncate(string(body), 512))
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return 0, nil, lastErr
			}
			continue
		}
		return status, body, nil
	}
	return 0, nil, lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func serverMessage(body []byte, fallback string) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && strings.TrimSpace(er.Message) != "" {
		return er.Message
	}
	return fallback
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
