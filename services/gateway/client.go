package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/user"
)

const (
	DefaultTimeout = 10 * time.Second

	menusPath   = "/Menus/hierarchy"
	loginPath   = "/Auth/login"
	refreshPath = "/Auth/refresh"
)

var (
	// ErrUnauthorized means the session is gone: credentials were cleared and
	// the user has to log in again.
	ErrUnauthorized = errors.New("unauthorized")
	ErrTimeout      = errors.New("request timed out")
	ErrRefresh      = errors.New("token refresh failed")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Body)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every single attempt of a call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client talks to the backend API on behalf of a Session.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	session *Session
	logger  core.Logger
	metrics *Metrics
}

func NewClient(baseURL string, session *Session, logger core.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		session: session,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

// Menus fetches the caller's flat menu list, normalized and sorted.
// A body that is not a JSON array is logged and yields no menus.
func (c *Client) Menus(ctx context.Context) ([]*menu.Item, error) {
	body, err := c.do(ctx, http.MethodGet, menusPath, nil)
	if err != nil {
		return nil, err
	}

	records, skipped, err := menu.DecodeRecords(body)
	switch {
	case err == menu.ErrNotArray:
		c.logger.Error("menus response is not an array", map[string]interface{}{"body": string(bytes.TrimSpace(body))})
		return []*menu.Item{}, nil
	case err != nil:
		return nil, errors.Wrap(err, "decoding menus")
	}
	for _, rerr := range skipped {
		c.logger.Warn("menu record skipped", rerr, map[string]interface{}{"record": rerr.Raw})
	}
	items := menu.NormalizeRecords(records)
	menu.Sort(items)
	return items, nil
}

type authResponse struct {
	Data struct {
		Tokens
		User user.Profile `json:"user"`
	} `json:"data"`
}

// Login exchanges credentials for tokens and stores them with the profile.
func (c *Client) Login(ctx context.Context, username, password string) (user.Profile, error) {
	payload := map[string]string{"username": username, "password": password}
	status, body, err := c.send(ctx, http.MethodPost, loginPath, payload, "")
	if err != nil {
		c.count(loginPath, err)
		return user.Profile{}, err
	}
	if status < 200 || status > 299 {
		err = &APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
		c.count(loginPath, err)
		return user.Profile{}, err
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return user.Profile{}, errors.Wrap(err, "decoding login response")
	}
	if resp.Data.AccessToken == "" {
		return user.Profile{}, errors.New("login response has no access token")
	}
	c.session.SetTokens(resp.Data.Tokens)
	if err := c.session.SetUser(resp.Data.User); err != nil {
		return user.Profile{}, err
	}
	c.count(loginPath, nil)
	return resp.Data.User, nil
}

func (c *Client) Logout() {
	c.session.Clear()
}

// do sends an authenticated request. A 401 triggers one token refresh and
// one retry; a second 401 (or a failed refresh) clears the session.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	token := c.session.AccessToken()
	status, body, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		c.count(path, err)
		return nil, err
	}

	if status == http.StatusUnauthorized {
		newToken, rerr := c.session.Refresh(ctx, token, c.refresh)
		if rerr == nil {
			if status, body, err = c.send(ctx, method, path, payload, newToken); err != nil {
				c.count(path, err)
				return nil, err
			}
		} else {
			c.logger.Warn("token refresh failed", rerr)
		}
		if status == http.StatusUnauthorized {
			c.logger.Warn("session expired", map[string]interface{}{"path": path})
			c.session.Clear()
			c.count(path, ErrUnauthorized)
			return nil, ErrUnauthorized
		}
	}

	if status < 200 || status > 299 {
		err = &APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
		c.count(path, err)
		return nil, err
	}
	c.count(path, nil)
	return body, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	tokens, err := c.exchangeRefreshToken(ctx, refreshToken)
	if err != nil {
		c.metrics.Refreshes.Increment(outcomeFailed)
		return Tokens{}, err
	}
	c.metrics.Refreshes.Increment(outcomeOK)
	return tokens, nil
}

func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (Tokens, error) {
	status, body, err := c.send(ctx, http.MethodPost, refreshPath, map[string]string{"refreshToken": refreshToken}, "")
	if err != nil {
		return Tokens{}, err
	}
	if status < 200 || status > 299 {
		return Tokens{}, errors.Wrapf(ErrRefresh, "status %d", status)
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Tokens{}, errors.Wrap(ErrRefresh, err.Error())
	}
	if resp.Data.AccessToken == "" {
		return Tokens{}, errors.Wrap(ErrRefresh, "no access token in response")
	}
	return resp.Data.Tokens, nil
}

// send performs a single attempt bounded by the client timeout.
func (c *Client) send(ctx context.Context, method, path string, payload interface{}, token string) (int, []byte, error) {
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, errors.Wrap(err, "encoding request")
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(tctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, c.transportError(ctx, tctx, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, c.transportError(ctx, tctx, method, path, err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) transportError(ctx, tctx context.Context, method, path string, err error) error {
	if ctx.Err() == nil && tctx.Err() == context.DeadlineExceeded {
		return ErrTimeout
	}
	return errors.Wrapf(err, "%s %s", method, path)
}

func (c *Client) count(path string, err error) {
	outcome := outcomeOK
	switch errors.Cause(err).(type) {
	case nil:
	case *APIError:
		outcome = outcomeAPIError
	default:
		switch errors.Cause(err) {
		case ErrUnauthorized:
			outcome = outcomeUnauthorized
		case ErrTimeout:
			outcome = outcomeTimeout
		default:
			outcome = outcomeError
		}
	}
	c.metrics.Requests.Increment(path, outcome)
}
