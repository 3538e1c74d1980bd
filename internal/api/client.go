package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/electisspace/spacectl/internal/log"
	"github.com/electisspace/spacectl/internal/metrics"
	"github.com/electisspace/spacectl/internal/token"
)

// Client is the electisSpace platform API client.
//
// All REST wrappers in this package share one Client so the bearer
// token, refresh coalescing, and cookie jar behave as a single session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *token.Manager
	logger     *log.Logger
	metrics    *metrics.Metrics

	// refreshGroup guarantees at most one in-flight refresh call no
	// matter how many requests hit a 401 concurrently. Every waiter
	// observes the shared outcome.
	refreshGroup singleflight.Group

	mu        sync.Mutex
	onExpired func()
}

// Options configures client construction.
type Options struct {
	HTTPClient *http.Client
	Logger     *log.Logger
	Metrics    *metrics.Metrics
}

// Option mutates Options.
type Option func(*Options)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics overrides the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// NewClient creates a platform client for the API server at baseURL.
//
// The default HTTP client carries a cookie jar: in the primary server
// variant the refresh token travels in an httpOnly cookie that the
// client code never reads, and the jar is what keeps it attached to
// /auth/refresh calls.
func NewClient(baseURL string, tokens *token.Manager, optFns ...Option) *Client {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		jar, _ := cookiejar.New(nil)
		opts.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		}
	}
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		tokens:     tokens,
		logger:     opts.Logger.WithGroup("api"),
		metrics:    opts.Metrics,
	}
}

// BaseURL returns the configured API server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnSessionExpired registers the callback invoked when a token refresh
// fails irrecoverably. The session layer registers itself here at
// construction; the transport never imports the state layer.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

func (c *Client) notifySessionExpired() {
	c.mu.Lock()
	fn := c.onExpired
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// do performs a JSON request against the API, attaching the bearer
// token when one is present and decoding a 2xx body into target.
//
// On a 401 from a request that carried a token, it refreshes the access
// token (coalesced across concurrent callers) and replays the request
// exactly once with the new token.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	accessToken := c.tokens.AccessToken()
	resp, err := c.send(ctx, method, path, payload, accessToken)
	if err != nil {
		return c.fail(classifyTransport(err))
	}

	if resp.StatusCode == http.StatusUnauthorized && accessToken != "" {
		// Drain and close before the retry; the classified error below
		// comes from the replayed response, not this one.
		resp.Body.Close()

		newToken, refreshErr := c.refreshAccessToken(ctx, accessToken)
		if refreshErr != nil {
			return c.fail(&Error{
				Status:  http.StatusUnauthorized,
				Code:    ErrorCode(refreshErr),
				Message: "session refresh failed",
				Cause:   refreshErr,
			})
		}

		resp, err = c.send(ctx, method, path, payload, newToken)
		if err != nil {
			return c.fail(classifyTransport(err))
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return c.fail(classifyResponse(resp))
	}

	defer resp.Body.Close()
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return c.fail(&Error{
				Status:  resp.StatusCode,
				Code:    CodeServerError,
				Message: "failed to decode response",
				Cause:   err,
			})
		}
	}

	return nil
}

// send performs a single round trip. The request is rebuilt from the
// marshaled payload on every attempt so a refresh replay is safe.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, accessToken string) (*http.Response, error) {
	var reqBody *bytes.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RequestDuration.WithLabelValues(method, "0").Observe(time.Since(start).Seconds())
		return nil, err
	}

	c.metrics.RequestDuration.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	c.logger.Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-Id"),
	)

	return resp, nil
}

// refreshAccessToken exchanges the refresh credential for a new access
// token. Concurrent callers are coalesced into a single refresh call;
// all of them receive the same token or the same error. A caller whose
// stale token was already replaced by an earlier refresh gets the
// current token back without another server call.
//
// On failure, tokens are cleared and the session-expired callback fires
// before any caller observes the error.
func (c *Client) refreshAccessToken(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		if current := c.tokens.AccessToken(); current != "" && current != stale {
			return current, nil
		}

		newToken, refreshErr := c.callRefresh(ctx)
		if refreshErr != nil {
			c.metrics.TokenRefreshes.WithLabelValues(metrics.ResultError).Inc()
			c.tokens.Clear()
			c.notifySessionExpired()
			return nil, refreshErr
		}
		c.metrics.TokenRefreshes.WithLabelValues(metrics.ResultOK).Inc()
		return newToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// callRefresh performs the actual POST /auth/refresh. It bypasses do so
// a 401 here can never recurse into another refresh.
func (c *Client) callRefresh(ctx context.Context) (string, error) {
	payload, err := json.Marshal(refreshRequest{RefreshToken: c.tokens.RefreshToken()})
	if err != nil {
		return "", err
	}

	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", payload, "")
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyResponse(resp)
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &Error{Code: CodeServerError, Message: "failed to decode refresh response", Cause: err}
	}
	if body.AccessToken == "" {
		return "", &Error{Code: CodeServerError, Message: "refresh response missing access token"}
	}

	c.tokens.SetTokens(body.AccessToken, body.RefreshToken)
	return body.AccessToken, nil
}

// fail records the classified error before returning it.
func (c *Client) fail(err *Error) error {
	c.metrics.RequestErrors.WithLabelValues(string(err.Code)).Inc()
	return err
}
