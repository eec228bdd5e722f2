// Package api is the authenticated access layer for the business API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/five82/backoffice/internal/logging"
	"github.com/five82/backoffice/internal/session"
)

// Doer executes authenticated requests. *Client implements it.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
	DoJSON(ctx context.Context, req Request, dest any) error
}

// Ensure Client implements Doer at compile time.
var _ Doer = (*Client)(nil)

// Client talks to the business API on behalf of the active session.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	store     *session.Store
	refresher *Refresher
	logins    *rate.Limiter
	logger    *slog.Logger
}

const (
	defaultUserAgent = "backoffice/0.1"
	defaultTimeout   = 10 * time.Second
)

// Options configure a Client.
type Options struct {
	BaseURL    string
	Store      *session.Store
	Timeout    time.Duration // zero uses the default
	Logger     *slog.Logger  // nil discards
	HTTPClient *http.Client  // nil builds one with a cookie jar
}

// Request describes one call. Path is either relative to the base URL or an
// absolute URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Response is a fully read successful response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Empty reports a response without content (204 or zero-length body).
func (r *Response) Empty() bool {
	return r == nil || r.Status == http.StatusNoContent || len(bytes.TrimSpace(r.Body)) == 0
}

// Decode unmarshals the body into dest. Empty responses leave dest untouched.
func (r *Response) Decode(dest any) error {
	if dest == nil || r.Empty() {
		return nil
	}
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return malformedResponse(r.Status, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// NewClient builds a Client for the API rooted at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: timeout, Jar: jar}
	}

	c := &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: defaultUserAgent,
		store:     opts.Store,
		logins:    rate.NewLimiter(rate.Every(loginInterval), loginBurst),
		logger:    logger,
	}
	c.refresher = newRefresher(c, opts.Store, logger)
	return c, nil
}

// Store exposes the session store the client reads credentials from.
func (c *Client) Store() *session.Store {
	return c.store
}

// Do executes req with the current access credential. An expired credential
// is renewed once and the request re-issued once; that second outcome is final.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	current := c.store.Get()
	if !current.Valid() {
		return nil, Unauthenticated()
	}
	ctx = logging.WithUserID(ctx, current.UserID)

	payload, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, payload, current.Access)
	var apiErr *Error
	if err == nil || !errors.As(err, &apiErr) || !apiErr.Expired {
		return resp, err
	}

	access, ok := c.refresher.Renew(ctx, current.Access)
	if !ok {
		return nil, err
	}
	return c.send(ctx, req, payload, access)
}

// DoJSON executes req and decodes the response into dest.
func (c *Client) DoJSON(ctx context.Context, req Request, dest any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(dest)
}

// send performs a single round trip. access may be empty for the anonymous
// identity endpoints.
func (c *Client) send(ctx context.Context, req Request, payload []byte, access string) (*Response, error) {
	reqURL, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if payload != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	logger := logging.WithContext(logging.WithRequestID(ctx, requestID), c.logger)
	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Debug("request failed", slog.String("method", method), slog.String("path", reqURL.Path), slog.Any("error", err))
		return nil, Network(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, Network(fmt.Errorf("read response: %w", err))
	}
	if len(data) > maxBodyBytes {
		logger.Warn("response body too large",
			slog.String("path", reqURL.Path),
			slog.Int("status", resp.StatusCode),
			slog.Int("limit", maxBodyBytes),
		)
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, RequestFailed(resp.StatusCode, "")
		}
		return nil, malformedResponse(resp.StatusCode, errResponseTooLarge)
	}
	logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", reqURL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp.StatusCode, data, access != "")
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: data}, nil
}

func (c *Client) resolve(path string, query url.Values) (*url.URL, error) {
	trimmed := strings.TrimSpace(path)
	var u *url.URL
	if strings.Contains(trimmed, "://") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parse url %q: %w", path, err)
		}
		u = parsed
	} else {
		rel, err := url.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parse path %q: %w", path, err)
		}
		joined := *c.baseURL
		joined.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
		joined.RawQuery = rel.RawQuery
		u = &joined
	}
	if len(query) > 0 {
		merged := u.Query()
		for key, values := range query {
			for _, v := range values {
				merged.Add(key, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u, nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return data, nil
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
