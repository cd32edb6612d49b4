package positions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ClientConfig tunes the pooled transport used by the dispatcher
type ClientConfig struct {
	Timeout         time.Duration
	MaxIdleConns    int
	MaxConnsPerHost int
}

func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:         30 * time.Second,
		MaxIdleConns:    100,
		MaxConnsPerHost: 10,
	}
}

// NewHTTPClient returns an http.Client with a pooled transport.
func NewHTTPClient(config *ClientConfig) *http.Client {
	if config == nil {
		config = DefaultClientConfig()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}
}

// Option configures a Client
type Option func(*Client)

// WithResolver sets the endpoint resolver
func WithResolver(r Resolver) Option {
	return func(c *Client) {
		c.resolver = r
	}
}

// WithEnvironment sets the environment snapshot passed to the resolver
func WithEnvironment(env Environment) Option {
	return func(c *Client) {
		c.env = env
	}
}

// WithTokenStore sets where bearer tokens are read from
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.tokens = store
	}
}

// WithHTTPClient replaces the underlying http.Client. A nil client keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout. The http.Client passed to
// WithHTTPClient is copied, never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = &timeout
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.diag = diagnostics{logger: logger}
	}
}

// WithDefaultHeaders sets headers sent below caller headers on every request
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.defaultHeaders = headers
	}
}

// WithProxyPrefix sets the same-origin route used in proxy mode
func WithProxyPrefix(prefix string) Option {
	return func(c *Client) {
		c.proxyPrefix = prefix
	}
}

// Client dispatches requests to the positions backend.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	resolver       Resolver
	env            Environment
	tokens         TokenStore
	httpClient     *http.Client
	timeout        *time.Duration
	diag           diagnostics
	defaultHeaders map[string]string
	proxyPrefix    string
}

// New creates a client for the default backend with no token.
func New(opts ...Option) *Client {
	c := &Client{
		resolver:    DefaultResolver(),
		tokens:      StaticToken(""),
		httpClient:  NewHTTPClient(nil),
		diag:        diagnostics{logger: slog.Default()},
		proxyPrefix: DefaultProxyPrefix,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}

	return c
}

// NewFromConfig creates a client from parsed configuration.
// Options are applied after the configuration.
func NewFromConfig(cfg *Config, opts ...Option) *Client {
	timeout := cfg.Backend.Timeout.Std()
	clientConfig := DefaultClientConfig()
	clientConfig.Timeout = timeout

	base := []Option{
		WithHTTPClient(NewHTTPClient(clientConfig)),
		WithResolver(cfg.Resolver()),
		WithProxyPrefix(cfg.Proxy.Prefix),
		WithDefaultHeaders(cfg.Backend.headerMap()),
		WithTimeout(timeout),
	}
	return New(append(base, opts...)...)
}

// Target returns the resolved target for endpoint: an absolute URL to the
// remote backend, or a relative path under the proxy prefix.
func (c *Client) Target(endpoint string) string {
	if base := c.resolver.Resolve(c.env); base != "" {
		return base + endpoint
	}
	return joinProxyPath(c.proxyPrefix, endpoint)
}

// Headers returns the headers a request with the given caller headers would carry.
func (c *Client) Headers(caller map[string]string) http.Header {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	for name, value := range c.defaultHeaders {
		header.Set(name, value)
	}
	for name, value := range caller {
		header.Set(name, value)
	}

	header.Del("Authorization")
	if token, ok := c.tokens.Token(); ok && token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	return header
}

// Request sends a request to endpoint and returns the decoded JSON body.
//
// A 401 yields ErrAuthenticationRequired, any other non-2xx status an
// *APIError, and an undecodable success body a *MalformedResponseError.
// Transport errors are returned as the http.Client reports them.
func (c *Client) Request(ctx context.Context, endpoint string, opts *RequestOptions) (any, error) {
	var out any
	if err := c.Do(ctx, endpoint, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Do is Request decoding the success body into out.
func (c *Client) Do(ctx context.Context, endpoint string, opts *RequestOptions, out any) error {
	method := opts.method()
	if !method.valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	target := c.Target(endpoint)
	url := target
	if !strings.Contains(target, "://") {
		url = c.env.Origin() + target
	}

	var (
		body    []byte
		headers map[string]string
	)
	if opts != nil {
		body = opts.Body
		headers = opts.Headers
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, string(method), url, bodyReader)
	if err != nil {
		return err
	}
	req.Header = c.Headers(headers)

	id := newRequestID()
	c.diag.request(ctx, id, string(method), url, req.Header, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.diag.failure(ctx, id, err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	statusText := statusText(resp)
	c.diag.response(ctx, id, resp.StatusCode, statusText)

	if err := c.classify(resp, statusText, out); err != nil {
		c.diag.failure(ctx, id, err)
		return err
	}
	return nil
}

func (c *Client) classify(resp *http.Response, statusText string, out any) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuthenticationRequired
	}

	data, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     statusText,
			Message:    errorMessage(data, resp.StatusCode, statusText),
		}
	}
	if err != nil {
		return &MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
	}

	if out == nil {
		var discard any
		out = &discard
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// errorMessage returns the "message" of a JSON error body, or a synthesized
// "HTTP <status>: <statusText>" when there is none.
func errorMessage(data []byte, status int, statusText string) string {
	var body errorResponse
	if json.Unmarshal(data, &body) == nil {
		if m := messageText(body.Message); m != "" {
			return m
		}
	}
	return fmt.Sprintf("HTTP %d: %s", status, statusText)
}

// messageText renders a JSON "message" value the way the backend's web
// clients display it: arrays are joined with "," and scalars are printed.
// Objects, null, false and zero carry no message.
func messageText(v any) string {
	switch m := v.(type) {
	case string:
		return m
	case float64:
		if m == 0 {
			return ""
		}
		return strconv.FormatFloat(m, 'f', -1, 64)
	case bool:
		if m {
			return "true"
		}
	case []any:
		parts := make([]string, len(m))
		for i, p := range m {
			switch p := p.(type) {
			case string:
				parts[i] = p
			case float64:
				parts[i] = strconv.FormatFloat(p, 'f', -1, 64)
			case bool:
				parts[i] = strconv.FormatBool(p)
			}
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// statusText returns the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
