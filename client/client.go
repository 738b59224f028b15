// Package client implements a typed UM-Bridge client: a proxy for a single
// named model hosted by a remote server, handling the protocol-version and
// capability handshake once at construction and the request/response
// marshaling on every call after that.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/internal/circuitbreaker"
	"github.com/umbridge-go/umbridge/wire"
)

// Client is a proxy for one named model hosted at a base URL. It implements
// umbridge.Model, so application code can use a remote model exactly like a
// local one.
type Client struct {
	baseURL    string
	name       string
	httpClient *http.Client
	userAgent  string
	breaker    *circuitbreaker.CircuitBreaker

	support   wire.Support
	shmem     bool
	shmemName string
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client (http.DefaultClient).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithShMem requests that the client probe for and, if available, use the
// shared-memory fast path for bulk vectors. Probing failure silently falls
// back to plain JSON — ShMem is always an optimization, never a
// requirement the caller depends on.
func WithShMem(enabled bool) Option {
	return func(cl *Client) { cl.shmem = enabled }
}

// WithCircuitBreaker overrides the default circuit breaker thresholds
// (5 consecutive failures to open, 1 success to close, 30s open timeout).
func WithCircuitBreaker(failureThreshold, successThreshold int, timeout time.Duration) Option {
	return func(cl *Client) { cl.breaker = circuitbreaker.New(failureThreshold, successThreshold, timeout) }
}

// New connects to the server at baseURL and returns a Client bound to the
// named model. It performs the protocol handshake synchronously: GET
// /Info (version + model existence) and POST /ModelInfo (capability
// matrix), then, if ShMem was requested, a /TestShMem probe.
func New(ctx context.Context, baseURL, name string, opts ...Option) (*Client, error) {
	cl := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		name:       name,
		httpClient: http.DefaultClient,
		userAgent:  "umbridge-go",
		breaker:    circuitbreaker.New(5, 1, 30*time.Second),
		shmemName:  "/umbridge",
	}
	for _, opt := range opts {
		opt(cl)
	}

	info, err := cl.fetchInfo(ctx)
	if err != nil {
		return nil, err
	}
	if err := wire.CheckProtocolVersion(info.ProtocolVersion); err != nil {
		return nil, err
	}
	found := false
	for _, m := range info.Models {
		if m == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("umbridge client: model %q not hosted at %s (available: %v)", name, cl.baseURL, info.Models)
	}

	modelInfo, err := cl.fetchModelInfo(ctx)
	if err != nil {
		return nil, err
	}
	cl.support = modelInfo.Support

	if cl.shmem {
		cl.shmem = cl.probeShMem(ctx)
	}

	return cl, nil
}

func (c *Client) fetchInfo(ctx context.Context) (wire.InfoResponse, error) {
	var resp wire.InfoResponse
	err := c.do(ctx, http.MethodGet, "/Info", nil, &resp)
	return resp, err
}

func (c *Client) fetchModelInfo(ctx context.Context) (wire.ModelInfoResponse, error) {
	var resp wire.ModelInfoResponse
	err := c.do(ctx, http.MethodPost, "/ModelInfo", wire.ModelInfoRequest{Name: c.name}, &resp)
	return resp, err
}

// Name returns the proxied model's name.
func (c *Client) Name() string { return c.name }

func (c *Client) SupportsEvaluate() bool      { return c.support.Evaluate }
func (c *Client) SupportsGradient() bool      { return c.support.Gradient }
func (c *Client) SupportsApplyJacobian() bool { return c.support.ApplyJacobian }
func (c *Client) SupportsApplyHessian() bool  { return c.support.ApplyHessian }

// UsingShMem reports whether the handshake found the shared-memory fast
// path available and it was requested via WithShMem.
func (c *Client) UsingShMem() bool { return c.shmem }

// do sends a JSON request (or no body, for GET) and decodes a JSON
// response, translating transport failures into TransportError and wire
// error envelopes into ServerError. The circuit breaker wraps only the
// transport step — a well-formed protocol error from a reachable server is
// not a transport failure and must not trip the breaker.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if !c.breaker.Allow() {
		return &TransportError{URL: c.baseURL + path, Err: circuitbreaker.ErrCircuitOpen}
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("umbridge client: encode request: %w", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("umbridge client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return &TransportError{URL: c.baseURL + path, Err: err}
	}
	defer resp.Body.Close()
	c.breaker.RecordSuccess()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("umbridge client: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp wire.ErrorResponse
		if jerr := json.Unmarshal(data, &errResp); jerr != nil {
			return fmt.Errorf("umbridge client: %s returned status %d with unparseable body: %s", path, resp.StatusCode, data)
		}
		return &ServerError{
			StatusCode:    resp.StatusCode,
			ProtocolError: protocolErrorFromType(errResp.Error.Type, errResp.Error.Message),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("umbridge client: decode %s response: %w", path, err)
	}
	return nil
}
