// Package transport delivers batches of GameAnalytics bodies to the REST API.
//
// Every request is a JSON array, gzip-compressed and signed with an
// HMAC-SHA256 of the compressed bytes keyed by the game secret.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"
)

// Hosts and the public sandbox game credentials.
const (
	ProductionHost   = "https://api.gameanalytics.com"
	SandboxHost      = "http://sandbox-api.gameanalytics.com"
	SandboxGameKey   = "5c6bcb5402204249437fb5a7a80a4959"
	SandboxSecretKey = "16813a12f718bc5c620f56944e1abc3ea13ccbac"
)

// DefaultTimeout bounds a single HTTP round trip.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Endpoint selects the API route a batch is posted to.
type Endpoint string

const (
	EndpointInit   Endpoint = "init"
	EndpointEvents Endpoint = "events"
)

// Dispatcher sends a batch of bodies to an endpoint.
type Dispatcher interface {
	Send(ctx context.Context, endpoint Endpoint, bodies []map[string]any) (*Response, error)
}

// Mirror receives a copy of every successfully delivered batch as the
// uncompressed JSON payload.
type Mirror interface {
	MirrorBatch(ctx context.Context, endpoint string, payload []byte) error
}

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Config holds the dispatcher configuration.
type Config struct {
	Host      string
	GameKey   string
	SecretKey string
	Timeout   time.Duration

	// RequestsPerSecond paces outbound requests. Zero disables pacing.
	RequestsPerSecond float64
	BurstSize         int

	// RoundTripper overrides the HTTP transport, e.g. to instrument it.
	RoundTripper http.RoundTripper
}

// Client is the HTTP Dispatcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secret     []byte
	limiter    *rate.Limiter
	mirrors    []Mirror
	logger     *slog.Logger
}

// New creates an HTTP dispatcher.
func New(cfg Config, logger *slog.Logger, mirrors ...Mirror) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.BurstSize
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	host := strings.TrimSuffix(cfg.Host, "/")
	if host == "" {
		host = ProductionHost
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: cfg.RoundTripper},
		baseURL:    fmt.Sprintf("%s/v2/%s/", host, cfg.GameKey),
		secret:     []byte(cfg.SecretKey),
		limiter:    limiter,
		mirrors:    mirrors,
		logger:     logger.With("component", "transport"),
	}
}

// URL returns the full URL of endpoint.
func (c *Client) URL(endpoint Endpoint) string {
	return c.baseURL + string(endpoint)
}

// Send encodes, compresses, signs, and posts bodies to endpoint. A non-2xx
// response is returned as a *StatusError.
func (c *Client) Send(ctx context.Context, endpoint Endpoint, bodies []map[string]any) (*Response, error) {
	if len(bodies) == 0 {
		return nil, ErrEmptyBatch
	}

	payload, ip, err := Encode(bodies)
	if err != nil {
		return nil, err
	}

	compressed, err := Compress(payload)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(endpoint), bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Content-Type", "json")
	req.Header.Set("Authorization", Sign(c.secret, compressed))
	if ip != "" {
		req.Header.Set("X-Forward-For", ip)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, body)
	}

	c.logger.Debug("batch delivered",
		"endpoint", endpoint,
		"events", len(bodies),
		"bytes", len(compressed),
		"status", resp.StatusCode,
	)

	c.mirror(ctx, endpoint, payload)

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) mirror(ctx context.Context, endpoint Endpoint, payload []byte) {
	for _, m := range c.mirrors {
		if err := m.MirrorBatch(ctx, string(endpoint), payload); err != nil {
			c.logger.Warn("failed to mirror batch", "endpoint", endpoint, "error", err)
		}
	}
}

// Encode serialises bodies as a JSON array. The ip field is stripped from
// copies of each body and the first non-empty value is returned separately
// for the X-Forward-For header. bodies are not modified.
func Encode(bodies []map[string]any) ([]byte, string, error) {
	var ip string
	out := make([]map[string]any, len(bodies))

	for i, body := range bodies {
		v, ok := body["ip"]
		if !ok {
			out[i] = body
			continue
		}

		if s, isString := v.(string); isString && s != "" && ip == "" {
			ip = s
		}

		stripped := make(map[string]any, len(body))
		for k, val := range body {
			if k != "ip" {
				stripped[k] = val
			}
		}
		out[i] = stripped
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal batch: %w", err)
	}
	return payload, ip, nil
}

// Compress gzips payload.
func Compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to compress batch: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress batch: %w", err)
	}
	return buf.Bytes(), nil
}

// InitResponse is the decoded body of a successful init handshake.
type InitResponse struct {
	Enabled  bool     `json:"enabled"`
	ServerTS int64    `json:"server_ts"`
	Flags    []string `json:"flags"`
}

// ParseInit decodes the init handshake response.
func ParseInit(resp *Response) (InitResponse, error) {
	if resp == nil {
		return InitResponse{}, ErrInvalidInitResponse
	}

	var raw struct {
		Enabled  bool         `json:"enabled"`
		ServerTS *json.Number `json:"server_ts"`
		Flags    []string     `json:"flags"`
	}
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return InitResponse{}, fmt.Errorf("%w: %w", ErrInvalidInitResponse, err)
	}
	if raw.ServerTS == nil {
		return InitResponse{}, fmt.Errorf("%w: missing server_ts", ErrInvalidInitResponse)
	}

	ts, err := raw.ServerTS.Int64()
	if err != nil {
		f, ferr := raw.ServerTS.Float64()
		if ferr != nil {
			return InitResponse{}, fmt.Errorf("%w: server_ts: %w", ErrInvalidInitResponse, errors.Join(err, ferr))
		}
		ts = int64(f)
	}

	return InitResponse{Enabled: raw.Enabled, ServerTS: ts, Flags: raw.Flags}, nil
}
