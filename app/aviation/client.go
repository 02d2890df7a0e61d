package aviation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.aviationstack.com/v1"

	// Free plan maximum.
	DefaultPageSize = 100

	defaultTimeout = 30 * time.Second
)

// Config holds everything the client needs. It is built by the caller; the
// client never reads process environment.
type Config struct {
	BaseURL      string
	AccessKey    string
	DepIATA      string
	FlightStatus string
	PageSize     int
	Timeout      time.Duration
	UserAgent    string
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// Client pages through the aviationstack /flights endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config, opts ...ClientOption) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		cfg:        cfg,
		httpClient: newHTTPClient(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{Transport: transport}
}

func (c *Client) PageSize() int {
	return c.cfg.PageSize
}

// PageHandler receives each non-empty page in upstream order.
type PageHandler func(offset int, page []RawFlight) error

// Pages requests pages starting at offset 0 until the upstream returns an
// empty page, calling fn for every non-empty one. It returns the number of
// requests issued. An error from a request or from fn stops paging.
func (c *Client) Pages(ctx context.Context, fn PageHandler) (int, error) {
	requests := 0
	for offset := 0; ; offset += c.cfg.PageSize {
		select {
		case <-ctx.Done():
			return requests, ctx.Err()
		default:
		}

		slog.Info("Fetching data", "from", offset, "to", offset+c.cfg.PageSize)

		requests++
		page, err := c.FetchPage(ctx, offset)
		if err != nil {
			return requests, err
		}

		if len(page) == 0 {
			return requests, nil
		}

		if err := fn(offset, page); err != nil {
			return requests, err
		}
	}
}

// FetchAll concatenates every page in upstream order.
func (c *Client) FetchAll(ctx context.Context) ([]RawFlight, error) {
	var all []RawFlight
	_, err := c.Pages(ctx, func(_ int, page []RawFlight) error {
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// FetchPage issues a single page request at the given offset.
func (c *Client) FetchPage(ctx context.Context, offset int) ([]RawFlight, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, c.pageURL(offset), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: offset %d: %w", ErrTransport, offset, redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: offset %d: failed to read response body: %w", ErrTransport, offset, err)
	}

	return decodePage(offset, resp.StatusCode, body)
}

func (c *Client) pageURL(offset int) string {
	q := url.Values{}
	q.Set("access_key", c.cfg.AccessKey)
	q.Set("dep_iata", c.cfg.DepIATA)
	q.Set("flight_status", c.cfg.FlightStatus)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(c.cfg.PageSize))

	return strings.TrimRight(c.cfg.BaseURL, "/") + "/flights?" + q.Encode()
}

func decodePage(offset, status int, body []byte) ([]RawFlight, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: offset %d: status %d: %w", ErrMalformedResponse, offset, status, err)
	}

	if env.Error != nil {
		return nil, fmt.Errorf("%w: offset %d: status %d: upstream error %s: %s",
			ErrMalformedResponse, offset, status, env.Error.Code, env.Error.Message)
	}

	if status/100 != 2 {
		return nil, fmt.Errorf("%w: offset %d: unexpected status %d", ErrMalformedResponse, offset, status)
	}

	if env.Data == nil {
		return nil, fmt.Errorf("%w: offset %d: missing data array", ErrMalformedResponse, offset)
	}

	return *env.Data, nil
}
