// Package weather queries the wttr.in plain-text weather service.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultBaseURL is the upstream weather service.
	DefaultBaseURL = "https://wttr.in"
	// DefaultTimeout bounds a single lookup, connection through body.
	DefaultTimeout = 30 * time.Second
	// Format asks for the condition text (%C) and the signed temperature with unit (%t).
	Format = "format=%C+%t"

	maxBodyBytes = 64 << 10
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Report is the outcome of a successful lookup.
type Report struct {
	City string
	// Text is the upstream body, decoded to UTF-8 and trimmed.
	Text       string
	StatusCode int
	URL        string
}

// Client performs single-shot lookups. It holds no per-call state and is safe for concurrent use.
type Client struct {
	base      *url.URL
	timeout   time.Duration
	userAgent string
	http      *http.Client
}

// NewClient validates the options and returns a ready Client.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid weather base URL %q: %w", raw, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("weather base URL %q must be absolute", raw)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		}
	}

	return &Client{
		base:      base,
		timeout:   timeout,
		userAgent: opts.UserAgent,
		http:      hc,
	}, nil
}

// Timeout reports the per-lookup bound.
func (c *Client) Timeout() time.Duration { return c.timeout }

// URLFor builds the request URL for city. The city becomes a single path segment.
func (c *Client) URLFor(city string) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + city
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + url.PathEscape(city)
	u.RawQuery = Format
	u.Fragment = ""
	return u.String()
}

// Lookup fetches the current conditions for city. Non-200 statuses return *UpstreamError;
// faults before a status is received return *TransportError.
func (c *Client) Lookup(ctx context.Context, city string) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.URLFor(city)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Report{}, &TransportError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "text/plain")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Report{}, &UpstreamError{URL: target, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := readText(resp)
	if err != nil {
		return Report{}, &TransportError{URL: target, Err: err}
	}

	return Report{
		City:       city,
		Text:       strings.TrimSpace(body),
		StatusCode: resp.StatusCode,
		URL:        target,
	}, nil
}

// readText decodes the body using the charset declared in Content-Type.
func readText(resp *http.Response) (string, error) {
	r, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

// UpstreamError reports a response whose status was not 200.
type UpstreamError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather service returned status: %s", e.Status)
}

// TransportError reports a fault before a status code was received.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("weather request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTimeout reports whether err came from the lookup deadline or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
