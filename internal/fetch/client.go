package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ClientOptions configures the shared HTTP client.
type ClientOptions struct {
	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 16
	MaxIdleConnsPerHost int

	// ResponseHeaderTimeout bounds the wait for response headers. The body
	// transfer itself is only bounded by the request context.
	// Default: 30s
	ResponseHeaderTimeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultClientOptions returns options with sensible defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		MaxIdleConnsPerHost:   16,
		ResponseHeaderTimeout: 30 * time.Second,
		UserAgent:             "beiwagen",
	}
}

// NewHTTPClient creates an HTTP client suited to streaming archive downloads.
func NewHTTPClient(opts ClientOptions) *http.Client {
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = DefaultClientOptions().MaxIdleConnsPerHost
	}
	if opts.ResponseHeaderTimeout <= 0 {
		opts.ResponseHeaderTimeout = DefaultClientOptions().ResponseHeaderTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		MaxIdleConns:          opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
	}

	var rt http.RoundTripper = transport
	if opts.UserAgent != "" {
		rt = userAgentTransport{next: transport, agent: opts.UserAgent}
	}
	return &http.Client{Transport: rt}
}

type userAgentTransport struct {
	next  http.RoundTripper
	agent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.next.RoundTrip(req)
}

// ProbeResult is the metadata returned by a probe.
type ProbeResult struct {
	// FinalURL is the URL after following redirects.
	FinalURL string

	// ContentLength is the advertised body size, or -1 if unknown.
	ContentLength int64

	// Disposition is the raw Content-Disposition header.
	Disposition string
}

// probe issues a HEAD request against url, following redirects.
func probe(ctx context.Context, client *http.Client, url string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode); err != nil {
		return nil, err
	}

	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	return &ProbeResult{
		FinalURL:      final,
		ContentLength: resp.ContentLength,
		Disposition:   resp.Header.Get("Content-Disposition"),
	}, nil
}
