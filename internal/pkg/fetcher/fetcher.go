package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// Fetcher retrieves pages and images for the import pipeline.
type Fetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*Response, error)
	FetchImage(ctx context.Context, rawURL string) (*Response, error)
}

// Options controls HTTP fetching behaviour.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	MaxRedirects  int
	MaxPageBytes  int64
	MaxImageBytes int64
}

type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

type httpFetcher struct {
	client        *http.Client
	userAgent     string
	maxPageBytes  int64
	maxImageBytes int64
}

// NewHTTPFetcher constructs a fetcher with bounded timeouts and redirect count.
func NewHTTPFetcher(opts Options) Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 5
	}
	if opts.MaxPageBytes <= 0 {
		opts.MaxPageBytes = 5 * 1024 * 1024 // 5MB cap
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = 10 * 1024 * 1024
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	maxRedirects := opts.MaxRedirects
	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &httpFetcher{
		client:        client,
		userAgent:     opts.UserAgent,
		maxPageBytes:  opts.MaxPageBytes,
		maxImageBytes: opts.MaxImageBytes,
	}
}

func (f *httpFetcher) FetchPage(ctx context.Context, rawURL string) (*Response, error) {
	return f.fetch(ctx, rawURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", f.maxPageBytes)
}

func (f *httpFetcher) FetchImage(ctx context.Context, rawURL string) (*Response, error) {
	return f.fetch(ctx, rawURL, "image/avif,image/webp,image/png,image/jpeg,image/*;q=0.8,*/*;q=0.5", f.maxImageBytes)
}

func (f *httpFetcher) fetch(ctx context.Context, rawURL, accept string, limit int64) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := readBody(resp, limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func readBody(resp *http.Response, limit int64) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body exceeds limit of %d bytes", limit)
	}
	return body, nil
}
