package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{UserAgent: "test-agent"})

	resp, err := f.FetchPage(context.Background(), server.URL+"/course")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Equal(t, "<html><title>ok</title></html>", string(resp.Body))
	assert.Equal(t, server.URL+"/course", resp.URL)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{})

	_, err := f.FetchImage(context.Background(), server.URL+"/missing.jpg")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestFetchDecodesCompressedBodies(t *testing.T) {
	payload := []byte("<html><body>compressed</body></html>")

	tests := []struct {
		name     string
		encoding string
		encode   func([]byte) []byte
	}{
		{
			name:     "gzip",
			encoding: "gzip",
			encode: func(b []byte) []byte {
				var buf bytes.Buffer
				w := gzip.NewWriter(&buf)
				_, _ = w.Write(b)
				_ = w.Close()
				return buf.Bytes()
			},
		},
		{
			name:     "brotli",
			encoding: "br",
			encode: func(b []byte) []byte {
				var buf bytes.Buffer
				w := brotli.NewWriter(&buf)
				_, _ = w.Write(b)
				_ = w.Close()
				return buf.Bytes()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.encode(payload)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", tt.encoding)
				_, _ = w.Write(encoded)
			}))
			defer server.Close()

			f := NewHTTPFetcher(Options{})
			resp, err := f.FetchPage(context.Background(), server.URL)
			require.NoError(t, err)
			assert.Equal(t, payload, resp.Body)
		})
	}
}

func TestFetchBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 2048))
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{MaxImageBytes: 1024})

	_, err := f.FetchImage(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{Timeout: 100 * time.Millisecond})

	_, err := f.FetchPage(context.Background(), server.URL)
	require.Error(t, err)
}

func TestFetchRedirectLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{MaxRedirects: 2})

	_, err := f.FetchPage(context.Background(), server.URL+"/a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirects")
}
