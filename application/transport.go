package application

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxResponseSize bounds the body an HTTPPoster is willing to read.
const MaxResponseSize = 64 << 20

// DefaultTimeout is used by NewHTTPPoster when no timeout is given.
const DefaultTimeout = 10 * time.Second

// A Poster sends a payload to path on some node and returns the
// response body. Paths are resolved against the node's base URL, e.g.
// "core/getChain" or "/http/proxy/<id>/http/core/getChain".
type Poster interface {
	Post(ctx context.Context, path string, body []byte) ([]byte, error)
	PostUnzip(ctx context.Context, path string, body []byte) ([]byte, error)
}

// StatusError is returned when the remote node answers with a non-2xx
// status code.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: node returned status %d", e.Path, e.StatusCode)
}

// HTTPPoster implements Poster on top of net/http.
type HTTPPoster struct {
	baseURL string
	client  *http.Client
}

var _ Poster = (*HTTPPoster)(nil)

// NewHTTPPoster returns a Poster that posts to paths below baseURL.
func NewHTTPPoster(baseURL string, timeout time.Duration) *HTTPPoster {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPPoster{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the URL every path is resolved against.
func (p *HTTPPoster) BaseURL() string {
	return p.baseURL
}

// Post sends body to path and returns the raw response body.
func (p *HTTPPoster) Post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+strings.TrimLeft(path, "/"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode}
	}
	return readLimited(resp.Body)
}

// PostUnzip behaves like Post but inflates a gzip-compressed
// response body. Uncompressed bodies are returned untouched.
func (p *HTTPPoster) PostUnzip(ctx context.Context, path string, body []byte) ([]byte, error) {
	raw, err := p.Post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return Gunzip(raw)
}

// Gunzip inflates data if it starts with the gzip magic bytes.
// No uncompressed response starts with them: wire responses open with a
// flag byte (0 or 1) or a length prefix, which would have to exceed every
// field limit to begin with 0x1f8b, and JSON listings open with '['.
func Gunzip(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read gzip body: %w", err)
	}
	defer zr.Close()
	out, err := readLimited(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to read gzip body: %w", err)
	}
	return out, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxResponseSize)
	}
	return out, nil
}
