package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brettbedarf/memvfs"
	"github.com/brettbedarf/memvfs/internal/util"
)

type HTTPMethod = string

const (
	HTTPMethodGet  HTTPMethod = "GET"
	HTTPMethodPost HTTPMethod = "POST"
)

var ErrInvalidURL = errors.New("invalid source url")

// HTTPClient is satisfied by *http.Client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource contains http-specific source fields
type HTTPSource struct {
	URL     string            `json:"url"`
	Method  *HTTPMethod       `json:"method,omitempty"` // Default is GET
	Headers map[string]string `json:"headers,omitempty"`

	client HTTPClient
}

// RegisterHTTP registers the http source backed by client
func RegisterHTTP(r *Registry, client HTTPClient) {
	r.Register(HTTPSourceType, func(raw []byte) (memvfs.ContentProvider, error) {
		return NewHTTPSource(raw, client)
	})
}

// NewHTTPSource validates the url of the raw source definition.
// Only absolute http(s) urls without user info are accepted.
func NewHTTPSource(raw []byte, client HTTPClient) (*HTTPSource, error) {
	var src HTTPSource
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}
	src.URL = strings.TrimSpace(src.URL)
	u, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, src.URL)
	}
	if u.User != nil {
		return nil, fmt.Errorf("%w: user info not allowed", ErrInvalidURL)
	}
	src.client = client
	if src.client == nil {
		src.client = http.DefaultClient
	}
	return &src, nil
}

func (h *HTTPSource) method() HTTPMethod {
	if h.Method != nil {
		return *h.Method
	}
	return HTTPMethodGet
}

// Content fetches the whole body once. Non 2xx responses are errors.
func (h *HTTPSource) Content(ctx context.Context) ([]byte, error) {
	logger := util.GetLogger("HTTPSource.Content")

	req, err := http.NewRequestWithContext(ctx, h.method(), h.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status fetching %s: %s", h.URL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("url", h.URL).Int("bytes", len(data)).Msg("Fetched content")
	return data, nil
}
