package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

// HTTPOptions configures HTTP fetcher.
type HTTPOptions struct {
	Timeout     time.Duration
	UserAgent   string
	AuthToken   string // sent as bearer token when not empty
	MaxBodySize int64  // 0 means no limit
}

// HTTP fetches resources over network.
type HTTP struct {
	client *http.Client
	opts   HTTPOptions
	log    *zap.Logger
}

// NewHTTP creates fetcher on top of pooled client.
func NewHTTP(opts HTTPOptions, log *zap.Logger) *HTTP {
	if log == nil {
		log = zap.NewNop()
	}
	client := cleanhttp.DefaultPooledClient()
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	return &HTTP{client: client, opts: opts, log: log.Named("fetch")}
}

func (h *HTTP) Get(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("unable to create request: %w", err)
	}
	if h.opts.UserAgent != "" {
		req.Header.Set("User-Agent", h.opts.UserAgent)
	}
	if h.opts.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.opts.AuthToken)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if h.opts.MaxBodySize > 0 {
		body = io.LimitReader(resp.Body, h.opts.MaxBodySize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Response{}, fmt.Errorf("unable to read response body: %w", err)
	}
	if h.opts.MaxBodySize > 0 && int64(len(data)) > h.opts.MaxBodySize {
		return Response{}, fmt.Errorf("response body exceeds %d bytes", h.opts.MaxBodySize)
	}

	h.log.Debug("Fetched",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return Response{StatusCode: resp.StatusCode, Body: data}, nil
}
