package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client calls a serpdex server.
type Client struct {
	baseURL string
	http    *http.Client
	obs     *observer
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("serpdex: invalid base url %q", baseURL)
	}

	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		obs:     obs,
	}, nil
}

// Search runs a ranked search.
func (c *Client) Search(ctx context.Context, q Query) (results []Result, err error) {
	defer func(start time.Time) { c.obs.observe("search", start, err) }(time.Now())

	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("query text is required: %w", ErrValidation)
	}

	body, err := json.Marshal(searchRequest{
		Query:                       q.Text,
		LimitBroadResults:           q.BroadLimit,
		LimitDedupedURLResults:      q.DedupedLimit,
		LimitHierarchicalURLResults: q.HierarchicalLimit,
		LimitFinalResults:           q.FinalLimit,
		URLContainsFilter:           q.URLContains,
	})
	if err != nil {
		return nil, fmt.Errorf("serpdex: encode request: %w", err)
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/search", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Health fetches the dependency report. A degraded server returns the report
// together with an error wrapping ErrStoreUnavailable.
func (c *Client) Health(ctx context.Context) (h Health, err error) {
	defer func(start time.Time) { c.obs.observe("health", start, err) }(time.Now())

	err = c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader = http.NoBody
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("serpdex: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("serpdex: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil && er.Code != "" {
			apiErr.Code, apiErr.Message = er.Code, er.Message
		} else {
			// /health answers 503 with a report, not an error body
			_ = json.Unmarshal(data, out)
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("serpdex: decode response: %w", err)
	}
	return nil
}
