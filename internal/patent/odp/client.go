package odp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/patent/types"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/pkg/metrics"
)

const (
	headerAPIKey      = "X-API-KEY"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"

	opSearch = "search"
	opProbe  = "probe"
)

// Client talks to the ODP patent applications search endpoint
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *logger.Logger
	metrics    *metrics.Metrics
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records upstream calls
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithSleep replaces the wait between 429 retries
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// New creates a client. A nil cfg uses DefaultConfig.
func New(cfg *Config, log *logger.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: log.Named("odp"),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HasAPIKey reports whether an API key is configured
func (c *Client) HasAPIKey() bool {
	return strings.TrimSpace(c.config.APIKey) != ""
}

// RequestInfo describes the outgoing request with the key masked
func (c *Client) RequestInfo() types.RequestInfo {
	key := "[NOT SET]"
	if c.HasAPIKey() {
		key = MaskAPIKey(c.config.APIKey)
	}
	return types.RequestInfo{
		EndpointURL: c.config.SearchURL(),
		Headers: map[string]string{
			headerAPIKey:      key,
			headerContentType: contentTypeJSON,
		},
		Method: http.MethodPost,
	}
}

// Search posts payload and decodes the result page. 429 responses are retried
// with a linearly growing delay; the response of the last attempt is reported.
func (c *Client) Search(ctx context.Context, payload *types.QueryPayload) (*types.SearchPage, error) {
	if !c.HasAPIKey() {
		c.logger.Error("search rejected", zap.Error(types.ErrMissingAPIKey))
		return nil, types.ErrMissingAPIKey
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	log := c.logger.With(zap.String("request_id", logger.GetRequestID(ctx)))
	log.Debug("sending search", zap.String("q", payload.Q), zap.ByteString("payload", body))

	for retries := 0; ; retries++ {
		status, respBody, err := c.post(ctx, opSearch, body)
		if err != nil {
			log.Error("search request failed", zap.Error(err), zap.Int("retries", retries))
			return nil, &types.UpstreamError{Retries: retries, Err: err}
		}

		switch {
		case status == http.StatusOK:
			page, err := decodePage(respBody)
			if err != nil {
				log.Error("undecodable search response", zap.Error(err))
				return nil, &types.UpstreamError{StatusCode: status, Body: string(respBody), Retries: retries, Err: err}
			}
			page.Retries = retries
			log.Info("search completed",
				zap.Int("count", page.Count),
				zap.Int("returned", len(page.Records)),
				zap.Int("retries", retries),
			)
			return page, nil

		case status == http.StatusTooManyRequests && retries < c.config.MaxRetries:
			delay := time.Duration(retries+1) * c.config.RetryDelay
			log.Warn("rate limited by ODP, retrying",
				zap.Int("attempt", retries+1),
				zap.Duration("delay", delay),
			)
			c.metrics.IncRetry()
			if err := c.sleep(ctx, delay); err != nil {
				return nil, &types.UpstreamError{Retries: retries, Err: err}
			}

		default:
			log.Error("ODP returned an error", zap.Int("status", status), zap.ByteString("body", respBody))
			return nil, &types.UpstreamError{StatusCode: status, Body: string(respBody), Retries: retries}
		}
	}
}

func (c *Client) post(ctx context.Context, operation string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.SearchURL(), bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerAPIKey, c.config.APIKey)
	req.Header.Set(headerContentType, contentTypeJSON)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(operation, 0, time.Since(start))
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.ObserveUpstream(operation, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// decodePage reads patentFileWrapperDataBag and count. A missing bag is an
// empty page; a body that is not a JSON object is an error.
func decodePage(body []byte) (*types.SearchPage, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", types.ErrInvalidResponse)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", types.ErrInvalidResponse)
	}

	page := &types.SearchPage{Records: []types.PatentRecord{}}
	bag := root.Get("patentFileWrapperDataBag")
	if bag.Exists() && bag.Type != gjson.Null && !bag.IsArray() {
		return nil, fmt.Errorf("%w: patentFileWrapperDataBag is not a list", types.ErrInvalidResponse)
	}
	bag.ForEach(func(_, v gjson.Result) bool {
		page.Records = append(page.Records, types.PatentRecord(v.Raw))
		return true
	})
	page.Count = int(root.Get("count").Int())
	return page, nil
}

// MaskAPIKey keeps the first and last four characters of keys longer than
// eight characters.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
