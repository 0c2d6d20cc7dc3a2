package odp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadskatr/patent-database/internal/patent/types"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/pkg/metrics"
)

const testKey = "abcd1234efgh5678"

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = testKey

	var delays []time.Duration
	opts = append([]Option{WithSleep(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	})}, opts...)

	c, err := New(cfg, logger.NewNop(), opts...)
	require.NoError(t, err)
	return c, &delays
}

func testPayload() *types.QueryPayload {
	return &types.QueryPayload{
		Fields:     types.DefaultFields(),
		Filters:    []types.Filter{},
		Pagination: types.Pagination{Offset: 0, Limit: 10},
		Q:          "inventionTitle:battery",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing api key is allowed", mutate: func(c *Config) { c.APIKey = "" }},
		{name: "relative base url", mutate: func(c *Config) { c.BaseURL = "/api" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: true},
		{name: "zero probe timeout", mutate: func(c *Config) { c.ProbeTimeout = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}

	cfg := DefaultConfig()
	cfg.BaseURL = "https://example.test/"
	assert.Equal(t, "https://example.test/api/v1/patent/applications/search", cfg.SearchURL())
}

func TestSearch_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, types.SearchPath, r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got types.QueryPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "inventionTitle:battery", got.Q)

		_, _ = io.WriteString(w, `{"count":42,"patentFileWrapperDataBag":[{"applicationNumberText":"1"},{"applicationNumberText":"2"}]}`)
	})

	page, err := c.Search(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, 42, page.Count)
	require.Len(t, page.Records, 2)
	assert.JSONEq(t, `{"applicationNumberText":"2"}`, string(page.Records[1]))
	assert.Zero(t, page.Retries)
}

func TestSearch_EmptyBag(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":0}`)
	})

	page, err := c.Search(context.Background(), testPayload())
	require.NoError(t, err)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
}

func TestSearch_RetriesOn429(t *testing.T) {
	var calls int32
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 4 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"count":1,"patentFileWrapperDataBag":[{}]}`)
	}, WithMetrics(m))

	page, err := c.Search(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, 4, page.Retries)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		1000 * time.Millisecond,
		1500 * time.Millisecond,
		2000 * time.Millisecond,
	}, *delays)
	assert.Equal(t, float64(4), testutil.ToFloat64(m.RateLimitRetries))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("search", "429")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("search", "200")))
}

func TestSearch_RetriesExhausted(t *testing.T) {
	var calls int32
	c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "slow down")
	})

	_, err := c.Search(context.Background(), testPayload())
	var upErr *types.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusTooManyRequests, upErr.StatusCode)
	assert.Equal(t, "slow down", upErr.Body)
	assert.Equal(t, 5, upErr.Retries)
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
	assert.Len(t, *delays, 5)
}

func TestSearch_StatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = io.WriteString(w, "nope")
			})

			_, err := c.Search(context.Background(), testPayload())
			var upErr *types.UpstreamError
			require.ErrorAs(t, err, &upErr)
			assert.Equal(t, status, upErr.StatusCode)
			assert.Equal(t, "nope", upErr.Body)
			assert.Empty(t, *delays)
		})
	}
}

func TestSearch_UndecodableBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>gateway</html>")
	})

	_, err := c.Search(context.Background(), testPayload())
	var upErr *types.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusOK, upErr.StatusCode)
	assert.ErrorIs(t, err, types.ErrInvalidResponse)
}

func TestSearch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.APIKey = testKey
	c, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), testPayload())
	var upErr *types.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.True(t, upErr.IsTransport())
}

func TestSearch_MissingAPIKey(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	c.config.APIKey = "  "

	_, err := c.Search(context.Background(), testPayload())
	assert.ErrorIs(t, err, types.ErrMissingAPIKey)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSearch_ContextCancelledDuringBackoff(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, WithSleep(func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}))

	_, err := c.Search(context.Background(), testPayload())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProbe(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var got types.QueryPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "applicationMetaData.applicationTypeLabelName:Utility", got.Q)
		assert.Equal(t, 1, got.Pagination.Limit)
		assert.Equal(t, []types.Filter{{Name: types.FieldStatusDescription, Value: []string{"Patented Case"}}}, got.Filters)
		assert.Empty(t, got.Sort)
		_, _ = io.WriteString(w, `{"count":123456,"patentFileWrapperDataBag":[{}]}`)
	})

	total, err := c.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 123456, total)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProbe_NoRetryOn429(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Probe(context.Background())
	var upErr *types.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusTooManyRequests, upErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProbe_MissingKey(t *testing.T) {
	c, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	_, err = c.Probe(context.Background())
	assert.True(t, errors.Is(err, types.ErrMissingAPIKey))
}

func TestRequestInfo(t *testing.T) {
	c, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	info := c.RequestInfo()
	assert.Equal(t, "https://api.uspto.gov/api/v1/patent/applications/search", info.EndpointURL)
	assert.Equal(t, "[NOT SET]", info.Headers["X-API-KEY"])
	assert.Equal(t, "application/json", info.Headers["Content-Type"])
	assert.Equal(t, http.MethodPost, info.Method)

	c.config.APIKey = testKey
	assert.Equal(t, "abcd********5678", c.RequestInfo().Headers["X-API-KEY"])
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "****", MaskAPIKey("12345678"))
	assert.Equal(t, "1234*6789", MaskAPIKey("123456789"))
}
