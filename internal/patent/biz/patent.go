package biz

import (
	"context"
	"time"

	"github.com/sadskatr/patent-database/internal/patent/types"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/pkg/metrics"
)

// PatentRepo is the upstream search API
type PatentRepo interface {
	Search(ctx context.Context, payload *types.QueryPayload) (*types.SearchPage, error)
	Probe(ctx context.Context) (int, error)
	RequestInfo() types.RequestInfo
}

// PatentUseCase runs searches, previews and connectivity checks
type PatentUseCase struct {
	repo      PatentRepo
	validator *Validator
	builder   *PayloadBuilder
	logger    *logger.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
}

// Option customizes a PatentUseCase
type Option func(*patentOptions)

type patentOptions struct {
	now     func() time.Time
	metrics *metrics.Metrics
	timeout time.Duration
}

// WithClock sets the clock used by the date range policy
func WithClock(now func() time.Time) Option {
	return func(o *patentOptions) { o.now = now }
}

// WithMetrics records fallback outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *patentOptions) { o.metrics = m }
}

// WithSearchTimeout bounds one search, including every fallback request.
// Zero leaves the caller's context as is.
func WithSearchTimeout(d time.Duration) Option {
	return func(o *patentOptions) { o.timeout = d }
}

// NewPatentUseCase creates a PatentUseCase
func NewPatentUseCase(repo PatentRepo, log *logger.Logger, opts ...Option) *PatentUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	o := &patentOptions{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	return &PatentUseCase{
		repo:      repo,
		validator: NewValidator(log),
		builder:   NewPayloadBuilder(log, o.now),
		logger:    log.Named("patent"),
		metrics:   o.metrics,
		timeout:   o.timeout,
	}
}

// BuildPayload validates req and builds its upstream payload
func (uc *PatentUseCase) BuildPayload(req *types.SearchRequest) *types.QueryPayload {
	return uc.builder.Build(uc.validator.Validate(req))
}

// PreviewData is what a search would send, without sending it
type PreviewData struct {
	types.RequestInfo
	QueryPayload *types.QueryPayload `json:"query_payload"`
}

// Preview builds the payload for req and describes the outgoing request
func (uc *PatentUseCase) Preview(req *types.SearchRequest) *PreviewData {
	return &PreviewData{
		RequestInfo:  uc.repo.RequestInfo(),
		QueryPayload: uc.BuildPayload(req),
	}
}
