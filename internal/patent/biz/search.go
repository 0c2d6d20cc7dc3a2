package biz

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/patent/query"
	"github.com/sadskatr/patent-database/internal/patent/types"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
)

// Upstream failure messages shown to users
const (
	msgUnauthorized = "API Key is invalid or unauthorized"
	msgNotFound     = "No matching records found or invalid endpoint"
)

// Search validates req, builds its payload and executes it
func (uc *PatentUseCase) Search(ctx context.Context, req *types.SearchRequest) *types.SearchResult {
	return uc.Execute(ctx, uc.BuildPayload(req))
}

// Execute sends payload upstream and maps the outcome into a result. An
// applicant search with no hits goes through the fallback strategy. When
// the search timeout runs out during the fallback, the best result found so
// far is returned.
func (uc *PatentUseCase) Execute(ctx context.Context, payload *types.QueryPayload) *types.SearchResult {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	log := uc.logger.With(zap.String("request_id", logger.GetRequestID(ctx)))

	page, err := uc.repo.Search(ctx, payload)
	if err != nil {
		result := failureResult(payload, err)
		log.Error("search failed", zap.String("q", payload.Q), zap.String("error", result.Error))
		return result
	}

	result := successResult(payload, page)
	log.Info("search succeeded",
		zap.Int("returned", len(page.Records)),
		zap.Int("total", page.Count),
		zap.Int("retries", page.Retries),
	)

	if len(page.Records) == 0 && query.HasApplicant(payload.Q) {
		log.Info("no results for applicant search, trying alternatives", zap.String("q", payload.Q))
		if alt := uc.fallback(ctx, payload, page.Retries); alt != nil {
			return alt
		}
	}
	return result
}

func successResult(payload *types.QueryPayload, page *types.SearchPage) *types.SearchResult {
	return &types.SearchResult{
		Success:      true,
		Data:         types.NewSearchData(page),
		QueryPayload: payload,
		Retries:      page.Retries,
	}
}

// failureResult maps client errors to the user-facing messages
func failureResult(payload *types.QueryPayload, err error) *types.SearchResult {
	result := &types.SearchResult{Success: false, QueryPayload: payload}

	var upErr *types.UpstreamError
	switch {
	case errors.Is(err, types.ErrMissingAPIKey):
		result.Error = types.ErrMissingAPIKey.Error()
	case errors.As(err, &upErr):
		result.Retries = upErr.Retries
		result.Error = upstreamMessage(upErr)
	default:
		result.Error = fmt.Sprintf("Request error: %v", err)
	}
	return result
}

func upstreamMessage(e *types.UpstreamError) string {
	switch e.StatusCode {
	case 0:
		return fmt.Sprintf("Request error: %v", e.Err)
	case http.StatusOK:
		return fmt.Sprintf("Connection error: %v", e.Err)
	case http.StatusForbidden:
		return msgUnauthorized
	case http.StatusNotFound:
		return msgNotFound
	default:
		return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Body)
	}
}
