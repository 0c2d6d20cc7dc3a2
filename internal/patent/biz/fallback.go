package biz

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/patent/query"
	"github.com/sadskatr/patent-database/internal/patent/types"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/pkg/metrics"
)

// Notes attached to results produced by the fallback strategy
const (
	noteAlternativePrefix = "Used alternative company name format: "
	noteDateRangeOnly     = "Used fallback search with date range only. The specific company name was not found."
)

// nameCandidate is one reformulation of the applicant clause. label is what
// the note reports; clause replaces the applicant clause in q.
type nameCandidate struct {
	label  string
	clause string
}

// applicantCandidates lists the reformulations of name in the order they are
// tried.
func applicantCandidates(name string) []nameCandidate {
	name = strings.TrimSpace(query.Unquote(name))
	words := strings.Fields(name)
	if len(words) == 0 {
		return nil
	}
	multi := len(words) > 1

	var out []nameCandidate
	applicant := func(value string) {
		out = append(out, nameCandidate{label: value, clause: query.Term(types.FieldFirstNamedApp, value)})
	}

	if multi {
		applicant(name)
	}
	applicant(query.Quote(name))
	if multi {
		applicant(words[0] + "*")
	}

	if suffix := query.CompanySuffix(name); suffix != "" && multi {
		base := strings.TrimRight(strings.Join(words[:len(words)-1], " "), ",")
		applicant(query.FormatName(base))

		switch suffix {
		case "LLC":
			applicant(query.FormatName(base + " L.L.C."))
			applicant(query.FormatName(base + ", LLC"))
		case "INC":
			applicant(query.FormatName(base + " Inc."))
			applicant(query.FormatName(base + ", Inc."))
		case "CORP":
			applicant(query.FormatName(base + " Corporation"))
			applicant(query.FormatName(base + ", Corp."))
		}
	}

	assignee := query.Term(types.FieldAssigneeName, query.FormatName(name))
	out = append(out, nameCandidate{label: assignee, clause: assignee})

	if multi {
		out = append(out, nameCandidate{label: words[0], clause: words[0]})
	}
	return out
}

// fallback retries an applicant search that found nothing. It returns nil
// when neither the reformulations nor the date-range-only search find
// anything. The returned result reports the retries of the primary request.
func (uc *PatentUseCase) fallback(ctx context.Context, original *types.QueryPayload, retries int) *types.SearchResult {
	log := uc.logger.With(zap.String("request_id", logger.GetRequestID(ctx)))

	if best := uc.tryAlternatives(ctx, original, log); best != nil {
		uc.metrics.IncFallback(metrics.FallbackAlternative)
		best.Retries = retries
		return best
	}

	if last := uc.tryDateRangeOnly(ctx, original, log); last != nil {
		uc.metrics.IncFallback(metrics.FallbackDateRange)
		last.Retries = retries
		return last
	}

	uc.metrics.IncFallback(metrics.FallbackExhausted)
	log.Info("fallback found nothing, returning original result")
	return nil
}

// tryAlternatives runs every candidate in order and keeps the one with the
// most records. Ties keep the earlier candidate.
func (uc *PatentUseCase) tryAlternatives(ctx context.Context, original *types.QueryPayload, log *logger.Logger) *types.SearchResult {
	name, ok := query.ApplicantName(original.Q)
	if !ok {
		return nil
	}
	log.Info("extracted applicant name", zap.String("name", name))

	seen := map[string]bool{original.Q: true}
	var best *types.SearchResult
	bestCount := 0

	for _, cand := range applicantCandidates(name) {
		if ctx.Err() != nil {
			log.Warn("fallback cancelled", zap.Error(ctx.Err()))
			break
		}

		q, ok := query.ReplaceApplicant(original.Q, cand.clause)
		if !ok || seen[q] {
			continue
		}
		seen[q] = true

		payload := original.Clone()
		payload.Q = q
		log.Info("trying alternative applicant format", zap.String("candidate", cand.label), zap.String("q", q))

		page, err := uc.repo.Search(ctx, payload)
		if err != nil {
			log.Warn("alternative search failed", zap.String("candidate", cand.label), zap.Error(err))
			continue
		}
		log.Info("alternative search returned", zap.String("candidate", cand.label), zap.Int("returned", len(page.Records)))

		if len(page.Records) > bestCount {
			bestCount = len(page.Records)
			best = successResult(payload, page)
			best.Note = noteAlternativePrefix + cand.label
		}
	}
	return best
}

// tryDateRangeOnly drops q entirely, keeping filters and range filters. The
// page size is capped at FallbackLimit.
func (uc *PatentUseCase) tryDateRangeOnly(ctx context.Context, original *types.QueryPayload, log *logger.Logger) *types.SearchResult {
	if ctx.Err() != nil {
		return nil
	}

	payload := original.Clone()
	payload.Q = "*"
	payload.Pagination.Limit = min(payload.Pagination.Limit, types.FallbackLimit)
	log.Info("trying date range only search", zap.Int("range_filters", len(payload.RangeFilters)))

	page, err := uc.repo.Search(ctx, payload)
	if err != nil {
		log.Warn("date range only search failed", zap.Error(err))
		return nil
	}
	if len(page.Records) == 0 {
		return nil
	}

	result := successResult(payload, page)
	result.Note = noteDateRangeOnly
	return result
}
