package biz

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/patent/types"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
)

// Validator corrects search requests instead of rejecting them. Unknown
// fields are logged and kept, since the upstream API accepts more fields
// than the UI lists.
type Validator struct {
	logger *logger.Logger
}

// NewValidator creates a Validator
func NewValidator(log *logger.Logger) *Validator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Validator{logger: log.Named("validator")}
}

// Validate returns a corrected copy of req. It never fails.
func (v *Validator) Validate(req *types.SearchRequest) *types.SearchRequest {
	out := req.Clone()
	if out == nil {
		out = &types.SearchRequest{}
	}

	if !out.SearchType.IsValid() {
		v.logger.Warn("invalid search type, defaulting to simple", zap.String("search_type", string(out.SearchType)))
		out.SearchType = types.SearchSimple
	}

	v.checkQueryParams(out.SearchType, &out.QueryParams)
	out.Pagination = v.clampPagination(out.Pagination)

	if out.QueryParams.DateFrom != "" && out.QueryParams.DateTo != "" {
		v.logger.Debug("date range requested",
			zap.String("from", out.QueryParams.DateFrom),
			zap.String("to", out.QueryParams.DateTo),
		)
	}
	return out
}

func (v *Validator) checkQueryParams(t types.SearchType, qp *types.QueryParams) {
	log := v.logger.With(zap.String("search_type", string(t)))

	switch t {
	case types.SearchSimple:
		if strings.TrimSpace(qp.Term) == "" {
			log.Warn("no search term provided")
		}

	case types.SearchAdvancedQuery:
		if strings.TrimSpace(qp.RawQuery) == "" {
			log.Warn("no raw query provided")
		}

	case types.SearchBoolean:
		if len(qp.Terms) == 0 {
			log.Warn("no terms provided")
			return
		}
		kept := make([]types.BooleanTerm, 0, len(qp.Terms))
		for _, term := range qp.Terms {
			if term.Field == "" || term.Value == "" {
				log.Warn("dropping incomplete boolean term", zap.String("field", term.Field))
				continue
			}
			v.checkField(log, t, term.Field)
			kept = append(kept, term)
		}
		if len(kept) == 0 {
			log.Warn("no valid boolean terms")
		}
		qp.Terms = kept

	case types.SearchRange:
		if qp.Field == "" || qp.ValueFrom == "" || qp.ValueTo == "" {
			log.Warn("missing field, valueFrom or valueTo")
			return
		}
		v.checkField(log, t, qp.Field)

	case types.SearchFaceted:
		if len(qp.Facets) == 0 {
			log.Warn("no facets provided")
			return
		}
		for _, f := range qp.Facets {
			v.checkField(log, t, f.Field)
		}

	case types.SearchWildcard, types.SearchFieldSpecific, types.SearchFiltered,
		types.SearchExactPhrase, types.SearchGreaterThan, types.SearchLessThan,
		types.SearchBooleanParentheses:
		if qp.Field == "" || qp.Value == "" {
			log.Warn("missing field or value")
			return
		}
		v.checkField(log, t, qp.Field)
	}
}

func (v *Validator) checkField(log *logger.Logger, t types.SearchType, field string) {
	if !types.IsKnownField(t, field) {
		log.Warn("potentially invalid field, including anyway", zap.String("field", field))
	}
}

// clampPagination applies the default page and bounds the limit to
// [1, MaxResultsPerPage]. A zero limit means the default.
func (v *Validator) clampPagination(p *types.Pagination) *types.Pagination {
	if p == nil {
		d := types.DefaultPagination()
		return &d
	}

	out := *p
	switch {
	case out.Limit == 0:
		out.Limit = types.DefaultLimit
	case out.Limit < 1:
		v.logger.Warn("limit below minimum, adjusting", zap.Int("limit", out.Limit))
		out.Limit = 1
	case out.Limit > types.MaxResultsPerPage:
		v.logger.Warn("limit exceeds maximum, adjusting", zap.Int("limit", out.Limit), zap.Int("max", types.MaxResultsPerPage))
		out.Limit = types.MaxResultsPerPage
	}
	if out.Offset < 0 {
		v.logger.Warn("negative offset, setting to 0", zap.Int("offset", out.Offset))
		out.Offset = 0
	}
	return &out
}
