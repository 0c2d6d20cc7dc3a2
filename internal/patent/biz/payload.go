package biz

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/patent/query"
	"github.com/sadskatr/patent-database/internal/patent/types"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
)

// PayloadBuilder turns a validated request into the upstream query body. It
// does no I/O; the clock only feeds the date range policy.
type PayloadBuilder struct {
	logger *logger.Logger
	now    func() time.Time
}

// NewPayloadBuilder creates a builder. A nil now uses time.Now.
func NewPayloadBuilder(log *logger.Logger, now func() time.Time) *PayloadBuilder {
	if log == nil {
		log = logger.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &PayloadBuilder{logger: log.Named("payload"), now: now}
}

// Build assembles the payload for req. q is never empty.
func (b *PayloadBuilder) Build(req *types.SearchRequest) *types.QueryPayload {
	if req == nil {
		req = &types.SearchRequest{SearchType: types.SearchSimple}
	}

	p := &types.QueryPayload{
		Fields:     append([]string(nil), req.Fields...),
		Filters:    []types.Filter{},
		Pagination: types.DefaultPagination(),
		Sort:       append([]types.SortSpec(nil), req.Sort...),
	}
	if len(p.Fields) == 0 {
		p.Fields = types.DefaultFields()
	}
	if req.Pagination != nil {
		p.Pagination = *req.Pagination
	}
	if len(p.Sort) == 0 {
		p.Sort = types.DefaultSort()
	}
	for _, f := range req.Filters {
		p.MergeFilter(f.Name, f.Value...)
	}

	qp := req.QueryParams
	if qp.DateFrom != "" && qp.DateTo != "" {
		from, to := ClampDateRange(qp.DateFrom, qp.DateTo, b.now(), b.logger)
		p.SetRangeFilter(types.RangeFilter{
			Field:     types.FieldFilingDate,
			ValueFrom: types.FlexString(from),
			ValueTo:   types.FlexString(to),
		})
	}
	for _, rf := range req.RangeFilters {
		if rf.Field == "" || p.HasRangeFilter(rf.Field) {
			continue
		}
		p.RangeFilters = append(p.RangeFilters, rf)
	}

	q := b.typeQuery(req.SearchType, qp, p)
	q = b.withQuickFields(q, req.QuickFields)
	q = b.normalizeApplicant(q)
	if strings.TrimSpace(q) == "" {
		q = "*"
	}
	p.Q = q

	b.logger.Debug("payload built",
		zap.String("search_type", string(req.SearchType)),
		zap.String("q", p.Q),
		zap.Int("filters", len(p.Filters)),
		zap.Int("range_filters", len(p.RangeFilters)),
	)
	return p
}

// typeQuery derives q for the search type. Range, filtered and faceted
// searches also write into p's filters.
func (b *PayloadBuilder) typeQuery(t types.SearchType, qp types.QueryParams, p *types.QueryPayload) string {
	field := qp.Field
	value := qp.Value.String()

	switch t {
	case types.SearchSimple:
		return strings.TrimSpace(qp.Term)

	case types.SearchAdvancedQuery:
		return qp.RawQuery

	case types.SearchBoolean:
		return booleanQuery(qp.Terms)

	case types.SearchWildcard:
		if field == "" {
			field = types.FieldInventionTitle
		}
		if value == "" {
			return ""
		}
		if !strings.HasSuffix(value, "*") {
			value += "*"
		}
		return query.Term(field, value)

	case types.SearchFieldSpecific:
		if field == "" || value == "" {
			return ""
		}
		return query.Term(field, value)

	case types.SearchRange:
		if field == "" {
			field = types.FieldFilingDate
		}
		if qp.ValueFrom == "" || qp.ValueTo == "" {
			return ""
		}
		p.SetRangeFilter(types.RangeFilter{Field: field, ValueFrom: qp.ValueFrom, ValueTo: qp.ValueTo})
		return field + ":[" + qp.ValueFrom.String() + " TO " + qp.ValueTo.String() + "]"

	case types.SearchFiltered:
		if field == "" || value == "" {
			return ""
		}
		for _, f := range types.FilterableFields {
			if f == field {
				p.MergeFilter(field, value)
			}
		}
		return query.Term(field, value)

	case types.SearchFaceted:
		for _, facet := range qp.Facets {
			if facet.Field != "" && len(facet.Values) > 0 {
				p.MergeFilter(facet.Field, facet.Values...)
			}
		}
		return ""

	case types.SearchExactPhrase:
		if field == "" || value == "" {
			return ""
		}
		if !query.IsQuoted(value) {
			value = query.Quote(value)
		}
		return query.Term(field, value)

	case types.SearchGreaterThan:
		if field == "" || value == "" {
			return ""
		}
		return query.Term(field, ">="+value)

	case types.SearchLessThan:
		if field == "" || value == "" {
			return ""
		}
		return query.Term(field, "<="+value)

	case types.SearchBooleanParentheses:
		if field == "" || value == "" {
			return ""
		}
		return query.Term(field, "("+value+")")
	}
	return ""
}

// booleanQuery joins terms as "a:1 AND b:2". The first emitted term carries
// no operator; unknown operators become AND.
func booleanQuery(terms []types.BooleanTerm) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		if t.Field == "" || t.Value == "" {
			continue
		}
		clause := query.Term(t.Field, t.Value.String())
		if len(parts) > 0 {
			parts = append(parts, booleanOperator(t.Operator))
		}
		parts = append(parts, clause)
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func booleanOperator(op string) string {
	op = strings.ToUpper(strings.TrimSpace(op))
	for _, known := range types.BooleanOperators {
		if op == known {
			return op
		}
	}
	return "AND"
}

// withQuickFields ANDs the quick search clauses onto q, or replaces q when it
// matches everything.
func (b *PayloadBuilder) withQuickFields(q string, quick types.QuickFields) string {
	if quick.IsEmpty() {
		return q
	}

	var clauses []string
	if name := strings.TrimSpace(quick.ApplicantName); name != "" {
		clauses = append(clauses, query.Term(types.FieldFirstNamedApp, query.FormatName(name)))
	}
	if name := strings.TrimSpace(quick.InventorName); name != "" {
		clauses = append(clauses, query.Term(types.FieldFirstNamedInventor, query.FormatName(name)))
	}
	if title := strings.TrimSpace(quick.Title); title != "" {
		clauses = append(clauses, query.Term(types.FieldInventionTitle, title))
	}
	if len(clauses) == 0 {
		return q
	}

	quickQuery := strings.Join(clauses, " AND ")
	trimmed := strings.TrimSpace(q)
	if trimmed == "" || trimmed == "*" {
		return quickQuery
	}
	return "(" + trimmed + ") AND (" + quickQuery + ")"
}

func (b *PayloadBuilder) normalizeApplicant(q string) string {
	normalized := query.NormalizeApplicant(q)
	if normalized != q {
		b.logger.Info("normalized applicant clause", zap.String("from", q), zap.String("to", normalized))
	}
	if name, ok := query.ApplicantName(normalized); ok {
		if suffix := query.CompanySuffix(name); suffix != "" {
			b.logger.Info("company name detected", zap.String("name", name), zap.String("suffix", suffix))
		}
	}
	return normalized
}
