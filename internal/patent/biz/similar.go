package biz

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/patent/query"
	"github.com/sadskatr/patent-database/internal/patent/types"
	apperrors "github.com/sadskatr/patent-database/internal/pkg/errors"
)

const maxSimilarTerms = 3

var similarStopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true,
	"from": true, "that": true, "this": true, "not": true,
}

// SignificantTerms returns up to three lower-cased words of title longer
// than three runes, skipping stop words. Words are runs of letters, digits
// and underscores.
func SignificantTerms(title string) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})

	terms := make([]string, 0, maxSimilarTerms)
	for _, w := range words {
		if len([]rune(w)) <= 3 || similarStopWords[w] {
			continue
		}
		terms = append(terms, w)
		if len(terms) == maxSimilarTerms {
			break
		}
	}
	return terms
}

// SimilarRequest builds the advanced query search for patents whose titles
// share terms with title, excluding applicationNumber when given.
func SimilarRequest(title, applicationNumber string) (*types.SearchRequest, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.New(apperrors.ErrTitleRequired)
	}
	terms := SignificantTerms(title)
	if len(terms) == 0 {
		return nil, apperrors.New(apperrors.ErrNoSignificantTerm)
	}

	q := query.Term(types.FieldInventionTitle, query.Group("OR", terms...))
	if n := strings.TrimSpace(applicationNumber); n != "" {
		q += " AND NOT " + query.Term(types.FieldApplicationNumber, n)
	}

	return &types.SearchRequest{
		SearchType:  types.SearchAdvancedQuery,
		QueryParams: types.QueryParams{RawQuery: q},
		Pagination:  &types.Pagination{Offset: 0, Limit: types.SimilarLimit},
		Sort:        types.DefaultSort(),
	}, nil
}

// FindSimilar searches for patents with titles similar to title
func (uc *PatentUseCase) FindSimilar(ctx context.Context, title, applicationNumber string) (*types.SearchResult, error) {
	req, err := SimilarRequest(title, applicationNumber)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("finding similar patents",
		zap.String("raw_query", req.QueryParams.RawQuery),
		zap.String("exclude", applicationNumber),
	)
	return uc.Search(ctx, req), nil
}
