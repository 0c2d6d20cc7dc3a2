package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString decodes from a JSON string, number or bool. Form inputs arrive
// as either, and the upstream query syntax only ever needs the text.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	case 't', 'f':
		v, err := strconv.ParseBool(string(data))
		if err != nil {
			return fmt.Errorf("invalid boolean value %s", data)
		}
		*s = FlexString(strconv.FormatBool(v))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*s = FlexString(n.String())
	}
	return nil
}

// String returns the plain text value
func (s FlexString) String() string {
	return string(s)
}

// SearchRequest is the inbound search body
type SearchRequest struct {
	SearchType   SearchType    `json:"search_type"`
	QueryParams  QueryParams   `json:"query_params"`
	Pagination   *Pagination   `json:"pagination,omitempty"`
	Sort         []SortSpec    `json:"sort,omitempty"`
	Fields       []string      `json:"fields,omitempty"`
	Filters      []Filter      `json:"filters,omitempty"`
	RangeFilters []RangeFilter `json:"rangeFilters,omitempty"`
	QuickFields  QuickFields   `json:"quick_fields"`
}

// QueryParams holds the per-search-type inputs. Which members matter depends
// on the search type.
type QueryParams struct {
	Term      string        `json:"term,omitempty"`
	RawQuery  string        `json:"raw_query,omitempty"`
	Terms     []BooleanTerm `json:"terms,omitempty"`
	Field     string        `json:"field,omitempty"`
	Value     FlexString    `json:"value,omitempty"`
	ValueFrom FlexString    `json:"valueFrom,omitempty"`
	ValueTo   FlexString    `json:"valueTo,omitempty"`
	Facets    []Facet       `json:"facets,omitempty"`
	DateFrom  string        `json:"dateFrom,omitempty"`
	DateTo    string        `json:"dateTo,omitempty"`
}

// BooleanTerm is one field:value clause of a boolean search
type BooleanTerm struct {
	Field    string     `json:"field"`
	Value    FlexString `json:"value"`
	Operator string     `json:"operator,omitempty"`
}

// Facet narrows results to a set of values for one field
type Facet struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// QuickFields are the convenience inputs from the quick search form
type QuickFields struct {
	ApplicantName string `json:"applicant_name,omitempty"`
	InventorName  string `json:"inventor_name,omitempty"`
	Title         string `json:"title,omitempty"`
}

// IsEmpty reports whether no quick field is set
func (q QuickFields) IsEmpty() bool {
	return q.ApplicantName == "" && q.InventorName == "" && q.Title == ""
}

// Clone returns a deep copy of the request
func (r *SearchRequest) Clone() *SearchRequest {
	if r == nil {
		return nil
	}

	out := *r
	if r.Pagination != nil {
		p := *r.Pagination
		out.Pagination = &p
	}
	out.Sort = append([]SortSpec(nil), r.Sort...)
	out.Fields = append([]string(nil), r.Fields...)
	out.Filters = cloneFilters(r.Filters)
	out.RangeFilters = append([]RangeFilter(nil), r.RangeFilters...)
	out.QueryParams.Terms = append([]BooleanTerm(nil), r.QueryParams.Terms...)
	if r.QueryParams.Facets != nil {
		out.QueryParams.Facets = make([]Facet, len(r.QueryParams.Facets))
		for i, f := range r.QueryParams.Facets {
			out.QueryParams.Facets[i] = Facet{Field: f.Field, Values: append([]string(nil), f.Values...)}
		}
	}
	return &out
}
