package types

// QueryPayload is the JSON body posted to the ODP search endpoint. Member
// order matches the order the API documents.
type QueryPayload struct {
	Fields       []string      `json:"fields"`
	Filters      []Filter      `json:"filters"`
	Pagination   Pagination    `json:"pagination"`
	Q            string        `json:"q"`
	RangeFilters []RangeFilter `json:"rangeFilters,omitempty"`
	Sort         []SortSpec    `json:"sort,omitempty"`
}

// Filter restricts a field to a list of values
type Filter struct {
	Name  string   `json:"name"`
	Value []string `json:"value"`
}

// RangeFilter is an inclusive interval on one field
type RangeFilter struct {
	Field     string     `json:"field"`
	ValueFrom FlexString `json:"valueFrom"`
	ValueTo   FlexString `json:"valueTo"`
}

// Pagination selects a page of results
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// SortSpec orders results by one field
type SortSpec struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Clone returns a deep copy of the payload
func (p *QueryPayload) Clone() *QueryPayload {
	if p == nil {
		return nil
	}

	out := *p
	out.Fields = append([]string(nil), p.Fields...)
	out.Filters = cloneFilters(p.Filters)
	out.RangeFilters = append([]RangeFilter(nil), p.RangeFilters...)
	out.Sort = append([]SortSpec(nil), p.Sort...)
	return &out
}

// HasRangeFilter reports whether a range filter exists for field
func (p *QueryPayload) HasRangeFilter(field string) bool {
	for _, rf := range p.RangeFilters {
		if rf.Field == field {
			return true
		}
	}
	return false
}

// SetRangeFilter replaces the entry for rf.Field or appends it
func (p *QueryPayload) SetRangeFilter(rf RangeFilter) {
	for i := range p.RangeFilters {
		if p.RangeFilters[i].Field == rf.Field {
			p.RangeFilters[i] = rf
			return
		}
	}
	p.RangeFilters = append(p.RangeFilters, rf)
}

// MergeFilter adds values under name, creating the filter when absent and
// skipping values already listed.
func (p *QueryPayload) MergeFilter(name string, values ...string) {
	for i := range p.Filters {
		if p.Filters[i].Name != name {
			continue
		}
		for _, v := range values {
			if !containsString(p.Filters[i].Value, v) {
				p.Filters[i].Value = append(p.Filters[i].Value, v)
			}
		}
		return
	}

	f := Filter{Name: name}
	for _, v := range values {
		if !containsString(f.Value, v) {
			f.Value = append(f.Value, v)
		}
	}
	p.Filters = append(p.Filters, f)
}

func cloneFilters(in []Filter) []Filter {
	if in == nil {
		return nil
	}
	out := make([]Filter, len(in))
	for i, f := range in {
		out[i] = Filter{Name: f.Name, Value: append([]string(nil), f.Value...)}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
