package types

import "encoding/json"

// PatentRecord is one opaque entry of patentFileWrapperDataBag
type PatentRecord = json.RawMessage

// SearchPage is a decoded upstream response
type SearchPage struct {
	Records []PatentRecord
	Count   int
	Retries int
}

// SearchResult is the envelope returned to callers of the search endpoint
type SearchResult struct {
	Success      bool          `json:"success"`
	Data         *SearchData   `json:"data,omitempty"`
	QueryPayload *QueryPayload `json:"query_payload,omitempty"`
	Error        string        `json:"error,omitempty"`
	Note         string        `json:"note,omitempty"`
	Retries      int           `json:"retries,omitempty"`
}

// SearchData carries the records of a successful search
type SearchData struct {
	Results  []PatentRecord `json:"results"`
	Metadata Metadata       `json:"metadata"`
	Count    int            `json:"count"`
}

// Metadata describes the full result set
type Metadata struct {
	Total int `json:"total"`
}

// ResultCount returns the number of records on the page, zero for failures
func (r *SearchResult) ResultCount() int {
	if r == nil || !r.Success || r.Data == nil {
		return 0
	}
	return len(r.Data.Results)
}

// NewSearchData builds the data block from a decoded page
func NewSearchData(page *SearchPage) *SearchData {
	results := page.Records
	if results == nil {
		results = []PatentRecord{}
	}
	return &SearchData{
		Results:  results,
		Metadata: Metadata{Total: page.Count},
		Count:    page.Count,
	}
}

// RequestInfo describes how a payload is sent upstream, with the key masked
type RequestInfo struct {
	EndpointURL string            `json:"endpoint_url"`
	Headers     map[string]string `json:"headers"`
	Method      string            `json:"method"`
}
