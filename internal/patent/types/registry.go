package types

// SearchType identifies how query_params are turned into a q string
type SearchType string

const (
	SearchSimple             SearchType = "simple"
	SearchBoolean            SearchType = "boolean"
	SearchWildcard           SearchType = "wildcard"
	SearchFieldSpecific      SearchType = "field_specific"
	SearchRange              SearchType = "range"
	SearchFiltered           SearchType = "filtered"
	SearchFaceted            SearchType = "faceted"
	SearchAdvancedQuery      SearchType = "advanced_query"
	SearchExactPhrase        SearchType = "exact_phrase"
	SearchGreaterThan        SearchType = "greater_than"
	SearchLessThan           SearchType = "less_than"
	SearchBooleanParentheses SearchType = "boolean_parentheses"

	// sorting is only a field group for the UI, never a valid search_type
	fieldGroupSorting = "sorting"
)

// Upstream endpoints
const (
	DefaultBaseURL  = "https://api.uspto.gov"
	SearchPath      = "/api/v1/patent/applications/search"
	ApplicationPath = "/api/v1/patent/applications"
)

// Well-known field names
const (
	FieldInventionTitle     = "inventionTitle"
	FieldFilingDate         = "applicationMetaData.filingDate"
	FieldApplicationNumber  = "applicationMetaData.applicationNumberText"
	FieldStatusDescription  = "applicationMetaData.applicationStatusDescriptionText"
	FieldTypeLabel          = "applicationMetaData.applicationTypeLabelName"
	FieldFirstNamedApp      = "applicationMetaData.firstNamedApplicant"
	FieldLegacyApplicant    = "applicationMetaData.firstApplicantName"
	FieldFirstNamedInventor = "applicationMetaData.firstNamedInventor"
	FieldAssigneeName       = "assigneeName"
)

// Pagination and sort defaults
const (
	DefaultOffset     = 0
	DefaultLimit      = 50
	MaxResultsPerPage = 100
	FallbackLimit     = 20
	SimilarLimit      = 20

	SortAsc  = "asc"
	SortDesc = "desc"
)

// SearchTypes lists every supported search type in UI order.
var SearchTypes = []SearchType{
	SearchSimple,
	SearchBoolean,
	SearchWildcard,
	SearchFieldSpecific,
	SearchRange,
	SearchFiltered,
	SearchFaceted,
	SearchAdvancedQuery,
	SearchExactPhrase,
	SearchGreaterThan,
	SearchLessThan,
	SearchBooleanParentheses,
}

// BooleanOperators accepted between boolean search terms
var BooleanOperators = []string{"AND", "OR", "NOT"}

// CompanySuffixes are trailing name tokens that mark an applicant as a company.
var CompanySuffixes = []string{"LLC", "INC", "CORP", "CORPORATION", "CO", "LTD", "LIMITED", "LP", "LLP"}

// CSVExportFields are the dotted record paths written by the CSV exporter, in column order.
var CSVExportFields = []string{
	"inventionTitle",
	"applicationMetaData.applicationNumberText",
	"applicationMetaData.filingDate",
	"grantDate",
	"inventorNameText",
	"assigneeEntityName",
	"applicationMetaData.applicationStatusDescriptionText",
	"applicationMetaData.applicationTypeLabelName",
}

// FilterableFields are the fields a filtered search also pushes into filters.
var FilterableFields = []string{FieldStatusDescription, FieldTypeLabel}

var booleanFields = []string{
	"inventionTitle",
	"patentText",
	"applicationMetaData.applicationStatusDescriptionText",
	"applicationMetaData.applicationNumberText",
	"applicationMetaData.filingDate",
	"inventorNameText",
	"applicationMetaData.firstInventorName",
	"applicationMetaData.firstApplicantName",
	"applicationMetaData.docketNumber",
	"applicationMetaData.examinerNameText",
	"applicationMetaData.applicationTypeLabelName",
	"applicationMetaData.class",
	"applicationMetaData.subclass",
	"applicationMetaData.entityStatusData.businessEntityStatusCategory",
}

var validFields = map[string][]string{
	string(SearchSimple):  {"inventionTitle", "patentText"},
	string(SearchBoolean): booleanFields,
	string(SearchWildcard): {
		"inventionTitle",
		"patentText",
		"applicationMetaData.firstApplicantName",
		"applicationMetaData.examinerNameText",
	},
	string(SearchFieldSpecific): {
		"inventionTitle",
		"applicationMetaData.applicationNumberText",
		"filingDate",
		"inventorNameText",
		"assigneeEntityName",
		"applicationMetaData.applicationStatusDescriptionText",
		"applicationMetaData.entityStatusData.businessEntityStatusCategory",
		"applicationMetaData.applicationTypeLabelName",
	},
	string(SearchRange): {
		"applicationMetaData.filingDate",
		"grantDate",
		"applicationStatusCode",
		"applicationMetaData.applicationConfirmationNumber",
	},
	fieldGroupSorting: {
		"applicationMetaData.filingDate",
		"grantDate",
	},
	string(SearchFiltered): {
		"applicationMetaData.applicationStatusDescriptionText",
		"applicationMetaData.entityStatusData.smallEntityStatusIndicator",
		"applicationMetaData.applicationTypeLabelName",
		"applicationMetaData.entityStatusData.businessEntityStatusCategory",
	},
	string(SearchFaceted): {
		"applicationMetaData.applicationTypeLabelName",
		"applicationMetaData.applicationStatusCode",
		"applicationMetaData.entityStatusData.businessEntityStatusCategory",
	},
	string(SearchAdvancedQuery): append(append([]string{}, booleanFields...),
		"applicationMetaData.applicationConfirmationNumber",
		"applicationMetaData.applicationStatusDate",
	),
	string(SearchExactPhrase): {
		"applicationMetaData.applicationStatusDescriptionText",
		"inventionTitle",
		"patentText",
	},
	string(SearchGreaterThan): {
		"applicationMetaData.applicationStatusDate",
		"applicationMetaData.filingDate",
	},
	string(SearchLessThan): {
		"applicationMetaData.applicationStatusDate",
		"applicationMetaData.filingDate",
	},
	string(SearchBooleanParentheses): {
		"applicationMetaData.applicationTypeLabelName",
		"applicationMetaData.entityStatusData.businessEntityStatusCategory",
	},
}

var fieldDisplayNames = map[string]string{
	"inventionTitle":                                  "Invention Title",
	"patentText":                                      "Patent Text",
	"applicationMetaData.applicationNumberText":       "Application Number",
	"applicationMetaData.filingDate":                  "Filing Date",
	"filingDate":                                      "Filing Date",
	"grantDate":                                       "Grant Date",
	"inventorNameText":                                "Inventor Name",
	"applicationMetaData.firstInventorName":           "First Inventor",
	"applicationMetaData.firstApplicantName":          "Applicant Company",
	"assigneeEntityName":                              "Assignee Entity Name",
	"applicationMetaData.applicationStatusDescriptionText": "Application Status",
	"applicationMetaData.applicationTypeLabelName":         "Application Type",
	"applicationMetaData.entityStatusData.smallEntityStatusIndicator":  "Small Entity Status",
	"applicationMetaData.entityStatusData.businessEntityStatusCategory": "Business Entity Status",
	"applicationMetaData.applicationStatusCode":                         "Application Status Code",
	"applicationMetaData.docketNumber":                                  "Docket Number",
	"applicationMetaData.examinerNameText":                              "Examiner Name",
	"applicationMetaData.class":                                         "USPTO Class",
	"applicationMetaData.subclass":                                      "USPTO Subclass",
}

// FieldInfo pairs a field name with its UI label
type FieldInfo struct {
	Field       string `json:"field"`
	DisplayName string `json:"display_name"`
}

// IsValid reports whether t is a known search type
func (t SearchType) IsValid() bool {
	for _, st := range SearchTypes {
		if st == t {
			return true
		}
	}
	return false
}

// ValidFields returns the field group registered under name. Besides every
// search type, the "sorting" group is also registered.
func ValidFields(name string) ([]FieldInfo, bool) {
	fields, ok := validFields[name]
	if !ok {
		return nil, false
	}

	infos := make([]FieldInfo, len(fields))
	for i, f := range fields {
		infos[i] = FieldInfo{Field: f, DisplayName: DisplayName(f)}
	}
	return infos, true
}

// FieldGroups returns every registered field group keyed by name
func FieldGroups() map[string][]FieldInfo {
	out := make(map[string][]FieldInfo, len(validFields))
	for name := range validFields {
		out[name], _ = ValidFields(name)
	}
	return out
}

// IsKnownField reports whether field belongs to the group for t
func IsKnownField(t SearchType, field string) bool {
	for _, f := range validFields[string(t)] {
		if f == field {
			return true
		}
	}
	return false
}

// DisplayName returns the UI label for field, or the field itself when unlabeled
func DisplayName(field string) string {
	if name, ok := fieldDisplayNames[field]; ok {
		return name
	}
	return field
}

// FieldDisplayNames returns a copy of the label table
func FieldDisplayNames() map[string]string {
	out := make(map[string]string, len(fieldDisplayNames))
	for k, v := range fieldDisplayNames {
		out[k] = v
	}
	return out
}

// DefaultFields is the projection used when a request names none
func DefaultFields() []string {
	return []string{
		"inventionTitle",
		"applicationNumberText",
		"applicationMetaData",
		"inventorNameText",
	}
}

// DefaultSort orders by filing date, newest first
func DefaultSort() []SortSpec {
	return []SortSpec{{Field: FieldFilingDate, Order: SortDesc}}
}

// DefaultPagination is the first page at the default page size
func DefaultPagination() Pagination {
	return Pagination{Offset: DefaultOffset, Limit: DefaultLimit}
}
