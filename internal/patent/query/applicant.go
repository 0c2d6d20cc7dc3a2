package query

import (
	"strings"

	"github.com/sadskatr/patent-database/internal/patent/types"
)

// applicantFields are the canonical applicant field and its legacy alias
var applicantFields = []string{types.FieldFirstNamedApp, types.FieldLegacyApplicant}

// NormalizeApplicant rewrites the legacy applicant alias to the canonical
// field and quotes multi-word applicant values as one phrase. Only the
// applicant clauses change; the rest of q is preserved.
func NormalizeApplicant(q string) string {
	parsed := Parse(q)
	return parsed.Rewrite(func(c Clause) (string, bool) {
		if c.Field != types.FieldFirstNamedApp && c.Field != types.FieldLegacyApplicant {
			return "", false
		}

		value := c.Value
		if c.Plain() && strings.ContainsAny(value, " \t") {
			value = Quote(value)
		}

		if c.Field == types.FieldFirstNamedApp && value == c.Value {
			return "", false
		}
		return Term(types.FieldFirstNamedApp, value), true
	})
}

// HasApplicant reports whether q holds an applicant-name clause
func HasApplicant(q string) bool {
	return Parse(q).Has(applicantFields...)
}

// ApplicantName extracts the unquoted name from the first applicant clause
func ApplicantName(q string) (string, bool) {
	c, ok := Parse(q).Find(applicantFields...)
	if !ok {
		return "", false
	}
	name := strings.TrimSpace(c.Text())
	return name, name != ""
}

// ReplaceApplicant substitutes replacement for the first applicant clause of q
func ReplaceApplicant(q, replacement string) (string, bool) {
	parsed := Parse(q)
	c, ok := parsed.Find(applicantFields...)
	if !ok {
		return q, false
	}
	return parsed.Apply(Edit{Start: c.Start, End: c.End, Text: replacement}), true
}

// FormatName prepares a person or company name for a field clause. Names
// containing whitespace, commas or periods are quoted.
func FormatName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || IsQuoted(name) {
		return name
	}
	if strings.ContainsAny(name, " ,.") {
		return Quote(name)
	}
	return name
}

// CompanySuffix returns the trailing company suffix of name in upper case,
// or "" when the last word is not one.
func CompanySuffix(name string) string {
	words := strings.Fields(Unquote(strings.TrimSpace(name)))
	if len(words) == 0 {
		return ""
	}
	last := strings.ToUpper(strings.TrimRight(words[len(words)-1], ".,"))
	for _, s := range types.CompanySuffixes {
		if last == s {
			return s
		}
	}
	return ""
}
