package query

import (
	"sort"
	"strings"
)

// Clause is a field:value pair located in a q string. An unquoted plain value
// runs over the following bare words until an operator, a parenthesis or the
// next field clause, so "field:Acme Corp AND x" yields the value "Acme Corp".
type Clause struct {
	Field string
	Value string
	Start int
	End   int
}

// String serializes the clause back to wire syntax
func (c Clause) String() string {
	return c.Field + ":" + c.Value
}

// Quoted reports whether the value is a single quoted phrase
func (c Clause) Quoted() bool {
	return IsQuoted(c.Value)
}

// Plain reports whether the value is free text rather than a phrase, range
// or group.
func (c Clause) Plain() bool {
	if c.Value == "" {
		return true
	}
	switch c.Value[0] {
	case '"', '(', '[', '{':
		return false
	}
	return true
}

// Text returns the value with surrounding quotes removed
func (c Clause) Text() string {
	return Unquote(c.Value)
}

// Query is a parsed q string
type Query struct {
	Raw     string
	Tokens  []Token
	Clauses []Clause
}

// Parse tokenizes q and collects its field clauses
func Parse(q string) *Query {
	tokens := Tokenize(q)
	query := &Query{Raw: q, Tokens: tokens}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind != TokenTerm {
			continue
		}
		field, value, ok := splitField(tok.Text)
		if !ok {
			continue
		}

		clause := Clause{Field: field, Value: value, Start: tok.Pos, End: tok.End()}
		if clause.Plain() {
			words := []string{}
			if value != "" {
				words = append(words, value)
			}
			for i+1 < len(tokens) && isBareWord(tokens[i+1]) {
				i++
				words = append(words, tokens[i].Text)
				clause.End = tokens[i].End()
			}
			clause.Value = strings.Join(words, " ")
		}
		query.Clauses = append(query.Clauses, clause)
	}

	return query
}

// Find returns the first clause whose field is one of fields
func (q *Query) Find(fields ...string) (Clause, bool) {
	for _, c := range q.Clauses {
		for _, f := range fields {
			if c.Field == f {
				return c, true
			}
		}
	}
	return Clause{}, false
}

// Has reports whether any clause targets one of fields
func (q *Query) Has(fields ...string) bool {
	_, ok := q.Find(fields...)
	return ok
}

// Edit replaces the source bytes in [Start, End) with Text
type Edit struct {
	Start int
	End   int
	Text  string
}

// Apply returns the source with edits applied. Edits must not overlap.
func (q *Query) Apply(edits ...Edit) string {
	if len(edits) == 0 {
		return q.Raw
	}

	sorted := append([]Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	last := 0
	for _, e := range sorted {
		b.WriteString(q.Raw[last:e.Start])
		b.WriteString(e.Text)
		last = e.End
	}
	b.WriteString(q.Raw[last:])
	return b.String()
}

// Rewrite passes every clause to fn and substitutes the returned text for
// the clause span whenever fn reports a change.
func (q *Query) Rewrite(fn func(Clause) (string, bool)) string {
	var edits []Edit
	for _, c := range q.Clauses {
		if text, ok := fn(c); ok {
			edits = append(edits, Edit{Start: c.Start, End: c.End, Text: text})
		}
	}
	return q.Apply(edits...)
}

// Term builds a field:value clause
func Term(field, value string) string {
	return field + ":" + value
}

// Quote wraps s in double quotes unless it already is a quoted phrase
func Quote(s string) string {
	if IsQuoted(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// IsQuoted reports whether s is enclosed in double quotes
func IsQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// Unquote strips one pair of enclosing double quotes
func Unquote(s string) string {
	if IsQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}

// Group joins terms with op inside parentheses: (a OR b OR c)
func Group(op string, terms ...string) string {
	return "(" + strings.Join(terms, " "+op+" ") + ")"
}

func splitField(text string) (field, value string, ok bool) {
	idx := strings.IndexByte(text, ':')
	if idx <= 0 {
		return "", "", false
	}
	for i := 0; i < idx; i++ {
		if !isFieldByte(text[i]) {
			return "", "", false
		}
	}
	return text[:idx], text[idx+1:], true
}

func isFieldByte(c byte) bool {
	return c == '.' || c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func isBareWord(tok Token) bool {
	if tok.Kind != TokenTerm {
		return false
	}
	if _, _, ok := splitField(tok.Text); ok {
		return false
	}
	switch tok.Text[0] {
	case '"', '[', '{':
		return false
	case '-', '+', '!':
		// required or prohibited clause, never part of a name
		return false
	}
	return true
}
