// Package query tokenizes and rewrites ODP q strings.
//
// The ODP q syntax is Lucene-like: field:value clauses, quoted phrases,
// [a TO b] ranges, field:(a OR b) groups, and the AND/OR/NOT operators.
// The parser here only understands as much as the service needs to locate a
// clause and rewrite it in place. Everything it does not touch is copied
// through byte for byte.
package query

// TokenKind classifies a token
type TokenKind int

const (
	// TokenTerm is a word, optionally with a field prefix, quoted section,
	// bracketed range or attached group.
	TokenTerm TokenKind = iota
	TokenOperator
	TokenLParen
	TokenRParen
)

// Token is a lexical unit of a q string
type Token struct {
	Kind TokenKind
	Text string
	Pos  int // byte offset in the source
}

// End returns the byte offset just past the token
func (t Token) End() int {
	return t.Pos + len(t.Text)
}

var operators = map[string]bool{
	"AND": true,
	"OR":  true,
	"NOT": true,
	"&&":  true,
	"||":  true,
}

// IsOperator reports whether word is a boolean operator keyword
func IsOperator(word string) bool {
	return operators[word]
}

// Tokenize splits q into tokens. Unterminated quotes and brackets run to the
// end of the input rather than failing.
func Tokenize(q string) []Token {
	var tokens []Token

	i := 0
	for i < len(q) {
		c := q[i]
		switch {
		case isSpace(c):
			i++
			continue
		case c == '(':
			tokens = append(tokens, Token{Kind: TokenLParen, Text: "(", Pos: i})
			i++
			continue
		case c == ')':
			tokens = append(tokens, Token{Kind: TokenRParen, Text: ")", Pos: i})
			i++
			continue
		}

		start := i
		i = scanTerm(q, i)

		text := q[start:i]
		kind := TokenTerm
		if IsOperator(text) {
			kind = TokenOperator
		}
		tokens = append(tokens, Token{Kind: kind, Text: text, Pos: start})
	}

	return tokens
}

// scanTerm returns the end offset of the term starting at i
func scanTerm(q string, i int) int {
	start := i
	depth := 0

	for i < len(q) {
		c := q[i]
		switch {
		case c == '"':
			i = skipPast(q, i+1, '"')
		case c == '[':
			i = skipPast(q, i+1, ']')
		case c == '{':
			i = skipPast(q, i+1, '}')
		case c == '(':
			// field:(a OR b) keeps its group; a bare paren ends the word
			if depth == 0 && (i == start || q[i-1] != ':') {
				return i
			}
			depth++
			i++
		case c == ')':
			if depth == 0 {
				return i
			}
			depth--
			i++
		case isSpace(c) && depth == 0:
			return i
		default:
			i++
		}
	}

	return i
}

func skipPast(q string, i int, closing byte) int {
	for i < len(q) {
		if q[i] == '\\' && i+1 < len(q) {
			i += 2
			continue
		}
		if q[i] == closing {
			return i + 1
		}
		i++
	}
	return len(q)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
