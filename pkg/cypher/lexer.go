package cypher

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokDot
	tokDotDot
	tokDash
	tokArrowRight // ->
	tokArrowLeft  // <-
	tokStar
	tokPipe
)

var tokenNames = map[tokenKind]string{
	tokEOF:        "end of query",
	tokIdent:      "identifier",
	tokInt:        "integer",
	tokLParen:     "'('",
	tokRParen:     "')'",
	tokLBracket:   "'['",
	tokRBracket:   "']'",
	tokColon:      "':'",
	tokComma:      "','",
	tokDot:        "'.'",
	tokDotDot:     "'..'",
	tokDash:       "'-'",
	tokArrowRight: "'->'",
	tokArrowLeft:  "'<-'",
	tokStar:       "'*'",
	tokPipe:       "'|'",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	lit  string
	pos  int // byte offset in the query
}

// keyword reports whether t is the identifier kw, case-insensitively
func (t token) keyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.lit, kw)
}

// lex splits query into tokens, ending with tokEOF
func lex(query string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(query) {
		c := query[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			start := i
			for i < len(query) && isIdentPart(query[i]) {
				i++
			}
			tokens = append(tokens, token{tokIdent, query[start:i], start})
		case c == '`':
			start := i
			end := strings.IndexByte(query[i+1:], '`')
			if end < 0 {
				return nil, fmt.Errorf("unterminated quoted identifier at %d", start)
			}
			tokens = append(tokens, token{tokIdent, query[i+1 : i+1+end], start})
			i += end + 2
		case c >= '0' && c <= '9':
			start := i
			for i < len(query) && query[i] >= '0' && query[i] <= '9' {
				i++
			}
			tokens = append(tokens, token{tokInt, query[start:i], start})
		case c == '.' && i+1 < len(query) && query[i+1] == '.':
			tokens = append(tokens, token{tokDotDot, "..", i})
			i += 2
		case c == '-' && i+1 < len(query) && query[i+1] == '>':
			tokens = append(tokens, token{tokArrowRight, "->", i})
			i += 2
		case c == '<' && i+1 < len(query) && query[i+1] == '-':
			tokens = append(tokens, token{tokArrowLeft, "<-", i})
			i += 2
		default:
			kind, ok := singleChar[c]
			if !ok {
				return nil, fmt.Errorf("unexpected character %q at %d", c, i)
			}
			tokens = append(tokens, token{kind, string(c), i})
			i++
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(query)})
	return tokens, nil
}

var singleChar = map[byte]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	'[': tokLBracket,
	']': tokRBracket,
	':': tokColon,
	',': tokComma,
	'.': tokDot,
	'-': tokDash,
	'*': tokStar,
	'|': tokPipe,
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
