package script

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOL tokenKind = iota
	tokWord
	tokNumber
	tokLParen
	tokRParen
	tokComma
	tokDash
)

func (k tokenKind) String() string {
	switch k {
	case tokEOL:
		return "end of line"
	case tokWord:
		return "word"
	case tokNumber:
		return "number"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokDash:
		return "'-'"
	}
	return "unknown"
}

type token struct {
	kind tokenKind
	text string // words are lower-cased
	col  int    // 1-based
}

func (t token) describe() string {
	switch t.kind {
	case tokEOL:
		return "end of line"
	case tokWord, tokNumber:
		return fmt.Sprintf("%q", t.text)
	}
	return t.kind.String()
}

// lex splits one script line into tokens. A sign directly followed by a
// digit or '.' starts a number; any other '-' is a dash.
func lex(line string) ([]token, error) {
	var toks []token
	rs := []rune(line)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", col: i + 1})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", col: i + 1})
			i++
		case r == ',':
			toks = append(toks, token{kind: tokComma, text: ",", col: i + 1})
			i++
		case (r == '-' || r == '+') && i+1 < len(rs) && (unicode.IsDigit(rs[i+1]) || rs[i+1] == '.'):
			j := scanNumber(rs, i+1)
			toks = append(toks, token{kind: tokNumber, text: string(rs[i:j]), col: i + 1})
			i = j
		case r == '-':
			toks = append(toks, token{kind: tokDash, text: "-", col: i + 1})
			i++
		case unicode.IsDigit(r) || r == '.':
			j := scanNumber(rs, i)
			toks = append(toks, token{kind: tokNumber, text: string(rs[i:j]), col: i + 1})
			i = j
		case unicode.IsLetter(r):
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: strings.ToLower(string(rs[i:j])), col: i + 1})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at column %d", r, i+1)
		}
	}
	toks = append(toks, token{kind: tokEOL, col: len(rs) + 1})
	return toks, nil
}

// scanNumber returns the end of the numeric literal starting at i:
// digits, an optional fraction and an optional exponent.
func scanNumber(rs []rune, i int) int {
	digits := func(j int) int {
		for j < len(rs) && unicode.IsDigit(rs[j]) {
			j++
		}
		return j
	}
	i = digits(i)
	if i < len(rs) && rs[i] == '.' {
		i = digits(i + 1)
	}
	if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
		j := i + 1
		if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
			j++
		}
		if j < len(rs) && unicode.IsDigit(rs[j]) {
			i = digits(j)
		}
	}
	// Trailing letters glue onto the literal so "12abc" is reported whole.
	for i < len(rs) && (unicode.IsLetter(rs[i]) || rs[i] == '_') {
		i++
	}
	return i
}
