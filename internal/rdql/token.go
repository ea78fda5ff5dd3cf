package rdql

import (
	"fmt"
	"strings"
)

// Kind is the lexical class of a token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	STRING  // "abc" or 'abc'
	INTEGER // 123
	DECIMAL // 123.45
	SYMBOL  // c, tmp:P, http://x/y

	DOT      // .
	COMMA    // ,
	ASTERISK // *

	keywordBeg
	SELECT
	FROM
	AS
	WHERE
	AND
	USING
	FOR
	OFFSET
	LIMIT
	keywordEnd
)

var (
	kinds = [...]string{
		ILLEGAL: "ILLEGAL",
		EOF:     "EOF",

		STRING:  "STRING",
		INTEGER: "INTEGER",
		DECIMAL: "DECIMAL",
		SYMBOL:  "SYMBOL",

		DOT:      ".",
		COMMA:    ",",
		ASTERISK: "*",

		SELECT: "SELECT",
		FROM:   "FROM",
		AS:     "AS",
		WHERE:  "WHERE",
		AND:    "AND",
		USING:  "USING",
		FOR:    "FOR",
		OFFSET: "OFFSET",
		LIMIT:  "LIMIT",
	}

	keywords map[string]Kind
)

func init() {
	keywords = make(map[string]Kind)
	for k := keywordBeg + 1; k < keywordEnd; k++ {
		keywords[kinds[k]] = k
	}
}

func (k Kind) String() string {
	if k >= 0 && k < Kind(len(kinds)) {
		return kinds[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether k is one of the reserved words.
func (k Kind) IsKeyword() bool {
	return k > keywordBeg && k < keywordEnd
}

// lookupSymbol promotes a symbol to a keyword when its upper-cased text is
// reserved.
func lookupSymbol(text string) Kind {
	if k, ok := keywords[strings.ToUpper(text)]; ok {
		return k
	}
	return SYMBOL
}

// Pos is a source position. Line and Column are 1-based; Offset is the
// 0-based byte offset into the normalized source.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexical token. Text is the token's value: the contents of a
// string without its quotes, otherwise the source text.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case STRING:
		return fmt.Sprintf("string %q", t.Text)
	case INTEGER, DECIMAL, SYMBOL:
		return fmt.Sprintf("%s %q", strings.ToLower(t.Kind.String()), t.Text)
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}
