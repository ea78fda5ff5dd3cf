package rdql

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Lexer tokenizes RDQL source text.
//
// Text outside quoted strings is normalized to NFC once, so positions refer
// to the normalized text. String contents are kept byte for byte.
type Lexer struct {
	src string
}

// NewLexer creates a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: normalize(src)}
}

// normalize applies NFC to everything but the contents of quoted strings.
// An unterminated string is left as is up to the end of src.
func normalize(src string) string {
	if norm.NFC.IsNormalString(src) {
		return src
	}
	var b strings.Builder
	b.Grow(len(src))
	for src != "" {
		i := strings.IndexAny(src, `'"`)
		if i < 0 {
			b.WriteString(norm.NFC.String(src))
			break
		}
		b.WriteString(norm.NFC.String(src[:i]))

		end := strings.IndexByte(src[i+1:], src[i])
		if end < 0 {
			b.WriteString(src[i:])
			break
		}
		end += i + 2
		b.WriteString(src[i:end])
		src = src[end:]
	}
	return b.String()
}

// Source returns the normalized source text.
func (l *Lexer) Source() string {
	return l.src
}

// All returns the token sequence. The sequence ends with an EOF token, or
// with the first LexError. Each iteration rescans the source from the
// beginning, so the sequence may be ranged over any number of times.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		s := scanner{src: l.src, pos: Pos{Line: 1, Column: 1}}
		for {
			tok, err := s.next()
			if err != nil {
				yield(Token{Kind: ILLEGAL, Text: tok.Text, Pos: tok.Pos}, err)
				return
			}
			if !yield(tok, nil) || tok.Kind == EOF {
				return
			}
		}
	}
}

// Tokenize scans src completely.
func Tokenize(src string) ([]Token, error) {
	var toks []Token
	for tok, err := range NewLexer(src).All() {
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

type scanner struct {
	src string
	pos Pos
}

func (s *scanner) peek() (rune, int) {
	if s.pos.Offset >= len(s.src) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(s.src[s.pos.Offset:])
}

func (s *scanner) advance(r rune, size int) {
	s.pos.Offset += size
	if r == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}
}

func (s *scanner) next() (Token, error) {
	s.skipSpace()

	start := s.pos
	r, size := s.peek()
	if size == 0 {
		return Token{Kind: EOF, Pos: start}, nil
	}

	switch {
	case r == '"' || r == '\'':
		return s.scanString(r)
	case isDigit(r):
		return s.scanNumber(), nil
	case r == '.':
		s.advance(r, size)
		return Token{Kind: DOT, Text: ".", Pos: start}, nil
	case r == ',':
		s.advance(r, size)
		return Token{Kind: COMMA, Text: ",", Pos: start}, nil
	case r == '*':
		s.advance(r, size)
		return Token{Kind: ASTERISK, Text: "*", Pos: start}, nil
	case isSymbolStart(r):
		return s.scanSymbol(), nil
	}

	text := string(r)
	if r == utf8.RuneError && size == 1 {
		text = s.src[start.Offset : start.Offset+1]
	}
	return Token{Text: text, Pos: start}, &LexError{Pos: start, Text: text, Message: "unexpected character"}
}

func (s *scanner) skipSpace() {
	for {
		r, size := s.peek()
		switch r {
		case ' ', '\t', '\r', '\n':
			s.advance(r, size)
		default:
			return
		}
	}
}

// scanString reads a quoted string. There is no escape processing: the
// contents run verbatim to the next matching quote.
func (s *scanner) scanString(quote rune) (Token, error) {
	start := s.pos
	s.advance(quote, 1)
	for {
		r, size := s.peek()
		if size == 0 {
			text := s.src[start.Offset:]
			return Token{Text: text, Pos: start}, &LexError{Pos: start, Text: text, Message: "unterminated string"}
		}
		s.advance(r, size)
		if r == quote {
			return Token{Kind: STRING, Text: s.src[start.Offset+1 : s.pos.Offset-1], Pos: start}, nil
		}
	}
}

// scanNumber reads an INTEGER, or a DECIMAL when the digits are followed by
// a dot and at least one more digit. "1." is INTEGER then DOT.
func (s *scanner) scanNumber() Token {
	start := s.pos
	s.digits()

	kind := INTEGER
	if s.pos.Offset+1 < len(s.src) && s.src[s.pos.Offset] == '.' && isDigit(rune(s.src[s.pos.Offset+1])) {
		s.advance('.', 1)
		s.digits()
		kind = DECIMAL
	}
	return Token{Kind: kind, Text: s.src[start.Offset:s.pos.Offset], Pos: start}
}

func (s *scanner) digits() {
	for {
		r, size := s.peek()
		if size == 0 || !isDigit(r) {
			return
		}
		s.advance(r, size)
	}
}

func (s *scanner) scanSymbol() Token {
	start := s.pos
	for {
		r, size := s.peek()
		if size == 0 || !isSymbolPart(r) {
			break
		}
		s.advance(r, size)
	}
	text := s.src[start.Offset:s.pos.Offset]
	return Token{Kind: lookupSymbol(text), Text: text, Pos: start}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isSymbolStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isSymbolPart(r rune) bool {
	switch r {
	case '_', ':', '-', '/', '?', '&':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
