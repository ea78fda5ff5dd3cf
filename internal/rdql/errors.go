package rdql

import (
	"errors"
	"fmt"
)

// ErrSelectAllNotImplemented is wrapped by the ParseError returned for
// "select *".
var ErrSelectAllNotImplemented = errors.New("select * is not implemented")

// LexError reports a character sequence that is not a token.
type LexError struct {
	Pos     Pos
	Text    string
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Pos, e.Message, e.Text)
}

// ParseError reports a token sequence that does not match the grammar.
type ParseError struct {
	Token   Token
	Message string
	Err     error // optional cause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s near %s", e.Token.Pos, e.Message, e.Token)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConflictError reports a second, different value assigned to a write-once
// binding field.
type ConflictError struct {
	Field string // "uri", "concept", "binding", ...
	Owner string // the reference whose field conflicts
	Old   string
	New   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot rebind %s of %s from %s to %s", e.Field, e.Owner, e.Old, e.New)
}

// IsLexError reports whether err is or wraps a LexError.
func IsLexError(err error) bool {
	var lexErr *LexError
	return errors.As(err, &lexErr)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsConflict reports whether err is or wraps a ConflictError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
