package resolver

import (
	"errors"
	"fmt"

	"github.com/roach88/rdql/internal/rdql"
)

// ErrUndeclaredVariable is wrapped by the NoResolution returned for a
// variable that never receives a concept.
var ErrUndeclaredVariable = errors.New("variable has no concept")

// ResolverError reports a query that binds but cannot be rewritten, or a
// binding conflict.
type ResolverError struct {
	Pos     rdql.Pos
	Message string
	Err     error
}

func (e *ResolverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Pos, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}

// NoResolution reports a reference that could not be matched against the
// ontology. Err is the lookup failure.
type NoResolution struct {
	Kind string // "namespace", "concept", "predicate" or "variable"
	Ref  string // textual form of the reference
	Pos  rdql.Pos
	Err  error
}

func (e *NoResolution) Error() string {
	return fmt.Sprintf("%s: unable to resolve %s reference %s: %v", e.Pos, e.Kind, e.Ref, e.Err)
}

func (e *NoResolution) Unwrap() error {
	return e.Err
}

// IsNoResolution reports whether err is or wraps a NoResolution.
func IsNoResolution(err error) bool {
	var nr *NoResolution
	return errors.As(err, &nr)
}

// IsResolverError reports whether err came from resolution: a
// ResolverError or a NoResolution.
func IsResolverError(err error) bool {
	var re *ResolverError
	return errors.As(err, &re) || IsNoResolution(err)
}

func conflict(pos rdql.Pos, err error) error {
	return &ResolverError{Pos: pos, Message: "binding conflict", Err: err}
}
