package ontology

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped) by Lookup implementations when no
// ontology element matches.
var ErrNotFound = errors.New("not found")

// Lookup is the read-only view of the ontology used by the resolver.
//
// Implementations must be safe for concurrent use when shared between
// compilations.
type Lookup interface {
	// Namespace finds a namespace by canonical URI.
	Namespace(uri string) (*Namespace, error)

	// NamespaceByCode finds a namespace by its short code.
	NamespaceByCode(code string) (*Namespace, error)

	// Concept finds a concept by namespace and local name.
	Concept(ns *Namespace, name string) (*Concept, error)

	// Predicate finds a predicate by namespace and local name.
	Predicate(ns *Namespace, name string) (*Predicate, error)

	// WellKnownPredicate finds a predicate of a fixed vocabulary, e.g.
	// ("rdf", "type") or ("drdfs", "_xsstringvalue").
	WellKnownPredicate(vocabulary, name string) (*Predicate, error)

	// WellKnownConcept finds a concept of a fixed vocabulary, e.g.
	// ("rdf", "Statement").
	WellKnownConcept(vocabulary, name string) (*Concept, error)
}

// NotFoundError describes a failed lookup.
type NotFoundError struct {
	Kind string // "namespace", "concept", "predicate"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Key, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}
