package ontology

// Memo caches the answers of another Lookup for the duration of a single
// compilation.
//
// A Memo is not safe for concurrent use. Each compilation creates its own,
// so no compilation observes entries populated by another.
type Memo struct {
	next Lookup

	namespaces map[string]memoEntry[*Namespace]
	byCode     map[string]memoEntry[*Namespace]
	concepts   map[memoKey]memoEntry[*Concept]
	predicates map[memoKey]memoEntry[*Predicate]
}

type memoKey struct {
	ns   *Namespace
	name string
}

type memoEntry[T any] struct {
	value T
	err   error
}

// NewMemo wraps next.
func NewMemo(next Lookup) *Memo {
	return &Memo{
		next:       next,
		namespaces: make(map[string]memoEntry[*Namespace]),
		byCode:     make(map[string]memoEntry[*Namespace]),
		concepts:   make(map[memoKey]memoEntry[*Concept]),
		predicates: make(map[memoKey]memoEntry[*Predicate]),
	}
}

func memoize[K comparable, T any](cache map[K]memoEntry[T], key K, fetch func() (T, error)) (T, error) {
	if e, ok := cache[key]; ok {
		return e.value, e.err
	}
	v, err := fetch()
	cache[key] = memoEntry[T]{value: v, err: err}
	return v, err
}

// Namespace implements Lookup.
func (m *Memo) Namespace(uri string) (*Namespace, error) {
	return memoize(m.namespaces, uri, func() (*Namespace, error) {
		return m.next.Namespace(uri)
	})
}

// NamespaceByCode implements Lookup.
func (m *Memo) NamespaceByCode(code string) (*Namespace, error) {
	return memoize(m.byCode, code, func() (*Namespace, error) {
		return m.next.NamespaceByCode(code)
	})
}

// Concept implements Lookup.
func (m *Memo) Concept(ns *Namespace, name string) (*Concept, error) {
	return memoize(m.concepts, memoKey{ns, name}, func() (*Concept, error) {
		return m.next.Concept(ns, name)
	})
}

// Predicate implements Lookup.
func (m *Memo) Predicate(ns *Namespace, name string) (*Predicate, error) {
	return memoize(m.predicates, memoKey{ns, name}, func() (*Predicate, error) {
		return m.next.Predicate(ns, name)
	})
}

// WellKnownPredicate implements Lookup.
func (m *Memo) WellKnownPredicate(vocabulary, name string) (*Predicate, error) {
	ns, err := m.NamespaceByCode(vocabulary)
	if err != nil {
		return nil, err
	}
	return m.Predicate(ns, name)
}

// WellKnownConcept implements Lookup.
func (m *Memo) WellKnownConcept(vocabulary, name string) (*Concept, error) {
	ns, err := m.NamespaceByCode(vocabulary)
	if err != nil {
		return nil, err
	}
	return m.Concept(ns, name)
}
