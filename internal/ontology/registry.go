package ontology

import (
	"fmt"
	"sync"
)

// Registry is an in-memory typed ontology registry.
//
// Elements are kept in registration order so enumeration is deterministic.
//
// Thread-safety: all methods are safe for concurrent use. Lookups take a
// read lock; registration takes the write lock.
type Registry struct {
	mu     sync.RWMutex
	nextID int64

	namespaces []*Namespace
	nsByURI    map[string]*Namespace
	nsByCode   map[string]*Namespace

	concepts       []*Concept
	conceptByKey   map[elementKey]*Concept
	conceptByID    map[int64]*Concept
	predicates     []*Predicate
	predicateByKey map[elementKey]*Predicate
	predicateByID  map[int64]*Predicate
}

type elementKey struct {
	ns   int64
	name string
}

// NewRegistry creates an empty registry. Use Bootstrap to install the core
// vocabulary.
func NewRegistry() *Registry {
	return &Registry{
		nextID:         1,
		nsByURI:        make(map[string]*Namespace),
		nsByCode:       make(map[string]*Namespace),
		conceptByKey:   make(map[elementKey]*Concept),
		conceptByID:    make(map[int64]*Concept),
		predicateByKey: make(map[elementKey]*Predicate),
		predicateByID:  make(map[int64]*Predicate),
	}
}

// assignID must be called with the write lock held.
func (r *Registry) assignID(id int64) int64 {
	if id == 0 {
		id = r.nextID
	}
	if id >= r.nextID {
		r.nextID = id + 1
	}
	return id
}

// AddNamespace registers a namespace, assigning an ID if it has none.
//
// Registering a namespace whose code and URI match an existing one returns
// the existing namespace. A code or URI already bound to something else is
// an error.
func (r *Registry) AddNamespace(ns *Namespace) (*Namespace, error) {
	if ns == nil || ns.Code == "" || ns.URI == "" {
		return nil, fmt.Errorf("namespace requires code and uri")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.nsByCode[ns.Code]; ok {
		if existing.URI != ns.URI {
			return nil, fmt.Errorf("namespace %s already bound to %s, cannot rebind to %s", ns.Code, existing.URI, ns.URI)
		}
		return existing, nil
	}
	if existing, ok := r.nsByURI[ns.URI]; ok {
		return nil, fmt.Errorf("uri %s already bound to namespace %s", ns.URI, existing.Code)
	}

	ns.ID = r.assignID(ns.ID)
	r.namespaces = append(r.namespaces, ns)
	r.nsByCode[ns.Code] = ns
	r.nsByURI[ns.URI] = ns
	return ns, nil
}

// AddConcept registers a concept. Its namespace must already be registered.
func (r *Registry) AddConcept(c *Concept) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("concept requires a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkNamespace(c.Namespace); err != nil {
		return fmt.Errorf("concept %s: %w", c.Name, err)
	}
	key := elementKey{ns: c.Namespace.ID, name: c.Name}
	if _, ok := r.conceptByKey[key]; ok {
		return fmt.Errorf("concept %s already registered", c.Code())
	}
	if c.ID != 0 {
		if other, ok := r.conceptByID[c.ID]; ok {
			return fmt.Errorf("concept %s: id %d already used by %s", c.Code(), c.ID, other.Code())
		}
	}
	if c.PKColumn == "" {
		c.PKColumn = "id"
	}

	c.ID = r.assignID(c.ID)
	r.concepts = append(r.concepts, c)
	r.conceptByKey[key] = c
	r.conceptByID[c.ID] = c
	return nil
}

// AddPredicate registers a predicate. Its namespace, domain, range and
// span segments must already be registered.
func (r *Registry) AddPredicate(p *Predicate) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("predicate requires a name")
	}
	if p.Range == nil {
		return fmt.Errorf("predicate %s requires a range", p.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkNamespace(p.Namespace); err != nil {
		return fmt.Errorf("predicate %s: %w", p.Name, err)
	}
	key := elementKey{ns: p.Namespace.ID, name: p.Name}
	if _, ok := r.predicateByKey[key]; ok {
		return fmt.Errorf("predicate %s already registered", p.Code())
	}
	if p.ID != 0 {
		if other, ok := r.predicateByID[p.ID]; ok {
			return fmt.Errorf("predicate %s: id %d already used by %s", p.Code(), p.ID, other.Code())
		}
	}
	for _, s := range p.Segments {
		if s.Predicate == nil || r.predicateByID[s.Predicate.ID] != s.Predicate {
			return fmt.Errorf("predicate %s: segment %d is not registered", p.Code(), s.Ordinal)
		}
	}
	if !p.Cardinality.Domain.Valid() || !p.Cardinality.Range.Valid() {
		p.Cardinality = OneToOne
	}

	p.ID = r.assignID(p.ID)
	r.predicates = append(r.predicates, p)
	r.predicateByKey[key] = p
	r.predicateByID[p.ID] = p
	return nil
}

func (r *Registry) checkNamespace(ns *Namespace) error {
	if ns == nil {
		return fmt.Errorf("namespace is required")
	}
	if r.nsByCode[ns.Code] != ns {
		return fmt.Errorf("namespace %s is not registered", ns.Code)
	}
	return nil
}

// Namespaces returns all namespaces in registration order.
func (r *Registry) Namespaces() []*Namespace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Namespace(nil), r.namespaces...)
}

// Concepts returns all concepts in registration order.
func (r *Registry) Concepts() []*Concept {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Concept(nil), r.concepts...)
}

// Predicates returns all predicates in registration order.
func (r *Registry) Predicates() []*Predicate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Predicate(nil), r.predicates...)
}

// ConceptByID returns the concept with the given identifier.
func (r *Registry) ConceptByID(id int64) (*Concept, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.conceptByID[id]; ok {
		return c, nil
	}
	return nil, notFound("concept", fmt.Sprintf("#%d", id))
}

// PredicateByID returns the predicate with the given identifier.
func (r *Registry) PredicateByID(id int64) (*Predicate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.predicateByID[id]; ok {
		return p, nil
	}
	return nil, notFound("predicate", fmt.Sprintf("#%d", id))
}

// PredicatesWithDomain returns the predicates whose domain is c, in
// registration order.
func (r *Registry) PredicatesWithDomain(c *Concept) []*Predicate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Predicate
	for _, p := range r.predicates {
		if p.Domain == c {
			out = append(out, p)
		}
	}
	return out
}

// Namespace implements Lookup.
func (r *Registry) Namespace(uri string) (*Namespace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ns, ok := r.nsByURI[uri]; ok {
		return ns, nil
	}
	return nil, notFound("namespace", uri)
}

// NamespaceByCode implements Lookup.
func (r *Registry) NamespaceByCode(code string) (*Namespace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ns, ok := r.nsByCode[code]; ok {
		return ns, nil
	}
	return nil, notFound("namespace", code)
}

// Concept implements Lookup.
func (r *Registry) Concept(ns *Namespace, name string) (*Concept, error) {
	if ns == nil {
		return nil, notFound("concept", name)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.conceptByKey[elementKey{ns: ns.ID, name: name}]; ok {
		return c, nil
	}
	return nil, notFound("concept", qualify(ns, name))
}

// Predicate implements Lookup.
func (r *Registry) Predicate(ns *Namespace, name string) (*Predicate, error) {
	if ns == nil {
		return nil, notFound("predicate", name)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.predicateByKey[elementKey{ns: ns.ID, name: name}]; ok {
		return p, nil
	}
	return nil, notFound("predicate", qualify(ns, name))
}

// WellKnownPredicate implements Lookup.
func (r *Registry) WellKnownPredicate(vocabulary, name string) (*Predicate, error) {
	ns, err := r.NamespaceByCode(vocabulary)
	if err != nil {
		return nil, err
	}
	return r.Predicate(ns, name)
}

// WellKnownConcept implements Lookup.
func (r *Registry) WellKnownConcept(vocabulary, name string) (*Concept, error) {
	ns, err := r.NamespaceByCode(vocabulary)
	if err != nil {
		return nil, err
	}
	return r.Concept(ns, name)
}
