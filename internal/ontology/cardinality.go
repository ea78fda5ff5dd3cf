package ontology

import "fmt"

// Multiplicity is one side of a cardinality: 1, ?, + or *.
//
// Multiplicities are ordered by looseness: 1 < ? < + < *.
type Multiplicity byte

const (
	One        Multiplicity = '1'
	ZeroOrOne  Multiplicity = '?'
	OneOrMore  Multiplicity = '+'
	ZeroOrMore Multiplicity = '*'
)

// ParseMultiplicity converts a single-character code.
func ParseMultiplicity(s string) (Multiplicity, error) {
	if len(s) == 1 {
		m := Multiplicity(s[0])
		if m.Valid() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid multiplicity %q: must be one of 1, ?, +, *", s)
}

// Valid reports whether m is one of the four multiplicity codes.
func (m Multiplicity) Valid() bool {
	return m.rank() >= 0
}

func (m Multiplicity) rank() int {
	switch m {
	case One:
		return 0
	case ZeroOrOne:
		return 1
	case OneOrMore:
		return 2
	case ZeroOrMore:
		return 3
	default:
		return -1
	}
}

// Looser reports whether m admits strictly more occurrences than other.
func (m Multiplicity) Looser(other Multiplicity) bool {
	return m.rank() > other.rank()
}

func (m Multiplicity) String() string {
	return string(rune(m))
}

// Cardinality is a (domain, range) multiplicity pair.
type Cardinality struct {
	Domain Multiplicity `json:"domain"`
	Range  Multiplicity `json:"range"`
}

// Common cardinalities.
var (
	OneToOne = Cardinality{Domain: One, Range: One}
	AnyToOne = Cardinality{Domain: ZeroOrMore, Range: One}
)

// ParseCardinality parses the "d:r" form, e.g. "1:1" or "*:?".
func ParseCardinality(s string) (Cardinality, error) {
	if len(s) != 3 || s[1] != ':' {
		return Cardinality{}, fmt.Errorf("invalid cardinality %q: want <domain>:<range>", s)
	}
	d, err := ParseMultiplicity(s[:1])
	if err != nil {
		return Cardinality{}, err
	}
	r, err := ParseMultiplicity(s[2:])
	if err != nil {
		return Cardinality{}, err
	}
	return Cardinality{Domain: d, Range: r}, nil
}

func (c Cardinality) String() string {
	return fmt.Sprintf("%s:%s", c.Domain, c.Range)
}

// MergeSpan returns the cardinality of a span over the given segment
// cardinalities: the loosest domain and the loosest range across all of
// them. The merge is associative and independent of argument order.
func MergeSpan(cards ...Cardinality) Cardinality {
	if len(cards) == 0 {
		return OneToOne
	}
	merged := cards[0]
	for _, c := range cards[1:] {
		if c.Domain.Looser(merged.Domain) {
			merged.Domain = c.Domain
		}
		if c.Range.Looser(merged.Range) {
			merged.Range = c.Range
		}
	}
	return merged
}

// MarshalText encodes the multiplicity as its one-character code.
func (m Multiplicity) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid multiplicity %d", byte(m))
	}
	return []byte{byte(m)}, nil
}

// UnmarshalText decodes a one-character code.
func (m *Multiplicity) UnmarshalText(b []byte) error {
	parsed, err := ParseMultiplicity(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
