package rdql

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Parse parses one RDQL query.
//
// The grammar:
//
//	rdql       := SELECT proj (',' proj)* FROM concept (',' concept)* where? using? range?
//	proj       := variable '.' predref | predref
//	concept    := conceptref AS? varname | conceptref
//	where      := WHERE constraint (AND constraint)*
//	constraint := varname predref (varname | constant)
//	using      := USING namespace (',' namespace)*
//	namespace  := SYMBOL FOR STRING | STRING
//	range      := LIMIT INTEGER (OFFSET INTEGER)? | OFFSET INTEGER LIMIT INTEGER
//	constant   := STRING | INTEGER | DECIMAL
//
// Parsing is purely syntactic; no ontology is consulted.
func Parse(src string) (*Query, error) {
	next, stop := iter.Pull2(NewLexer(src).All())
	defer stop()

	p := &parser{next: next, query: NewQuery()}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.parseQuery(); err != nil {
		return nil, err
	}
	return p.query, nil
}

type parser struct {
	next  func() (Token, error, bool)
	tok   Token
	query *Query
}

func (p *parser) advance() error {
	tok, err, ok := p.next()
	if !ok {
		// The lexer always ends with EOF; stay there.
		p.tok = Token{Kind: EOF, Pos: p.tok.Pos}
		return nil
	}
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Token: p.tok, Message: fmt.Sprintf(format, args...)}
}

// expect consumes a token of kind k and returns it.
func (p *parser) expect(k Kind, what string) (Token, error) {
	tok := p.tok
	if tok.Kind != k {
		return tok, p.errorf("expected %s", what)
	}
	return tok, p.advance()
}

// accept consumes the current token if it has kind k.
func (p *parser) accept(k Kind) (bool, error) {
	if p.tok.Kind != k {
		return false, nil
	}
	return true, p.advance()
}

func (p *parser) parseQuery() error {
	if _, err := p.expect(SELECT, "SELECT"); err != nil {
		return err
	}
	if p.tok.Kind == ASTERISK {
		return &ParseError{Token: p.tok, Message: "unsupported projection", Err: ErrSelectAllNotImplemented}
	}
	if err := p.list(p.parseProjection); err != nil {
		return err
	}

	if _, err := p.expect(FROM, "FROM"); err != nil {
		return err
	}
	if err := p.list(p.parseConcept); err != nil {
		return err
	}

	if ok, err := p.accept(WHERE); err != nil {
		return err
	} else if ok {
		if err := p.parseConstraints(); err != nil {
			return err
		}
	}

	if ok, err := p.accept(USING); err != nil {
		return err
	} else if ok {
		if err := p.list(p.parseNamespace); err != nil {
			return err
		}
	}

	if err := p.parseRange(); err != nil {
		return err
	}

	if p.tok.Kind != EOF {
		return p.errorf("unexpected token")
	}
	return nil
}

// list parses item (',' item)*.
func (p *parser) list(item func() error) error {
	for {
		if err := item(); err != nil {
			return err
		}
		ok, err := p.accept(COMMA)
		if err != nil || !ok {
			return err
		}
	}
}

func (p *parser) parseProjection() error {
	first, err := p.symbol("predicate or variable")
	if err != nil {
		return err
	}

	var v *Variable
	var predTok Token
	if ok, err := p.accept(DOT); err != nil {
		return err
	} else if ok {
		if v, err = p.variable(first); err != nil {
			return err
		}
		if predTok, err = p.symbol("predicate"); err != nil {
			return err
		}
	} else {
		v = p.query.Variables.Default()
		predTok = first
	}

	ref, err := p.predicateRef(predTok)
	if err != nil {
		return err
	}
	ref.Variable = v
	p.query.Projections = append(p.query.Projections, ref)
	return nil
}

func (p *parser) parseConcept() error {
	tok, err := p.symbol("concept")
	if err != nil {
		return err
	}
	ns, name, err := p.split(tok)
	if err != nil {
		return err
	}
	concept := &ConceptRef{Namespace: ns, Name: name, Pos: tok.Pos}

	var v *Variable
	as, err := p.accept(AS)
	if err != nil {
		return err
	}
	if as || p.tok.Kind == SYMBOL {
		varTok, err := p.symbol("variable name")
		if err != nil {
			return err
		}
		if v, err = p.variable(varTok); err != nil {
			return err
		}
		p.query.Variables.Declare(v.Name)
	} else {
		// An unnamed concept declares a variable named after the concept.
		v = p.query.Variables.Declare(name)
		v.Pos = tok.Pos
	}

	if err := v.SetConcept(concept); err != nil {
		return &ParseError{Token: tok, Message: "conflicting concept", Err: err}
	}
	return nil
}

func (p *parser) parseConstraints() error {
	for {
		if err := p.parseConstraint(); err != nil {
			return err
		}
		ok, err := p.accept(AND)
		if err != nil || !ok {
			return err
		}
	}
}

func (p *parser) parseConstraint() error {
	subjTok, err := p.symbol("subject variable")
	if err != nil {
		return err
	}
	subject, err := p.variable(subjTok)
	if err != nil {
		return err
	}

	predTok, err := p.symbol("predicate")
	if err != nil {
		return err
	}
	pred, err := p.predicateRef(predTok)
	if err != nil {
		return err
	}
	pred.Variable = subject

	object, err := p.parseObject()
	if err != nil {
		return err
	}

	p.query.Constraints = append(p.query.Constraints, &Constraint{
		Subject:   subject,
		Predicate: pred,
		Object:    object,
		Pos:       subjTok.Pos,
	})
	return nil
}

func (p *parser) parseObject() (Term, error) {
	tok := p.tok
	switch tok.Kind {
	case SYMBOL:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.variable(tok)
	case STRING:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Constant{Kind: StringConstant, Text: tok.Text, SQL: QuoteString(tok.Text), Pos: tok.Pos}, nil
	case INTEGER:
		if _, err := strconv.ParseInt(tok.Text, 10, 64); err != nil {
			return nil, &ParseError{Token: tok, Message: "integer out of range", Err: err}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Constant{Kind: IntegerConstant, Text: tok.Text, SQL: tok.Text, Pos: tok.Pos}, nil
	case DECIMAL:
		d, _, err := apd.NewFromString(tok.Text)
		if err != nil {
			return nil, &ParseError{Token: tok, Message: "invalid decimal", Err: err}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Constant{Kind: DecimalConstant, Text: tok.Text, SQL: d.Text('f'), Pos: tok.Pos}, nil
	default:
		return nil, p.errorf("expected variable or constant")
	}
}

func (p *parser) parseNamespace() error {
	tok := p.tok
	switch tok.Kind {
	case STRING:
		if err := p.advance(); err != nil {
			return err
		}
		n := p.query.Namespaces.Default()
		n.Pos = tok.Pos
		if err := n.SetURI(tok.Text); err != nil {
			return &ParseError{Token: tok, Message: "conflicting namespace declaration", Err: err}
		}
		return nil
	case SYMBOL:
		if err := p.checkSymbol(tok); err != nil {
			return err
		}
		if strings.Contains(tok.Text, ":") {
			return p.errorf("namespace code must not contain ':'")
		}
		if err := p.advance(); err != nil {
			return err
		}
		if _, err := p.expect(FOR, "FOR"); err != nil {
			return err
		}
		uriTok, err := p.expect(STRING, "namespace URI string")
		if err != nil {
			return err
		}
		n := p.query.Namespaces.Get(tok.Text)
		n.Pos = tok.Pos
		if err := n.SetURI(uriTok.Text); err != nil {
			return &ParseError{Token: uriTok, Message: "conflicting namespace declaration", Err: err}
		}
		return nil
	default:
		return p.errorf("expected namespace declaration")
	}
}

func (p *parser) parseRange() error {
	switch p.tok.Kind {
	case LIMIT:
		limit, err := p.clause(LIMIT)
		if err != nil {
			return err
		}
		p.query.Limit = &limit
		if p.tok.Kind == OFFSET {
			offset, err := p.clause(OFFSET)
			if err != nil {
				return err
			}
			p.query.Offset = &offset
		}
	case OFFSET:
		offset, err := p.clause(OFFSET)
		if err != nil {
			return err
		}
		limit, err := p.clause(LIMIT)
		if err != nil {
			return err
		}
		p.query.Offset = &offset
		p.query.Limit = &limit
	}
	return nil
}

// clause parses "<keyword> INTEGER".
func (p *parser) clause(k Kind) (int64, error) {
	if _, err := p.expect(k, k.String()); err != nil {
		return 0, err
	}
	tok, err := p.expect(INTEGER, "integer")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return 0, &ParseError{Token: tok, Message: "integer out of range", Err: err}
	}
	return n, nil
}

// symbol consumes a SYMBOL token.
func (p *parser) symbol(what string) (Token, error) {
	tok, err := p.expect(SYMBOL, what)
	if err != nil {
		return tok, err
	}
	return tok, p.checkSymbol(tok)
}

func (p *parser) checkSymbol(tok Token) error {
	if strings.Contains(tok.Text, Separator) {
		return &ParseError{Token: tok, Message: fmt.Sprintf("symbols may not contain %q", Separator)}
	}
	return nil
}

func (p *parser) variable(tok Token) (*Variable, error) {
	if strings.Contains(tok.Text, ":") {
		return nil, &ParseError{Token: tok, Message: "variable names must be unqualified"}
	}
	if err := p.checkSymbol(tok); err != nil {
		return nil, err
	}
	v := p.query.Variables.Get(tok.Text)
	if v.Pos == (Pos{}) {
		v.Pos = tok.Pos
	}
	return v, nil
}

func (p *parser) predicateRef(tok Token) (*PredicateRef, error) {
	ns, name, err := p.split(tok)
	if err != nil {
		return nil, err
	}
	return &PredicateRef{Namespace: ns, Name: name, Pos: tok.Pos}, nil
}

// split resolves "ns:name" against the namespace table. Unqualified names
// belong to the default namespace.
func (p *parser) split(tok Token) (*NamespaceRef, string, error) {
	code, name, ok := strings.Cut(tok.Text, ":")
	if !ok {
		return p.query.Namespaces.Default(), tok.Text, nil
	}
	if code == "" || name == "" || strings.Contains(name, ":") {
		return nil, "", &ParseError{Token: tok, Message: "malformed qualified name, want ns:name"}
	}
	return p.query.Namespaces.Get(code), name, nil
}
