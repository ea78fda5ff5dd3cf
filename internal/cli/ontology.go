package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rdql/internal/ontology"
)

// OntologyOptions holds flags for the ontology command.
type OntologyOptions struct {
	*RootOptions
	Namespace string // only show elements of this namespace code
}

// OntologyView is the structured output of the ontology command.
type OntologyView struct {
	Namespaces []NamespaceView `json:"namespaces" yaml:"namespaces"`
	Concepts   []ConceptView   `json:"concepts" yaml:"concepts"`
	Predicates []PredicateView `json:"predicates" yaml:"predicates"`
}

// NamespaceView describes one namespace.
type NamespaceView struct {
	ID   int64  `json:"id" yaml:"id"`
	Code string `json:"code" yaml:"code"`
	URI  string `json:"uri" yaml:"uri"`
}

// ConceptView describes one concept.
type ConceptView struct {
	ID      int64  `json:"id" yaml:"id"`
	Code    string `json:"code" yaml:"code"`
	Table   string `json:"table" yaml:"table"`
	Literal bool   `json:"literal" yaml:"literal"`
	Generic bool   `json:"generic" yaml:"generic"`
}

// PredicateView describes one predicate.
type PredicateView struct {
	ID          int64    `json:"id" yaml:"id"`
	Code        string   `json:"code" yaml:"code"`
	Domain      string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Range       string   `json:"range" yaml:"range"`
	Cardinality string   `json:"cardinality" yaml:"cardinality"`
	Column      string   `json:"column,omitempty" yaml:"column,omitempty"`
	Generic     bool     `json:"generic" yaml:"generic"`
	Segments    []string `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// NewOntologyCommand creates the ontology command.
func NewOntologyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OntologyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ontology",
		Short: "List the namespaces, concepts and predicates queries compile against",
		Long: `List the ontology of the current environment: the stored ontology when
a database holds one, otherwise the core vocabulary and the configured
ontology files, plus any --ontology files.

Examples:
  rdql ontology --ontology ./ontology
  rdql ontology --db ./data.db --namespace tmp --format yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOntology(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Namespace, "namespace", "", "only list elements of this namespace code")

	return cmd
}

func runOntology(opts *OntologyOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := openEnvironment(cmd.Context(), opts.RootOptions, compileEnv)
	if err != nil {
		return envFailure(formatter, err)
	}
	defer env.Close()

	if opts.Namespace != "" {
		if _, err := env.Registry.NamespaceByCode(opts.Namespace); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, "unknown namespace", err)
		}
	}

	view := newOntologyView(env.Registry, opts.Namespace)
	if formatter.Structured() {
		return formatter.Success(view)
	}
	return writeOntologyText(formatter, view)
}

func newOntologyView(r *ontology.Registry, namespace string) OntologyView {
	keep := func(ns *ontology.Namespace) bool {
		return namespace == "" || (ns != nil && ns.Code == namespace)
	}

	view := OntologyView{
		Namespaces: []NamespaceView{},
		Concepts:   []ConceptView{},
		Predicates: []PredicateView{},
	}
	for _, ns := range r.Namespaces() {
		if keep(ns) {
			view.Namespaces = append(view.Namespaces, NamespaceView{ID: ns.ID, Code: ns.Code, URI: ns.URI})
		}
	}
	for _, c := range r.Concepts() {
		if keep(c.Namespace) {
			view.Concepts = append(view.Concepts, ConceptView{
				ID:      c.ID,
				Code:    c.Code(),
				Table:   c.Table,
				Literal: c.Literal,
				Generic: c.Generic,
			})
		}
	}
	for _, p := range r.Predicates() {
		if !keep(p.Namespace) {
			continue
		}
		pv := PredicateView{
			ID:          p.ID,
			Code:        p.Code(),
			Cardinality: p.Cardinality.String(),
			Column:      p.Column,
			Generic:     p.Generic,
		}
		if p.Domain != nil {
			pv.Domain = p.Domain.Code()
		}
		if p.Range != nil {
			pv.Range = p.Range.Code()
		}
		for _, seg := range p.Segments {
			pv.Segments = append(pv.Segments, seg.Predicate.Code())
		}
		view.Predicates = append(view.Predicates, pv)
	}
	return view
}

func writeOntologyText(f *OutputFormatter, view OntologyView) error {
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "NAMESPACE\tURI")
	for _, ns := range view.Namespaces {
		fmt.Fprintf(tw, "%s\t%s\n", ns.Code, ns.URI)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "CONCEPT\tTABLE\tKIND")
	for _, c := range view.Concepts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Code, c.Table, conceptKind(c))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "PREDICATE\tDOMAIN\tRANGE\tCARD\tSTORAGE")
	for _, p := range view.Predicates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Code, dash(p.Domain), p.Range, p.Cardinality, predicateStorage(p))
	}
	return tw.Flush()
}

func conceptKind(c ConceptView) string {
	switch {
	case c.Literal:
		return "literal"
	case c.Generic:
		return "generic"
	default:
		return "table"
	}
}

func predicateStorage(p PredicateView) string {
	switch {
	case len(p.Segments) > 0:
		return "span " + strings.Join(p.Segments, " / ")
	case p.Generic:
		return "statement"
	case p.Column != "":
		return "column " + p.Column
	default:
		return "-"
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
