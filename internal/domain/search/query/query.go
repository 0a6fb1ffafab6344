// Package query is the backend-neutral query tree produced by the compiler and
// rendered by the search backend adapter.
package query

import (
	"errors"
	"fmt"
	"strings"
)

// Node is a query clause. The set of implementations is closed.
type Node interface {
	isNode()
	// String renders a canonical form, stable for equal trees.
	String() string
}

// MatchAll matches every document.
type MatchAll struct{}

// Term matches documents whose field equals Value.
type Term struct {
	Field string
	Value any
}

// Range matches documents whose field falls within the bounds. Nil bounds are open.
type Range struct {
	Field string
	GT    any
	GTE   any
	LT    any
	LTE   any
}

// QueryString is a free-text query in the backend query syntax.
type QueryString struct {
	Query string
}

// ErrUnbalanced reports a query string whose groups or phrases are not closed.
var ErrUnbalanced = errors.New("unbalanced parentheses or quotes")

// Check reports whether q can be wrapped in its own group without its text
// reaching outside it. A backslash escapes the next character.
func (q QueryString) Check() error {
	depth := 0
	inQuote := false
	escaped := false
	for _, r := range q.Query {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return ErrUnbalanced
			}
		}
	}
	if escaped || inQuote || depth != 0 {
		return ErrUnbalanced
	}
	return nil
}

// Bool combines clauses: all of Filter must match, and at least one of Should
// when Should is non-empty.
type Bool struct {
	Filter []Node
	Should []Node
}

func (MatchAll) isNode()    {}
func (Term) isNode()        {}
func (Range) isNode()       {}
func (QueryString) isNode() {}
func (Bool) isNode()        {}

func (MatchAll) String() string { return "match_all" }

func (t Term) String() string { return fmt.Sprintf("term(%s=%v)", t.Field, t.Value) }

func (r Range) String() string {
	var parts []string
	for _, b := range []struct {
		op string
		v  any
	}{{"gt", r.GT}, {"gte", r.GTE}, {"lt", r.LT}, {"lte", r.LTE}} {
		if b.v != nil {
			parts = append(parts, fmt.Sprintf("%s=%v", b.op, b.v))
		}
	}
	return fmt.Sprintf("range(%s:%s)", r.Field, strings.Join(parts, ","))
}

func (q QueryString) String() string { return fmt.Sprintf("query_string(%q)", q.Query) }

func (b Bool) String() string {
	var sb strings.Builder
	sb.WriteString("bool(")
	if len(b.Filter) > 0 {
		sb.WriteString("filter[")
		sb.WriteString(join(b.Filter))
		sb.WriteString("]")
	}
	if len(b.Should) > 0 {
		if len(b.Filter) > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("should[")
		sb.WriteString(join(b.Should))
		sb.WriteString("]")
	}
	sb.WriteString(")")
	return sb.String()
}

func join(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " ")
}

// Highlight requests highlight markup on the matched fields.
type Highlight struct {
	// Fields is a field pattern; "*" selects every text field.
	Fields string
	// WholeField returns the entire field as one fragment instead of excerpts.
	WholeField bool
}

// Body is a compiled request: the query tree plus optional highlighting.
type Body struct {
	Query     Node
	Highlight *Highlight
}

func (b Body) String() string {
	if b.Highlight == nil {
		return b.Query.String()
	}
	return fmt.Sprintf("%s highlight(%s,whole=%t)", b.Query, b.Highlight.Fields, b.Highlight.WholeField)
}

// Walk visits n and every descendant depth-first.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	if b, ok := n.(Bool); ok {
		for _, c := range b.Filter {
			Walk(c, fn)
		}
		for _, c := range b.Should {
			Walk(c, fn)
		}
	}
}

// Fields returns the field names referenced by Term and Range clauses.
func Fields(n Node) []string {
	seen := map[string]bool{}
	var out []string
	Walk(n, func(c Node) {
		var f string
		switch x := c.(type) {
		case Term:
			f = x.Field
		case Range:
			f = x.Field
		default:
			return
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	})
	return out
}
