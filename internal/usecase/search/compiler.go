package search

import (
	"sort"

	"github.com/kailas-cloud/docsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
)

// Compile parses raw per-field filter specs and compiles the request. Unknown
// filter keys fail with ErrInvalidFilter.
func Compile(queries map[string]string, filters map[string]map[string]any, highlight bool) (query.Body, error) {
	specs, err := filter.ParseAll(filters)
	if err != nil {
		return query.Body{}, err
	}
	return CompileSpecs(queries, specs, highlight), nil
}

// CompileSpecs builds the query tree: one OR block per filtered field and one
// block for the free-text queries, all ANDed. Labels and field names are
// visited in sorted order, so equal inputs give equal trees.
func CompileSpecs(queries map[string]string, filters map[string]filter.Spec, highlight bool) query.Body {
	var parts []query.Node

	for _, name := range sortedKeys(filters) {
		if block, ok := fieldBlock(name, filters[name]); ok {
			parts = append(parts, block)
		}
	}
	if block, ok := queryBlock(queries); ok {
		parts = append(parts, block)
	}

	body := query.Body{Query: query.MatchAll{}}
	if len(parts) > 0 {
		body.Query = query.Bool{Filter: parts}
	}
	if highlight {
		body.Highlight = &query.Highlight{Fields: "*", WholeField: true}
	}
	return body
}

func fieldBlock(name string, spec filter.Spec) (query.Node, bool) {
	if spec.IsEmpty() {
		return nil, false
	}
	var should []query.Node
	for _, v := range spec.Values() {
		should = append(should, query.Term{Field: name, Value: v})
	}
	if r := spec.Range(); r != nil {
		should = append(should, query.Range{Field: name, GT: r.GT(), GTE: r.GTE(), LT: r.LT(), LTE: r.LTE()})
	}
	return query.Bool{Should: should}, true
}

func queryBlock(queries map[string]string) (query.Node, bool) {
	labels := sortedKeys(queries)
	switch len(labels) {
	case 0:
		return nil, false
	case 1:
		return query.QueryString{Query: queries[labels[0]]}, true
	}
	should := make([]query.Node, len(labels))
	for i, l := range labels {
		should[i] = query.QueryString{Query: queries[l]}
	}
	return query.Bool{Should: should}, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
