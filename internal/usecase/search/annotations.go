package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/docsearch/internal/domain/search/request"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
)

// Highlight markers wrapped around matched text by the backend.
const (
	markOpen  = "<em>"
	markClose = "</em>"
)

var markLen = utf8.RuneCountInString(markOpen) + utf8.RuneCountInString(markClose)

// Annotator derives query match spans by re-running each labeled query,
// highlighted, against a single document. This costs one backend call per
// (hit, query) pair.
type Annotator struct {
	backend Backend
	// allQueries keeps annotations from every query. When false only the first
	// query the caller sent contributes, which is what API clients have always seen.
	allQueries bool
}

// NewAnnotator creates an annotator.
func NewAnnotator(backend Backend, allQueries bool) *Annotator {
	return &Annotator{backend: backend, allQueries: allQueries}
}

// Annotate returns copies of hits carrying their annotations.
func (a *Annotator) Annotate(
	ctx context.Context, index string, hits []result.Hit, queries []request.LabeledQuery,
) ([]result.Hit, error) {
	out := make([]result.Hit, len(hits))

	for i, hit := range hits {
		out[i] = hit
		var anns []result.Annotation
		for _, q := range queries {
			found, err := a.annotateOne(ctx, index, hit.ID, q.Query)
			if err != nil {
				return nil, err
			}
			anns = append(anns, found...)
			if !a.allQueries {
				break
			}
		}
		out[i].Annotations = anns
	}
	return out, nil
}

func (a *Annotator) annotateOne(ctx context.Context, index, id, q string) ([]result.Annotation, error) {
	body := CompileSpecs(
		map[string]string{q: q},
		map[string]filter.Spec{document.IDKey: filter.Equal(id)},
		true,
	)
	batch, err := a.backend.Search(ctx, index, body, nil, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("annotate %s: %w", id, err)
	}
	if len(batch.Matches) == 0 {
		return nil, nil
	}

	m := batch.Matches[0]
	fields := make([]string, 0, len(m.Highlights))
	for f := range m.Highlights {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var out []result.Annotation
	for _, f := range fields {
		for _, frag := range m.Highlights[f] {
			for _, s := range extractSpans(frag) {
				out = append(out, result.Annotation{
					Offset:   s.offset,
					Length:   s.length,
					Variable: result.AnnotationVariable,
					Value:    q,
					Field:    f,
				})
			}
		}
	}
	return out, nil
}

type span struct {
	offset int
	length int
}

// extractSpans locates every marked match in a fragment. Offsets and lengths
// count characters of the unmarked text.
func extractSpans(fragment string) []span {
	var out []span
	removed, pos := 0, 0
	for {
		i := strings.Index(fragment[pos:], markOpen)
		if i < 0 {
			return out
		}
		start := pos + i
		innerStart := start + len(markOpen)
		j := strings.Index(fragment[innerStart:], markClose)
		if j < 0 {
			return out
		}
		out = append(out, span{
			offset: utf8.RuneCountInString(fragment[:start]) - removed,
			length: utf8.RuneCountInString(fragment[innerStart : innerStart+j]),
		})
		removed += markLen
		pos = innerStart + j + len(markClose)
	}
}
