package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/request"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
)

// Paginator fetches one batch of a compiled query in the request's retrieval mode.
type Paginator struct {
	backend Backend
}

// NewPaginator creates a paginator.
func NewPaginator(backend Backend) *Paginator {
	return &Paginator{backend: backend}
}

// Fetch returns nil without error when a continued scroll is exhausted.
func (p *Paginator) Fetch(
	ctx context.Context, index string, req request.Request, body query.Body,
) (*result.QueryResult, error) {
	switch req.Mode() {
	case mode.Paged:
		batch, err := p.backend.Search(ctx, index, body, req.Fields(), req.Page()*req.PerPage(), req.PerPage())
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", index, err)
		}
		res := result.NewPage(toHits(batch.Matches), batch.Total, req.PerPage(), req.Page())
		return &res, nil

	case mode.ScrollOpen:
		batch, err := p.backend.OpenScroll(ctx, index, body, req.Fields(), req.PerPage(), req.Scroll())
		if err != nil {
			return nil, fmt.Errorf("open scroll %s: %w", index, err)
		}
		res, err := result.NewScrollOpen(toHits(batch.Matches), batch.Total, req.PerPage(), batch.Cursor)
		if err != nil {
			return nil, err
		}
		return &res, nil

	case mode.ScrollContinue:
		batch, err := p.backend.Scroll(ctx, index, req.Cursor())
		if err != nil {
			return nil, fmt.Errorf("scroll %s: %w", index, err)
		}
		if len(batch.Matches) == 0 {
			return nil, nil
		}
		res, err := result.NewScrollBatch(toHits(batch.Matches), batch.Cursor)
		if err != nil {
			return nil, err
		}
		return &res, nil

	default:
		return nil, fmt.Errorf("unsupported retrieval mode: %s", req.Mode())
	}
}

// toHits replaces each highlighted field with its first fragment.
func toHits(matches []result.Match) []result.Hit {
	hits := make([]result.Hit, len(matches))
	for i, m := range matches {
		fields := m.Fields
		if len(m.Highlights) > 0 {
			fields = make(map[string]any, len(m.Fields))
			for k, v := range m.Fields {
				fields[k] = v
			}
			for k, frags := range m.Highlights {
				if len(frags) > 0 {
					fields[k] = frags[0]
				}
			}
		}
		hits[i] = result.Hit{ID: m.ID, Fields: fields}
	}
	return hits
}
