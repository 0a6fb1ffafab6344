package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/search/request"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/logger"
)

// Options tunes query behaviour.
type Options struct {
	// AnnotateAllQueries collects annotations from every labeled query.
	AnnotateAllQueries bool
}

// Service runs query requests: gate, compile, paginate, annotate.
type Service struct {
	gate      Authorizer
	paginator *Paginator
	annotator *Annotator
}

// New creates a search service.
func New(backend Backend, gate Authorizer, opts Options) *Service {
	return &Service{
		gate:      gate,
		paginator: NewPaginator(backend),
		annotator: NewAnnotator(backend, opts.AnnotateAllQueries),
	}
}

// Query requires READER on the index. A nil result with a nil error marks an
// exhausted scroll.
func (s *Service) Query(
	ctx context.Context, principal *user.User, index string, req request.Request,
) (*result.QueryResult, error) {
	if err := s.gate.Authorize(ctx, principal, role.Reader, index); err != nil {
		return nil, err
	}

	body := CompileSpecs(req.Queries(), req.Filters(), req.Highlight())
	logger.FromContext(ctx).Debug("compiled query",
		zap.String("index", index),
		zap.String("mode", string(req.Mode())),
		zap.Stringer("body", body),
	)

	res, err := s.paginator.Fetch(ctx, index, req, body)
	if err != nil || res == nil {
		return nil, err
	}

	if req.Annotations() && len(req.Queries()) > 0 {
		hits, err := s.annotator.Annotate(ctx, index, res.Hits(), req.LabeledQueries())
		if err != nil {
			return nil, fmt.Errorf("annotations: %w", err)
		}
		annotated := res.WithHits(hits)
		res = &annotated
	}
	return res, nil
}
