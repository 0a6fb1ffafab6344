package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
)

// Backend runs compiled queries against the search engine.
type Backend interface {
	Search(
		ctx context.Context, index string, body query.Body,
		fields []string, offset, size int,
	) (result.Batch, error)

	OpenScroll(
		ctx context.Context, index string, body query.Body,
		fields []string, size int, keepAlive time.Duration,
	) (result.Batch, error)

	Scroll(ctx context.Context, index string, cursor result.Cursor) (result.Batch, error)
}

// Authorizer checks the caller's role on an index.
type Authorizer interface {
	Authorize(ctx context.Context, principal *user.User, required role.Role, indexName string) error
}
