package document

import (
	"context"
	"time"

	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Upload(ctx context.Context, index string, docs []domdoc.Document) ([]string, error)
	Get(ctx context.Context, index, id string, fieldNames []string) (domdoc.Document, error)
	Update(ctx context.Context, index, id string, partial map[string]any) error
	Delete(ctx context.Context, index, id string) error
}

// Schema reads and extends the field declarations of an index.
type Schema interface {
	Fields(ctx context.Context, name string) (map[string]field.Field, error)
	SetFields(ctx context.Context, name string, fields map[string]field.Field) error
}

// Matcher walks the full match set of a query.
type Matcher interface {
	OpenScroll(ctx context.Context, index string, body query.Body, fields []string, size int, keepAlive time.Duration) (result.Batch, error)
	Scroll(ctx context.Context, index string, cursor result.Cursor) (result.Batch, error)
}

// Authorizer checks index roles.
type Authorizer interface {
	Authorize(ctx context.Context, principal *user.User, required role.Role, indexName string) error
}
