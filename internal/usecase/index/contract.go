package index

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	domidx "github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
)

// Metadata is the index registry in the metadata store.
type Metadata interface {
	Create(ctx context.Context, ix domidx.Index, owner string) (domidx.Index, error)
	List(ctx context.Context) ([]domidx.Index, error)
	UpdateGuestRole(ctx context.Context, name string, guest role.Role) (domidx.Index, error)
	Delete(ctx context.Context, name string) error
}

// Roles manages explicit index role assignments.
type Roles interface {
	Set(ctx context.Context, email, indexName string, r role.Role) error
	Delete(ctx context.Context, email, indexName string) error
	Get(ctx context.Context, email, indexName string) (role.Role, error)
	ListByIndex(ctx context.Context, indexName string) ([]domidx.Assignment, error)
}

// Backend manages the search-side index and its field declarations.
type Backend interface {
	Create(ctx context.Context, name string, fields map[string]field.Field) error
	Drop(ctx context.Context, name string) error
	Fields(ctx context.Context, name string) (map[string]field.Field, error)
	SetFields(ctx context.Context, name string, fields map[string]field.Field) error
	Values(ctx context.Context, name, fieldName string, limit int) ([]any, error)
	Info(ctx context.Context, name string) (*db.IndexInfo, error)
}

// Gate authorizes principals.
type Gate interface {
	Authorize(ctx context.Context, principal *user.User, required role.Role, indexName string) error
	AuthorizeIndex(ctx context.Context, principal *user.User, required role.Role, indexName string) (domidx.Index, error)
	AuthorizeGrant(ctx context.Context, principal *user.User, target role.Role, indexName string) error
	Effective(ctx context.Context, principal *user.User, ix domidx.Index) (role.Role, error)
}
