package access

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
)

// IndexReader loads index metadata for existence and guest role checks.
type IndexReader interface {
	Get(ctx context.Context, name string) (index.Index, error)
}

// RoleReader loads explicit index role assignments.
type RoleReader interface {
	Get(ctx context.Context, email, indexName string) (role.Role, error)
}
