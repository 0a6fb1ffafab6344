package chi

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/db"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	domidx "github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/search/request"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	domuser "github.com/kailas-cloud/docsearch/internal/domain/user"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	useruc "github.com/kailas-cloud/docsearch/internal/usecase/user"
)

// IndexService manages indices, their fields and their users.
type IndexService interface {
	Create(ctx context.Context, principal *domuser.User, name string, guest role.Role,
		fields map[string]field.Field) (domidx.Index, error)
	Get(ctx context.Context, principal *domuser.User, name string) (domidx.Visible, error)
	List(ctx context.Context, principal *domuser.User) ([]domidx.Visible, error)
	UpdateGuestRole(ctx context.Context, principal *domuser.User, name string, guest role.Role) (domidx.Index, error)
	Delete(ctx context.Context, principal *domuser.User, name string) error
	Fields(ctx context.Context, principal *domuser.User, names ...string) (map[string]field.Field, error)
	SetFields(ctx context.Context, principal *domuser.User, name string, fields map[string]field.Field) error
	Values(ctx context.Context, principal *domuser.User, name, fieldName string) ([]any, error)
	Refresh(ctx context.Context, principal *domuser.User, name string) (*db.IndexInfo, error)
	Users(ctx context.Context, principal *domuser.User, name string) ([]domidx.Assignment, error)
	AddUser(ctx context.Context, principal *domuser.User, name, email string, r role.Role) error
	SetUserRole(ctx context.Context, principal *domuser.User, name, email string, r role.Role) error
	RemoveUser(ctx context.Context, principal *domuser.User, name, email string) error
}

// DocumentService stores and edits documents.
type DocumentService interface {
	Upload(ctx context.Context, principal *domuser.User, index string,
		raw []map[string]any, columns map[string]field.Field) ([]string, error)
	Get(ctx context.Context, principal *domuser.User, index, id string, fieldNames []string) (domdoc.Document, error)
	Update(ctx context.Context, principal *domuser.User, index, id string, partial map[string]any) error
	Delete(ctx context.Context, principal *domuser.User, index, id string) error
	UpdateTags(ctx context.Context, principal *domuser.User, index string, u documentuc.TagUpdate) (int, error)
}

// SearchService runs queries. A nil result marks an exhausted scroll.
type SearchService interface {
	Query(ctx context.Context, principal *domuser.User, index string, req request.Request) (*result.QueryResult, error)
}

// UserService manages accounts and issues tokens.
type UserService interface {
	Create(ctx context.Context, principal *domuser.User, email, password string, globalRole role.Role) (domuser.User, error)
	Get(ctx context.Context, principal *domuser.User, email string) (domuser.User, error)
	List(ctx context.Context, principal *domuser.User) ([]domuser.User, error)
	Modify(ctx context.Context, principal *domuser.User, email string, upd useruc.Update) (domuser.User, error)
	Delete(ctx context.Context, principal *domuser.User, email string) error
	Login(ctx context.Context, email, password string) (string, error)
	Refresh(ctx context.Context, principal *domuser.User) (string, error)
}

// Authenticator resolves request credentials to a user.
type Authenticator interface {
	VerifyPassword(ctx context.Context, email, password string) (domuser.User, error)
	VerifyToken(ctx context.Context, token string) (domuser.User, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
