package user

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/auth"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	domuser "github.com/kailas-cloud/docsearch/internal/domain/user"
)

// Repository defines the storage contract for users.
type Repository interface {
	Create(ctx context.Context, u domuser.User) (domuser.User, error)
	GetByEmail(ctx context.Context, email string) (domuser.User, error)
	Update(ctx context.Context, u domuser.User) (domuser.User, error)
	Delete(ctx context.Context, email string) error
	List(ctx context.Context) ([]domuser.User, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// TokenIssuer signs and validates access tokens.
type TokenIssuer interface {
	Issue(email string) (string, error)
	Validate(token string) (*auth.Claims, error)
}

// Authorizer checks global roles.
type Authorizer interface {
	Authorize(ctx context.Context, principal *domuser.User, required role.Role, indexName string) error
}
