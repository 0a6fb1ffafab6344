package user

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/auth"
	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	domuser "github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/logger"
)

// Me addresses the calling user in place of an email.
const Me = "me"

// Update is a partial user modification. Nil fields are left unchanged.
type Update struct {
	Password   *string
	GlobalRole *role.Role
}

// Service manages user accounts and credentials.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	tokens TokenIssuer
	gate   Authorizer
}

// New creates a user service.
func New(repo Repository, hasher PasswordHasher, tokens TokenIssuer, gate Authorizer) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens, gate: gate}
}

// Create needs global WRITER, or ADMIN to create an admin. A global role,
// when given, must be WRITER or ADMIN.
func (s *Service) Create(
	ctx context.Context, principal *domuser.User, email, password string, globalRole role.Role,
) (domuser.User, error) {
	if err := s.gate.Authorize(ctx, principal, role.Writer, ""); err != nil {
		return domuser.User{}, err
	}
	switch globalRole {
	case role.None, role.Writer:
	case role.Admin:
		if err := s.gate.Authorize(ctx, principal, role.Admin, ""); err != nil {
			return domuser.User{}, err
		}
	default:
		return domuser.User{}, domain.Invalid("global role should be ADMIN or WRITER")
	}

	hash, err := s.hash(password)
	if err != nil {
		return domuser.User{}, err
	}
	u, err := domuser.New(email, globalRole, hash)
	if err != nil {
		return domuser.User{}, err
	}

	created, err := s.repo.Create(ctx, u)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return domuser.User{}, domain.Invalid("user %s already exists", u.Email)
	}
	if err != nil {
		return domuser.User{}, fmt.Errorf("create user: %w", err)
	}
	logger.FromContext(ctx).Info("user created",
		zap.String("user", created.Email), zap.Stringer("global_role", created.GlobalRole),
		zap.String("by", principal.Email))
	return created, nil
}

// Get returns a user. Users see themselves, writers see everyone.
func (s *Service) Get(ctx context.Context, principal *domuser.User, email string) (domuser.User, error) {
	email, err := s.resolve(ctx, principal, email)
	if err != nil {
		return domuser.User{}, err
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return domuser.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// List returns all users to writers.
func (s *Service) List(ctx context.Context, principal *domuser.User) ([]domuser.User, error) {
	if err := s.gate.Authorize(ctx, principal, role.Writer, ""); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Modify changes a password or global role. Writers may modify other
// non-admin users; a role can only be assigned by someone who holds it.
func (s *Service) Modify(ctx context.Context, principal *domuser.User, email string, upd Update) (domuser.User, error) {
	target, err := s.loadForChange(ctx, principal, email)
	if err != nil {
		return domuser.User{}, err
	}
	if upd.Password == nil && upd.GlobalRole == nil {
		return domuser.User{}, domain.Invalid("nothing to update")
	}

	if upd.GlobalRole != nil {
		next := *upd.GlobalRole
		if err := s.gate.Authorize(ctx, principal, role.Max(next, role.Writer), ""); err != nil {
			return domuser.User{}, err
		}
		target.GlobalRole = next
	}
	if upd.Password != nil {
		hash, err := s.hash(*upd.Password)
		if err != nil {
			return domuser.User{}, err
		}
		target.PasswordHash = hash
	}

	updated, err := s.repo.Update(ctx, target)
	if err != nil {
		return domuser.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// Delete removes a user. Users may delete themselves, writers delete
// non-admins and admins delete anyone.
func (s *Service) Delete(ctx context.Context, principal *domuser.User, email string) error {
	target, err := s.loadForChange(ctx, principal, email)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, target.Email); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	logger.FromContext(ctx).Info("user deleted", zap.String("user", target.Email), zap.String("by", principal.Email))
	return nil
}

// CreateAdmin creates or promotes a global ADMIN without an acting principal.
// It is meant for bootstrapping from the command line.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) (domuser.User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return domuser.User{}, err
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		existing.GlobalRole = role.Admin
		existing.PasswordHash = hash
		u, err := s.repo.Update(ctx, existing)
		if err != nil {
			return domuser.User{}, fmt.Errorf("promote %s: %w", email, err)
		}
		return u, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		return domuser.User{}, fmt.Errorf("load %s: %w", email, err)
	}

	u, err := domuser.New(email, role.Admin, hash)
	if err != nil {
		return domuser.User{}, err
	}
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		return domuser.User{}, fmt.Errorf("create admin: %w", err)
	}
	return created, nil
}

// resolve maps the Me alias and checks that principal may see email.
func (s *Service) resolve(ctx context.Context, principal *domuser.User, email string) (string, error) {
	if principal == nil {
		return "", domain.Denied("no authenticated user")
	}
	if email == Me || email == principal.Email {
		return principal.Email, nil
	}
	if err := s.gate.Authorize(ctx, principal, role.Writer, ""); err != nil {
		return "", err
	}
	return email, nil
}

func (s *Service) loadForChange(ctx context.Context, principal *domuser.User, email string) (domuser.User, error) {
	email, err := s.resolve(ctx, principal, email)
	if err != nil {
		return domuser.User{}, err
	}
	target, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return domuser.User{}, fmt.Errorf("get user: %w", err)
	}
	if target.Email != principal.Email && target.GlobalRole == role.Admin {
		if err := s.gate.Authorize(ctx, principal, role.Admin, ""); err != nil {
			return domuser.User{}, err
		}
	}
	return target, nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrWeakPassword) {
		return "", domain.Invalid("%s", err.Error())
	}
	return h, err
}
