package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domidx "github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/logger"
)

// Users lists the explicit role assignments of an index.
func (s *Service) Users(ctx context.Context, principal *user.User, name string) ([]domidx.Assignment, error) {
	if err := s.gate.Authorize(ctx, principal, role.Writer, name); err != nil {
		return nil, err
	}
	out, err := s.roles.ListByIndex(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list users of %s: %w", name, err)
	}
	return out, nil
}

// AddUser assigns a role to a user without one on the index.
func (s *Service) AddUser(ctx context.Context, principal *user.User, name, email string, r role.Role) error {
	current, err := s.currentRole(ctx, principal, name, email)
	if err != nil {
		return err
	}
	if !current.IsNone() {
		return fmt.Errorf("user %s on index %s: %w", email, name, domain.ErrAlreadyExists)
	}
	return s.assign(ctx, principal, name, email, current, r)
}

// SetUserRole changes an existing assignment.
func (s *Service) SetUserRole(ctx context.Context, principal *user.User, name, email string, r role.Role) error {
	current, err := s.currentRole(ctx, principal, name, email)
	if err != nil {
		return err
	}
	if current.IsNone() {
		return fmt.Errorf("user %s on index %s: %w", email, name, domain.ErrNotFound)
	}
	return s.assign(ctx, principal, name, email, current, r)
}

// RemoveUser deletes an assignment. Revoking ADMIN needs ADMIN.
func (s *Service) RemoveUser(ctx context.Context, principal *user.User, name, email string) error {
	current, err := s.currentRole(ctx, principal, name, email)
	if err != nil {
		return err
	}
	if current.IsNone() {
		return fmt.Errorf("user %s on index %s: %w", email, name, domain.ErrNotFound)
	}
	if err := s.gate.AuthorizeGrant(ctx, principal, current, name); err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, email, name); err != nil {
		return fmt.Errorf("remove %s from %s: %w", email, name, err)
	}
	logger.FromContext(ctx).Info("index role revoked",
		zap.String("index", name), zap.String("user", email), zap.Stringer("role", current))
	return nil
}

// currentRole checks WRITER on the index before revealing an assignment.
func (s *Service) currentRole(ctx context.Context, principal *user.User, name, email string) (role.Role, error) {
	if email == "" {
		return role.None, domain.Invalid("email is required")
	}
	if err := s.gate.Authorize(ctx, principal, role.Writer, name); err != nil {
		return role.None, err
	}
	current, err := s.roles.Get(ctx, email, name)
	if err != nil {
		return role.None, fmt.Errorf("load role %s@%s: %w", email, name, err)
	}
	return current, nil
}

// assign needs the right to grant both the old and the new role.
func (s *Service) assign(ctx context.Context, principal *user.User, name, email string, current, r role.Role) error {
	if r.IsNone() {
		return domain.Invalid("role is required")
	}
	if err := s.gate.AuthorizeGrant(ctx, principal, role.Max(current, r), name); err != nil {
		return err
	}
	if err := s.roles.Set(ctx, email, name, r); err != nil {
		return fmt.Errorf("assign %s to %s on %s: %w", r, email, name, err)
	}
	logger.FromContext(ctx).Info("index role assigned",
		zap.String("index", name), zap.String("user", email), zap.Stringer("role", r))
	return nil
}
