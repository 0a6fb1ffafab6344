package index

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	domidx "github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/logger"
)

// MaxValues bounds the distinct values listed for one field.
const MaxValues = 1000

// Service handles index lifecycle, field declarations and index users.
type Service struct {
	meta    Metadata
	roles   Roles
	backend Backend
	gate    Gate
}

// New creates an index service.
func New(meta Metadata, roles Roles, backend Backend, gate Gate) *Service {
	return &Service{meta: meta, roles: roles, backend: backend, gate: gate}
}

// Create registers a new index owned by principal and builds its search
// index. The registration is rolled back if the backend refuses the index.
func (s *Service) Create(
	ctx context.Context, principal *user.User, name string, guest role.Role, fields map[string]field.Field,
) (domidx.Index, error) {
	if err := s.gate.Authorize(ctx, principal, role.Writer, ""); err != nil {
		return domidx.Index{}, err
	}
	ix, err := domidx.New(name, guest)
	if err != nil {
		return domidx.Index{}, err
	}
	if err := validateFields(fields); err != nil {
		return domidx.Index{}, err
	}

	created, err := s.meta.Create(ctx, ix, principal.Email)
	if err != nil {
		return domidx.Index{}, err
	}
	if err := s.backend.Create(ctx, name, fields); err != nil {
		if rbErr := s.meta.Delete(ctx, name); rbErr != nil {
			logger.FromContext(ctx).Warn("index rollback failed", zap.String("index", name), zap.Error(rbErr))
			err = errors.Join(err, rbErr)
		}
		return domidx.Index{}, fmt.Errorf("create index %s: %w", name, err)
	}

	logger.FromContext(ctx).Info("index created",
		zap.String("index", name), zap.String("owner", principal.Email), zap.Stringer("guest_role", guest))
	return created, nil
}

// Get returns the index with the caller's effective role.
func (s *Service) Get(ctx context.Context, principal *user.User, name string) (domidx.Visible, error) {
	ix, err := s.gate.AuthorizeIndex(ctx, principal, role.MetaReader, name)
	if err != nil {
		return domidx.Visible{}, err
	}
	r, err := s.gate.Effective(ctx, principal, ix)
	if err != nil {
		return domidx.Visible{}, err
	}
	return domidx.Visible{Index: ix, Role: r}, nil
}

// List returns the indices the caller holds any role on.
func (s *Service) List(ctx context.Context, principal *user.User) ([]domidx.Visible, error) {
	if principal == nil {
		return nil, domain.Denied("no authenticated user")
	}
	all, err := s.meta.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}

	out := make([]domidx.Visible, 0, len(all))
	for _, ix := range all {
		r, err := s.gate.Effective(ctx, principal, ix)
		if err != nil {
			return nil, err
		}
		if r.IsNone() {
			continue
		}
		out = append(out, domidx.Visible{Index: ix, Role: r})
	}
	return out, nil
}

// UpdateGuestRole needs WRITER, or ADMIN to make guests admins.
func (s *Service) UpdateGuestRole(
	ctx context.Context, principal *user.User, name string, guest role.Role,
) (domidx.Index, error) {
	required := role.Writer
	if guest == role.Admin {
		required = role.Admin
	}
	if err := s.gate.Authorize(ctx, principal, required, name); err != nil {
		return domidx.Index{}, err
	}
	ix, err := s.meta.UpdateGuestRole(ctx, name, guest)
	if err != nil {
		return domidx.Index{}, fmt.Errorf("update index %s: %w", name, err)
	}
	return ix, nil
}

// Delete drops the search index with all documents, then the registration.
func (s *Service) Delete(ctx context.Context, principal *user.User, name string) error {
	if err := s.gate.Authorize(ctx, principal, role.Admin, name); err != nil {
		return err
	}
	if err := s.backend.Drop(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	if err := s.meta.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete index %s: %w", name, err)
	}
	logger.FromContext(ctx).Info("index deleted", zap.String("index", name), zap.String("by", principal.Email))
	return nil
}

// Fields returns the declarations of one index, or of several merged.
func (s *Service) Fields(ctx context.Context, principal *user.User, names ...string) (map[string]field.Field, error) {
	if len(names) == 0 {
		return nil, domain.Invalid("at least one index is required")
	}
	sets := make([]map[string]field.Field, 0, len(names))
	for _, name := range names {
		if err := s.gate.Authorize(ctx, principal, role.MetaReader, name); err != nil {
			return nil, err
		}
		fields, err := s.backend.Fields(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("fields %s: %w", name, err)
		}
		sets = append(sets, fields)
	}
	if len(sets) == 1 {
		return sets[0], nil
	}
	return field.Merge(sets...), nil
}

// SetFields adds or updates field declarations.
func (s *Service) SetFields(
	ctx context.Context, principal *user.User, name string, fields map[string]field.Field,
) error {
	if err := s.gate.Authorize(ctx, principal, role.Writer, name); err != nil {
		return err
	}
	if len(fields) == 0 {
		return domain.Invalid("no fields given")
	}
	if err := validateFields(fields); err != nil {
		return err
	}
	if err := s.backend.SetFields(ctx, name, fields); err != nil {
		return fmt.Errorf("set fields %s: %w", name, err)
	}
	return nil
}

// Values lists distinct values of a field.
func (s *Service) Values(ctx context.Context, principal *user.User, name, fieldName string) ([]any, error) {
	if err := s.gate.Authorize(ctx, principal, role.Reader, name); err != nil {
		return nil, err
	}
	vals, err := s.backend.Values(ctx, name, fieldName, MaxValues)
	if err != nil {
		return nil, fmt.Errorf("values %s.%s: %w", name, fieldName, err)
	}
	return vals, nil
}

// Refresh makes recent writes visible to queries.
func (s *Service) Refresh(ctx context.Context, principal *user.User, name string) (*db.IndexInfo, error) {
	if err := s.gate.Authorize(ctx, principal, role.Writer, name); err != nil {
		return nil, err
	}
	info, err := s.backend.Info(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", name, err)
	}
	return info, nil
}

func validateFields(fields map[string]field.Field) error {
	for _, name := range field.Names(fields) {
		if err := field.ValidateName(name); err != nil {
			return err
		}
	}
	return nil
}
