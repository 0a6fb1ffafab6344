package access

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Gate loads subject facts and applies Decide. Checks run in a fixed order:
// missing principal, then missing index, then insufficient role.
type Gate struct {
	indices IndexReader
	roles   RoleReader
}

// NewGate creates a gate.
func NewGate(indices IndexReader, roles RoleReader) *Gate {
	return &Gate{indices: indices, roles: roles}
}

// Authorize checks required at global scope when indexName is empty and on
// the named index otherwise.
func (g *Gate) Authorize(ctx context.Context, principal *user.User, required role.Role, indexName string) error {
	_, err := g.authorize(ctx, principal, required, indexName)
	return err
}

// AuthorizeIndex is Authorize for an index scope that also returns the loaded index.
func (g *Gate) AuthorizeIndex(
	ctx context.Context, principal *user.User, required role.Role, indexName string,
) (index.Index, error) {
	return g.authorize(ctx, principal, required, indexName)
}

// AuthorizeGrant checks that principal may grant or revoke target at the scope.
func (g *Gate) AuthorizeGrant(ctx context.Context, principal *user.User, target role.Role, indexName string) error {
	return g.Authorize(ctx, principal, GrantRequirement(target), indexName)
}

// Effective returns the principal's role on an index. Anonymous callers hold none.
func (g *Gate) Effective(ctx context.Context, principal *user.User, ix index.Index) (role.Role, error) {
	if principal == nil {
		return role.None, nil
	}
	s, err := g.subject(ctx, principal, ix)
	if err != nil {
		return role.None, err
	}
	return s.Effective(), nil
}

func (g *Gate) authorize(
	ctx context.Context, principal *user.User, required role.Role, indexName string,
) (index.Index, error) {
	log := logger.FromContext(ctx)

	if principal == nil {
		log.Debug("access denied: no authenticated user", zap.Stringer("required", required))
		record(required, "deny")
		return index.Index{}, domain.Denied("no authenticated user")
	}

	if indexName == "" {
		if !Decide(Subject{Global: principal.GlobalRole}, required) {
			log.Info("access denied",
				zap.String("user", principal.Email), zap.Stringer("required", required))
			record(required, "deny")
			return index.Index{}, domain.Denied("user %s lacks the global role for this operation", principal.Email)
		}
		record(required, "allow")
		return index.Index{}, nil
	}

	ix, err := g.indices.Get(ctx, indexName)
	if err != nil {
		record(required, "not_found")
		return index.Index{}, fmt.Errorf("authorize on %s: %w", indexName, err)
	}

	s, err := g.subject(ctx, principal, ix)
	if err != nil {
		return index.Index{}, err
	}
	if !Decide(s, required) {
		log.Info("access denied",
			zap.String("user", principal.Email), zap.String("index", indexName),
			zap.Stringer("required", required), zap.Stringer("effective", s.Effective()))
		record(required, "deny")
		return index.Index{}, domain.Denied("user %s lacks the role for this operation on index %s", principal.Email, indexName)
	}
	record(required, "allow")
	return ix, nil
}

func (g *Gate) subject(ctx context.Context, principal *user.User, ix index.Index) (Subject, error) {
	s := Subject{Global: principal.GlobalRole, Indexed: true, Guest: ix.GuestRole}
	if s.Global == role.Admin {
		return s, nil
	}
	assigned, err := g.roles.Get(ctx, principal.Email, ix.Name)
	if err != nil {
		return Subject{}, fmt.Errorf("load role %s@%s: %w", principal.Email, ix.Name, err)
	}
	s.Assigned = assigned
	return s, nil
}

func record(required role.Role, outcome string) {
	metrics.AccessDecisionsTotal.WithLabelValues(required.String(), outcome).Inc()
}
