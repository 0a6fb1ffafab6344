package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
)

// RoleRepo persists (user, index) role assignments.
type RoleRepo struct {
	q querier
}

// NewRoleRepo creates a role repository.
func NewRoleRepo(db *DB) *RoleRepo {
	return &RoleRepo{q: db.Pool}
}

// Set assigns a role, replacing any previous one. None removes the assignment.
func (r *RoleRepo) Set(ctx context.Context, email, indexName string, rl role.Role) error {
	if rl.IsNone() {
		return r.Delete(ctx, email, indexName)
	}
	if err := setRole(ctx, r.q, email, indexName, rl); err != nil {
		return fmt.Errorf("set role %s@%s: %w", email, indexName, err)
	}
	return nil
}

func setRole(ctx context.Context, q querier, email, indexName string, rl role.Role) error {
	tag, err := q.Exec(ctx, `
		INSERT INTO index_roles (user_id, index_id, role)
		SELECT u.id, i.id, $3 FROM users u, indices i
		WHERE u.email = $1 AND i.name = $2
		ON CONFLICT (user_id, index_id) DO UPDATE SET role = EXCLUDED.role`,
		email, indexName, int16(rl),
	)
	if err != nil {
		return MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s or index %s: %w", email, indexName, domain.ErrNotFound)
	}
	return nil
}

// Delete removes an assignment. A missing assignment fails with ErrNotFound.
func (r *RoleRepo) Delete(ctx context.Context, email, indexName string) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM index_roles ir
		USING users u, indices i
		WHERE ir.user_id = u.id AND ir.index_id = i.id AND u.email = $1 AND i.name = $2`,
		email, indexName,
	)
	if err != nil {
		return fmt.Errorf("delete role %s@%s: %w", email, indexName, MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("role %s@%s: %w", email, indexName, domain.ErrNotFound)
	}
	return nil
}

// Get returns the explicit role of a user on an index, None when unassigned.
func (r *RoleRepo) Get(ctx context.Context, email, indexName string) (role.Role, error) {
	var v int16
	err := r.q.QueryRow(ctx, `
		SELECT ir.role FROM index_roles ir
		JOIN users u ON u.id = ir.user_id
		JOIN indices i ON i.id = ir.index_id
		WHERE u.email = $1 AND i.name = $2`,
		email, indexName,
	).Scan(&v)
	if err != nil {
		err = MapPostgresError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return role.None, nil
		}
		return role.None, fmt.Errorf("get role %s@%s: %w", email, indexName, err)
	}
	return scanRole(&v)
}

// ListByIndex returns every assignment on an index ordered by email.
func (r *RoleRepo) ListByIndex(ctx context.Context, indexName string) ([]index.Assignment, error) {
	return r.list(ctx, `WHERE i.name = $1 ORDER BY u.email`, indexName)
}

// ListByUser returns every assignment of a user ordered by index name.
func (r *RoleRepo) ListByUser(ctx context.Context, email string) ([]index.Assignment, error) {
	return r.list(ctx, `WHERE u.email = $1 ORDER BY i.name`, email)
}

func (r *RoleRepo) list(ctx context.Context, where string, arg string) ([]index.Assignment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT u.email, i.name, ir.role FROM index_roles ir
		JOIN users u ON u.id = ir.user_id
		JOIN indices i ON i.id = ir.index_id `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", MapPostgresError(err))
	}
	defer rows.Close()

	out := make([]index.Assignment, 0)
	for rows.Next() {
		var (
			a index.Assignment
			v int16
		)
		if err := rows.Scan(&a.Email, &a.Index, &v); err != nil {
			return nil, fmt.Errorf("scan role: %w", MapPostgresError(err))
		}
		rl, err := scanRole(&v)
		if err != nil {
			return nil, err
		}
		a.Role = rl
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", MapPostgresError(err))
	}
	return out, nil
}
