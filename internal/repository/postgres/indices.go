package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
)

const indexColumns = `id, name, guest_role, created_at, updated_at`

// IndexRepo persists index metadata.
type IndexRepo struct {
	db *DB
	q  querier
}

// NewIndexRepo creates an index repository.
func NewIndexRepo(db *DB) *IndexRepo {
	return &IndexRepo{db: db, q: db.Pool}
}

func scanIndex(row rowScanner) (index.Index, error) {
	var (
		ix index.Index
		gr *int16
	)
	if err := row.Scan(&ix.ID, &ix.Name, &gr, &ix.CreatedAt, &ix.UpdatedAt); err != nil {
		return index.Index{}, MapPostgresError(err)
	}
	r, err := scanRole(gr)
	if err != nil {
		return index.Index{}, err
	}
	ix.GuestRole = r
	return ix, nil
}

// Create inserts an index and makes owner its ADMIN in one transaction.
// An empty owner skips the assignment.
func (r *IndexRepo) Create(ctx context.Context, ix index.Index, owner string) (index.Index, error) {
	var created index.Index
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = scanIndex(tx.QueryRow(ctx, `
			INSERT INTO indices (name, guest_role) VALUES ($1, $2)
			RETURNING `+indexColumns,
			ix.Name, nullableRole(ix.GuestRole),
		))
		if err != nil || owner == "" {
			return err
		}
		return setRole(ctx, tx, owner, ix.Name, role.Admin)
	})
	if err != nil {
		return index.Index{}, fmt.Errorf("create index %s: %w", ix.Name, err)
	}
	return created, nil
}

// Get loads an index by name.
func (r *IndexRepo) Get(ctx context.Context, name string) (index.Index, error) {
	ix, err := scanIndex(r.q.QueryRow(ctx, `SELECT `+indexColumns+` FROM indices WHERE name = $1`, name))
	if err != nil {
		return index.Index{}, fmt.Errorf("index %s: %w", name, err)
	}
	return ix, nil
}

// List returns every index ordered by name.
func (r *IndexRepo) List(ctx context.Context) ([]index.Index, error) {
	rows, err := r.q.Query(ctx, `SELECT `+indexColumns+` FROM indices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", MapPostgresError(err))
	}
	defer rows.Close()

	out := make([]index.Index, 0)
	for rows.Next() {
		ix, err := scanIndex(rows)
		if err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		out = append(out, ix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indices: %w", MapPostgresError(err))
	}
	return out, nil
}

// UpdateGuestRole sets the guest role. None clears it.
func (r *IndexRepo) UpdateGuestRole(ctx context.Context, name string, guest role.Role) (index.Index, error) {
	ix, err := scanIndex(r.q.QueryRow(ctx, `
		UPDATE indices SET guest_role = $2, updated_at = now()
		WHERE name = $1
		RETURNING `+indexColumns,
		name, nullableRole(guest),
	))
	if err != nil {
		return index.Index{}, fmt.Errorf("update index %s: %w", name, err)
	}
	return ix, nil
}

// Delete removes an index and, by cascade, its role assignments.
func (r *IndexRepo) Delete(ctx context.Context, name string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM indices WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete index %s: %w", name, MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
	}
	return nil
}
