package postgres

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
)

const userColumns = `id, email, password_hash, global_role, created_at, updated_at`

// UserRepo persists users.
type UserRepo struct {
	q querier
}

// NewUserRepo creates a user repository.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{q: db.Pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (user.User, error) {
	var (
		u    user.User
		hash *string
		gr   *int16
	)
	if err := row.Scan(&u.ID, &u.Email, &hash, &gr, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return user.User{}, MapPostgresError(err)
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	r, err := scanRole(gr)
	if err != nil {
		return user.User{}, err
	}
	u.GlobalRole = r
	return u, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserts a user. A duplicate email fails with ErrAlreadyExists.
func (r *UserRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, global_role)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		u.Email, nullableString(u.PasswordHash), nullableRole(u.GlobalRole),
	)
	created, err := scanUser(row)
	if err != nil {
		return user.User{}, fmt.Errorf("create user %s: %w", u.Email, err)
	}
	return created, nil
}

// GetByEmail loads a user.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return user.User{}, fmt.Errorf("user %s: %w", email, err)
	}
	return u, nil
}

// Update stores the password hash and global role of an existing user.
func (r *UserRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE users SET password_hash = $2, global_role = $3, updated_at = now()
		WHERE email = $1
		RETURNING `+userColumns,
		u.Email, nullableString(u.PasswordHash), nullableRole(u.GlobalRole),
	)
	updated, err := scanUser(row)
	if err != nil {
		return user.User{}, fmt.Errorf("update user %s: %w", u.Email, err)
	}
	return updated, nil
}

// Delete removes a user and, by cascade, their index roles.
func (r *UserRepo) Delete(ctx context.Context, email string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", email, MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return nil
}

// List returns every user ordered by email.
func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", MapPostgresError(err))
	}
	defer rows.Close()

	out := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", MapPostgresError(err))
	}
	return out, nil
}

// Count returns the number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", MapPostgresError(err))
	}
	return n, nil
}
