package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
)

// User is an authenticated principal.
type User struct {
	ID           int64
	Email        string
	GlobalRole   role.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New validates the email and creates a user without an ID.
func New(email string, globalRole role.Role, passwordHash string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, domain.Invalid("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil && !isLocalName(email) {
		return User{}, domain.Invalid("invalid email %q", email)
	}
	return User{Email: email, GlobalRole: globalRole, PasswordHash: passwordHash}, nil
}

// isLocalName accepts bare account names such as "admin" used for bootstrap accounts.
func isLocalName(s string) bool {
	for _, r := range s {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '_' || r == '-' || r == '.'
		if !ok {
			return false
		}
	}
	return true
}

// HasGlobalRole reports whether the global role implies required.
func (u *User) HasGlobalRole(required role.Role) bool {
	return u != nil && u.GlobalRole.Implies(required)
}
