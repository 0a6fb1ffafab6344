package index

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
)

// MaxNameLength bounds index names; they become part of backend keys.
const MaxNameLength = 64

// Index is a named collection of documents.
type Index struct {
	ID        int64
	Name      string
	GuestRole role.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New validates the name and creates an index.
func New(name string, guest role.Role) (Index, error) {
	if err := ValidateName(name); err != nil {
		return Index{}, err
	}
	return Index{Name: name, GuestRole: guest}, nil
}

// ValidateName checks [a-z0-9][a-z0-9_-]*.
func ValidateName(name string) error {
	if name == "" {
		return domain.Invalid("index name is required")
	}
	if len(name) > MaxNameLength {
		return domain.Invalid("index name too long (max %d)", MaxNameLength)
	}
	for i, r := range name {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLower && !isDigit {
			return domain.Invalid("index name must start with a letter or digit")
		}
		if !isLower && !isDigit && r != '_' && r != '-' {
			return domain.Invalid("index name contains invalid character %q", r)
		}
	}
	return nil
}

// Assignment is an explicit (user, index) role.
type Assignment struct {
	Email string
	Index string
	Role  role.Role
}

func (a Assignment) String() string {
	return fmt.Sprintf("%s@%s=%s", a.Email, a.Index, a.Role)
}

// Visible is an index together with the caller's effective role on it.
type Visible struct {
	Index Index
	Role  role.Role
}
