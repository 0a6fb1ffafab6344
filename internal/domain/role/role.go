// Package role defines the ordered role hierarchy shared by global and index scopes.
package role

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Role is a capability level. A higher role implies every capability of the lower ones.
type Role int

// Role values. Only the order matters; None is the implicit minimum and is never stored.
const (
	None       Role = 0
	Reader     Role = 10
	MetaReader Role = 20
	Writer     Role = 30
	Admin      Role = 40
)

var names = map[Role]string{
	None:       "NONE",
	Reader:     "READER",
	MetaReader: "METAREADER",
	Writer:     "WRITER",
	Admin:      "ADMIN",
}

// All returns the assignable roles in ascending order.
func All() []Role {
	return []Role{Reader, MetaReader, Writer, Admin}
}

// Parse resolves a role name case-insensitively. Unknown names fail with ErrInvalidRequest.
func Parse(s string) (Role, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for r, n := range names {
		if n == upper {
			return r, nil
		}
	}
	return None, domain.Invalid("unknown role %q", s)
}

// ParseOptional treats an empty string as None.
func ParseOptional(s string) (Role, error) {
	if strings.TrimSpace(s) == "" {
		return None, nil
	}
	return Parse(s)
}

// FromInt rebuilds a stored role. Unknown values fail.
func FromInt(v int) (Role, error) {
	r := Role(v)
	if _, ok := names[r]; !ok {
		return None, fmt.Errorf("unknown stored role %d", v)
	}
	return r, nil
}

func (r Role) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Implies reports whether r carries at least the capabilities of required.
func (r Role) Implies(required Role) bool {
	return r >= required
}

// IsNone reports whether r grants nothing.
func (r Role) IsNone() bool { return r == None }

// Max returns the highest of the given roles, None when empty.
func Max(roles ...Role) Role {
	best := None
	for _, r := range roles {
		if r > best {
			best = r
		}
	}
	return best
}

// MarshalJSON encodes the role name, null for None.
func (r Role) MarshalJSON() ([]byte, error) {
	if r == None {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts a role name or null.
func (r *Role) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = None
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Invalid("role must be a string")
	}
	parsed, err := ParseOptional(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
