package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	domidx "github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/usecase/access"
)

// --- Fakes ---

type fakeMeta struct {
	indices map[string]domidx.Index
	roles   *fakeRoles
	err     error
	deleted []string
}

func (m *fakeMeta) Create(_ context.Context, ix domidx.Index, owner string) (domidx.Index, error) {
	if m.err != nil {
		return domidx.Index{}, m.err
	}
	if _, ok := m.indices[ix.Name]; ok {
		return domidx.Index{}, fmt.Errorf("index %s: %w", ix.Name, domain.ErrAlreadyExists)
	}
	ix.ID = int64(len(m.indices) + 1)
	m.indices[ix.Name] = ix
	if owner != "" {
		m.roles.assigned[key(owner, ix.Name)] = role.Admin
	}
	return ix, nil
}

func (m *fakeMeta) Get(_ context.Context, name string) (domidx.Index, error) {
	ix, ok := m.indices[name]
	if !ok {
		return domidx.Index{}, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
	}
	return ix, nil
}

func (m *fakeMeta) List(_ context.Context) ([]domidx.Index, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domidx.Index, 0, len(m.indices))
	for _, ix := range m.indices {
		out = append(out, ix)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *fakeMeta) UpdateGuestRole(_ context.Context, name string, guest role.Role) (domidx.Index, error) {
	ix, ok := m.indices[name]
	if !ok {
		return domidx.Index{}, domain.ErrNotFound
	}
	ix.GuestRole = guest
	m.indices[name] = ix
	return ix, nil
}

func (m *fakeMeta) Delete(_ context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	if _, ok := m.indices[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.indices, name)
	return nil
}

type fakeRoles struct {
	assigned map[string]role.Role
}

func key(email, index string) string { return email + "@" + index }

func (r *fakeRoles) Set(_ context.Context, email, indexName string, rl role.Role) error {
	r.assigned[key(email, indexName)] = rl
	return nil
}

func (r *fakeRoles) Delete(_ context.Context, email, indexName string) error {
	delete(r.assigned, key(email, indexName))
	return nil
}

func (r *fakeRoles) Get(_ context.Context, email, indexName string) (role.Role, error) {
	return r.assigned[key(email, indexName)], nil
}

func (r *fakeRoles) ListByIndex(_ context.Context, indexName string) ([]domidx.Assignment, error) {
	var out []domidx.Assignment
	for k, rl := range r.assigned {
		i := strings.LastIndex(k, "@")
		if k[i+1:] == indexName {
			out = append(out, domidx.Assignment{Email: k[:i], Index: indexName, Role: rl})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

type mockBackend struct {
	fields    map[string]map[string]field.Field
	createErr error
	dropErr   error
	setFields map[string]field.Field
	values    []any
	valuesLim int
	info      *db.IndexInfo
	created   []string
	dropped   []string
}

func (b *mockBackend) Create(_ context.Context, name string, fields map[string]field.Field) error {
	if b.createErr != nil {
		return b.createErr
	}
	b.created = append(b.created, name)
	b.fields[name] = field.WithDefaults(fields)
	return nil
}

func (b *mockBackend) Drop(_ context.Context, name string) error {
	b.dropped = append(b.dropped, name)
	return b.dropErr
}

func (b *mockBackend) Fields(_ context.Context, name string) (map[string]field.Field, error) {
	f, ok := b.fields[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (b *mockBackend) SetFields(_ context.Context, _ string, fields map[string]field.Field) error {
	b.setFields = fields
	return nil
}

func (b *mockBackend) Values(_ context.Context, _, _ string, limit int) ([]any, error) {
	b.valuesLim = limit
	return b.values, nil
}

func (b *mockBackend) Info(_ context.Context, name string) (*db.IndexInfo, error) {
	if b.info == nil {
		return nil, domain.ErrNotFound
	}
	info := *b.info
	info.Name = name
	return &info, nil
}

type fixture struct {
	meta    *fakeMeta
	roles   *fakeRoles
	backend *mockBackend
	svc     *Service
}

// newFixture wires the service to the real access gate over in-memory stores.
// Index "news" exists with no guest role; owner@x is its ADMIN.
func newFixture() *fixture {
	roles := &fakeRoles{assigned: map[string]role.Role{key("owner@x", "news"): role.Admin}}
	meta := &fakeMeta{
		indices: map[string]domidx.Index{"news": {ID: 1, Name: "news"}},
		roles:   roles,
	}
	backend := &mockBackend{fields: map[string]map[string]field.Field{"news": field.Defaults()}}
	return &fixture{
		meta:    meta,
		roles:   roles,
		backend: backend,
		svc:     New(meta, roles, backend, access.NewGate(meta, roles)),
	}
}

func principal(email string, global role.Role) *user.User {
	return &user.User{Email: email, GlobalRole: global}
}
