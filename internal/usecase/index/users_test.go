package index

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domidx "github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
)

func domIndex(name string, guest role.Role) domidx.Index {
	return domidx.Index{Name: name, GuestRole: guest}
}

func TestUsers(t *testing.T) {
	f := newFixture()
	f.roles.assigned[key("r@x", "news")] = role.Reader

	got, err := f.svc.Users(ctx, principal("owner@x", role.None), "news")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Email != "owner@x" || got[1].Role != role.Reader {
		t.Errorf("unexpected assignments %+v", got)
	}

	if _, err := f.svc.Users(ctx, principal("r@x", role.None), "news"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("readers may not list users: %v", err)
	}
}

func TestAddUser(t *testing.T) {
	f := newFixture()
	f.roles.assigned[key("w@x", "news")] = role.Writer
	writer := principal("w@x", role.None)

	if err := f.svc.AddUser(ctx, writer, "news", "new@x", role.Reader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.roles.assigned[key("new@x", "news")] != role.Reader {
		t.Error("role not assigned")
	}

	err := f.svc.AddUser(ctx, writer, "news", "new@x", role.Writer)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("second add: expected ErrAlreadyExists, got %v", err)
	}
}

func TestAddUser_Elevation(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		target  role.Role
		wantErr error
	}{
		{"writer grants writer", "w@x", role.Writer, nil},
		{"writer grants admin", "w@x", role.Admin, domain.ErrUnauthorized},
		{"admin grants admin", "owner@x", role.Admin, nil},
		{"reader grants reader", "r@x", role.Reader, domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.roles.assigned[key("w@x", "news")] = role.Writer
			f.roles.assigned[key("r@x", "news")] = role.Reader

			err := f.svc.AddUser(ctx, principal(tt.actor, role.None), "news", "new@x", tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAddUser_NoneRole(t *testing.T) {
	f := newFixture()
	err := f.svc.AddUser(ctx, principal("owner@x", role.None), "news", "new@x", role.None)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSetUserRole_DemotingAdminNeedsAdmin(t *testing.T) {
	f := newFixture()
	f.roles.assigned[key("w@x", "news")] = role.Writer

	err := f.svc.SetUserRole(ctx, principal("w@x", role.None), "news", "owner@x", role.Reader)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if f.roles.assigned[key("owner@x", "news")] != role.Admin {
		t.Error("assignment must be unchanged")
	}
}

func TestSetUserRole_Missing(t *testing.T) {
	f := newFixture()
	err := f.svc.SetUserRole(ctx, principal("owner@x", role.None), "news", "ghost@x", role.Reader)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveUser(t *testing.T) {
	f := newFixture()
	f.roles.assigned[key("r@x", "news")] = role.Reader
	f.roles.assigned[key("w@x", "news")] = role.Writer

	if err := f.svc.RemoveUser(ctx, principal("w@x", role.None), "news", "r@x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.roles.assigned[key("r@x", "news")]; ok {
		t.Error("assignment must be removed")
	}

	err := f.svc.RemoveUser(ctx, principal("w@x", role.None), "news", "owner@x")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("revoking ADMIN needs ADMIN, got %v", err)
	}
	if err := f.svc.RemoveUser(ctx, principal("w@x", role.None), "news", "ghost@x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIndexUsers_MissingIndex(t *testing.T) {
	f := newFixture()
	err := f.svc.AddUser(ctx, principal("root@x", role.Admin), "nope", "u@x", role.Reader)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
