package index

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
)

var ctx = context.Background()

func TestCreate_OwnerBecomesAdmin(t *testing.T) {
	f := newFixture()
	writer := principal("w@x", role.Writer)

	ix, err := f.svc.Create(ctx, writer, "blogs", role.Reader, map[string]field.Field{"cat": {Type: field.Tag}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ix.Name != "blogs" || ix.GuestRole != role.Reader {
		t.Errorf("unexpected index %+v", ix)
	}
	if got := f.roles.assigned[key("w@x", "blogs")]; got != role.Admin {
		t.Errorf("creator role = %s, want ADMIN", got)
	}
	if _, ok := f.backend.fields["blogs"]["cat"]; !ok {
		t.Error("declared fields must reach the backend")
	}
}

func TestCreate_RequiresGlobalWriter(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(ctx, principal("r@x", role.None), "blogs", role.None, nil)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(f.backend.created) != 0 {
		t.Error("backend must not be touched")
	}
}

func TestCreate_Anonymous(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(ctx, nil, "blogs", role.None, nil)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreate_InvalidName(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(ctx, principal("w@x", role.Writer), "Bad Name", role.None, nil)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCreate_ReservedField(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(ctx, principal("w@x", role.Writer), "blogs", role.None,
		map[string]field.Field{"_id": {Type: field.Keyword}})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(ctx, principal("w@x", role.Writer), "news", role.None, nil)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_BackendFailureRollsBack(t *testing.T) {
	f := newFixture()
	boom := errors.New("backend down")
	f.backend.createErr = boom

	_, err := f.svc.Create(ctx, principal("w@x", role.Writer), "blogs", role.None, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if _, ok := f.meta.indices["blogs"]; ok {
		t.Error("registration must be rolled back")
	}
}

func TestGet(t *testing.T) {
	f := newFixture()
	f.roles.assigned[key("m@x", "news")] = role.MetaReader

	v, err := f.svc.Get(ctx, principal("m@x", role.None), "news")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Index.Name != "news" || v.Role != role.MetaReader {
		t.Errorf("unexpected %+v", v)
	}
}

func TestGet_PolicyOrder(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name    string
		index   string
		wantErr error
	}{
		{"missing index", "nope", domain.ErrNotFound},
		{"no role", "news", domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Get(ctx, principal("stranger@x", role.Writer), tt.index)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestList_VisibleWithRole(t *testing.T) {
	f := newFixture()
	f.meta.indices["public"] = domIndex("public", role.Reader)
	f.meta.indices["secret"] = domIndex("secret", role.None)
	f.meta.indices["shared"] = domIndex("shared", role.Reader)
	f.roles.assigned[key("u@x", "shared")] = role.Writer

	got, err := f.svc.List(ctx, principal("u@x", role.None))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]role.Role{"public": role.Reader, "shared": role.Writer}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for _, v := range got {
		if want[v.Index.Name] != v.Role {
			t.Errorf("%s: role %s, want %s", v.Index.Name, v.Role, want[v.Index.Name])
		}
	}
}

func TestList_GlobalAdminSeesAll(t *testing.T) {
	f := newFixture()
	f.meta.indices["secret"] = domIndex("secret", role.None)

	got, err := f.svc.List(ctx, principal("root@x", role.Admin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected all indices, got %+v", got)
	}
	for _, v := range got {
		if v.Role != role.Admin {
			t.Errorf("%s: role %s, want ADMIN", v.Index.Name, v.Role)
		}
	}
}

func TestList_Anonymous(t *testing.T) {
	_, err := newFixture().svc.List(ctx, nil)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdateGuestRole(t *testing.T) {
	f := newFixture()
	f.roles.assigned[key("w@x", "news")] = role.Writer
	writer := principal("w@x", role.None)

	ix, err := f.svc.UpdateGuestRole(ctx, writer, "news", role.Reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ix.GuestRole != role.Reader {
		t.Errorf("guest role = %s", ix.GuestRole)
	}

	if _, err := f.svc.UpdateGuestRole(ctx, writer, "news", role.Admin); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("a writer must not make guests admins: %v", err)
	}
	if _, err := f.svc.UpdateGuestRole(ctx, principal("owner@x", role.None), "news", role.Admin); err != nil {
		t.Errorf("an index admin may: %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture()
	if err := f.svc.Delete(ctx, principal("owner@x", role.None), "news"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.backend.dropped) != 1 {
		t.Error("backend index must be dropped")
	}
	if _, ok := f.meta.indices["news"]; ok {
		t.Error("registration must be removed")
	}
}

func TestDelete_RequiresAdmin(t *testing.T) {
	f := newFixture()
	f.roles.assigned[key("w@x", "news")] = role.Writer
	err := f.svc.Delete(ctx, principal("w@x", role.Writer), "news")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(f.backend.dropped) != 0 {
		t.Error("nothing may be dropped")
	}
}

func TestDelete_BackendMissingStillUnregisters(t *testing.T) {
	f := newFixture()
	f.backend.dropErr = domain.ErrNotFound
	if err := f.svc.Delete(ctx, principal("owner@x", role.None), "news"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.meta.indices["news"]; ok {
		t.Error("registration must be removed")
	}
}

func TestFields_MergesIndices(t *testing.T) {
	f := newFixture()
	f.meta.indices["blogs"] = domIndex("blogs", role.MetaReader)
	f.meta.indices["news"] = domIndex("news", role.MetaReader)
	f.backend.fields["news"] = map[string]field.Field{"cat": {Type: field.Tag}, "year": {Type: field.Long}}
	f.backend.fields["blogs"] = map[string]field.Field{"cat": {Type: field.Tag}, "year": {Type: field.Date}}

	got, err := f.svc.Fields(ctx, principal("u@x", role.None), "news", "blogs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["cat"].Type != field.Tag {
		t.Errorf("cat = %+v", got["cat"])
	}
	if got["year"].Type != field.Keyword || got["year"].Meta["merged"] != true {
		t.Errorf("conflicting declaration must collapse to merged keyword, got %+v", got["year"])
	}
}

func TestFields_EveryIndexChecked(t *testing.T) {
	f := newFixture()
	f.meta.indices["blogs"] = domIndex("blogs", role.MetaReader)
	_, err := f.svc.Fields(ctx, principal("u@x", role.None), "blogs", "news")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFields_NoIndex(t *testing.T) {
	_, err := newFixture().svc.Fields(ctx, principal("u@x", role.Admin))
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSetFields(t *testing.T) {
	f := newFixture()
	admin := principal("owner@x", role.None)

	err := f.svc.SetFields(ctx, admin, "news", map[string]field.Field{"cat": {Type: field.Tag}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.backend.setFields["cat"]; !ok {
		t.Error("fields must reach the backend")
	}

	if err := f.svc.SetFields(ctx, admin, "news", nil); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("empty declaration: expected ErrInvalidRequest, got %v", err)
	}
}

func TestValues(t *testing.T) {
	f := newFixture()
	f.meta.indices["public"] = domIndex("public", role.Reader)
	f.backend.values = []any{"a", "b"}

	got, err := f.svc.Values(ctx, principal("u@x", role.None), "public", "cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || f.backend.valuesLim != MaxValues {
		t.Errorf("values = %v, limit = %d", got, f.backend.valuesLim)
	}
}

func TestRefresh(t *testing.T) {
	f := newFixture()
	f.backend.info = &db.IndexInfo{NumDocs: 3}

	info, err := f.svc.Refresh(ctx, principal("owner@x", role.None), "news")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "news" || info.NumDocs != 3 {
		t.Errorf("unexpected info %+v", info)
	}

	f.meta.indices["public"] = domIndex("public", role.Reader)
	if _, err := f.svc.Refresh(ctx, principal("u@x", role.None), "public"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("readers may not refresh: %v", err)
	}
}
