package chi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	domidx "github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/search/request"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	domuser "github.com/kailas-cloud/docsearch/internal/domain/user"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	useruc "github.com/kailas-cloud/docsearch/internal/usecase/user"
)

// --- authenticator ---

// staticAuthn knows one token and one password per user.
type staticAuthn struct {
	tokens    map[string]domuser.User
	passwords map[string]string
	users     map[string]domuser.User
	calls     int
}

func (a *staticAuthn) VerifyPassword(_ context.Context, email, password string) (domuser.User, error) {
	a.calls++
	if pw, ok := a.passwords[email]; ok && pw == password {
		return a.users[email], nil
	}
	return domuser.User{}, domain.Denied("incorrect username or password")
}

func (a *staticAuthn) VerifyToken(_ context.Context, token string) (domuser.User, error) {
	a.calls++
	if u, ok := a.tokens[token]; ok {
		return u, nil
	}
	return domuser.User{}, domain.Denied("invalid token")
}

var writerUser = domuser.User{ID: 7, Email: "writer@x.org", GlobalRole: role.Writer}

func newAuthn() *staticAuthn {
	return &staticAuthn{
		tokens:    map[string]domuser.User{"good-token": writerUser},
		passwords: map[string]string{writerUser.Email: "correct-horse"},
		users:     map[string]domuser.User{writerUser.Email: writerUser},
	}
}

// --- services ---

type mockIndices struct {
	IndexService
	listFn        func(p *domuser.User) ([]domidx.Visible, error)
	createFn      func(p *domuser.User, name string, guest role.Role, fields map[string]field.Field) (domidx.Index, error)
	updateGuestFn func(name string, guest role.Role) (domidx.Index, error)
	fieldsFn      func(names ...string) (map[string]field.Field, error)
	valuesFn      func(name, fieldName string) ([]any, error)
	removeUserFn  func(name, email string) error
	refreshFn     func(name string) (*db.IndexInfo, error)
}

func (m *mockIndices) List(_ context.Context, p *domuser.User) ([]domidx.Visible, error) {
	return m.listFn(p)
}

func (m *mockIndices) Create(
	_ context.Context, p *domuser.User, name string, guest role.Role, fields map[string]field.Field,
) (domidx.Index, error) {
	return m.createFn(p, name, guest, fields)
}

func (m *mockIndices) UpdateGuestRole(_ context.Context, _ *domuser.User, name string, guest role.Role) (domidx.Index, error) {
	return m.updateGuestFn(name, guest)
}

func (m *mockIndices) Fields(_ context.Context, _ *domuser.User, names ...string) (map[string]field.Field, error) {
	return m.fieldsFn(names...)
}

func (m *mockIndices) Values(_ context.Context, _ *domuser.User, name, fieldName string) ([]any, error) {
	return m.valuesFn(name, fieldName)
}

func (m *mockIndices) RemoveUser(_ context.Context, _ *domuser.User, name, email string) error {
	return m.removeUserFn(name, email)
}

func (m *mockIndices) Refresh(_ context.Context, _ *domuser.User, name string) (*db.IndexInfo, error) {
	return m.refreshFn(name)
}

type mockDocuments struct {
	DocumentService
	uploadFn func(index string, raw []map[string]any, columns map[string]field.Field) ([]string, error)
	getFn    func(index, id string, fields []string) (domdoc.Document, error)
	tagsFn   func(index string, u documentuc.TagUpdate) (int, error)
}

func (m *mockDocuments) Upload(
	_ context.Context, _ *domuser.User, index string, raw []map[string]any, columns map[string]field.Field,
) ([]string, error) {
	return m.uploadFn(index, raw, columns)
}

func (m *mockDocuments) Get(
	_ context.Context, _ *domuser.User, index, id string, fields []string,
) (domdoc.Document, error) {
	return m.getFn(index, id, fields)
}

func (m *mockDocuments) UpdateTags(_ context.Context, _ *domuser.User, index string, u documentuc.TagUpdate) (int, error) {
	return m.tagsFn(index, u)
}

type mockSearch struct {
	queryFn func(p *domuser.User, index string, req request.Request) (*result.QueryResult, error)
}

func (m *mockSearch) Query(
	_ context.Context, p *domuser.User, index string, req request.Request,
) (*result.QueryResult, error) {
	return m.queryFn(p, index, req)
}

type mockUsers struct {
	UserService
	createFn  func(p *domuser.User, email, password string, r role.Role) (domuser.User, error)
	modifyFn  func(p *domuser.User, email string, upd useruc.Update) (domuser.User, error)
	loginFn   func(email, password string) (string, error)
	refreshFn func(p *domuser.User) (string, error)
}

func (m *mockUsers) Create(
	_ context.Context, p *domuser.User, email, password string, r role.Role,
) (domuser.User, error) {
	return m.createFn(p, email, password, r)
}

func (m *mockUsers) Modify(_ context.Context, p *domuser.User, email string, upd useruc.Update) (domuser.User, error) {
	return m.modifyFn(p, email, upd)
}

func (m *mockUsers) Login(_ context.Context, email, password string) (string, error) {
	return m.loginFn(email, password)
}

func (m *mockUsers) Refresh(_ context.Context, p *domuser.User) (string, error) {
	return m.refreshFn(p)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- harness ---

type harness struct {
	indices   *mockIndices
	documents *mockDocuments
	search    *mockSearch
	users     *mockUsers
	health    *mockHealth
	authn     *staticAuthn
	opts      RouterOptions
}

func newHarness() *harness {
	return &harness{
		indices:   &mockIndices{},
		documents: &mockDocuments{},
		search:    &mockSearch{},
		users:     &mockUsers{},
		health:    &mockHealth{},
		authn:     newAuthn(),
	}
}

func (h *harness) router() http.Handler {
	s := NewServer(h.indices, h.documents, h.search, h.users, h.health)
	return NewRouter(s, h.authn, zap.NewNop(), h.opts)
}

// do sends a request, authenticated with token when it is not empty.
func (h *harness) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.router().ServeHTTP(rr, req)
	return rr
}
