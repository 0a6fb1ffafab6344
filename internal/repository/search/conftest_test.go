package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/docsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	searchFn       func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	countFn        func(ctx context.Context, q *db.SearchQuery) (int, error)
	openCursorFn   func(ctx context.Context, q *db.CursorQuery) (*db.CursorPage, error)
	readCursorFn   func(ctx context.Context, index string, cursorID int64, count int) (*db.CursorPage, error)
	deleteCursorFn func(ctx context.Context, index string, cursorID int64) error
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Count(ctx context.Context, q *db.SearchQuery) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, q)
	}
	return 0, nil
}

func (m *mockStore) OpenCursor(ctx context.Context, q *db.CursorQuery) (*db.CursorPage, error) {
	if m.openCursorFn != nil {
		return m.openCursorFn(ctx, q)
	}
	return &db.CursorPage{}, nil
}

func (m *mockStore) ReadCursor(ctx context.Context, index string, cursorID int64, count int) (*db.CursorPage, error) {
	if m.readCursorFn != nil {
		return m.readCursorFn(ctx, index, cursorID, count)
	}
	return &db.CursorPage{}, nil
}

func (m *mockStore) DeleteCursor(ctx context.Context, index string, cursorID int64) error {
	if m.deleteCursorFn != nil {
		return m.deleteCursorFn(ctx, index, cursorID)
	}
	return nil
}

// newTestRepo wires a repo whose index "news" declares title, date, cat and year.
func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key == "docsearch:news:fields" {
			return map[string]string{
				"title": `{"type":"text"}`,
				"date":  `{"type":"date"}`,
				"cat":   `{"type":"tag"}`,
				"year":  `{"type":"long"}`,
			}, nil
		}
		return map[string]string{}, nil
	}
	return New(ms, db.Keyspace{Prefix: "docsearch:"}), ms
}
