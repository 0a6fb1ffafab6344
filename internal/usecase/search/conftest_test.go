package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
)

// --- Mocks ---

// fakeBackend serves a fixed, ordered match set. Cursors encode the next offset.
type fakeBackend struct {
	ids        []string
	highlights map[string]map[string][]string // id -> field -> fragments

	searchFn func(ctx context.Context, index string, body query.Body, fields []string, offset, size int) (result.Batch, error)

	searches   []query.Body
	lastOffset int
	lastSize   int
	lastFields []string
	keepAlive  time.Duration
	scrollSize int
	err        error
}

func (f *fakeBackend) Search(
	ctx context.Context, index string, body query.Body, fields []string, offset, size int,
) (result.Batch, error) {
	f.searches = append(f.searches, body)
	f.lastOffset, f.lastSize, f.lastFields = offset, size, fields
	if f.searchFn != nil {
		return f.searchFn(ctx, index, body, fields, offset, size)
	}
	if f.err != nil {
		return result.Batch{}, f.err
	}
	return result.Batch{Matches: f.window(offset, size), Total: len(f.ids)}, nil
}

func (f *fakeBackend) OpenScroll(
	_ context.Context, _ string, _ query.Body, fields []string, size int, keepAlive time.Duration,
) (result.Batch, error) {
	if f.err != nil {
		return result.Batch{}, f.err
	}
	f.lastFields, f.keepAlive, f.scrollSize = fields, keepAlive, size
	return result.Batch{
		Matches: f.window(0, size),
		Total:   len(f.ids),
		Cursor:  result.Cursor(fmt.Sprintf("c:%d", size)),
	}, nil
}

func (f *fakeBackend) Scroll(_ context.Context, _ string, cursor result.Cursor) (result.Batch, error) {
	if f.err != nil {
		return result.Batch{}, f.err
	}
	pos, err := strconv.Atoi(strings.TrimPrefix(string(cursor), "c:"))
	if err != nil {
		return result.Batch{}, err
	}
	m := f.window(pos, f.scrollSize)
	return result.Batch{Matches: m, Cursor: result.Cursor(fmt.Sprintf("c:%d", pos+len(m)))}, nil
}

func (f *fakeBackend) window(offset, size int) []result.Match {
	out := []result.Match{}
	for i := offset; i < len(f.ids) && i < offset+size; i++ {
		id := f.ids[i]
		out = append(out, result.Match{
			ID:         id,
			Fields:     map[string]any{"title": "doc " + id},
			Highlights: f.highlights[id],
		})
	}
	return out
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("d%02d", i)
	}
	return out
}

type mockGate struct {
	err      error
	calls    int
	required role.Role
	index    string
}

func (m *mockGate) Authorize(_ context.Context, _ *user.User, required role.Role, indexName string) error {
	m.calls++
	m.required, m.index = required, indexName
	return m.err
}

type matchFixture struct {
	id, title, frag string
}

func buildMatches(fx []matchFixture) []result.Match {
	out := make([]result.Match, len(fx))
	for i, f := range fx {
		out[i] = result.Match{
			ID:         f.id,
			Fields:     map[string]any{"title": f.title},
			Highlights: map[string][]string{"title": {f.frag}},
		}
	}
	return out
}
