package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/metrics"
	"github.com/kailas-cloud/docsearch/internal/repository/storage"
)

// MaxCursorIdle caps the keep-alive of a scroll. RediSearch refuses MAXIDLE
// above its CURSOR_MAX_IDLE setting, which defaults to five minutes.
const MaxCursorIdle = 5 * time.Minute

// store is the consumer interface for search operations (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	Count(ctx context.Context, q *db.SearchQuery) (int, error)
	OpenCursor(ctx context.Context, q *db.CursorQuery) (*db.CursorPage, error)
	ReadCursor(ctx context.Context, index string, cursorID int64, count int) (*db.CursorPage, error)
	DeleteCursor(ctx context.Context, index string, cursorID int64) error
}

// Repo implements usecase/search.Backend over RediSearch.
type Repo struct {
	store store
	keys  db.Keyspace
}

// New creates a search repository.
func New(s store, keys db.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

func (r *Repo) fields(ctx context.Context, index string) (map[string]field.Field, error) {
	fields, err := storage.LoadFields(ctx, r.store, r.keys, index)
	if err != nil {
		return nil, storage.MapError(err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("index %s: %w", index, domain.ErrNotFound)
	}
	return fields, nil
}

// Search fetches one page of matches starting at offset.
func (r *Repo) Search(
	ctx context.Context, index string, body query.Body,
	fieldNames []string, offset, size int,
) (result.Batch, error) {
	fields, err := r.fields(ctx, index)
	if err != nil {
		return result.Batch{}, err
	}
	q, err := normalize(body.Query, fields)
	if err != nil {
		return result.Batch{}, err
	}

	highlight := body.Highlight != nil
	sr, err := r.store.Search(ctx, &db.SearchQuery{
		Index:     r.keys.IndexName(index),
		Query:     q,
		Schema:    storage.Schema(fields),
		Offset:    offset,
		Limit:     size,
		Return:    fieldNames,
		Highlight: highlight,
	})
	if err != nil {
		return result.Batch{}, storage.MapError(fmt.Errorf("search %s: %w", index, err))
	}

	matches := make([]result.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		matches = append(matches, decodeMatch(r.keys.DocID(index, e.Key), e.Fields, fields, highlight))
	}
	return result.Batch{Matches: matches, Total: sr.Total}, nil
}

// OpenScroll opens a cursor over the full match set and returns its first batch
// together with the total match count.
func (r *Repo) OpenScroll(
	ctx context.Context, index string, body query.Body,
	fieldNames []string, size int, keepAlive time.Duration,
) (result.Batch, error) {
	fields, err := r.fields(ctx, index)
	if err != nil {
		return result.Batch{}, err
	}
	q, err := normalize(body.Query, fields)
	if err != nil {
		return result.Batch{}, err
	}
	schema := storage.Schema(fields)
	ftIndex := r.keys.IndexName(index)

	total, err := r.store.Count(ctx, &db.SearchQuery{Index: ftIndex, Query: q, Schema: schema})
	if err != nil {
		return result.Batch{}, storage.MapError(fmt.Errorf("count %s: %w", index, err))
	}

	page, err := r.store.OpenCursor(ctx, &db.CursorQuery{
		Index:   ftIndex,
		Query:   q,
		Schema:  schema,
		Count:   size,
		MaxIdle: clampIdle(keepAlive),
		IDField: domdoc.IDKey,
	})
	if err != nil {
		return result.Batch{}, storage.MapError(fmt.Errorf("open scroll %s: %w", index, err))
	}
	metrics.ScrollCursorsTotal.WithLabelValues("opened").Inc()

	state := cursorState{
		Index:     index,
		CursorID:  page.CursorID,
		Count:     size,
		Highlight: body.Highlight != nil,
		Fields:    fieldNames,
		Queries:   queryStrings(q),
	}
	matches, err := r.hydrate(ctx, index, fields, page.IDs, state)
	if err != nil {
		r.release(ctx, ftIndex, state.CursorID)
		return result.Batch{}, err
	}
	cursor, err := encodeCursor(state)
	if err != nil {
		r.release(ctx, ftIndex, state.CursorID)
		return result.Batch{}, fmt.Errorf("encode cursor: %w", err)
	}
	return result.Batch{Matches: matches, Total: total, Cursor: cursor}, nil
}

// Scroll reads the next batch of an open scroll. An exhausted scroll yields an
// empty batch without touching the backend.
func (r *Repo) Scroll(ctx context.Context, index string, cursor result.Cursor) (result.Batch, error) {
	state, err := decodeCursor(cursor)
	if err != nil {
		return result.Batch{}, err
	}
	if state.Index != index {
		return result.Batch{}, domain.Invalid("scroll_id was issued for another index")
	}
	if state.CursorID == 0 {
		return result.Batch{Matches: []result.Match{}, Cursor: cursor}, nil
	}

	fields, err := r.fields(ctx, index)
	if err != nil {
		return result.Batch{}, err
	}

	page, err := r.store.ReadCursor(ctx, r.keys.IndexName(index), state.CursorID, state.Count)
	if err != nil {
		return result.Batch{}, storage.MapError(fmt.Errorf("scroll %s: %w", index, err))
	}
	if page.CursorID == 0 {
		metrics.ScrollCursorsTotal.WithLabelValues("exhausted").Inc()
	}
	state.CursorID = page.CursorID

	matches, err := r.hydrate(ctx, index, fields, page.IDs, state)
	if err != nil {
		r.release(ctx, r.keys.IndexName(index), state.CursorID)
		return result.Batch{}, err
	}
	next, err := encodeCursor(state)
	if err != nil {
		r.release(ctx, r.keys.IndexName(index), state.CursorID)
		return result.Batch{}, fmt.Errorf("encode cursor: %w", err)
	}
	return result.Batch{Matches: matches, Cursor: next}, nil
}

// release drops a backend cursor whose scroll_id never reaches the caller.
// It runs detached from ctx so a cancelled request still frees the cursor.
func (r *Repo) release(ctx context.Context, ftIndex string, cursorID int64) {
	if cursorID == 0 {
		return
	}
	err := r.store.DeleteCursor(context.WithoutCancel(ctx), ftIndex, cursorID)
	if err != nil && !errors.Is(err, db.ErrCursorNotFound) {
		logger.FromContext(ctx).Warn("failed to release scroll cursor",
			zap.String("index", ftIndex), zap.Int64("cursor", cursorID), zap.Error(err))
		return
	}
	metrics.ScrollCursorsTotal.WithLabelValues("released").Inc()
}

// hydrate loads the documents behind a batch of cursor ids, keeping cursor order.
// Documents deleted since the cursor read are skipped.
func (r *Repo) hydrate(
	ctx context.Context, index string, fields map[string]field.Field,
	ids []string, state cursorState,
) ([]result.Match, error) {
	if len(ids) == 0 {
		return []result.Match{}, nil
	}
	if state.Highlight {
		return r.hydrateHighlighted(ctx, index, fields, ids, state)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keys.DocKey(index, id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, storage.MapError(fmt.Errorf("hydrate %s: %w", index, err))
	}

	out := make([]result.Match, 0, len(ids))
	for i, h := range hashes {
		if len(h) == 0 {
			continue
		}
		out = append(out, decodeMatch(ids[i], project(h, state.Fields), fields, false))
	}
	return out, nil
}

// hydrateHighlighted re-runs the scroll's free-text queries restricted to the
// batch ids so the backend marks up the matches.
func (r *Repo) hydrateHighlighted(
	ctx context.Context, index string, fields map[string]field.Field,
	ids []string, state cursorState,
) ([]result.Match, error) {
	terms := make([]query.Node, len(ids))
	for i, id := range ids {
		terms[i] = query.Term{Field: domdoc.IDKey, Value: id}
	}
	filter := []query.Node{query.Bool{Should: terms}}
	if len(state.Queries) > 0 {
		qs := make([]query.Node, len(state.Queries))
		for i, s := range state.Queries {
			qs[i] = query.QueryString{Query: s}
		}
		filter = append(filter, query.Bool{Should: qs})
	}

	sr, err := r.store.Search(ctx, &db.SearchQuery{
		Index:     r.keys.IndexName(index),
		Query:     query.Bool{Filter: filter},
		Schema:    storage.Schema(fields),
		Limit:     len(ids),
		Return:    state.Fields,
		Highlight: true,
	})
	if err != nil {
		return nil, storage.MapError(fmt.Errorf("hydrate %s: %w", index, err))
	}

	byID := make(map[string]result.Match, len(sr.Entries))
	for _, e := range sr.Entries {
		id := r.keys.DocID(index, e.Key)
		byID[id] = decodeMatch(id, e.Fields, fields, true)
	}
	out := make([]result.Match, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

var markerStripper = strings.NewReplacer(db.HighlightOpen, "", db.HighlightClose, "")

// decodeMatch converts a returned hash. With highlighting on, a value carrying
// markers becomes the field's fragment and its stripped form the source value.
func decodeMatch(id string, raw map[string]string, fields map[string]field.Field, highlight bool) result.Match {
	m := result.Match{ID: id, Fields: make(map[string]any, len(raw))}
	for name, s := range raw {
		if name == domdoc.IDKey {
			continue
		}
		if highlight && strings.Contains(s, db.HighlightOpen) {
			if m.Highlights == nil {
				m.Highlights = make(map[string][]string)
			}
			m.Highlights[name] = []string{s}
			s = markerStripper.Replace(s)
		}
		f, ok := fields[name]
		m.Fields[name] = storage.DecodeValue(f, ok, s)
	}
	return m
}

func project(h map[string]string, names []string) map[string]string {
	if len(names) == 0 {
		return h
	}
	out := make(map[string]string, len(names))
	for _, n := range names {
		if v, ok := h[n]; ok {
			out[n] = v
		}
	}
	return out
}

func clampIdle(d time.Duration) time.Duration {
	if d <= 0 || d > MaxCursorIdle {
		return MaxCursorIdle
	}
	return d
}

func queryStrings(n query.Node) []string {
	var out []string
	query.Walk(n, func(c query.Node) {
		if qs, ok := c.(query.QueryString); ok {
			out = append(out, qs.Query)
		}
	})
	return out
}

// normalize converts filter values on date fields to timestamps so they render
// as epoch milliseconds.
func normalize(n query.Node, fields map[string]field.Field) (query.Node, error) {
	switch q := n.(type) {
	case query.Term:
		v, err := dateValue(fields, q.Field, q.Value)
		if err != nil {
			return nil, err
		}
		q.Value = v
		return q, nil
	case query.Range:
		for _, b := range []*any{&q.GT, &q.GTE, &q.LT, &q.LTE} {
			v, err := dateValue(fields, q.Field, *b)
			if err != nil {
				return nil, err
			}
			*b = v
		}
		return q, nil
	case query.Bool:
		out := query.Bool{}
		for _, c := range q.Filter {
			nc, err := normalize(c, fields)
			if err != nil {
				return nil, err
			}
			out.Filter = append(out.Filter, nc)
		}
		for _, c := range q.Should {
			nc, err := normalize(c, fields)
			if err != nil {
				return nil, err
			}
			out.Should = append(out.Should, nc)
		}
		return out, nil
	default:
		return n, nil
	}
}

func dateValue(fields map[string]field.Field, name string, v any) (any, error) {
	f, ok := fields[name]
	if !ok || f.Type != field.Date || v == nil {
		return v, nil
	}
	t, err := field.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("%w: field %s: %v", domain.ErrInvalidFilter, name, err)
	}
	return t, nil
}
