package result

import "fmt"

// Cursor is an opaque scroll token. It is deliberately unrelated to page numbers.
type Cursor string

// IsZero reports whether no cursor is set.
func (c Cursor) IsZero() bool { return c == "" }

// AnnotationVariable marks annotations derived from raw free-text query matches.
const AnnotationVariable = "lucene_query"

// Annotation is a query match span inside the unhighlighted value of a field.
type Annotation struct {
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	Variable string `json:"variable"`
	Value    string `json:"value"`
	Field    string `json:"field"`
}

// Hit is a single document in a result.
type Hit struct {
	ID          string
	Fields      map[string]any
	Annotations []Annotation
}

// QueryResult is a batch of hits plus pagination metadata. Exactly one of page and
// cursor is set.
type QueryResult struct {
	hits      []Hit
	total     int
	hasTotal  bool
	perPage   int
	page      int
	pageCount int
	cursor    Cursor
}

// NewPage builds a paged result.
func NewPage(hits []Hit, total, perPage, page int) QueryResult {
	return QueryResult{
		hits:      hits,
		total:     total,
		hasTotal:  true,
		perPage:   perPage,
		page:      page,
		pageCount: PageCount(total, perPage),
	}
}

// NewScrollOpen builds the first batch of a scroll.
func NewScrollOpen(hits []Hit, total, perPage int, cursor Cursor) (QueryResult, error) {
	if cursor.IsZero() {
		return QueryResult{}, fmt.Errorf("scroll result requires a cursor")
	}
	return QueryResult{
		hits:      hits,
		total:     total,
		hasTotal:  true,
		perPage:   perPage,
		pageCount: PageCount(total, perPage),
		cursor:    cursor,
	}, nil
}

// NewScrollBatch builds a continuation batch. It carries no totals.
func NewScrollBatch(hits []Hit, cursor Cursor) (QueryResult, error) {
	if cursor.IsZero() {
		return QueryResult{}, fmt.Errorf("scroll result requires a cursor")
	}
	return QueryResult{hits: hits, cursor: cursor}, nil
}

// PageCount returns ceil(total/perPage), 0 when perPage is not positive.
func PageCount(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Hits returns the hits in backend order.
func (r QueryResult) Hits() []Hit { return r.hits }

// Total returns the total match count and whether it is known.
func (r QueryResult) Total() (int, bool) { return r.total, r.hasTotal }

// PerPage returns the batch size, 0 for continuation batches.
func (r QueryResult) PerPage() int { return r.perPage }

// PageCount returns the number of pages, 0 for continuation batches.
func (r QueryResult) PageCount() int { return r.pageCount }

// Page returns the page number and true in paged mode.
func (r QueryResult) Page() (int, bool) {
	if !r.cursor.IsZero() {
		return 0, false
	}
	return r.page, true
}

// Cursor returns the scroll cursor and true in scroll mode.
func (r QueryResult) Cursor() (Cursor, bool) {
	return r.cursor, !r.cursor.IsZero()
}

// WithHits returns a copy with replaced hits.
func (r QueryResult) WithHits(hits []Hit) QueryResult {
	r.hits = hits
	return r
}

// Match is a raw backend hit: decoded source fields plus the highlighted
// fragments of the fields that matched.
type Match struct {
	ID         string
	Fields     map[string]any
	Highlights map[string][]string
}

// Batch is one backend read. Total is set by paged searches and by the batch
// that opens a scroll. Cursor is set in scroll mode.
type Batch struct {
	Matches []Match
	Total   int
	Cursor  Cursor
}
