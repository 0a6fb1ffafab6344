package db

import (
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
)

// HighlightOpen and HighlightClose wrap matched terms in highlighted values.
const (
	HighlightOpen  = "<em>"
	HighlightClose = "</em>"
)

// SearchQuery is the input for FT.SEARCH.
type SearchQuery struct {
	Index  string
	Query  query.Node
	Schema Schema
	Offset int
	Limit  int
	// Return limits the loaded fields; empty loads the whole hash.
	Return []string
	// Highlight wraps matches in every returned TEXT field.
	Highlight bool
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// CursorQuery opens an aggregate cursor that yields document ids.
type CursorQuery struct {
	Index   string
	Query   query.Node
	Schema  Schema
	Count   int
	MaxIdle time.Duration
	// IDField is loaded from every matched hash and returned in CursorPage.IDs.
	IDField string
}

// CursorPage is one batch read from an aggregate cursor. CursorID is zero when
// the cursor is exhausted.
type CursorPage struct {
	IDs      []string
	CursorID int64
}
