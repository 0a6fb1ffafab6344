package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	IndexManager
	Searcher
	CursorReader
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
// Replace drops the existing hash first so stale fields do not survive.
type HashSetItem struct {
	Key     string
	Fields  map[string]string
	Replace bool
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	AlterIndex(ctx context.Context, name string, fields []IndexField) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexInfo(ctx context.Context, name string) (*IndexInfo, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	Count(ctx context.Context, q *SearchQuery) (int, error)
	TagValues(ctx context.Context, index, field string) ([]string, error)
	GroupValues(ctx context.Context, index, field string, limit int) ([]string, error)
}

// CursorReader iterates a full match set through FT.AGGREGATE cursors.
type CursorReader interface {
	OpenCursor(ctx context.Context, q *CursorQuery) (*CursorPage, error)
	ReadCursor(ctx context.Context, index string, cursorID int64, count int) (*CursorPage, error)
	DeleteCursor(ctx context.Context, index string, cursorID int64) error
}
