// Package storage holds the hash layout shared by the index, document and
// search repositories: field declarations, value encoding and the FT schema
// derived from them.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kailas-cloud/docsearch/internal/db"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
)

// TagSeparator joins tag lists inside a hash value.
const TagSeparator = ","

type hashReader interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// LoadFields reads the field declarations of an index. A missing hash yields an
// empty map; callers decide whether that means the index is gone.
func LoadFields(ctx context.Context, s hashReader, ks db.Keyspace, index string) (map[string]field.Field, error) {
	raw, err := s.HGetAll(ctx, ks.FieldsKey(index))
	if err != nil {
		return nil, fmt.Errorf("hgetall fields %s: %w", index, err)
	}
	return DecodeFields(raw)
}

// EncodeFields serializes declarations for HSET, one JSON value per field.
func EncodeFields(fields map[string]field.Field) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for name, f := range fields {
		b, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", name, err)
		}
		out[name] = string(b)
	}
	return out, nil
}

// DecodeFields parses an HGETALL of the declarations hash.
func DecodeFields(raw map[string]string) (map[string]field.Field, error) {
	out := make(map[string]field.Field, len(raw))
	for name, v := range raw {
		var f field.Field
		if err := json.Unmarshal([]byte(v), &f); err != nil {
			return nil, fmt.Errorf("decode field %s: %w", name, err)
		}
		out[name] = f
	}
	return out, nil
}

// IndexField maps a declaration to its FT schema entry. Object and geo_point
// fields are stored but not indexed.
func IndexField(name string, f field.Field) (db.IndexField, bool) {
	switch {
	case f.Type == field.Text:
		return db.IndexField{Name: name, Type: db.IndexFieldText}, true
	case f.Type == field.Tag:
		return db.IndexField{Name: name, Type: db.IndexFieldTag, TagSeparator: TagSeparator, TagCaseSensitive: true}, true
	case f.IsTagLike():
		// keyword, url and id hold one value that may contain the separator
		return db.IndexField{Name: name, Type: db.IndexFieldTag, TagSeparator: "\x1f", TagCaseSensitive: true}, true
	case f.IsNumeric():
		return db.IndexField{Name: name, Type: db.IndexFieldNumeric, Sortable: true}, true
	default:
		return db.IndexField{}, false
	}
}

// Definition builds the FT.CREATE definition for an index.
func Definition(ks db.Keyspace, index string, fields map[string]field.Field) (*db.IndexDefinition, error) {
	b := db.NewIndex(ks.IndexName(index)).
		Prefix(ks.DocPrefix(index)).
		TagWithOpts(domdoc.IDKey, "\x1f", true)
	for _, name := range field.Names(fields) {
		if f, ok := IndexField(name, fields[name]); ok {
			b.Field(f)
		}
	}
	return b.Build()
}

// NewIndexFields returns schema entries for declarations absent from current,
// sorted by name.
func NewIndexFields(current, added map[string]field.Field) []db.IndexField {
	var out []db.IndexField
	for _, name := range field.Names(added) {
		if _, exists := current[name]; exists {
			continue
		}
		if f, ok := IndexField(name, added[name]); ok {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Schema returns the queryable field types of an index, _id included.
func Schema(fields map[string]field.Field) db.Schema {
	s := db.Schema{domdoc.IDKey: db.IndexFieldTag}
	for name, f := range fields {
		if idx, ok := IndexField(name, f); ok {
			s[name] = idx.Type
		}
	}
	return s
}
