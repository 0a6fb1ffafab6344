package index

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	"github.com/kailas-cloud/docsearch/internal/repository/storage"
)

// store is the consumer interface for index schemas (ISP).
//
//nolint:interfacebloat // index repo needs hash + index management + value listing
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	AlterIndex(ctx context.Context, name string, fields []db.IndexField) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
	TagValues(ctx context.Context, index, field string) ([]string, error)
	GroupValues(ctx context.Context, index, field string, limit int) ([]string, error)
}

// Repo implements the backend side of index management: field declarations
// and the FT index over an index's documents.
type Repo struct {
	store store
	keys  db.Keyspace
}

// New creates an index repository.
func New(s store, keys db.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// Create stores the declarations (defaults merged in) then runs FT.CREATE.
// On FT.CREATE failure, rolls back the HSET via DEL.
func (r *Repo) Create(ctx context.Context, name string, fields map[string]field.Field) error {
	fieldsKey := r.keys.FieldsKey(name)
	exists, err := r.store.Exists(ctx, fieldsKey)
	if err != nil {
		return storage.MapError(fmt.Errorf("check exists: %w", err))
	}
	if exists {
		return fmt.Errorf("index %s: %w", name, domain.ErrAlreadyExists)
	}

	all := field.WithDefaults(fields)
	def, err := storage.Definition(r.keys, name, all)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	hash, err := storage.EncodeFields(all)
	if err != nil {
		return err
	}

	if err := r.store.HSet(ctx, fieldsKey, hash); err != nil {
		return storage.MapError(fmt.Errorf("hset fields %s: %w", name, err))
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		cleanupErr := r.store.Del(ctx, fieldsKey)
		return storage.MapError(errors.Join(err, cleanupErr))
	}

	return nil
}

// Drop removes the FT index with its documents and the declarations hash.
// The declarations are restored if FT.DROPINDEX fails.
func (r *Repo) Drop(ctx context.Context, name string) error {
	fieldsKey := r.keys.FieldsKey(name)

	backup, err := r.store.HGetAll(ctx, fieldsKey)
	if err != nil {
		return storage.MapError(fmt.Errorf("hgetall fields %s: %w", name, err))
	}

	if len(backup) > 0 {
		if err := r.store.Del(ctx, fieldsKey); err != nil {
			return storage.MapError(fmt.Errorf("del fields %s: %w", name, err))
		}
	}

	err = r.store.DropIndex(ctx, r.keys.IndexName(name), true)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrIndexNotFound):
		if len(backup) == 0 {
			return fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
		}
		return nil
	default:
		if len(backup) > 0 {
			err = errors.Join(err, r.store.HSet(ctx, fieldsKey, backup))
		}
		return storage.MapError(err)
	}
}

// Fields returns the declarations of an index.
func (r *Repo) Fields(ctx context.Context, name string) (map[string]field.Field, error) {
	fields, err := storage.LoadFields(ctx, r.store, r.keys, name)
	if err != nil {
		return nil, storage.MapError(err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
	}
	return fields, nil
}

// SetFields adds or updates declarations. A field's type cannot change once
// declared; its meta can. New indexed fields are added with FT.ALTER.
func (r *Repo) SetFields(ctx context.Context, name string, fields map[string]field.Field) error {
	current, err := r.Fields(ctx, name)
	if err != nil {
		return err
	}

	for _, fname := range field.Names(fields) {
		f := fields[fname]
		if cur, ok := current[fname]; ok && cur.Type != f.Type {
			return domain.Invalid("cannot change type of field %s from %s to %s", fname, cur.Type, f.Type)
		}
	}

	hash, err := storage.EncodeFields(fields)
	if err != nil {
		return err
	}
	if len(hash) == 0 {
		return nil
	}
	if err := r.store.HSet(ctx, r.keys.FieldsKey(name), hash); err != nil {
		return storage.MapError(fmt.Errorf("hset fields %s: %w", name, err))
	}

	added := storage.NewIndexFields(current, fields)
	if len(added) == 0 {
		return nil
	}
	if err := r.store.AlterIndex(ctx, r.keys.IndexName(name), added); err != nil {
		return storage.MapError(fmt.Errorf("alter index %s: %w", name, err))
	}
	return nil
}

// Values lists up to limit distinct values of a field, sorted.
func (r *Repo) Values(ctx context.Context, name, fieldName string, limit int) ([]any, error) {
	fields, err := r.Fields(ctx, name)
	if err != nil {
		return nil, err
	}
	f, ok := fields[fieldName]
	if !ok {
		return nil, domain.Invalid("field %s is not declared in index %s", fieldName, name)
	}
	idxField, indexed := storage.IndexField(fieldName, f)
	if !indexed {
		return nil, domain.Invalid("field %s of type %s has no distinct values", fieldName, f.Type)
	}

	var raw []string
	if idxField.Type == db.IndexFieldTag {
		raw, err = r.store.TagValues(ctx, r.keys.IndexName(name), fieldName)
	} else {
		raw, err = r.store.GroupValues(ctx, r.keys.IndexName(name), fieldName, limit)
	}
	if err != nil {
		return nil, storage.MapError(fmt.Errorf("values %s.%s: %w", name, fieldName, err))
	}

	sort.Strings(raw)
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}

	out := make([]any, 0, len(raw))
	for _, s := range raw {
		if f.Type == field.Tag {
			out = append(out, s)
			continue
		}
		out = append(out, storage.DecodeValue(f, true, s))
	}
	return out, nil
}

// Info reads FT.INFO for an index. RediSearch indexes synchronously, so a
// successful read doubles as refresh.
func (r *Repo) Info(ctx context.Context, name string) (*db.IndexInfo, error) {
	info, err := r.store.IndexInfo(ctx, r.keys.IndexName(name))
	if err != nil {
		return nil, storage.MapError(fmt.Errorf("info %s: %w", name, err))
	}
	info.Name = name
	return info, nil
}
