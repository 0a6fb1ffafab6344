package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	"github.com/kailas-cloud/docsearch/internal/repository/storage"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo stores documents as hashes under the index's document prefix.
type Repo struct {
	store store
	keys  db.Keyspace
}

// New creates a document repository.
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

// Upload coerces every document to the declared field types and writes the
// batch in one pipeline. Existing documents with the same id are replaced.
func (r *Repo) Upload(ctx context.Context, index string, docs []domdoc.Document) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}
	fields, err := r.fields(ctx, index)
	if err != nil {
		return nil, err
	}

	items := make([]db.HashSetItem, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		hash, err := storage.EncodeDocument(doc, fields)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID(), err)
		}
		items[i] = db.HashSetItem{Key: r.keys.DocKey(index, doc.ID()), Fields: hash, Replace: true}
		ids[i] = doc.ID()
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return nil, storage.MapError(fmt.Errorf("upload %s: %w", index, err))
	}
	return ids, nil
}

// Get returns a document projected to the requested fields.
func (r *Repo) Get(ctx context.Context, index, id string, fieldNames []string) (domdoc.Document, error) {
	fields, err := r.fields(ctx, index)
	if err != nil {
		return domdoc.Document{}, err
	}

	m, err := r.store.HGetAll(ctx, r.keys.DocKey(index, id))
	if err != nil {
		return domdoc.Document{}, storage.MapError(fmt.Errorf("hgetall %s/%s: %w", index, id, err))
	}
	if len(m) == 0 {
		return domdoc.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return storage.DecodeDocument(id, m, fields).Project(fieldNames), nil
}

// Update applies a partial update. Nil values remove the field.
func (r *Repo) Update(ctx context.Context, index, id string, partial map[string]any) error {
	fields, err := r.fields(ctx, index)
	if err != nil {
		return err
	}

	key := r.keys.DocKey(index, id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return storage.MapError(fmt.Errorf("check exists %s: %w", key, err))
	}
	if !exists {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	set := make(map[string]any, len(partial))
	var removed []string
	for name, v := range partial {
		if name == domdoc.IDKey {
			return domain.Invalid("%s cannot be updated", domdoc.IDKey)
		}
		if v == nil {
			removed = append(removed, name)
			continue
		}
		set[name] = v
	}

	if len(set) > 0 {
		hash, err := storage.EncodeDocument(domdoc.Reconstruct(id, set), fields)
		if err != nil {
			return fmt.Errorf("document %s: %w", id, err)
		}
		if err := r.store.HSet(ctx, key, hash); err != nil {
			return storage.MapError(fmt.Errorf("hset %s: %w", key, err))
		}
	}
	if len(removed) > 0 {
		if err := r.store.HDel(ctx, key, removed...); err != nil {
			return storage.MapError(fmt.Errorf("hdel %s: %w", key, err))
		}
	}
	return nil
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, index, id string) error {
	key := r.keys.DocKey(index, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return storage.MapError(fmt.Errorf("check exists %s: %w", key, err))
	}
	if !exists {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	if err := r.store.Del(ctx, key); err != nil {
		return storage.MapError(fmt.Errorf("del %s: %w", key, err))
	}
	return nil
}
