package document

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/logger"
)

// MaxUploadBatch bounds the documents accepted by one upload.
const MaxUploadBatch = 10000

// Service handles document CRUD and tag updates.
type Service struct {
	repo    Repository
	schema  Schema
	matcher Matcher
	gate    Authorizer
}

// New creates a document service.
func New(repo Repository, schema Schema, matcher Matcher, gate Authorizer) *Service {
	return &Service{repo: repo, schema: schema, matcher: matcher, gate: gate}
}

// Upload stores documents, replacing any with the same id. columns are
// declared before the upload; fields that are still undeclared get a type
// inferred from their first value.
func (s *Service) Upload(
	ctx context.Context, principal *user.User, index string,
	raw []map[string]any, columns map[string]field.Field,
) ([]string, error) {
	if err := s.gate.Authorize(ctx, principal, role.Writer, index); err != nil {
		return nil, err
	}
	if len(raw) > MaxUploadBatch {
		return nil, domain.Invalid("too many documents (max %d)", MaxUploadBatch)
	}

	docs := make([]domdoc.Document, len(raw))
	for i, r := range raw {
		doc, err := domdoc.FromUpload(r)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs[i] = doc
	}

	if len(columns) > 0 {
		for _, name := range field.Names(columns) {
			if err := field.ValidateName(name); err != nil {
				return nil, err
			}
		}
		if err := s.schema.SetFields(ctx, index, columns); err != nil {
			return nil, fmt.Errorf("declare columns: %w", err)
		}
	}

	declared, err := s.schema.Fields(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("load fields: %w", err)
	}
	inferred, err := inferFields(docs, declared)
	if err != nil {
		return nil, err
	}
	if len(inferred) > 0 {
		logger.FromContext(ctx).Info("declaring inferred fields",
			zap.String("index", index), zap.Strings("fields", field.Names(inferred)))
		if err := s.schema.SetFields(ctx, index, inferred); err != nil {
			return nil, fmt.Errorf("declare inferred fields: %w", err)
		}
	}

	ids, err := s.repo.Upload(ctx, index, docs)
	if err != nil {
		return nil, fmt.Errorf("upload documents: %w", err)
	}
	return ids, nil
}

// Get returns one document, projected to fieldNames when given.
func (s *Service) Get(
	ctx context.Context, principal *user.User, index, id string, fieldNames []string,
) (domdoc.Document, error) {
	if err := s.gate.Authorize(ctx, principal, role.Reader, index); err != nil {
		return domdoc.Document{}, err
	}
	doc, err := s.repo.Get(ctx, index, id, fieldNames)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Update applies a partial update. A null value removes the field.
func (s *Service) Update(
	ctx context.Context, principal *user.User, index, id string, partial map[string]any,
) error {
	if err := s.gate.Authorize(ctx, principal, role.Writer, index); err != nil {
		return err
	}
	if len(partial) == 0 {
		return domain.Invalid("update is empty")
	}
	if err := s.repo.Update(ctx, index, id, partial); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// Delete removes a document.
func (s *Service) Delete(ctx context.Context, principal *user.User, index, id string) error {
	if err := s.gate.Authorize(ctx, principal, role.Writer, index); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, index, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// inferFields picks a type for every undeclared field from its first non-null value.
func inferFields(docs []domdoc.Document, declared map[string]field.Field) (map[string]field.Field, error) {
	out := map[string]field.Field{}
	for _, doc := range docs {
		for name, v := range doc.Fields() {
			if _, ok := declared[name]; ok {
				continue
			}
			if _, ok := out[name]; ok || v == nil {
				continue
			}
			if err := field.ValidateName(name); err != nil {
				return nil, fmt.Errorf("document %s: %w", doc.ID(), err)
			}
			out[name] = field.Field{Type: inferType(v)}
		}
	}
	return out, nil
}

func inferType(v any) field.Type {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		return field.Double
	case bool:
		return field.Keyword
	case []any, []string:
		return field.Tag
	case map[string]any:
		return field.Object
	default:
		return field.Text
	}
}
