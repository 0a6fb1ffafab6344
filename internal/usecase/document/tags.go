package document

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/docsearch/internal/domain/search/request"
	"github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/logger"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
)

// TagAction is the change applied by a tag update.
type TagAction string

// Tag actions.
const (
	TagAdd    TagAction = "add"
	TagRemove TagAction = "remove"
)

const (
	tagScanBatch     = 500
	tagScanKeepAlive = time.Minute
)

// TagUpdate adds or removes Tag on Field of every document matching the
// queries and filters.
type TagUpdate struct {
	Action  TagAction
	Field   string
	Tag     string
	Queries map[string]string
	Filters map[string]filter.Spec
}

// UpdateTags applies u and returns the number of documents changed.
// The match set is collected before any document is rewritten, so removing
// the tag a filter selects on cannot skip documents.
func (s *Service) UpdateTags(ctx context.Context, principal *user.User, index string, u TagUpdate) (int, error) {
	if err := s.gate.Authorize(ctx, principal, role.Writer, index); err != nil {
		return 0, err
	}
	if u.Action != TagAdd && u.Action != TagRemove {
		return 0, domain.Invalid("action must be %q or %q", TagAdd, TagRemove)
	}
	if u.Tag == "" {
		return 0, domain.Invalid("tag is required")
	}
	for label, q := range u.Queries {
		if err := request.ValidateQuery(label, q); err != nil {
			return 0, err
		}
	}

	fields, err := s.schema.Fields(ctx, index)
	if err != nil {
		return 0, fmt.Errorf("load fields: %w", err)
	}
	if f, ok := fields[u.Field]; !ok || f.Type != field.Tag {
		return 0, domain.Invalid("field %q is not a tag field", u.Field)
	}

	current, err := s.collectTags(ctx, index, u)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, id := range sortedIDs(current) {
		next, ok := applyTag(current[id], u.Action, u.Tag)
		if !ok {
			continue
		}
		if err := s.repo.Update(ctx, index, id, map[string]any{u.Field: next}); err != nil {
			return changed, fmt.Errorf("update tags of %s: %w", id, err)
		}
		changed++
	}

	logger.FromContext(ctx).Info("tags updated",
		zap.String("index", index), zap.String("field", u.Field),
		zap.String("action", string(u.Action)), zap.Int("changed", changed))
	return changed, nil
}

func (s *Service) collectTags(ctx context.Context, index string, u TagUpdate) (map[string][]string, error) {
	body := searchuc.CompileSpecs(u.Queries, u.Filters, false)
	fields := []string{u.Field}

	batch, err := s.matcher.OpenScroll(ctx, index, body, fields, tagScanBatch, tagScanKeepAlive)
	if err != nil {
		return nil, fmt.Errorf("scan matches: %w", err)
	}

	out := map[string][]string{}
	for len(batch.Matches) > 0 {
		for _, m := range batch.Matches {
			out[m.ID] = tagList(m.Fields[u.Field])
		}
		if batch.Cursor.IsZero() {
			break
		}
		if batch, err = s.matcher.Scroll(ctx, index, batch.Cursor); err != nil {
			return nil, fmt.Errorf("scan matches: %w", err)
		}
	}
	return out, nil
}

// applyTag reports false when the document already has the requested state.
func applyTag(tags []string, action TagAction, tag string) ([]string, bool) {
	has := false
	for _, t := range tags {
		if t == tag {
			has = true
			break
		}
	}
	switch {
	case action == TagAdd && !has:
		return append(append([]string{}, tags...), tag), true
	case action == TagRemove && has:
		out := make([]string, 0, len(tags)-1)
		for _, t := range tags {
			if t != tag {
				out = append(out, t)
			}
		}
		return out, true
	}
	return tags, false
}

func tagList(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if x == "" {
			return nil
		}
		return []string{x}
	}
	return nil
}

func sortedIDs(m map[string][]string) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
