package document

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// MaxIDLength bounds document identifiers.
const MaxIDLength = 256

// IDKey is the reserved field carrying a document id in uploads and hits.
const IDKey = "_id"

// Document is a single document of an index (immutable value object).
type Document struct {
	id     string
	fields map[string]any
}

// New validates the id and creates a Document.
// An empty id is replaced by the content hash of the fields.
func New(id string, fields map[string]any) (Document, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	if id == "" {
		h, err := ContentID(fields)
		if err != nil {
			return Document{}, err
		}
		id = h
	}
	if err := ValidateID(id); err != nil {
		return Document{}, err
	}
	return Document{id: id, fields: fields}, nil
}

// FromUpload splits the reserved _id key out of an uploaded map.
func FromUpload(raw map[string]any) (Document, error) {
	fields := make(map[string]any, len(raw))
	var id string
	for k, v := range raw {
		if k == IDKey {
			s, ok := v.(string)
			if !ok {
				return Document{}, domain.Invalid("%s must be a string", IDKey)
			}
			id = s
			continue
		}
		fields[k] = v
	}
	return New(id, fields)
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id string, fields map[string]any) Document {
	return Document{id: id, fields: fields}
}

// ValidateID checks charset and length.
func ValidateID(id string) error {
	if id == "" {
		return domain.Invalid("document id is required")
	}
	if len(id) > MaxIDLength {
		return domain.Invalid("document id too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return domain.Invalid("document id must be alphanumeric with dots, underscores and hyphens")
	}
	return nil
}

// ContentID hashes the canonical JSON form of the fields (sorted keys) with SHA-224.
func ContentID(fields map[string]any) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	sum := sha256.Sum224(data)
	return hex.EncodeToString(sum[:]), nil
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Fields returns the field map.
func (d Document) Fields() map[string]any { return d.fields }

// WithFields returns a copy carrying the given fields.
func (d Document) WithFields(fields map[string]any) Document {
	return Document{id: d.id, fields: fields}
}

// Project keeps only the named fields. An empty list keeps everything.
func (d Document) Project(names []string) Document {
	if len(names) == 0 {
		return d
	}
	out := make(map[string]any, len(names))
	for _, n := range names {
		if v, ok := d.fields[n]; ok {
			out[n] = v
		}
	}
	return Document{id: d.id, fields: out}
}
