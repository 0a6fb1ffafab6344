package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
)

// EncodeValue renders a coerced value as a hash string.
// Dates are stored as epoch milliseconds so NUMERIC ranges apply.
func EncodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []string:
		return strings.Join(x, TagSeparator), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return strconv.FormatInt(x.UnixMilli(), 10), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", fmt.Errorf("encode value: %w", err)
		}
		return string(b), nil
	}
}

// DecodeValue converts a stored string back to its JSON-facing form.
// Undeclared fields come back as strings.
func DecodeValue(f field.Field, declared bool, s string) any {
	if !declared {
		return s
	}
	switch f.Type {
	case field.Tag:
		if s == "" {
			return []string{}
		}
		return strings.Split(s, TagSeparator)
	case field.Long:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return s
	case field.Double:
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return s
	case field.Date:
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return s
		}
		return time.UnixMilli(ms).UTC().Format(time.RFC3339)
	case field.Object, field.GeoPoint:
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
		return s
	default:
		return s
	}
}

// EncodeDocument coerces every field to its declaration and flattens the
// document into a hash. The id is stored under _id.
func EncodeDocument(doc domdoc.Document, fields map[string]field.Field) (map[string]string, error) {
	out := make(map[string]string, len(doc.Fields())+1)
	for name, raw := range doc.Fields() {
		v := raw
		if f, ok := fields[name]; ok {
			c, err := f.Coerce(raw)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			v = c
		}
		s, err := EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		out[name] = s
	}
	out[domdoc.IDKey] = doc.ID()
	return out, nil
}

// DecodeDocument hydrates a document from a hash, dropping the _id entry.
func DecodeDocument(id string, m map[string]string, fields map[string]field.Field) domdoc.Document {
	out := make(map[string]any, len(m))
	for name, s := range m {
		if name == domdoc.IDKey {
			continue
		}
		f, ok := fields[name]
		out[name] = DecodeValue(f, ok, s)
	}
	return domdoc.Reconstruct(id, out)
}
