package field

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/geo"
)

// Type is the declared type of a document field.
type Type string

// Field type constants.
const (
	Text     Type = "text"
	Keyword  Type = "keyword"
	Tag      Type = "tag"
	URL      Type = "url"
	ID       Type = "id"
	Long     Type = "long"
	Double   Type = "double"
	Date     Type = "date"
	Object   Type = "object"
	GeoPoint Type = "geo_point"
)

var knownTypes = map[Type]bool{
	Text: true, Keyword: true, Tag: true, URL: true, ID: true,
	Long: true, Double: true, Date: true, Object: true, GeoPoint: true,
}

var reservedNames = map[string]bool{
	"_id": true, "_annotations": true,
}

// MaxNameLength bounds field names.
const MaxNameLength = 64

// Field is a field declaration: a type plus free-form metadata.
type Field struct {
	Type Type           `json:"type"`
	Meta map[string]any `json:"meta,omitempty"`
}

// New validates the type and creates a declaration.
func New(t Type, meta map[string]any) (Field, error) {
	if !knownTypes[t] {
		return Field{}, domain.Invalid("unknown field type %q", t)
	}
	return Field{Type: t, Meta: meta}, nil
}

// ParseType resolves a type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !knownTypes[t] {
		return "", domain.Invalid("unknown field type %q", s)
	}
	return t, nil
}

// ValidateName rejects empty, oversized, reserved and non-identifier names.
func ValidateName(name string) error {
	if name == "" {
		return domain.Invalid("field name is required")
	}
	if len(name) > MaxNameLength {
		return domain.Invalid("field name %q too long (max %d)", name, MaxNameLength)
	}
	if reservedNames[name] {
		return domain.Invalid("field name %q is reserved", name)
	}
	for _, r := range name {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
		if !ok {
			return domain.Invalid("field name %q contains invalid character %q", name, r)
		}
	}
	return nil
}

// UnmarshalJSON accepts either "type" or {"type": ..., "meta": {...}}.
func (f *Field) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		t, err := ParseType(name)
		if err != nil {
			return err
		}
		*f = Field{Type: t}
		return nil
	}

	var raw struct {
		Type string         `json:"type"`
		Meta map[string]any `json:"meta"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Invalid("field declaration must be a type name or an object")
	}
	t, err := ParseType(raw.Type)
	if err != nil {
		return err
	}
	*f = Field{Type: t, Meta: raw.Meta}
	return nil
}

// Equal compares type and metadata.
func (f Field) Equal(o Field) bool {
	if f.Type != o.Type {
		return false
	}
	if len(f.Meta) == 0 && len(o.Meta) == 0 {
		return true
	}
	return reflect.DeepEqual(f.Meta, o.Meta)
}

// IsTagLike reports whether the field is matched by exact value.
func (f Field) IsTagLike() bool {
	switch f.Type {
	case Keyword, Tag, URL, ID:
		return true
	}
	return false
}

// IsNumeric reports whether the field is stored as a number (dates included).
func (f Field) IsNumeric() bool {
	return f.Type == Long || f.Type == Double || f.Type == Date
}

// IsIndexed reports whether the search backend indexes the field.
func (f Field) IsIndexed() bool {
	return f.Type != Object && f.Type != GeoPoint
}

// Defaults returns the fields every new index starts with.
func Defaults() map[string]Field {
	return map[string]Field{
		"text":  {Type: Text},
		"title": {Type: Text},
		"date":  {Type: Date},
		"url":   {Type: URL},
	}
}

// WithDefaults returns the default fields overlaid by the given declarations.
func WithDefaults(fields map[string]Field) map[string]Field {
	out := Defaults()
	for name, f := range fields {
		out[name] = f
	}
	return out
}

// Merge combines field sets of several indices. A field declared differently in two
// indices becomes a keyword marked as merged.
func Merge(sets ...map[string]Field) map[string]Field {
	out := make(map[string]Field)
	for _, set := range sets {
		for name, f := range set {
			prev, ok := out[name]
			if !ok {
				out[name] = f
				continue
			}
			if !prev.Equal(f) {
				out[name] = Field{Type: Keyword, Meta: map[string]any{"merged": true}}
			}
		}
	}
	return out
}

// Names returns the field names in sorted order.
func Names(fields map[string]Field) []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Coerce converts a raw JSON value to the declared type.
// Strings for text-like fields, float64 for numbers, time.Time for dates,
// geo.Point for geo_point. Tags accept a list of strings.
func (f Field) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case Text, Keyword, URL, ID:
		return stringify(v), nil
	case Tag:
		if list, ok := v.([]any); ok {
			out := make([]string, 0, len(list))
			for _, item := range list {
				out = append(out, stringify(item))
			}
			return out, nil
		}
		if list, ok := v.([]string); ok {
			return list, nil
		}
		return []string{stringify(v)}, nil
	case Long, Double:
		return toFloat(v)
	case Date:
		return ParseDate(v)
	case GeoPoint:
		return geo.Parse(v)
	default:
		return v, nil
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, domain.Invalid("invalid number %q", x)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, domain.Invalid("invalid number %q", x)
		}
		return f, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, domain.Invalid("cannot convert %T to number", v)
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts RFC3339, date-only strings and epoch milliseconds.
func ParseDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, domain.Invalid("invalid date %q", x)
	default:
		ms, err := toFloat(v)
		if err != nil {
			return time.Time{}, domain.Invalid("invalid date %v", v)
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
}
