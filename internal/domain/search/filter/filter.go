package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// MaxValuesPerField bounds the values list of a single field filter.
const MaxValuesPerField = 256

// Recognized filter spec keys.
const (
	KeyValue  = "value"
	KeyValues = "values"
	KeyGT     = "gt"
	KeyGTE    = "gte"
	KeyLT     = "lt"
	KeyLTE    = "lte"
)

// Spec is the filter on a single field: equality values and an optional range.
// Matching any of its clauses is enough (OR semantics within a field).
type Spec struct {
	values    []any
	rangeExpr *Range
}

// Parse consumes the recognized keys of raw. Any leftover key fails with ErrInvalidFilter.
// raw is not modified.
func Parse(fieldName string, raw map[string]any) (Spec, error) {
	rest := make(map[string]any, len(raw))
	for k, v := range raw {
		rest[k] = v
	}

	var spec Spec

	if vs, ok := rest[KeyValues]; ok {
		delete(rest, KeyValues)
		list, ok := vs.([]any)
		if !ok {
			return Spec{}, fmt.Errorf("%w: %s.values must be a list", domain.ErrInvalidFilter, fieldName)
		}
		if len(list) > MaxValuesPerField {
			return Spec{}, fmt.Errorf("%w: %s.values has too many entries (max %d)",
				domain.ErrInvalidFilter, fieldName, MaxValuesPerField)
		}
		spec.values = append(spec.values, list...)
	}
	if v, ok := rest[KeyValue]; ok {
		delete(rest, KeyValue)
		spec.values = append(spec.values, v)
	}

	var r Range
	hasRange := false
	for _, key := range []string{KeyGT, KeyGTE, KeyLT, KeyLTE} {
		v, ok := rest[key]
		if !ok {
			continue
		}
		delete(rest, key)
		hasRange = true
		switch key {
		case KeyGT:
			r.gt = v
		case KeyGTE:
			r.gte = v
		case KeyLT:
			r.lt = v
		case KeyLTE:
			r.lte = v
		}
	}
	if hasRange {
		if r.gt != nil && r.gte != nil {
			return Spec{}, fmt.Errorf("%w: %s: cannot specify both gt and gte", domain.ErrInvalidFilter, fieldName)
		}
		if r.lt != nil && r.lte != nil {
			return Spec{}, fmt.Errorf("%w: %s: cannot specify both lt and lte", domain.ErrInvalidFilter, fieldName)
		}
		spec.rangeExpr = &r
	}

	if len(rest) > 0 {
		keys := make([]string, 0, len(rest))
		for k := range rest {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return Spec{}, fmt.Errorf("%w: unknown filter type(s) for %s: %s",
			domain.ErrInvalidFilter, fieldName, strings.Join(keys, ", "))
	}

	return spec, nil
}

// ParseAll parses one spec per field.
func ParseAll(raw map[string]map[string]any) (map[string]Spec, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]Spec, len(raw))
	for fieldName, r := range raw {
		if fieldName == "" {
			return nil, fmt.Errorf("%w: empty field name", domain.ErrInvalidFilter)
		}
		spec, err := Parse(fieldName, r)
		if err != nil {
			return nil, err
		}
		out[fieldName] = spec
	}
	return out, nil
}

// Equal creates a spec matching a single value.
func Equal(v any) Spec {
	return Spec{values: []any{v}}
}

// Values returns the equality values (value first appended after values).
func (s Spec) Values() []any { return s.values }

// Range returns the range clause or nil.
func (s Spec) Range() *Range { return s.rangeExpr }

// IsEmpty reports whether the spec constrains nothing.
func (s Spec) IsEmpty() bool {
	return len(s.values) == 0 && s.rangeExpr == nil
}

// Range is a set of bounds. Bounds stay untyped until the field type is known
// (numbers for long/double, date strings or numbers for dates).
type Range struct {
	gt  any
	gte any
	lt  any
	lte any
}

// NewRange creates a Range. At least one bound is required.
func NewRange(gt, gte, lt, lte any) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("%w: at least one range boundary is required", domain.ErrInvalidFilter)
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() any { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() any { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() any { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() any { return r.lte }
