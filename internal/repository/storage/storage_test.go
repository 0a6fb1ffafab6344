package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
)

type fakeHashes map[string]map[string]string

func (f fakeHashes) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return f[key], nil
}

var ks = db.Keyspace{Prefix: "ds:"}

func TestFieldsRoundTripThroughHash(t *testing.T) {
	in := map[string]field.Field{
		"title": {Type: field.Text},
		"tags":  {Type: field.Tag, Meta: map[string]any{"color": "red"}},
	}
	encoded, err := EncodeFields(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if encoded["title"] != `{"type":"text"}` {
		t.Errorf("title encoded as %s", encoded["title"])
	}

	got, err := LoadFields(context.Background(), fakeHashes{"ds:news:fields": encoded}, ks, "news")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || !got["tags"].Equal(in["tags"]) || got["title"].Type != field.Text {
		t.Errorf("round trip = %+v", got)
	}
}

func TestLoadFields_Missing(t *testing.T) {
	got, err := LoadFields(context.Background(), fakeHashes{}, ks, "gone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestDefinition(t *testing.T) {
	def, err := Definition(ks, "news", map[string]field.Field{
		"title":  {Type: field.Text},
		"date":   {Type: field.Date},
		"url":    {Type: field.URL},
		"extra":  {Type: field.Object},
		"labels": {Type: field.Tag},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Name != "ds:news:idx" || def.Prefixes[0] != "ds:news:doc:" {
		t.Errorf("definition = %+v", def)
	}
	s := def.Schema()
	want := db.Schema{
		"_id":    db.IndexFieldTag,
		"date":   db.IndexFieldNumeric,
		"labels": db.IndexFieldTag,
		"title":  db.IndexFieldText,
		"url":    db.IndexFieldTag,
	}
	if len(s) != len(want) {
		t.Fatalf("schema = %v, want %v", s, want)
	}
	for k, v := range want {
		if s[k] != v {
			t.Errorf("schema[%s] = %v, want %v", k, s[k], v)
		}
	}
}

func TestNewIndexFields_SkipsExistingAndUnindexed(t *testing.T) {
	current := map[string]field.Field{"title": {Type: field.Text}}
	added := map[string]field.Field{
		"title": {Type: field.Text},
		"year":  {Type: field.Long},
		"geo":   {Type: field.GeoPoint},
		"cat":   {Type: field.Keyword},
	}
	got := NewIndexFields(current, added)
	if len(got) != 2 || got[0].Name != "cat" || got[1].Name != "year" {
		t.Errorf("got %+v", got)
	}
}

func TestEncodeDecodeDocument(t *testing.T) {
	fields := map[string]field.Field{
		"title": {Type: field.Text},
		"date":  {Type: field.Date},
		"tags":  {Type: field.Tag},
		"year":  {Type: field.Long},
		"score": {Type: field.Double},
		"meta":  {Type: field.Object},
	}
	doc, err := domdoc.New("d1", map[string]any{
		"title": "The cat sat",
		"date":  "2020-01-02",
		"tags":  []any{"a", "b"},
		"year":  "1999",
		"score": 0.5,
		"meta":  map[string]any{"k": "v"},
		"free":  "untyped",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h, err := EncodeDocument(doc, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDate := fmt.Sprint(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli())
	checks := map[string]string{
		"_id": "d1", "title": "The cat sat", "date": wantDate, "tags": "a,b",
		"year": "1999", "score": "0.5", "meta": `{"k":"v"}`, "free": "untyped",
	}
	for k, v := range checks {
		if h[k] != v {
			t.Errorf("hash[%s] = %q, want %q", k, h[k], v)
		}
	}

	back := DecodeDocument("d1", h, fields)
	got := back.Fields()
	if _, ok := got["_id"]; ok {
		t.Error("_id must not be a field")
	}
	if got["date"] != "2020-01-02T00:00:00Z" {
		t.Errorf("date = %v", got["date"])
	}
	if got["year"] != int64(1999) {
		t.Errorf("year = %#v", got["year"])
	}
	if tags, ok := got["tags"].([]string); !ok || len(tags) != 2 {
		t.Errorf("tags = %#v", got["tags"])
	}
	if m, ok := got["meta"].(map[string]any); !ok || m["k"] != "v" {
		t.Errorf("meta = %#v", got["meta"])
	}
	if got["free"] != "untyped" {
		t.Errorf("free = %#v", got["free"])
	}
}

func TestEncodeDocument_CoercionError(t *testing.T) {
	doc, _ := domdoc.New("d1", map[string]any{"year": "nineteen"})
	_, err := EncodeDocument(doc, map[string]field.Field{"year": {Type: field.Long}})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"index not found", db.ErrIndexNotFound, domain.ErrNotFound},
		{"cursor expired", db.ErrCursorNotFound, domain.ErrNotFound},
		{"unknown field", fmt.Errorf("%w: x", db.ErrUnknownField), domain.ErrInvalidFilter},
		{"bad query", &db.Error{Op: db.OpSearch, Err: db.ErrInvalidQuery}, domain.ErrInvalidRequest},
		{"index exists", db.ErrIndexExists, domain.ErrAlreadyExists},
		{"command failure", &db.Error{Op: db.OpSearch, Err: errors.New("conn reset")}, domain.ErrBackendUnavailable},
		{"domain passthrough", domain.ErrInvalidFilter, domain.ErrInvalidFilter},
		{"canceled", context.Canceled, context.Canceled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MapError(tc.in); !errors.Is(got, tc.want) {
				t.Errorf("MapError(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
	if MapError(nil) != nil {
		t.Error("MapError(nil) must be nil")
	}
}
