package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
)

func TestRenderQuery(t *testing.T) {
	tests := []struct {
		name string
		node query.Node
		want string
	}{
		{"match all", query.MatchAll{}, "*"},
		{"nil", nil, "*"},
		{"tag term", query.Term{Field: "cat", Value: "a b"}, `@cat:{a\ b}`},
		{"tag term escapes", query.Term{Field: "_id", Value: "x.y-1"}, `@_id:{x\.y\-1}`},
		{"tag term escapes backslash", query.Term{Field: "cat", Value: `a\`}, `@cat:{a\\}`},
		{"tag term escapes brackets", query.Term{Field: "cat", Value: "[a]"}, `@cat:{\[a\]}`},
		{"numeric term", query.Term{Field: "date", Value: float64(1999)}, "@date:[1999 1999]"},
		{"text term", query.Term{Field: "title", Value: `say "hi"`}, `@title:"say \"hi\""`},
		{"range gte lt", query.Range{Field: "date", GTE: 10, LT: 20}, "@date:[10 (20]"},
		{"range gt only", query.Range{Field: "date", GT: 1.5}, "@date:[(1.5 +inf]"},
		{"range lte only", query.Range{Field: "date", LTE: "7"}, "@date:[-inf 7]"},
		{
			"date bound as epoch millis",
			query.Range{Field: "date", GTE: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
			"@date:[1577836800000 +inf]",
		},
		{"query string", query.QueryString{Query: "cat OR dog"}, "(cat | dog)"},
		{
			"should group",
			query.Bool{Should: []query.Node{
				query.Term{Field: "cat", Value: "a"},
				query.Term{Field: "cat", Value: "b"},
			}},
			"(@cat:{a} | @cat:{b})",
		},
		{
			"filter intersection",
			query.Bool{Filter: []query.Node{
				query.Bool{Should: []query.Node{query.Term{Field: "cat", Value: "a"}}},
				query.Range{Field: "date", GTE: 2000},
				query.QueryString{Query: "cat"},
			}},
			"(@cat:{a}) @date:[2000 +inf] (cat)",
		},
		{"empty bool", query.Bool{}, "*"},
		{"filter match all skipped", query.Bool{Filter: []query.Node{query.MatchAll{}}}, "*"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := renderQuery(tc.node, testSchema)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("renderQuery() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		node    query.Node
		wantErr error
	}{
		{"unknown term field", query.Term{Field: "nope", Value: "x"}, db.ErrUnknownField},
		{"unknown range field", query.Range{Field: "nope", GT: 1}, db.ErrUnknownField},
		{"range on tag", query.Range{Field: "cat", GT: 1}, db.ErrInvalidQuery},
		{"non numeric bound", query.Range{Field: "date", GT: "soon"}, db.ErrInvalidQuery},
		{"non numeric term", query.Term{Field: "date", Value: "x"}, db.ErrInvalidQuery},
		{"query string leaves its group", query.QueryString{Query: "cat) | (*"}, db.ErrInvalidQuery},
		{
			"query string escapes id scope",
			query.Bool{Filter: []query.Node{
				query.Bool{Should: []query.Node{query.Term{Field: "_id", Value: "doc1"}}},
				query.QueryString{Query: "cat) | (*"},
			}},
			db.ErrInvalidQuery,
		},
		{"query string open phrase", query.QueryString{Query: `"cat`}, db.ErrInvalidQuery},
		{"query string trailing escape", query.QueryString{Query: `cat\`}, db.ErrInvalidQuery},
		{
			"nested unknown field",
			query.Bool{Filter: []query.Node{query.Term{Field: "nope", Value: 1}}},
			db.ErrUnknownField,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := renderQuery(tc.node, testSchema)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestTranslateQueryString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cat", "cat"},
		{"cat AND dog", "cat dog"},
		{"cat OR dog", "cat | dog"},
		{"cat NOT dog", "cat -dog"},
		{`"the cat"`, `"the cat"`},
		{`"cat OR dog"`, `"cat OR dog"`},
		{"title:cat", "@title:(cat)"},
		{"cat:a", "@cat:{a}"},
		{"date:1999", "@date:[1999 1999]"},
		{"(title:cat OR cat:b)", "(@title:(cat) | @cat:{b})"},
		{"-cat:a", "-@cat:{a}"},
		{"unknown:x", "unknown:x"},
		{"   ", "*"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := translateQueryString(tc.in, testSchema); got != tc.want {
				t.Errorf("translateQueryString(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
