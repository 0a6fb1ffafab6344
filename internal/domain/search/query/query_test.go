package query

import (
	"errors"
	"testing"
)

func TestString_Canonical(t *testing.T) {
	b := Body{
		Query: Bool{Filter: []Node{
			Bool{Should: []Node{Term{Field: "cat", Value: "a"}, Range{Field: "year", GTE: 2000.0}}},
			QueryString{Query: "cat OR dog"},
		}},
		Highlight: &Highlight{Fields: "*", WholeField: true},
	}
	want := `bool(filter[bool(should[term(cat=a) range(year:gte=2000)]) query_string("cat OR dog")]) highlight(*,whole=true)`
	if got := b.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestFields(t *testing.T) {
	n := Bool{Filter: []Node{
		Bool{Should: []Node{Term{Field: "a", Value: 1}, Term{Field: "a", Value: 2}}},
		Range{Field: "b", LT: 3},
		QueryString{Query: "x"},
	}}
	got := Fields(n)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Fields = %v", got)
	}
}

func TestMatchAll(t *testing.T) {
	if (Body{Query: MatchAll{}}).String() != "match_all" {
		t.Error("unexpected rendering")
	}
}

func TestQueryStringCheck(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"cat", true},
		{"(cat OR dog) AND bird", true},
		{`"a (quoted" phrase`, true},
		{`cat\)`, true},
		{"cat) | (*", false},
		{"(cat", false},
		{")(", false},
		{`"open phrase`, false},
		{`cat\`, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			err := QueryString{Query: tc.in}.Check()
			if tc.ok && err != nil {
				t.Errorf("Check(%q) = %v, want nil", tc.in, err)
			}
			if !tc.ok && !errors.Is(err, ErrUnbalanced) {
				t.Errorf("Check(%q) = %v, want ErrUnbalanced", tc.in, err)
			}
		})
	}
}
