package redis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
)

// renderQuery translates a query tree into RediSearch DIALECT 2 syntax.
func renderQuery(n query.Node, schema db.Schema) (string, error) {
	switch q := n.(type) {
	case nil, query.MatchAll:
		return "*", nil
	case query.Term:
		return renderTerm(q, schema)
	case query.Range:
		return renderRange(q, schema)
	case query.QueryString:
		if err := q.Check(); err != nil {
			return "", fmt.Errorf("%w: %w", db.ErrInvalidQuery, err)
		}
		return "(" + translateQueryString(q.Query, schema) + ")", nil
	case query.Bool:
		return renderBool(q, schema)
	default:
		return "", fmt.Errorf("%w: unsupported clause %T", db.ErrInvalidQuery, n)
	}
}

func renderBool(b query.Bool, schema db.Schema) (string, error) {
	var parts []string
	for _, c := range b.Filter {
		if _, ok := c.(query.MatchAll); ok {
			continue
		}
		s, err := renderQuery(c, schema)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}

	if len(b.Should) > 0 {
		should := make([]string, 0, len(b.Should))
		for _, c := range b.Should {
			if _, ok := c.(query.MatchAll); ok {
				// one always-true alternative makes the whole group true
				should = nil
				break
			}
			s, err := renderQuery(c, schema)
			if err != nil {
				return "", err
			}
			should = append(should, s)
		}
		if len(should) > 0 {
			parts = append(parts, "("+strings.Join(should, " | ")+")")
		}
	}

	if len(parts) == 0 {
		return "*", nil
	}
	return strings.Join(parts, " "), nil
}

func fieldType(schema db.Schema, name string) (db.IndexFieldType, error) {
	t, ok := schema[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", db.ErrUnknownField, name)
	}
	return t, nil
}

func renderTerm(t query.Term, schema db.Schema) (string, error) {
	ft, err := fieldType(schema, t.Field)
	if err != nil {
		return "", err
	}
	switch ft {
	case db.IndexFieldNumeric:
		v, err := numeric(t.Value)
		if err != nil {
			return "", fmt.Errorf("%w: field %s: %w", db.ErrInvalidQuery, t.Field, err)
		}
		return fmt.Sprintf("@%s:[%s %s]", t.Field, v, v), nil
	case db.IndexFieldTag:
		return fmt.Sprintf("@%s:{%s}", t.Field, tagEscaper.Replace(scalar(t.Value))), nil
	default:
		return fmt.Sprintf(`@%s:"%s"`, t.Field, phraseEscaper.Replace(scalar(t.Value))), nil
	}
}

func renderRange(r query.Range, schema db.Schema) (string, error) {
	ft, err := fieldType(schema, r.Field)
	if err != nil {
		return "", err
	}
	if ft != db.IndexFieldNumeric {
		return "", fmt.Errorf("%w: range on non-numeric field %s", db.ErrInvalidQuery, r.Field)
	}

	minBound, maxBound := "-inf", "+inf"
	bound := func(v any, exclusive bool) (string, error) {
		s, err := numeric(v)
		if err != nil {
			return "", fmt.Errorf("%w: field %s: %w", db.ErrInvalidQuery, r.Field, err)
		}
		if exclusive {
			return "(" + s, nil
		}
		return s, nil
	}

	switch {
	case r.GT != nil:
		if minBound, err = bound(r.GT, true); err != nil {
			return "", err
		}
	case r.GTE != nil:
		if minBound, err = bound(r.GTE, false); err != nil {
			return "", err
		}
	}
	switch {
	case r.LT != nil:
		if maxBound, err = bound(r.LT, true); err != nil {
			return "", err
		}
	case r.LTE != nil:
		if maxBound, err = bound(r.LTE, false); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("@%s:[%s %s]", r.Field, minBound, maxBound), nil
}

// numeric formats a filter value as a NUMERIC bound. Dates become epoch millis.
func numeric(v any) (string, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return "", fmt.Errorf("not a number: %q", x)
		}
		f = p
	case time.Time:
		f = float64(x.UnixMilli())
	case string:
		p, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return "", fmt.Errorf("not a number: %q", x)
		}
		f = p
	default:
		return "", fmt.Errorf("not a number: %v", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("not a finite number: %v", v)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// translateQueryString maps the boolean keywords and field:value pairs users
// type into RediSearch syntax. Everything else passes through.
func translateQueryString(q string, schema db.Schema) string {
	tokens := tokenize(q)
	out := make([]string, 0, len(tokens))
	negate := false
	for _, tok := range tokens {
		switch tok {
		case "OR", "||":
			out = append(out, "|")
			continue
		case "AND", "&&":
			continue
		case "NOT":
			negate = true
			continue
		}
		tok = translateFieldToken(tok, schema)
		if negate {
			tok = "-" + tok
			negate = false
		}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, " ")
}

// tokenize splits on whitespace outside double quotes.
func tokenize(q string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	for _, r := range q {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case unicode.IsSpace(r) && !inQuote:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func translateFieldToken(tok string, schema db.Schema) string {
	lead := strings.IndexFunc(tok, func(r rune) bool { return r != '(' && r != '-' && r != '+' })
	if lead < 0 {
		return tok
	}
	prefix, rest := tok[:lead], tok[lead:]
	name, value, ok := strings.Cut(rest, ":")
	if !ok || value == "" {
		return tok
	}
	ft, known := schema[name]
	if !known {
		return tok
	}

	trail := len(value) - len(strings.TrimRight(value, ")"))
	suffix := value[len(value)-trail:]
	value = value[:len(value)-trail]
	prefix = strings.ReplaceAll(prefix, "+", "")

	switch ft {
	case db.IndexFieldTag:
		return fmt.Sprintf("%s@%s:{%s}%s", prefix, name, tagEscaper.Replace(strings.Trim(value, `"`)), suffix)
	case db.IndexFieldNumeric:
		if n, err := numeric(value); err == nil {
			return fmt.Sprintf("%s@%s:[%s %s]%s", prefix, name, n, n, suffix)
		}
		return tok
	default:
		return fmt.Sprintf("%s@%s:(%s)%s", prefix, name, value, suffix)
	}
}

var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"[", "\\[",
	"]", "\\]",
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"|", "\\|",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"/", "\\/",
	" ", "\\ ",
)

var phraseEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
)
