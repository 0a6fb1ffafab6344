package request

import (
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/docsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed length of a single query string.
	MaxQueryLength = 4096
	MaxQueries     = 32
	DefaultPerPage = 10
	MaxPerPage     = 10000
	// DefaultScroll is the keep-alive used when scrolling is requested without a duration.
	DefaultScroll = 2 * time.Minute
	MaxScroll     = time.Hour
)

// Params is the raw, unvalidated query request.
type Params struct {
	// Queries maps a label to a free-text query.
	Queries map[string]string
	// Order lists labels in the order the caller sent them.
	Order   []string
	Filters map[string]map[string]any
	// Page is nil when not requested.
	Page    *int
	PerPage int
	// Scroll is "" (no scroll), "true" (default keep-alive) or a duration such as "5m".
	Scroll      string
	ScrollID    string
	Fields      []string
	Highlight   bool
	Annotations bool
}

// Request is a validated query request.
type Request struct {
	queries     map[string]string
	labels      []string
	filters     map[string]filter.Spec
	mode        mode.Mode
	page        int
	perPage     int
	scroll      time.Duration
	cursor      result.Cursor
	fields      []string
	highlight   bool
	annotations bool
}

// New validates params and resolves the retrieval mode.
// page and scroll parameters are mutually exclusive.
func New(p Params) (Request, error) {
	if len(p.Queries) > MaxQueries {
		return Request{}, domain.Invalid("too many queries (max %d)", MaxQueries)
	}
	queries := make(map[string]string, len(p.Queries))
	for label, q := range p.Queries {
		if err := ValidateQuery(label, q); err != nil {
			return Request{}, err
		}
		if label == "" {
			label = q
		}
		queries[label] = q
	}

	filters, err := filter.ParseAll(p.Filters)
	if err != nil {
		return Request{}, err
	}

	scrollRequested := p.Scroll != "" && p.Scroll != "false"
	if p.Page != nil && (scrollRequested || p.ScrollID != "") {
		return Request{}, domain.Invalid("page and scroll are mutually exclusive")
	}

	perPage := p.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		return Request{}, domain.Invalid("per_page too large (max %d)", MaxPerPage)
	}

	r := Request{
		queries:     queries,
		labels:      orderLabels(queries, p.Order, p.Queries[""]),
		filters:     filters,
		perPage:     perPage,
		fields:      p.Fields,
		highlight:   p.Highlight,
		annotations: p.Annotations,
	}

	switch {
	case p.ScrollID != "":
		r.mode = mode.ScrollContinue
		r.cursor = result.Cursor(p.ScrollID)
		r.scroll, err = parseScroll(p.Scroll)
	case scrollRequested:
		r.mode = mode.ScrollOpen
		r.scroll, err = parseScroll(p.Scroll)
	default:
		r.mode = mode.Paged
		if p.Page != nil {
			if *p.Page < 0 {
				return Request{}, domain.Invalid("page must not be negative")
			}
			r.page = *p.Page
		}
	}
	if err != nil {
		return Request{}, err
	}

	return r, nil
}

// ValidateQuery checks a single labeled free-text query.
func ValidateQuery(label, q string) error {
	if strings.TrimSpace(q) == "" {
		return domain.Invalid("query %q is empty", label)
	}
	if len(q) > MaxQueryLength {
		return domain.Invalid("query %q too long (max %d chars)", label, MaxQueryLength)
	}
	if err := (query.QueryString{Query: q}).Check(); err != nil {
		return domain.Invalid("query %q: %v", label, err)
	}
	return nil
}

// LabeledQuery is one free-text query and its label.
type LabeledQuery struct {
	Label string
	Query string
}

// orderLabels returns the labels of queries in the caller's order. Labels the
// order does not mention follow, sorted. An empty label stands for unlabeled,
// which New relabels with the query itself.
func orderLabels(queries map[string]string, order []string, unlabeled string) []string {
	labels := make([]string, 0, len(queries))
	seen := make(map[string]bool, len(queries))
	for _, l := range order {
		if l == "" {
			l = unlabeled
		}
		if _, ok := queries[l]; ok && !seen[l] {
			labels = append(labels, l)
			seen[l] = true
		}
	}
	var rest []string
	for l := range queries {
		if !seen[l] {
			rest = append(rest, l)
		}
	}
	sort.Strings(rest)
	return append(labels, rest...)
}

func parseScroll(s string) (time.Duration, error) {
	if s == "" || s == "true" || s == "false" {
		return DefaultScroll, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, domain.Invalid("invalid scroll duration %q", s)
	}
	if d <= 0 || d > MaxScroll {
		return 0, domain.Invalid("scroll duration must be between 0 and %s", MaxScroll)
	}
	return d, nil
}

// Queries returns the labeled free-text queries.
func (r Request) Queries() map[string]string { return r.queries }

// LabeledQueries returns the queries in the order the caller sent them.
func (r Request) LabeledQueries() []LabeledQuery {
	out := make([]LabeledQuery, len(r.labels))
	for i, l := range r.labels {
		out[i] = LabeledQuery{Label: l, Query: r.queries[l]}
	}
	return out
}

// Filters returns the parsed per-field filters.
func (r Request) Filters() map[string]filter.Spec { return r.filters }

// Mode returns the resolved retrieval mode.
func (r Request) Mode() mode.Mode { return r.mode }

// Page returns the zero-based page number (paged mode only).
func (r Request) Page() int { return r.page }

// PerPage returns the batch size.
func (r Request) PerPage() int { return r.perPage }

// Scroll returns the cursor keep-alive (scroll modes only).
func (r Request) Scroll() time.Duration { return r.scroll }

// Cursor returns the cursor to continue (ScrollContinue only).
func (r Request) Cursor() result.Cursor { return r.cursor }

// Fields returns the projection. Empty means all fields.
func (r Request) Fields() []string { return r.fields }

// Highlight reports whether highlight markup is requested.
func (r Request) Highlight() bool { return r.highlight }

// Annotations reports whether query match annotations are requested.
func (r Request) Annotations() bool { return r.annotations }
