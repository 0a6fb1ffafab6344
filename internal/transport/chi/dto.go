package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	domidx "github.com/kailas-cloud/docsearch/internal/domain/index"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	domuser "github.com/kailas-cloud/docsearch/internal/domain/user"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeInvalidFilter      = "invalid_filter"
	codeUnauthorized       = "unauthorized"
	codeNotFound           = "not_found"
	codeAlreadyExists      = "already_exists"
	codeBackendUnavailable = "backend_unavailable"
	codeRateLimited        = "rate_limited"
	codeInternalError      = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createIndexRequest struct {
	Name      string                 `json:"name" validate:"required,max=64"`
	GuestRole role.Role              `json:"guest_role"`
	Fields    map[string]field.Field `json:"fields"`
}

// updateIndexRequest keeps guest_role raw so an explicit null (clear) differs
// from an absent key (leave unchanged).
type updateIndexRequest struct {
	GuestRole json.RawMessage `json:"guest_role"`
}

type indexResponse struct {
	Name      string    `json:"name"`
	GuestRole role.Role `json:"guest_role"`
}

type visibleIndexResponse struct {
	Name      string    `json:"name"`
	Role      role.Role `json:"role"`
	GuestRole role.Role `json:"guest_role"`
}

type uploadRequest struct {
	Documents []map[string]any       `json:"documents" validate:"required,min=1"`
	Columns   map[string]field.Field `json:"columns"`
}

// labeledQueries accepts either {label: query} or a plain list of queries,
// in which case each query is its own label. Labels keep the order they were
// sent in.
type labeledQueries struct {
	byLabel map[string]string
	order   []string
}

func (q *labeledQueries) add(label, text string) {
	if q.byLabel == nil {
		q.byLabel = make(map[string]string)
	}
	if _, seen := q.byLabel[label]; !seen {
		q.order = append(q.order, label)
	}
	q.byLabel[label] = text
}

func (q *labeledQueries) UnmarshalJSON(data []byte) error {
	*q = labeledQueries{}
	if string(data) == "null" {
		return nil
	}
	if err := q.decodeObject(data); err == nil {
		return nil
	}
	*q = labeledQueries{}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		for _, s := range list {
			q.add(s, s)
		}
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return domain.Invalid("queries must be an object, a list or a string")
	}
	q.add(single, single)
	return nil
}

// decodeObject walks the object token by token; a map would lose key order.
func (q *labeledQueries) decodeObject(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return errNotObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := tok.(string)
		var text string
		if err := dec.Decode(&text); err != nil {
			return err
		}
		q.add(label, text)
	}
	_, err := dec.Token()
	return err
}

var errNotObject = errors.New("not a JSON object")

// scrollParam accepts true/false or a keep-alive duration such as "5m".
type scrollParam string

func (s *scrollParam) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*s = "true"
		} else {
			*s = ""
		}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return domain.Invalid("scroll must be a boolean or a duration")
	}
	*s = scrollParam(str)
	return nil
}

type queryRequest struct {
	Queries     labeledQueries            `json:"queries"`
	Filters     map[string]map[string]any `json:"filters"`
	Page        *int                      `json:"page" validate:"omitempty,gte=0"`
	PerPage     int                       `json:"per_page" validate:"gte=0"`
	Scroll      scrollParam               `json:"scroll"`
	ScrollID    string                    `json:"scroll_id"`
	Fields      []string                  `json:"fields" validate:"dive,required"`
	Highlight   bool                      `json:"highlight"`
	Annotations bool                      `json:"annotations"`
}

type queryMeta struct {
	TotalCount *int    `json:"total_count"`
	PerPage    *int    `json:"per_page"`
	PageCount  *int    `json:"page_count"`
	Page       *int    `json:"page,omitempty"`
	ScrollID   *string `json:"scroll_id,omitempty"`
}

type queryResponse struct {
	Results []map[string]any `json:"results"`
	Meta    queryMeta        `json:"meta"`
}

type tagsUpdateRequest struct {
	Action  string                    `json:"action" validate:"required,oneof=add remove"`
	Field   string                    `json:"field" validate:"required"`
	Tag     string                    `json:"tag" validate:"required"`
	Queries labeledQueries            `json:"queries"`
	Filters map[string]map[string]any `json:"filters"`
}

type tagsUpdateResponse struct {
	Updated int `json:"updated"`
}

type refreshResponse struct {
	Index       string  `json:"index"`
	NumDocs     int     `json:"num_docs"`
	Indexing    bool    `json:"indexing"`
	PercentDone float64 `json:"percent_done"`
}

type indexUserRequest struct {
	Email string    `json:"email" validate:"required"`
	Role  role.Role `json:"role"`
}

type indexUserRoleRequest struct {
	Role role.Role `json:"role"`
}

type assignmentResponse struct {
	Email string    `json:"email"`
	Role  role.Role `json:"role"`
}

type createUserRequest struct {
	Email      string    `json:"email" validate:"required"`
	Password   string    `json:"password" validate:"required"`
	GlobalRole role.Role `json:"global_role"`
}

type createdUserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// modifyUserRequest keeps global_role raw for the same reason as updateIndexRequest.
type modifyUserRequest struct {
	Password   *string         `json:"password"`
	GlobalRole json.RawMessage `json:"global_role"`
}

type userResponse struct {
	Email      string    `json:"email"`
	GlobalRole role.Role `json:"global_role"`
}

type tokenForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type refreshTokenResponse struct {
	Token string `json:"token"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func indexToResponse(ix domidx.Index) indexResponse {
	return indexResponse{Name: ix.Name, GuestRole: ix.GuestRole}
}

func visibleToResponse(v domidx.Visible) visibleIndexResponse {
	return visibleIndexResponse{Name: v.Index.Name, Role: v.Role, GuestRole: v.Index.GuestRole}
}

func userToResponse(u domuser.User) userResponse {
	return userResponse{Email: u.Email, GlobalRole: u.GlobalRole}
}

func infoToResponse(info *db.IndexInfo) refreshResponse {
	return refreshResponse{
		Index:       info.Name,
		NumDocs:     info.NumDocs,
		Indexing:    info.Indexing,
		PercentDone: info.PercentDone,
	}
}

// documentToResponse flattens a document into its fields plus _id.
func documentToResponse(doc domdoc.Document) map[string]any {
	out := make(map[string]any, len(doc.Fields())+1)
	for k, v := range doc.Fields() {
		out[k] = v
	}
	out[domdoc.IDKey] = doc.ID()
	return out
}

func hitToResponse(h result.Hit) map[string]any {
	out := make(map[string]any, len(h.Fields)+2)
	for k, v := range h.Fields {
		out[k] = v
	}
	out[domdoc.IDKey] = h.ID
	if len(h.Annotations) > 0 {
		out["_annotations"] = h.Annotations
	}
	return out
}

func queryResultToResponse(r *result.QueryResult) queryResponse {
	results := make([]map[string]any, len(r.Hits()))
	for i, h := range r.Hits() {
		results[i] = hitToResponse(h)
	}

	var meta queryMeta
	if total, ok := r.Total(); ok {
		perPage, pageCount := r.PerPage(), r.PageCount()
		meta.TotalCount = &total
		meta.PerPage = &perPage
		meta.PageCount = &pageCount
	}
	if cursor, ok := r.Cursor(); ok {
		id := string(cursor)
		meta.ScrollID = &id
	} else if page, ok := r.Page(); ok {
		meta.Page = &page
	}
	return queryResponse{Results: results, Meta: meta}
}

func assignmentsToResponse(as []domidx.Assignment) []assignmentResponse {
	out := make([]assignmentResponse, len(as))
	for i, a := range as {
		out[i] = assignmentResponse{Email: a.Email, Role: a.Role}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}
