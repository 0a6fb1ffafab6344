package chi

import (
	"net/http"

	"github.com/kailas-cloud/docsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/docsearch/internal/domain/search/request"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
)

// UploadDocuments handles POST /index/{ix}/documents.
func (s *Server) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	var req uploadRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	ids, err := s.documents.Upload(r.Context(), PrincipalFromContext(r.Context()), name, req.Documents, req.Columns)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ids)
}

// GetDocument handles GET /index/{ix}/documents/{id}?fields=a,b.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	params, err := pathParams(r, "ix", "id")
	if !s.reject(w, r, err) {
		return
	}
	fields, err := queryList(r, "fields")
	if !s.reject(w, r, err) {
		return
	}
	doc, err := s.documents.Get(r.Context(), PrincipalFromContext(r.Context()), params[0], params[1], fields)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(doc))
}

// UpdateDocument handles PUT /index/{ix}/documents/{id}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	params, err := pathParams(r, "ix", "id")
	if !s.reject(w, r, err) {
		return
	}
	var partial map[string]any
	if !s.decode(w, r, &partial) {
		return
	}
	err = s.documents.Update(r.Context(), PrincipalFromContext(r.Context()), params[0], params[1], partial)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteDocument handles DELETE /index/{ix}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	params, err := pathParams(r, "ix", "id")
	if !s.reject(w, r, err) {
		return
	}
	if err := s.documents.Delete(r.Context(), PrincipalFromContext(r.Context()), params[0], params[1]); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueryDocuments handles POST /index/{ix}/query. An exhausted scroll
// answers 204 without a body.
func (s *Server) QueryDocuments(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	var body queryRequest
	if !s.decodeValid(w, r, &body) {
		return
	}
	req, err := request.New(request.Params{
		Queries:     body.Queries.byLabel,
		Order:       body.Queries.order,
		Filters:     body.Filters,
		Page:        body.Page,
		PerPage:     body.PerPage,
		Scroll:      string(body.Scroll),
		ScrollID:    body.ScrollID,
		Fields:      body.Fields,
		Highlight:   body.Highlight,
		Annotations: body.Annotations,
	})
	if !s.reject(w, r, err) {
		return
	}

	res, err := s.search.Query(r.Context(), PrincipalFromContext(r.Context()), name, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, queryResultToResponse(res))
}

// UpdateTags handles POST /index/{ix}/tags_update.
func (s *Server) UpdateTags(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	var req tagsUpdateRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	filters, err := filter.ParseAll(req.Filters)
	if !s.reject(w, r, err) {
		return
	}

	n, err := s.documents.UpdateTags(r.Context(), PrincipalFromContext(r.Context()), name, documentuc.TagUpdate{
		Action:  documentuc.TagAction(req.Action),
		Field:   req.Field,
		Tag:     req.Tag,
		Queries: req.Queries.byLabel,
		Filters: filters,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tagsUpdateResponse{Updated: n})
}
