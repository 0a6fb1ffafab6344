package chi

import (
	"encoding/json"
	"net/http"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/field"
	"github.com/kailas-cloud/docsearch/internal/domain/role"
)

// ListIndices handles GET /index.
func (s *Server) ListIndices(w http.ResponseWriter, r *http.Request) {
	visible, err := s.indices.List(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]visibleIndexResponse, len(visible))
	for i, v := range visible {
		items[i] = visibleToResponse(v)
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateIndex handles POST /index.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req createIndexRequest
	if !s.decode(w, r, &req) {
		return
	}
	ix, err := s.indices.Create(r.Context(), PrincipalFromContext(r.Context()), req.Name, req.GuestRole, req.Fields)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, indexToResponse(ix))
}

// GetIndex handles GET /index/{ix}.
func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	v, err := s.indices.Get(r.Context(), PrincipalFromContext(r.Context()), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visibleToResponse(v))
}

// UpdateIndex handles PUT /index/{ix}. Only the guest role can change.
func (s *Server) UpdateIndex(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	var req updateIndexRequest
	if !s.decode(w, r, &req) {
		return
	}
	guest, err := rawRole(req.GuestRole)
	if err == nil && guest == nil {
		err = domain.Invalid("nothing to update")
	}
	if !s.reject(w, r, err) {
		return
	}
	ix, err := s.indices.UpdateGuestRole(r.Context(), PrincipalFromContext(r.Context()), name, *guest)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, indexToResponse(ix))
}

// DeleteIndex handles DELETE /index/{ix}.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	if err := s.indices.Delete(r.Context(), PrincipalFromContext(r.Context()), name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFields handles GET /index/{ix}/fields.
func (s *Server) GetFields(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	s.writeFields(w, r, name)
}

// GetMergedFields handles GET /fields?index=a,b.
func (s *Server) GetMergedFields(w http.ResponseWriter, r *http.Request) {
	names, err := queryList(r, "index")
	if !s.reject(w, r, err) {
		return
	}
	s.writeFields(w, r, names...)
}

func (s *Server) writeFields(w http.ResponseWriter, r *http.Request, names ...string) {
	fields, err := s.indices.Fields(r.Context(), PrincipalFromContext(r.Context()), names...)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// SetFields handles POST /index/{ix}/fields.
func (s *Server) SetFields(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	var fields map[string]field.Field
	if !s.decode(w, r, &fields) {
		return
	}
	if err := s.indices.SetFields(r.Context(), PrincipalFromContext(r.Context()), name, fields); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFieldValues handles GET /index/{ix}/fields/{field}/values.
func (s *Server) GetFieldValues(w http.ResponseWriter, r *http.Request) {
	params, err := pathParams(r, "ix", "field")
	if !s.reject(w, r, err) {
		return
	}
	values, err := s.indices.Values(r.Context(), PrincipalFromContext(r.Context()), params[0], params[1])
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if values == nil {
		values = []any{}
	}
	writeJSON(w, http.StatusOK, values)
}

// RefreshIndex handles GET /index/{ix}/refresh.
func (s *Server) RefreshIndex(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	info, err := s.indices.Refresh(r.Context(), PrincipalFromContext(r.Context()), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infoToResponse(info))
}

// ListIndexUsers handles GET /index/{ix}/users.
func (s *Server) ListIndexUsers(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	assignments, err := s.indices.Users(r.Context(), PrincipalFromContext(r.Context()), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignmentsToResponse(assignments))
}

// AddIndexUser handles POST /index/{ix}/users.
func (s *Server) AddIndexUser(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "ix")
	if !s.reject(w, r, err) {
		return
	}
	var req indexUserRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	if err := s.indices.AddUser(r.Context(), PrincipalFromContext(r.Context()), name, req.Email, req.Role); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignmentResponse{Email: req.Email, Role: req.Role})
}

// SetIndexUserRole handles PUT /index/{ix}/users/{email}.
func (s *Server) SetIndexUserRole(w http.ResponseWriter, r *http.Request) {
	params, err := pathParams(r, "ix", "email")
	if !s.reject(w, r, err) {
		return
	}
	var req indexUserRoleRequest
	if !s.decode(w, r, &req) {
		return
	}
	err = s.indices.SetUserRole(r.Context(), PrincipalFromContext(r.Context()), params[0], params[1], req.Role)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignmentResponse{Email: params[1], Role: req.Role})
}

// RemoveIndexUser handles DELETE /index/{ix}/users/{email}.
func (s *Server) RemoveIndexUser(w http.ResponseWriter, r *http.Request) {
	params, err := pathParams(r, "ix", "email")
	if !s.reject(w, r, err) {
		return
	}
	if err := s.indices.RemoveUser(r.Context(), PrincipalFromContext(r.Context()), params[0], params[1]); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rawRole decodes an optional role. nil means the key was absent; JSON null is role.None.
func rawRole(raw json.RawMessage) (*role.Role, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var r role.Role
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
