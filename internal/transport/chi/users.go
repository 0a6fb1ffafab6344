package chi

import (
	"net/http"

	"github.com/kailas-cloud/docsearch/internal/domain"
	useruc "github.com/kailas-cloud/docsearch/internal/usecase/user"
)

// CreateUser handles POST /users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.users.Create(r.Context(), PrincipalFromContext(r.Context()), req.Email, req.Password, req.GlobalRole)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdUserResponse{ID: u.ID, Email: u.Email})
}

// ListUsers handles GET /users.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]userResponse, len(users))
	for i, u := range users {
		items[i] = userToResponse(u)
	}
	writeJSON(w, http.StatusOK, items)
}

// GetUser handles GET /users/{email}. "me" addresses the caller.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "email")
	if !s.reject(w, r, err) {
		return
	}
	u, err := s.users.Get(r.Context(), PrincipalFromContext(r.Context()), email)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u))
}

// ModifyUser handles PUT /users/{email}.
func (s *Server) ModifyUser(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "email")
	if !s.reject(w, r, err) {
		return
	}
	var req modifyUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	globalRole, err := rawRole(req.GlobalRole)
	if !s.reject(w, r, err) {
		return
	}
	u, err := s.users.Modify(r.Context(), PrincipalFromContext(r.Context()), email, useruc.Update{
		Password:   req.Password,
		GlobalRole: globalRole,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u))
}

// DeleteUser handles DELETE /users/{email}.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "email")
	if !s.reject(w, r, err) {
		return
	}
	if err := s.users.Delete(r.Context(), PrincipalFromContext(r.Context()), email); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateToken handles POST /auth/token with form fields username and password.
func (s *Server) CreateToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := r.ParseForm(); err != nil {
		s.handleDomainError(w, r, domain.Invalid("getting a token requires a form"))
		return
	}
	form := tokenForm{Username: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}
	if err := validateRequest(form); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	tok, err := s.users.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
}

// RefreshToken handles GET /auth/token for an authenticated caller.
func (s *Server) RefreshToken(w http.ResponseWriter, r *http.Request) {
	tok, err := s.users.Refresh(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshTokenResponse{Token: tok})
}
