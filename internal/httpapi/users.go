package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptadmin/internal/auth"
	"promptadmin/internal/model"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repos.Users.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	out := make([]map[string]string, 0, len(users))
	for _, u := range users {
		out = append(out, sanitizeUser(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out, "count": len(out)})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleUser {
		writeError(w, http.StatusBadRequest, "role must be admin or user")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(w, err)
		return
	}
	user, err := s.repos.Users.Create(r.Context(), req.Email, hash, req.Role)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sanitizeUser(user))
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) updateUserRole(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleUser {
		writeError(w, http.StatusBadRequest, "role must be admin or user")
		return
	}
	if err := s.repos.Users.UpdateRole(r.Context(), email, req.Role); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": model.NormalizeEmail(email), "role": req.Role})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	email := model.NormalizeEmail(chi.URLParam(r, "email"))
	id := auth.IdentityFromContext(r.Context())
	// Self-deletion is always rejected, admin or not.
	if email == model.NormalizeEmail(id.Email) {
		writeError(w, http.StatusForbidden, "cannot delete your own account")
		return
	}
	if _, err := s.repos.Users.Get(r.Context(), email); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.repos.Users.Delete(r.Context(), email); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": email})
}
