package httpapi

import (
	"errors"
	"net/http"

	"promptadmin/internal/apperr"
	"promptadmin/internal/auth"
	"promptadmin/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// dummyHash keeps the bcrypt compare on the unknown-user path, so login
// latency does not reveal whether the account exists.
var dummyHash, _ = auth.HashPassword("login-timing-equalizer")

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.repos.Users.Get(r.Context(), req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		// Same response and same bcrypt cost for unknown user and bad
		// password.
		auth.CheckPassword(dummyHash, req.Password)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"email": user.Email,
		"role":  user.Role,
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	user, err := s.repos.Users.Get(r.Context(), id.Email)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitizeUser(user))
}

// sanitizeUser drops the password hash from API responses.
func sanitizeUser(u model.User) map[string]string {
	return map[string]string{
		"email":      u.Email,
		"role":       u.Role,
		"created_at": u.CreatedAt,
	}
}
