package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptadmin/internal/auth"
	"promptadmin/internal/prompts"
)

func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	projectID := chi.URLParam(r, "id")

	list, err := s.prompts.ListVersions(r.Context(), identity, projectID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createVersionRequest struct {
	Body        string         `json:"body"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params"`
}

func (s *Server) createVersion(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	projectID := chi.URLParam(r, "id")

	var req createVersionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	v, err := s.prompts.CreateVersion(r.Context(), identity, projectID, prompts.CreateVersionInput{
		Body:        req.Body,
		Label:       req.Label,
		Description: req.Description,
		Params:      req.Params,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) markStable(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	projectID := chi.URLParam(r, "id")
	createdAt := chi.URLParam(r, "createdAt")

	v, err := s.prompts.MarkStable(r.Context(), identity, projectID, createdAt)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deleteVersion(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	projectID := chi.URLParam(r, "id")
	createdAt := chi.URLParam(r, "createdAt")

	if err := s.prompts.DeleteVersion(r.Context(), identity, projectID, createdAt); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": createdAt})
}

func (s *Server) listAccess(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	projectID := chi.URLParam(r, "id")

	grants, err := s.prompts.ListAccess(r.Context(), identity, projectID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"grants": grants, "count": len(grants)})
}

type grantRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) grantAccess(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	projectID := chi.URLParam(r, "id")

	var req grantRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Email == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "email and role are required")
		return
	}
	g, err := s.prompts.GrantAccess(r.Context(), identity, projectID, req.Email, req.Role)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) revokeAccess(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	projectID := chi.URLParam(r, "id")
	email := chi.URLParam(r, "email")

	if err := s.prompts.RevokeAccess(r.Context(), identity, projectID, email); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"revoked": email})
}
