package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptadmin/internal/auth"
	"promptadmin/internal/authz"
	"promptadmin/internal/model"
)

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.repos.Projects.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects, "count": len(projects)})
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductID   string `json:"product_id"`
	Status      string `json:"status"`
	DocsURL     string `json:"docs_url"`
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Name == "" || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "name and product_id are required")
		return
	}
	if req.Status == "" {
		req.Status = model.StatusActive
	}
	p, err := s.repos.Projects.Create(r.Context(), req.Name, req.Description, req.ProductID, req.Status, req.DocsURL)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// updateProject is open to admins and to users holding a grant on the
// project, so the gate check happens here instead of router middleware.
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	identity := auth.IdentityFromContext(r.Context())

	ok, err := s.prompts.Gate().Allow(r.Context(), identity, id, authz.EditProject)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req map[string]any
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	set := pickFields(req, "name", "description", "status", "docs_url")
	if len(set) == 0 {
		writeError(w, http.StatusBadRequest, "no updatable fields in request")
		return
	}
	if err := s.repos.Projects.Update(r.Context(), id, set); err != nil {
		s.respondError(w, err)
		return
	}
	p, err := s.repos.Projects.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.repos.Projects.Get(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.repos.Projects.Delete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
