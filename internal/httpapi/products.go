package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptadmin/internal/model"
)

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.repos.Products.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products, "count": len(products)})
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Status      string `json:"status"`
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Status == "" {
		req.Status = model.StatusActive
	}
	if req.Status != model.StatusActive && req.Status != model.StatusInactive {
		writeError(w, http.StatusBadRequest, "status must be active or inactive")
		return
	}
	p, err := s.repos.Products.Create(r.Context(), req.Name, req.Description, req.ImageURL, req.Status)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req map[string]any
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	set := pickFields(req, "name", "description", "image_url", "status")
	if len(set) == 0 {
		writeError(w, http.StatusBadRequest, "no updatable fields in request")
		return
	}
	if err := s.repos.Products.Update(r.Context(), id, set); err != nil {
		s.respondError(w, err)
		return
	}
	p, err := s.repos.Products.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.repos.Products.Get(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.repos.Products.Delete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// pickFields keeps only the allowed attributes of a partial-update body.
func pickFields(req map[string]any, allowed ...string) map[string]any {
	set := make(map[string]any)
	for _, name := range allowed {
		if value, ok := req[name]; ok {
			set[name] = value
		}
	}
	return set
}
