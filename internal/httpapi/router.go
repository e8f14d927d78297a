// Package httpapi exposes the service over HTTP+JSON.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"promptadmin/internal/auth"
	"promptadmin/internal/prompts"
	"promptadmin/internal/repo"
)

type Server struct {
	repos   *repo.Repos
	prompts *prompts.Service
	tokens  *auth.Tokens
	log     *zap.Logger
}

func NewServer(repos *repo.Repos, promptSvc *prompts.Service, tokens *auth.Tokens, log *zap.Logger) *Server {
	return &Server{repos: repos, prompts: promptSvc, tokens: tokens, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/auth/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.tokens.Authenticate)

		r.Get("/api/me", s.me)
		r.Get("/api/products", s.listProducts)
		r.Get("/api/projects", s.listProjects)
		r.Patch("/api/projects/{id}", s.updateProject)

		r.Route("/api/projects/{id}/prompts", func(r chi.Router) {
			r.Get("/", s.listVersions)
			r.Post("/", s.createVersion)
			r.Post("/{createdAt}/stable", s.markStable)
			r.Delete("/{createdAt}", s.deleteVersion)
		})
		r.Route("/api/projects/{id}/access", func(r chi.Router) {
			r.Get("/", s.listAccess)
			r.Put("/", s.grantAccess)
			r.Delete("/{email}", s.revokeAccess)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/api/users", s.listUsers)
			r.Post("/api/users", s.createUser)
			r.Patch("/api/users/{email}/role", s.updateUserRole)
			r.Delete("/api/users/{email}", s.deleteUser)

			r.Post("/api/products", s.createProduct)
			r.Patch("/api/products/{id}", s.updateProduct)
			r.Delete("/api/products/{id}", s.deleteProduct)

			r.Post("/api/projects", s.createProject)
			r.Delete("/api/projects/{id}", s.deleteProject)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func zapError(err error) zap.Field { return zap.Error(err) }
