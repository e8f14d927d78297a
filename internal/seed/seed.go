// Package seed loads bootstrap fixtures from a YAML file: the initial
// admin account plus optional products and projects. Seeding is
// idempotent: existing users are matched by email, products and projects
// by name, and matches are left untouched.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"promptadmin/internal/apperr"
	"promptadmin/internal/auth"
	"promptadmin/internal/model"
	"promptadmin/internal/repo"
)

type File struct {
	Users    []UserSeed    `yaml:"users"`
	Products []ProductSeed `yaml:"products"`
	Projects []ProjectSeed `yaml:"projects"`
}

type UserSeed struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type ProductSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
}

type ProjectSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Product references a seeded product by name.
	Product string `yaml:"product"`
	Status  string `yaml:"status"`
}

func Parse(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

func Apply(ctx context.Context, f *File, repos *repo.Repos, log *zap.Logger) error {
	for _, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("seed user needs email and password")
		}
		role := u.Role
		if role == "" {
			role = model.RoleUser
		}
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		_, err = repos.Users.Create(ctx, u.Email, hash, role)
		if errors.Is(err, apperr.ErrConflict) {
			log.Info("seed user exists, skipping", zap.String("email", model.NormalizeEmail(u.Email)))
			continue
		}
		if err != nil {
			return err
		}
		log.Info("seeded user", zap.String("email", model.NormalizeEmail(u.Email)), zap.String("role", role))
	}

	// Products and projects have server-generated ids, so idempotency is
	// by name: a fixture entry whose name already exists is skipped.
	existingProducts, err := repos.Products.List(ctx)
	if err != nil {
		return err
	}
	productIDs := make(map[string]string)
	for _, p := range existingProducts {
		productIDs[p.Name] = p.ID
	}
	for _, p := range f.Products {
		if id, ok := productIDs[p.Name]; ok {
			log.Info("seed product exists, skipping", zap.String("name", p.Name), zap.String("id", id))
			continue
		}
		status := p.Status
		if status == "" {
			status = model.StatusActive
		}
		created, err := repos.Products.Create(ctx, p.Name, p.Description, "", status)
		if err != nil {
			return err
		}
		productIDs[p.Name] = created.ID
		log.Info("seeded product", zap.String("name", p.Name), zap.String("id", created.ID))
	}

	existingProjects, err := repos.Projects.List(ctx)
	if err != nil {
		return err
	}
	projectNames := make(map[string]bool)
	for _, p := range existingProjects {
		projectNames[p.Name] = true
	}
	for _, p := range f.Projects {
		if projectNames[p.Name] {
			log.Info("seed project exists, skipping", zap.String("name", p.Name))
			continue
		}
		productID, ok := productIDs[p.Product]
		if !ok {
			return fmt.Errorf("seed project %q references unknown product %q", p.Name, p.Product)
		}
		status := p.Status
		if status == "" {
			status = model.StatusActive
		}
		created, err := repos.Projects.Create(ctx, p.Name, p.Description, productID, status, "")
		if err != nil {
			return err
		}
		log.Info("seeded project", zap.String("name", p.Name), zap.String("id", created.ID))
	}
	return nil
}
