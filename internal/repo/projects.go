package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"promptadmin/internal/apperr"
	"promptadmin/internal/keyval"
	"promptadmin/internal/model"
)

// UnknownProduct labels projects whose product reference no longer
// resolves. Listing degrades instead of failing.
const UnknownProduct = "Unknown Product"

type Projects struct {
	store    keyval.Store
	products *Products
}

// Create validates the product reference; the store does not enforce it.
func (r *Projects) Create(ctx context.Context, name, description, productID, status, docsURL string) (model.Project, error) {
	if _, err := r.products.Get(ctx, productID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.Project{}, fmt.Errorf("project references unknown product %s: %w", productID, apperr.ErrValidation)
		}
		return model.Project{}, err
	}
	p := model.Project{
		EntityType:  model.TypeProject,
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		ProductID:   productID,
		Status:      status,
		DocsURL:     docsURL,
		CreatedAt:   model.Timestamp(time.Now()),
	}
	if err := r.store.Create(ctx, model.ProjectKey(p.ID), p); err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (r *Projects) Get(ctx context.Context, id string) (model.Project, error) {
	var p model.Project
	err := r.store.Get(ctx, model.ProjectKey(id), &p)
	if errors.Is(err, keyval.ErrNotFound) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *Projects) Update(ctx context.Context, id string, set map[string]any) error {
	err := r.store.Update(ctx, model.ProjectKey(id), set)
	if errors.Is(err, keyval.ErrNotFound) {
		return fmt.Errorf("project %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (r *Projects) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, model.ProjectKey(id)); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// List returns all projects with ProductName joined in. Projects and
// products are fetched concurrently and joined in memory by id.
func (r *Projects) List(ctx context.Context) ([]model.Project, error) {
	var (
		wg          sync.WaitGroup
		projects    []model.Project
		products    []model.Product
		projectsErr error
		productsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		projectsErr = r.store.Scan(ctx, map[string]any{"entity_type": model.TypeProject}, &projects)
	}()
	go func() {
		defer wg.Done()
		products, productsErr = r.products.List(ctx)
	}()
	wg.Wait()
	if projectsErr != nil {
		return nil, fmt.Errorf("list projects: %w", projectsErr)
	}
	if productsErr != nil {
		return nil, productsErr
	}

	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	for i := range projects {
		name, ok := names[projects[i].ProductID]
		if !ok {
			name = UnknownProduct
		}
		projects[i].ProductName = name
	}
	return projects, nil
}
