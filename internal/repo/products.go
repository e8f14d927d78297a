package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"promptadmin/internal/apperr"
	"promptadmin/internal/keyval"
	"promptadmin/internal/model"
)

type Products struct {
	store keyval.Store
}

func (r *Products) Create(ctx context.Context, name, description, imageURL, status string) (model.Product, error) {
	p := model.Product{
		EntityType:  model.TypeProduct,
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		ImageURL:    imageURL,
		Status:      status,
		CreatedAt:   model.Timestamp(time.Now()),
	}
	if err := r.store.Create(ctx, model.ProductKey(p.ID), p); err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (r *Products) Get(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.store.Get(ctx, model.ProductKey(id), &p)
	if errors.Is(err, keyval.ErrNotFound) {
		return model.Product{}, fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Products) Update(ctx context.Context, id string, set map[string]any) error {
	err := r.store.Update(ctx, model.ProductKey(id), set)
	if errors.Is(err, keyval.ErrNotFound) {
		return fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *Products) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, model.ProductKey(id)); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (r *Products) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.store.Scan(ctx, map[string]any{"entity_type": model.TypeProduct}, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
