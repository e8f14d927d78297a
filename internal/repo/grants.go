package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promptadmin/internal/apperr"
	"promptadmin/internal/keyval"
	"promptadmin/internal/model"
)

type Grants struct {
	store keyval.Store
}

// Upsert writes the grant for (project, email), overwriting any existing
// grant for the pair. Last write wins; roles are not merged.
func (r *Grants) Upsert(ctx context.Context, projectID, email, role string) (model.AccessGrant, error) {
	g := model.AccessGrant{
		EntityType: model.TypeAccessGrant,
		ProjectID:  projectID,
		Email:      model.NormalizeEmail(email),
		Role:       role,
		GrantedAt:  model.Timestamp(time.Now()),
	}
	if err := r.store.Put(ctx, model.GrantKey(projectID, g.Email), g); err != nil {
		return model.AccessGrant{}, fmt.Errorf("upsert grant: %w", err)
	}
	return g, nil
}

func (r *Grants) Get(ctx context.Context, projectID, email string) (model.AccessGrant, error) {
	var g model.AccessGrant
	err := r.store.Get(ctx, model.GrantKey(projectID, email), &g)
	if errors.Is(err, keyval.ErrNotFound) {
		return model.AccessGrant{}, fmt.Errorf("grant for %s: %w", model.NormalizeEmail(email), apperr.ErrNotFound)
	}
	if err != nil {
		return model.AccessGrant{}, fmt.Errorf("get grant: %w", err)
	}
	return g, nil
}

// Delete revokes the grant. Revoking an absent grant succeeds.
func (r *Grants) Delete(ctx context.Context, projectID, email string) error {
	if err := r.store.Delete(ctx, model.GrantKey(projectID, email)); err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}

func (r *Grants) ListByProject(ctx context.Context, projectID string) ([]model.AccessGrant, error) {
	var grants []model.AccessGrant
	err := r.store.Query(ctx, model.PromptPartition(projectID), keyval.QueryOptions{
		Sort: keyval.BeginsWith(model.AccessPrefix),
	}, &grants)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return grants, nil
}

// ListByUser finds a user's grants across all projects via the
// entity_type scan.
func (r *Grants) ListByUser(ctx context.Context, email string) ([]model.AccessGrant, error) {
	var grants []model.AccessGrant
	err := r.store.Scan(ctx, map[string]any{
		"entity_type": model.TypeAccessGrant,
		"email":       model.NormalizeEmail(email),
	}, &grants)
	if err != nil {
		return nil, fmt.Errorf("list grants by user: %w", err)
	}
	return grants, nil
}
