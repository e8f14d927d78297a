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

type Users struct {
	store keyval.Store
}

// Create inserts a new user. A duplicate email reports apperr.ErrConflict
// rather than a generic store error.
func (r *Users) Create(ctx context.Context, email, passwordHash, role string) (model.User, error) {
	u := model.User{
		EntityType:   model.TypeUser,
		Email:        model.NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    model.Timestamp(time.Now()),
	}
	err := r.store.Create(ctx, model.UserKey(u.Email), u)
	if errors.Is(err, keyval.ErrConditionFailed) {
		return model.User{}, fmt.Errorf("user %s: %w", u.Email, apperr.ErrConflict)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *Users) Get(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.store.Get(ctx, model.UserKey(email), &u)
	if errors.Is(err, keyval.ErrNotFound) {
		return model.User{}, fmt.Errorf("user %s: %w", model.NormalizeEmail(email), apperr.ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Users) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.store.Scan(ctx, map[string]any{"entity_type": model.TypeUser}, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateRole is the only mutation users support.
func (r *Users) UpdateRole(ctx context.Context, email, role string) error {
	err := r.store.Update(ctx, model.UserKey(email), map[string]any{"role": role})
	if errors.Is(err, keyval.ErrNotFound) {
		return fmt.Errorf("user %s: %w", model.NormalizeEmail(email), apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return nil
}

func (r *Users) Delete(ctx context.Context, email string) error {
	if err := r.store.Delete(ctx, model.UserKey(email)); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
