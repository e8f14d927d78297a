package repo

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"promptadmin/internal/apperr"
	"promptadmin/internal/keyval"
	"promptadmin/internal/model"
)

// Versions stores a project's prompt versions as an append-only sequence
// keyed by creation timestamp. Descending key order is load-bearing:
// "latest" and "latest stable" are both the first row of a descending
// range query.
type Versions struct {
	store keyval.Store
	log   *zap.Logger
}

func (r *Versions) Create(ctx context.Context, v model.PromptVersion) error {
	v.EntityType = model.TypePromptVersion
	err := r.store.Create(ctx, model.VersionKey(v.ProjectID, v.CreatedAt), v)
	if errors.Is(err, keyval.ErrConditionFailed) {
		return fmt.Errorf("version %s already exists: %w", v.CreatedAt, apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create version: %w", err)
	}
	return nil
}

func (r *Versions) Get(ctx context.Context, projectID, createdAt string) (model.PromptVersion, error) {
	var v model.PromptVersion
	err := r.store.Get(ctx, model.VersionKey(projectID, createdAt), &v)
	if errors.Is(err, keyval.ErrNotFound) {
		return model.PromptVersion{}, fmt.Errorf("version %s: %w", createdAt, apperr.ErrNotFound)
	}
	if err != nil {
		return model.PromptVersion{}, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

// ListByProject returns versions most-recent-first.
func (r *Versions) ListByProject(ctx context.Context, projectID string) ([]model.PromptVersion, error) {
	var versions []model.PromptVersion
	err := r.store.Query(ctx, model.PromptPartition(projectID), keyval.QueryOptions{
		Sort:       keyval.BeginsWith(model.VersionPrefix),
		Descending: true,
	}, &versions)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// Latest returns the most recent version, or nil when the project has
// none yet.
func (r *Versions) Latest(ctx context.Context, projectID string) (*model.PromptVersion, error) {
	var versions []model.PromptVersion
	err := r.store.Query(ctx, model.PromptPartition(projectID), keyval.QueryOptions{
		Sort:       keyval.BeginsWith(model.VersionPrefix),
		Descending: true,
		Limit:      1,
	}, &versions)
	if err != nil {
		return nil, fmt.Errorf("latest version: %w", err)
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return &versions[0], nil
}

// HasVersions reports whether the project has any version at all. Drives
// the first-version bootstrap rule.
func (r *Versions) HasVersions(ctx context.Context, projectID string) (bool, error) {
	latest, err := r.Latest(ctx, projectID)
	if err != nil {
		return false, err
	}
	return latest != nil, nil
}

// stable returns all currently stable versions, most recent first. The
// filter runs after the key-range fetch, so it is not atomic with writes.
func (r *Versions) stable(ctx context.Context, projectID string) ([]model.PromptVersion, error) {
	var versions []model.PromptVersion
	err := r.store.Query(ctx, model.PromptPartition(projectID), keyval.QueryOptions{
		Sort:       keyval.BeginsWith(model.VersionPrefix),
		Descending: true,
		Filter:     map[string]any{"is_stable": true},
	}, &versions)
	if err != nil {
		return nil, fmt.Errorf("stable versions: %w", err)
	}
	return versions, nil
}

// LatestStable returns the most recent stable version, or nil when the
// project has none. More than one stable row is a data-integrity warning,
// not an error; the next SetStable repairs it.
func (r *Versions) LatestStable(ctx context.Context, projectID string) (*model.PromptVersion, error) {
	stable, err := r.stable(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(stable) == 0 {
		return nil, nil
	}
	if len(stable) > 1 {
		r.log.Warn("more than one stable version",
			zap.String("project_id", projectID),
			zap.Int("count", len(stable)))
	}
	return &stable[0], nil
}

// SetStable marks the target version stable and unmarks every other
// stable version of the project in one atomic write batch, so at most one
// version per project is stable afterwards even if a concurrent call
// races this one.
func (r *Versions) SetStable(ctx context.Context, projectID, createdAt string) (model.PromptVersion, error) {
	target, err := r.Get(ctx, projectID, createdAt)
	if err != nil {
		return model.PromptVersion{}, err
	}
	stable, err := r.stable(ctx, projectID)
	if err != nil {
		return model.PromptVersion{}, err
	}

	var ops []keyval.WriteOp
	for _, v := range stable {
		if v.CreatedAt == createdAt {
			continue
		}
		ops = append(ops, keyval.UpdateOp{
			Key: model.VersionKey(projectID, v.CreatedAt),
			Set: map[string]any{"is_stable": false},
		})
	}
	ops = append(ops, keyval.UpdateOp{
		Key: model.VersionKey(projectID, createdAt),
		Set: map[string]any{"is_stable": true},
	})
	if err := r.store.ApplyTx(ctx, ops...); err != nil {
		return model.PromptVersion{}, fmt.Errorf("set stable: %w", err)
	}
	target.IsStable = true
	return target, nil
}

func (r *Versions) Delete(ctx context.Context, projectID, createdAt string) error {
	if err := r.store.Delete(ctx, model.VersionKey(projectID, createdAt)); err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	return nil
}
