// Package prompts is the lifecycle layer over the version and grant
// repositories. It is the single place that turns a gate denial into
// ErrForbidden, and no repository write ever runs before its gate check.
package prompts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"promptadmin/internal/apperr"
	"promptadmin/internal/authz"
	"promptadmin/internal/model"
	"promptadmin/internal/repo"
)

type Service struct {
	repos *repo.Repos
	gate  *authz.Gate
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repos *repo.Repos, gate *authz.Gate, log *zap.Logger) *Service {
	return &Service{repos: repos, gate: gate, log: log, now: time.Now}
}

// Gate exposes the authorization gate for callers that guard operations
// outside this service, like project edits.
func (s *Service) Gate() *authz.Gate { return s.gate }

// Stats aggregates a project's version list.
type Stats struct {
	Total               int    `json:"total"`
	Stable              int    `json:"stable"`
	Unstable            int    `json:"unstable"`
	LatestVersion       string `json:"latest_version,omitempty"`
	LatestStableVersion string `json:"latest_stable_version,omitempty"`
}

type VersionList struct {
	Versions []model.PromptVersion `json:"versions"`
	Stats    Stats                 `json:"stats"`
}

type CreateVersionInput struct {
	Body        string
	Label       string
	Description string
	Params      map[string]any
}

func (s *Service) check(ctx context.Context, id authz.Identity, projectID string, action authz.Action) error {
	if id.Email == "" {
		return apperr.ErrUnauthorized
	}
	ok, err := s.gate.Allow(ctx, id, projectID, action)
	if err != nil {
		return fmt.Errorf("authorization check: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s on project %s: %w", action, projectID, apperr.ErrForbidden)
	}
	return nil
}

// CreateVersion appends a new version to the project. The label defaults
// to the creation timestamp; new versions are never born stable.
func (s *Service) CreateVersion(ctx context.Context, id authz.Identity, projectID string, in CreateVersionInput) (model.PromptVersion, error) {
	if err := s.check(ctx, id, projectID, authz.WritePrompt); err != nil {
		return model.PromptVersion{}, err
	}
	if strings.TrimSpace(in.Body) == "" {
		return model.PromptVersion{}, fmt.Errorf("prompt body is required: %w", apperr.ErrValidation)
	}
	if _, err := s.repos.Projects.Get(ctx, projectID); err != nil {
		return model.PromptVersion{}, err
	}

	createdAt := model.Timestamp(s.now())
	label := in.Label
	if label == "" {
		label = createdAt
	}
	v := model.PromptVersion{
		EntityType:  model.TypePromptVersion,
		ProjectID:   projectID,
		CreatedAt:   createdAt,
		Body:        in.Body,
		Label:       label,
		IsStable:    false,
		CreatedBy:   id.Email,
		Description: in.Description,
		Params:      in.Params,
	}
	if err := s.repos.Versions.Create(ctx, v); err != nil {
		return model.PromptVersion{}, err
	}
	s.log.Info("prompt version created",
		zap.String("project_id", projectID),
		zap.String("created_at", createdAt),
		zap.String("created_by", id.Email))
	return v, nil
}

// ListVersions returns the project's versions, most recent first, with
// aggregate stats.
func (s *Service) ListVersions(ctx context.Context, id authz.Identity, projectID string) (VersionList, error) {
	if err := s.check(ctx, id, projectID, authz.ReadPrompts); err != nil {
		return VersionList{}, err
	}
	if _, err := s.repos.Projects.Get(ctx, projectID); err != nil {
		return VersionList{}, err
	}
	versions, err := s.repos.Versions.ListByProject(ctx, projectID)
	if err != nil {
		return VersionList{}, err
	}

	stats := Stats{Total: len(versions)}
	for _, v := range versions {
		if v.IsStable {
			stats.Stable++
			if stats.LatestStableVersion == "" {
				stats.LatestStableVersion = v.Label
			}
		} else {
			stats.Unstable++
		}
	}
	if len(versions) > 0 {
		stats.LatestVersion = versions[0].Label
	}
	return VersionList{Versions: versions, Stats: stats}, nil
}

// MarkStable designates the version as the project's blessed prompt,
// unmarking any previously stable version in the same atomic batch.
func (s *Service) MarkStable(ctx context.Context, id authz.Identity, projectID, createdAt string) (model.PromptVersion, error) {
	if err := s.check(ctx, id, projectID, authz.MarkStable); err != nil {
		return model.PromptVersion{}, err
	}
	v, err := s.repos.Versions.SetStable(ctx, projectID, createdAt)
	if err != nil {
		return model.PromptVersion{}, err
	}
	s.log.Info("version marked stable",
		zap.String("project_id", projectID),
		zap.String("created_at", createdAt),
		zap.String("by", id.Email))
	return v, nil
}

func (s *Service) DeleteVersion(ctx context.Context, id authz.Identity, projectID, createdAt string) error {
	if err := s.check(ctx, id, projectID, authz.DeleteVersion); err != nil {
		return err
	}
	if _, err := s.repos.Versions.Get(ctx, projectID, createdAt); err != nil {
		return err
	}
	return s.repos.Versions.Delete(ctx, projectID, createdAt)
}

// GrantAccess upserts an editor or viewer grant for (project, email).
// A new grant for the same pair overwrites the old one.
func (s *Service) GrantAccess(ctx context.Context, id authz.Identity, projectID, email, role string) (model.AccessGrant, error) {
	if err := s.check(ctx, id, projectID, authz.ManageAccess); err != nil {
		return model.AccessGrant{}, err
	}
	if role != model.GrantEditor && role != model.GrantViewer {
		return model.AccessGrant{}, fmt.Errorf("grant role must be editor or viewer: %w", apperr.ErrValidation)
	}
	if _, err := s.repos.Projects.Get(ctx, projectID); err != nil {
		return model.AccessGrant{}, err
	}
	if _, err := s.repos.Users.Get(ctx, email); err != nil {
		return model.AccessGrant{}, err
	}
	return s.repos.Grants.Upsert(ctx, projectID, email, role)
}

// RevokeAccess deletes the grant if present. Absence is not an error.
func (s *Service) RevokeAccess(ctx context.Context, id authz.Identity, projectID, email string) error {
	if err := s.check(ctx, id, projectID, authz.ManageAccess); err != nil {
		return err
	}
	return s.repos.Grants.Delete(ctx, projectID, email)
}

func (s *Service) ListAccess(ctx context.Context, id authz.Identity, projectID string) ([]model.AccessGrant, error) {
	if err := s.check(ctx, id, projectID, authz.ManageAccess); err != nil {
		return nil, err
	}
	if _, err := s.repos.Projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repos.Grants.ListByProject(ctx, projectID)
}
