// Package authz decides whether an identity may perform an action on a
// project's prompts. The gate is a pure predicate: no permission state is
// cached, every request is evaluated fresh against the store.
package authz

import (
	"context"
	"errors"

	"promptadmin/internal/apperr"
	"promptadmin/internal/model"
	"promptadmin/internal/repo"
)

// Identity is the acting principal extracted from the session.
type Identity struct {
	Email string
	Role  string
}

func (id Identity) IsAdmin() bool { return id.Role == model.RoleAdmin }

type Action string

const (
	ReadPrompts   Action = "read-prompts"
	WritePrompt   Action = "write-prompt"
	MarkStable    Action = "mark-stable"
	ManageAccess  Action = "manage-access"
	EditProject   Action = "edit-project"
	DeleteVersion Action = "delete-version"
)

type Gate struct {
	grants   *repo.Grants
	versions *repo.Versions
}

func New(grants *repo.Grants, versions *repo.Versions) *Gate {
	return &Gate{grants: grants, versions: versions}
}

// Allow returns whether identity may perform action on the project's
// prompts.
//
// Admins may do anything. Mark-stable and access management are
// admin-only. Reads and project edits need any grant on the project.
// Writes need an editor grant, except that any authenticated identity may
// create the first version of a project that has none yet.
func (g *Gate) Allow(ctx context.Context, id Identity, projectID string, action Action) (bool, error) {
	if id.Email == "" {
		return false, nil
	}
	if id.IsAdmin() {
		return true, nil
	}

	switch action {
	case MarkStable, ManageAccess:
		return false, nil

	case ReadPrompts, EditProject:
		_, err := g.grants.Get(ctx, projectID, id.Email)
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil

	case WritePrompt, DeleteVersion:
		grant, err := g.grants.Get(ctx, projectID, id.Email)
		if err == nil && grant.Role == model.GrantEditor {
			return true, nil
		}
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return false, err
		}
		if action == DeleteVersion {
			return false, nil
		}
		// First-version bootstrap: an empty project is writable by any
		// authenticated identity, with or without a grant.
		has, err := g.versions.HasVersions(ctx, projectID)
		if err != nil {
			return false, err
		}
		return !has, nil

	default:
		return false, nil
	}
}
