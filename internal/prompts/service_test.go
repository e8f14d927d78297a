package prompts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"promptadmin/internal/apperr"
	"promptadmin/internal/authz"
	"promptadmin/internal/keyval/badgerstore"
	"promptadmin/internal/model"
	"promptadmin/internal/repo"
)

var (
	adminID  = authz.Identity{Email: "admin@example.org", Role: model.RoleAdmin}
	editorID = authz.Identity{Email: "editor@example.org", Role: model.RoleUser}
	viewerID = authz.Identity{Email: "viewer@example.org", Role: model.RoleUser}
	anonID   = authz.Identity{}
)

type fixture struct {
	svc       *Service
	repos     *repo.Repos
	projectID string
}

// newFixture builds a service over an in-memory store with a deterministic
// clock that advances one second per call, so version timestamps are
// unique and ordered.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := badgerstore.New(badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	repos := repo.New(store, zap.NewNop())
	svc := NewService(repos, authz.New(repos.Grants, repos.Versions), zap.NewNop())

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	ctx := context.Background()
	product, err := repos.Products.Create(ctx, "Assistant", "", "", model.StatusActive)
	require.NoError(t, err)
	project, err := repos.Projects.Create(ctx, "chatbot", "", product.ID, model.StatusActive, "")
	require.NoError(t, err)
	for _, id := range []authz.Identity{adminID, editorID, viewerID} {
		_, err := repos.Users.Create(ctx, id.Email, "hash", id.Role)
		require.NoError(t, err)
	}
	_, err = repos.Grants.Upsert(ctx, project.ID, editorID.Email, model.GrantEditor)
	require.NoError(t, err)
	_, err = repos.Grants.Upsert(ctx, project.ID, viewerID.Email, model.GrantViewer)
	require.NoError(t, err)

	return &fixture{svc: svc, repos: repos, projectID: project.ID}
}

func TestCreateVersionDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.CreateVersion(ctx, editorID, f.projectID, CreateVersionInput{Body: "You are a helpful assistant."})
	require.NoError(t, err)
	require.Equal(t, v.CreatedAt, v.Label)
	require.False(t, v.IsStable)
	require.Equal(t, editorID.Email, v.CreatedBy)

	labeled, err := f.svc.CreateVersion(ctx, editorID, f.projectID, CreateVersionInput{Body: "b", Label: "v2"})
	require.NoError(t, err)
	require.Equal(t, "v2", labeled.Label)
	require.Greater(t, labeled.CreatedAt, v.CreatedAt)
}

func TestCreateVersionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateVersion(ctx, editorID, f.projectID, CreateVersionInput{Body: "   "})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.CreateVersion(ctx, adminID, "no-such-project", CreateVersionInput{Body: "b"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateVersionAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateVersion(ctx, anonID, f.projectID, CreateVersionInput{Body: "b"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// Any authenticated identity may create the first version, a viewer
	// grant included; once the project has one, writes need an editor
	// grant again.
	_, err = f.svc.CreateVersion(ctx, viewerID, f.projectID, CreateVersionInput{Body: "first"})
	require.NoError(t, err)
	_, err = f.svc.CreateVersion(ctx, viewerID, f.projectID, CreateVersionInput{Body: "second"})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	stranger := authz.Identity{Email: "stranger@example.org", Role: model.RoleUser}
	_, err = f.svc.CreateVersion(ctx, stranger, f.projectID, CreateVersionInput{Body: "third"})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.CreateVersion(ctx, editorID, f.projectID, CreateVersionInput{Body: "third"})
	require.NoError(t, err)
}

func TestListVersionsStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var created []model.PromptVersion
	for _, label := range []string{"v1", "v2", "v3"} {
		v, err := f.svc.CreateVersion(ctx, editorID, f.projectID, CreateVersionInput{Body: "b", Label: label})
		require.NoError(t, err)
		created = append(created, v)
	}
	_, err := f.svc.MarkStable(ctx, adminID, f.projectID, created[1].CreatedAt)
	require.NoError(t, err)

	list, err := f.svc.ListVersions(ctx, viewerID, f.projectID)
	require.NoError(t, err)
	require.Len(t, list.Versions, 3)
	require.Equal(t, "v3", list.Versions[0].Label)
	require.Equal(t, Stats{
		Total:               3,
		Stable:              1,
		Unstable:            2,
		LatestVersion:       "v3",
		LatestStableVersion: "v2",
	}, list.Stats)
}

func TestListVersionsDeniedWithoutGrant(t *testing.T) {
	f := newFixture(t)
	stranger := authz.Identity{Email: "stranger@example.org", Role: model.RoleUser}
	_, err := f.svc.ListVersions(context.Background(), stranger, f.projectID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestMarkStableIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v1, err := f.svc.CreateVersion(ctx, editorID, f.projectID, CreateVersionInput{Body: "b", Label: "v1"})
	require.NoError(t, err)
	v2, err := f.svc.CreateVersion(ctx, editorID, f.projectID, CreateVersionInput{Body: "b", Label: "v2"})
	require.NoError(t, err)

	_, err = f.svc.MarkStable(ctx, editorID, f.projectID, v1.CreatedAt)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.MarkStable(ctx, adminID, f.projectID, v1.CreatedAt)
	require.NoError(t, err)
	promoted, err := f.svc.MarkStable(ctx, adminID, f.projectID, v2.CreatedAt)
	require.NoError(t, err)
	require.True(t, promoted.IsStable)

	list, err := f.svc.ListVersions(ctx, adminID, f.projectID)
	require.NoError(t, err)
	require.Equal(t, 1, list.Stats.Stable)
	require.Equal(t, "v2", list.Stats.LatestStableVersion)
}

func TestDeleteVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.CreateVersion(ctx, editorID, f.projectID, CreateVersionInput{Body: "b", Label: "v1"})
	require.NoError(t, err)

	err = f.svc.DeleteVersion(ctx, viewerID, f.projectID, v.CreatedAt)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, f.svc.DeleteVersion(ctx, editorID, f.projectID, v.CreatedAt))
	err = f.svc.DeleteVersion(ctx, editorID, f.projectID, v.CreatedAt)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGrantAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GrantAccess(ctx, editorID, f.projectID, viewerID.Email, model.GrantEditor)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.GrantAccess(ctx, adminID, f.projectID, viewerID.Email, "owner")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.GrantAccess(ctx, adminID, f.projectID, "ghost@example.org", model.GrantViewer)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	g, err := f.svc.GrantAccess(ctx, adminID, f.projectID, viewerID.Email, model.GrantEditor)
	require.NoError(t, err)
	require.Equal(t, model.GrantEditor, g.Role)

	// The promoted viewer can write now.
	_, err = f.svc.CreateVersion(ctx, viewerID, f.projectID, CreateVersionInput{Body: "b"})
	require.NoError(t, err)
}

func TestRevokeAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RevokeAccess(ctx, adminID, f.projectID, editorID.Email))
	// Revoking again is a no-op.
	require.NoError(t, f.svc.RevokeAccess(ctx, adminID, f.projectID, editorID.Email))

	err := f.svc.RevokeAccess(ctx, editorID, f.projectID, viewerID.Email)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestListAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListAccess(ctx, viewerID, f.projectID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	grants, err := f.svc.ListAccess(ctx, adminID, f.projectID)
	require.NoError(t, err)
	require.Len(t, grants, 2)
}
