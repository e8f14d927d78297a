package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"promptadmin/internal/apperr"
	"promptadmin/internal/model"
	"promptadmin/internal/repo"
)

func versionAt(projectID string, t time.Time, label string, stable bool) model.PromptVersion {
	return model.PromptVersion{
		ProjectID: projectID,
		CreatedAt: model.Timestamp(t),
		Body:      "prompt body " + label,
		Label:     label,
		IsStable:  stable,
		CreatedBy: "alice@example.org",
	}
}

func seedVersions(t *testing.T, repos *repo.Repos, projectID string, labels ...string) []string {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	created := make([]string, 0, len(labels))
	for i, label := range labels {
		v := versionAt(projectID, base.Add(time.Duration(i)*time.Minute), label, false)
		require.NoError(t, repos.Versions.Create(ctx, v))
		created = append(created, v.CreatedAt)
	}
	return created
}

func TestVersionsListDescending(t *testing.T) {
	repos := newTestRepos(t)
	seedVersions(t, repos, "p1", "v1", "v2", "v3")

	versions, err := repos.Versions.ListByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	require.Equal(t, "v3", versions[0].Label)
	require.Equal(t, "v1", versions[2].Label)
}

func TestVersionsCreateDuplicateTimestamp(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Versions.Create(ctx, versionAt("p1", ts, "first", false)))
	err := repos.Versions.Create(ctx, versionAt("p1", ts, "second", false))
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestVersionsLatest(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	latest, err := repos.Versions.Latest(ctx, "p1")
	require.NoError(t, err)
	require.Nil(t, latest)

	has, err := repos.Versions.HasVersions(ctx, "p1")
	require.NoError(t, err)
	require.False(t, has)

	seedVersions(t, repos, "p1", "v1", "v2")

	latest, err = repos.Versions.Latest(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "v2", latest.Label)

	has, err = repos.Versions.HasVersions(ctx, "p1")
	require.NoError(t, err)
	require.True(t, has)
}

func TestVersionsSetStableDemotesPrevious(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	created := seedVersions(t, repos, "p1", "v1", "v2", "v3")

	_, err := repos.Versions.SetStable(ctx, "p1", created[0])
	require.NoError(t, err)
	promoted, err := repos.Versions.SetStable(ctx, "p1", created[2])
	require.NoError(t, err)
	require.True(t, promoted.IsStable)
	require.Equal(t, "v3", promoted.Label)

	versions, err := repos.Versions.ListByProject(ctx, "p1")
	require.NoError(t, err)
	var stable []string
	for _, v := range versions {
		if v.IsStable {
			stable = append(stable, v.Label)
		}
	}
	require.Equal(t, []string{"v3"}, stable)
}

func TestVersionsSetStableRepairsMultipleStableRows(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Two stable rows can exist after a partial failure. SetStable must
	// leave exactly one stable afterwards.
	bad1 := versionAt("p1", base, "v1", true)
	bad2 := versionAt("p1", base.Add(time.Minute), "v2", true)
	target := versionAt("p1", base.Add(2*time.Minute), "v3", false)
	for _, v := range []model.PromptVersion{bad1, bad2, target} {
		require.NoError(t, repos.Versions.Create(ctx, v))
	}

	_, err := repos.Versions.SetStable(ctx, "p1", target.CreatedAt)
	require.NoError(t, err)

	latestStable, err := repos.Versions.LatestStable(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, latestStable)
	require.Equal(t, "v3", latestStable.Label)

	versions, err := repos.Versions.ListByProject(ctx, "p1")
	require.NoError(t, err)
	count := 0
	for _, v := range versions {
		if v.IsStable {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestVersionsSetStableMissingTarget(t *testing.T) {
	repos := newTestRepos(t)
	_, err := repos.Versions.SetStable(context.Background(), "p1", model.Timestamp(time.Now()))
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVersionsLatestStable(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	stable, err := repos.Versions.LatestStable(ctx, "p1")
	require.NoError(t, err)
	require.Nil(t, stable)

	created := seedVersions(t, repos, "p1", "v1", "v2", "v3")
	_, err = repos.Versions.SetStable(ctx, "p1", created[1])
	require.NoError(t, err)

	stable, err = repos.Versions.LatestStable(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, stable)
	require.Equal(t, "v2", stable.Label)
}

func TestVersionsDelete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	created := seedVersions(t, repos, "p1", "v1", "v2")

	require.NoError(t, repos.Versions.Delete(ctx, "p1", created[0]))
	versions, err := repos.Versions.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.Equal(t, "v2", versions[0].Label)

	_, err = repos.Versions.Get(ctx, "p1", created[0])
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVersionsProjectsIsolated(t *testing.T) {
	repos := newTestRepos(t)
	seedVersions(t, repos, "p1", "v1", "v2")
	seedVersions(t, repos, "p2", "other")

	versions, err := repos.Versions.ListByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	for _, v := range versions {
		require.Equal(t, "p1", v.ProjectID)
	}
}
