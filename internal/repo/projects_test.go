package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"promptadmin/internal/apperr"
	"promptadmin/internal/model"
	"promptadmin/internal/repo"
)

func TestProjectsCreateRequiresKnownProduct(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Projects.Create(ctx, "chatbot", "", "no-such-product", model.StatusActive, "")
	require.ErrorIs(t, err, apperr.ErrValidation)

	product, err := repos.Products.Create(ctx, "Assistant", "", "", model.StatusActive)
	require.NoError(t, err)

	project, err := repos.Projects.Create(ctx, "chatbot", "support bot", product.ID, model.StatusActive, "")
	require.NoError(t, err)
	require.NotEmpty(t, project.ID)
	require.Equal(t, product.ID, project.ProductID)
}

func TestProjectsListJoinsProductName(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	product, err := repos.Products.Create(ctx, "Assistant", "", "", model.StatusActive)
	require.NoError(t, err)
	project, err := repos.Projects.Create(ctx, "chatbot", "", product.ID, model.StatusActive, "")
	require.NoError(t, err)

	projects, err := repos.Projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, project.ID, projects[0].ID)
	require.Equal(t, "Assistant", projects[0].ProductName)
}

func TestProjectsListDanglingProduct(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	product, err := repos.Products.Create(ctx, "Assistant", "", "", model.StatusActive)
	require.NoError(t, err)
	_, err = repos.Projects.Create(ctx, "chatbot", "", product.ID, model.StatusActive, "")
	require.NoError(t, err)

	// Deleting the product leaves the project listable with a placeholder
	// name rather than failing the whole listing.
	require.NoError(t, repos.Products.Delete(ctx, product.ID))

	projects, err := repos.Projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, repo.UnknownProduct, projects[0].ProductName)
}

func TestProjectsUpdateAndDelete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	product, err := repos.Products.Create(ctx, "Assistant", "", "", model.StatusActive)
	require.NoError(t, err)
	project, err := repos.Projects.Create(ctx, "chatbot", "", product.ID, model.StatusActive, "")
	require.NoError(t, err)

	require.NoError(t, repos.Projects.Update(ctx, project.ID, map[string]any{
		"description": "updated",
		"status":      model.StatusInactive,
	}))
	got, err := repos.Projects.Get(ctx, project.ID)
	require.NoError(t, err)
	require.Equal(t, "updated", got.Description)
	require.Equal(t, model.StatusInactive, got.Status)
	require.Equal(t, "chatbot", got.Name)

	err = repos.Projects.Update(ctx, "no-such-project", map[string]any{"status": model.StatusActive})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, repos.Projects.Delete(ctx, project.ID))
	_, err = repos.Projects.Get(ctx, project.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
