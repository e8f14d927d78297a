package repo_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"promptadmin/internal/keyval/badgerstore"
	"promptadmin/internal/repo"
)

func newTestRepos(t *testing.T) *repo.Repos {
	t.Helper()
	store, err := badgerstore.New(badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return repo.New(store, zap.NewNop())
}
