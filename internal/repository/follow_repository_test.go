package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/pkg/database"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestFollowCreateIsIdempotent(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "u1", "u2"))
	require.NoError(t, repo.Create(ctx, "u1", "u2"))

	n, err := repo.CountFollowing(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestListFolloweeIDs(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	ids, err := repo.ListFolloweeIDs(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, repo.Create(ctx, "u1", "u2"))
	require.NoError(t, repo.Create(ctx, "u1", "u3"))
	require.NoError(t, repo.Create(ctx, "u9", "u2")) // 他人的关注不混入

	ids, err = repo.ListFolloweeIDs(ctx, "u1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"u2", "u3"}, ids)

	require.NoError(t, repo.Delete(ctx, "u1", "u2"))
	ids, err = repo.ListFolloweeIDs(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"u3"}, ids)
}

func TestFollowExistsAndCounts(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "u1", "u2"))
	require.NoError(t, repo.Create(ctx, "u3", "u2"))

	ok, err := repo.Exists(ctx, "u1", "u2")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.Exists(ctx, "u2", "u1")
	require.NoError(t, err)
	require.False(t, ok)

	followers, err := repo.CountFollowers(ctx, "u2")
	require.NoError(t, err)
	require.EqualValues(t, 2, followers)
	following, err := repo.CountFollowing(ctx, "u2")
	require.NoError(t, err)
	require.Zero(t, following)
}
