package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/model"
)

func seedRepoUser(t *testing.T, db *gorm.DB, name string) string {
	t.Helper()
	id := uuid.New().String()
	require.NoError(t, db.Create(&model.User{ID: id, Username: name, Email: name + "@example.com"}).Error)
	return id
}

func seedRepoPost(t *testing.T, repo PostRepository, authorID, body string, at time.Time) string {
	t.Helper()
	id := uuid.New().String()
	require.NoError(t, repo.Create(context.Background(), nil, &model.Post{
		ID: id, AuthorID: authorID, Body: body, CreatedAt: at, UpdatedAt: at,
	}))
	return id
}

func TestFetchFeedOrderingAndLimit(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	a := seedRepoUser(t, db, "alice")
	b := seedRepoUser(t, db, "bob")
	c := seedRepoUser(t, db, "carol")

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		author := a
		if i%2 == 1 {
			author = b
		}
		ids = append(ids, seedRepoPost(t, repo, author, fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Minute)))
	}
	seedRepoPost(t, repo, c, "not followed", base.Add(time.Hour))

	got, err := repo.FetchFeed(ctx, 3, []string{a, b})
	require.NoError(t, err)
	require.Len(t, got, 3)
	// 倒序：最新在前，且不含未关注作者
	require.Equal(t, ids[4], got[0].ID)
	require.Equal(t, ids[3], got[1].ID)
	require.Equal(t, ids[2], got[2].ID)

	// Preload 带出作者资料
	require.NotNil(t, got[0].Author)
	require.Equal(t, "alice", got[0].Author.Username)

	// limit 超过总量时全量返回
	got, err = repo.FetchFeed(ctx, 100, []string{a, b})
	require.NoError(t, err)
	require.Len(t, got, 5)

	// 空作者集直接返回空
	got, err = repo.FetchFeed(ctx, 10, nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPostUpdateOnlyTouchesBodyAndFile(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	a := seedRepoUser(t, db, "alice")
	created := time.Now().Add(-time.Hour).Truncate(time.Second)
	id := seedRepoPost(t, repo, a, "original", created)

	require.NoError(t, repo.Update(ctx, nil, id, "edited", "new.jpg"))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "edited", got.Body)
	require.Equal(t, "new.jpg", got.File)
	require.Equal(t, a, got.AuthorID)
	require.WithinDuration(t, created, got.CreatedAt, time.Second)
}

func TestPostDelete(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	a := seedRepoUser(t, db, "alice")
	id := seedRepoPost(t, repo, a, "bye", time.Now())

	require.NoError(t, repo.Delete(ctx, nil, id))
	_, err := repo.GetByID(ctx, id)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListByAuthorPagination(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	a := seedRepoUser(t, db, "alice")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedRepoPost(t, repo, a, fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	page1, err := repo.ListByAuthor(ctx, a, 0, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	page2, err := repo.ListByAuthor(ctx, a, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotEqual(t, page1[0].ID, page2[0].ID)
	require.True(t, page1[0].CreatedAt.After(page2[0].CreatedAt))
}
