package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/cache"
	"github.com/d60-Lab/linkup/internal/model"
	"github.com/d60-Lab/linkup/internal/repository"
	"github.com/d60-Lab/linkup/internal/service"
	"github.com/d60-Lab/linkup/pkg/database"
	"github.com/d60-Lab/linkup/pkg/response"
)

type handlerEnv struct {
	h        *Handler
	db       *gorm.DB
	profiles *cache.ProfileCache
}

func setupHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)

	relService := service.NewRelationshipService(followRepo, fanRepo, nil)
	postService := service.NewPostService(db, postRepo, notifRepo)
	profiles := cache.NewProfileCache(userRepo, rdb, time.Minute)

	h := New(relService, postService, userRepo, notifRepo, nil, nil, profiles)
	return &handlerEnv{h: h, db: db, profiles: profiles}
}

func (e *handlerEnv) seedUser(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.User{ID: id, Username: name, Email: name + "@example.com"}).Error)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestUpdateProfileInvalidatesSnapshot(t *testing.T) {
	env := setupHandlerEnv(t)
	ctx := context.Background()
	env.seedUser(t, "u1", "alice")

	// 快照先进缓存
	snap, err := env.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "alice", snap.Username)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPut, "/api/v1/users/me", `{"username":"alice2","bio":"hello","image":"b.png"}`)
	c.Set("viewer_id", "u1")
	env.h.UpdateProfile(c)
	require.Equal(t, http.StatusOK, w.Code)

	// 缓存已失效，下一次读取回源拿到新资料
	snap, err = env.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "alice2", snap.Username)
	require.Equal(t, "b.png", snap.Image)
}

func TestUpdateProfileRejectsEmptyUsername(t *testing.T) {
	env := setupHandlerEnv(t)
	env.seedUser(t, "u1", "alice")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPut, "/api/v1/users/me", `{"bio":"hello"}`)
	c.Set("viewer_id", "u1")
	env.h.UpdateProfile(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFollowingReturnsProfiles(t *testing.T) {
	env := setupHandlerEnv(t)
	ctx := context.Background()
	env.seedUser(t, "u1", "alice")
	env.seedUser(t, "u2", "bob")
	env.seedUser(t, "u3", "carol")
	require.NoError(t, env.h.relService.Follow(ctx, "u1", "u2"))
	require.NoError(t, env.h.relService.Follow(ctx, "u1", "u3"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/relations/u1/following", nil)
	c.Params = gin.Params{{Key: "user_id", Value: "u1"}}
	env.h.ListFollowing(c)
	require.Equal(t, http.StatusOK, w.Code)

	res := decodeResponse(t, w)
	data, ok := res.Data.(map[string]interface{})
	require.True(t, ok)
	list, ok := data["list"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 2)
	names := make([]string, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		require.True(t, ok)
		names = append(names, entry["username"].(string))
	}
	require.ElementsMatch(t, []string{"bob", "carol"}, names)
}
