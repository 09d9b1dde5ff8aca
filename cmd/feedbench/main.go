package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/linkup/config"
	"github.com/d60-Lab/linkup/internal/cache"
	"github.com/d60-Lab/linkup/internal/changefeed"
	"github.com/d60-Lab/linkup/internal/feed"
	"github.com/d60-Lab/linkup/internal/model"
	"github.com/d60-Lab/linkup/internal/repository"
	"github.com/d60-Lab/linkup/internal/service"
	"github.com/d60-Lab/linkup/pkg/database"
	"github.com/d60-Lab/linkup/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

func main() {
	cfg := must(config.Load())
	_ = logger.Init("release")
	db := must(database.InitDB(cfg))
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})

	// params
	AUTHORS := envInt("AUTHORS", 50) // followees of the bench viewer
	POSTS := envInt("POSTS", 2000)   // seeded posts across authors
	LOADS := envInt("LOADS", 100)    // LoadMore calls to measure
	LIVE := envInt("LIVE", 200)      // live posts published during the run

	// clean tables for a reproducible run (ok for local bench)
	_ = db.Exec("DELETE FROM outbox").Error
	_ = db.Exec("DELETE FROM posts").Error
	_ = db.Exec("DELETE FROM fans").Error
	_ = db.Exec("DELETE FROM follows").Error
	_ = db.Exec("DELETE FROM notifications").Error
	_ = db.Exec("DELETE FROM users").Error

	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	bus := changefeed.NewBus(rdb)
	dispatcher := changefeed.NewDispatcher(db, bus, 256, 10*time.Millisecond)
	stopDispatcher := dispatcher.Start()
	defer stopDispatcher(context.Background())

	postService := service.NewPostService(db, postRepo, notifRepo)
	profiles := cache.NewProfileCache(userRepo, rdb, 5*time.Minute)

	ctx := context.Background()

	// seed viewer + authors + follow edges
	viewer := model.User{ID: uuid.New().String(), Username: "viewer", Email: "viewer@example.com"}
	_ = db.Create(&viewer).Error
	authors := make([]model.User, AUTHORS)
	for i := range authors {
		id := uuid.New().String()
		authors[i] = model.User{ID: id, Username: "a" + id[:8], Email: id[:8] + "@example.com"}
	}
	_ = db.CreateInBatches(&authors, 500).Error
	for i := range authors {
		_ = followRepo.Create(ctx, viewer.ID, authors[i].ID)
		_ = fanRepo.Create(ctx, authors[i].ID, viewer.ID)
	}

	// seed posts
	for i := 0; i < POSTS; i++ {
		a := authors[i%len(authors)]
		if _, err := postService.Create(ctx, a.ID, fmt.Sprintf("post %d", i), ""); err != nil {
			panic(err)
		}
	}
	// let the dispatcher drain the seed backlog before measuring
	for {
		var pending int64
		_ = db.Model(&model.Outbox{}).Where("status = ?", "pending").Count(&pending).Error
		if pending == 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	manager := feed.NewManager(bus, followRepo, postRepo, profiles, cfg.Feed.PageSize, cfg.Feed.EventBuffer)
	session := must(manager.Open(ctx, viewer.ID))
	defer manager.CloseAll()

	// measure LoadMore
	loadDurations := make([]time.Duration, 0, LOADS)
	for i := 0; i < LOADS; i++ {
		t0 := time.Now()
		hasMore, err := session.LoadMore(ctx)
		if err != nil {
			panic(err)
		}
		loadDurations = append(loadDurations, time.Since(t0))
		if !hasMore {
			break
		}
	}

	// measure live-merge visibility: publish -> post visible in snapshot
	liveDurations := make([]time.Duration, 0, LIVE)
	for i := 0; i < LIVE; i++ {
		a := authors[i%len(authors)]
		t0 := time.Now()
		p := must(postService.Create(ctx, a.ID, fmt.Sprintf("live %d", i), ""))
		for {
			posts, _, err := session.Snapshot(ctx)
			if err != nil {
				panic(err)
			}
			if len(posts) > 0 && posts[0].ID == p.ID {
				break
			}
			time.Sleep(time.Millisecond)
		}
		liveDurations = append(liveDurations, time.Since(t0))
	}

	fmt.Printf("loadMore  n=%d p50=%v p95=%v p99=%v\n",
		len(loadDurations), pct(loadDurations, 0.50), pct(loadDurations, 0.95), pct(loadDurations, 0.99))
	fmt.Printf("liveMerge n=%d p50=%v p95=%v p99=%v\n",
		len(liveDurations), pct(liveDurations, 0.50), pct(liveDurations, 0.95), pct(liveDurations, 0.99))
}
