package handler

import (
	"github.com/d60-Lab/linkup/internal/cache"
	"github.com/d60-Lab/linkup/internal/changefeed"
	"github.com/d60-Lab/linkup/internal/feed"
	"github.com/d60-Lab/linkup/internal/repository"
	"github.com/d60-Lab/linkup/internal/service"
)

// Handler 聚合全部 HTTP 处理器依赖
type Handler struct {
	relService  service.RelationshipService
	postService service.PostService
	userRepo    repository.UserRepository
	notifRepo   repository.NotificationRepository
	feedManager *feed.Manager
	bus         *changefeed.Bus
	profiles    *cache.ProfileCache
}

func New(relService service.RelationshipService, postService service.PostService,
	userRepo repository.UserRepository, notifRepo repository.NotificationRepository,
	feedManager *feed.Manager, bus *changefeed.Bus, profiles *cache.ProfileCache) *Handler {
	return &Handler{
		relService:  relService,
		postService: postService,
		userRepo:    userRepo,
		notifRepo:   notifRepo,
		feedManager: feedManager,
		bus:         bus,
		profiles:    profiles,
	}
}
