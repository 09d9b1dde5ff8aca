package router

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/linkup/config"
	_ "github.com/d60-Lab/linkup/docs"
	"github.com/d60-Lab/linkup/internal/api/handler"
	"github.com/d60-Lab/linkup/internal/api/middleware"
	"github.com/d60-Lab/linkup/pkg/logger"
)

// New 组装 gin 引擎与全部路由
func New(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	// userid: 业务侧用户/帖子标识统一是 uuid v4
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterAlias("userid", "uuid4")
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(accessLog())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("linkup"))
	r.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	v1 := r.Group("/api/v1", middleware.Auth(cfg.JWT.Secret))
	{
		relations := v1.Group("/relations")
		{
			relations.POST("/follow", h.Follow)
			relations.POST("/unfollow", h.Unfollow)
			relations.GET("/:user_id/status", h.FollowStatus)
			relations.GET("/:user_id/counts", h.FollowCounts)
			relations.GET("/:user_id/following", h.ListFollowing)
			relations.GET("/:user_id/fans", h.ListFans)
		}

		posts := v1.Group("/posts")
		{
			posts.POST("", h.CreatePost)
			posts.PUT("/:id", h.UpdatePost)
			posts.DELETE("/:id", h.DeletePost)
		}

		users := v1.Group("/users")
		{
			users.PUT("/me", h.UpdateProfile)
			users.GET("/search", h.SearchUsers)
			users.GET("/:user_id", h.GetUser)
			users.GET("/:user_id/posts", h.ListUserPosts)
		}

		feed := v1.Group("/feed")
		{
			feed.POST("/sessions", h.OpenFeedSession)
			feed.GET("/sessions/:id", h.FeedSnapshot)
			feed.POST("/sessions/:id/more", h.FeedLoadMore)
			feed.DELETE("/sessions/:id", h.CloseFeedSession)
		}

		v1.GET("/notifications", h.ListNotifications)
		v1.GET("/realtime", h.Realtime)
	}

	return r
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
