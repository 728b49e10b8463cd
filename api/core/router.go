package core

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uninet-app/uninet/api/common"
	handlerAuth "github.com/uninet-app/uninet/api/handler/auth"
	handlerDating "github.com/uninet-app/uninet/api/handler/dating"
	handlerMarket "github.com/uninet-app/uninet/api/handler/market"
	handlerPosts "github.com/uninet-app/uninet/api/handler/posts"
	handlerRequests "github.com/uninet-app/uninet/api/handler/requests"
	handlerUsers "github.com/uninet-app/uninet/api/handler/users"
	"github.com/uninet-app/uninet/api/middleware"
	"github.com/uninet-app/uninet/cache"
	"github.com/uninet-app/uninet/config"
	"github.com/uninet-app/uninet/database"
	"github.com/uninet-app/uninet/internal/auth"
	"github.com/uninet-app/uninet/internal/comments"
	"github.com/uninet-app/uninet/internal/dating"
	"github.com/uninet-app/uninet/internal/market"
	"github.com/uninet-app/uninet/internal/media"
	"github.com/uninet-app/uninet/internal/posts"
	"github.com/uninet-app/uninet/internal/requests"
	"github.com/uninet-app/uninet/internal/users"
	"github.com/uninet-app/uninet/storage"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Config         *config.Config
	DB             database.Provider
	StorageFactory *storage.Factory
	Cache          cache.Cache
	Store          *media.Store
	Uploads        *media.UploadService

	JWTService      *auth.JWTService
	LoginService    *auth.LoginService
	UsersService    *users.Service
	PostsService    *posts.Service
	CommentsService *comments.Service
	DatingService   *dating.Service
	MarketService   *market.Service
	RequestsService *requests.Service

	AuthRateLimiter *middleware.IPRateLimiter
	APIRateLimiter  *middleware.IPRateLimiter
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)
	registerImageRoutes(router, deps)
	registerAPIRoutes(router, deps)
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	router.GET("/health", func(c *gin.Context) {
		checks := gin.H{
			"database": checkDatabaseHealth(deps.DB),
			"cache":    checkCacheHealth(deps.Cache),
			"storage":  checkStorageHealth(deps.StorageFactory),
		}

		httpStatus := http.StatusOK
		for _, result := range checks {
			if s, ok := result.(string); ok && s != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(httpStatus, gin.H{
			"status":  statusWord(httpStatus),
			"version": config.Version,
			"checks":  checks,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		common.RespondSuccess(c, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.GetMetrics())
	})
}

// registerImageRoutes 注册图片公开访问路由
// 统一从存储提供者读取，本地和 MinIO 走同一条路径
func registerImageRoutes(router *gin.Engine, deps *RouterDependencies) {
	pattern := strings.TrimRight(media.PublicPathPrefix, "/") + "/:identifier"
	router.GET(pattern, func(c *gin.Context) {
		identifier := c.Param("identifier")
		if identifier == "" || strings.Contains(identifier, "/") || strings.Contains(identifier, "..") {
			common.RespondError(c, http.StatusBadRequest, "invalid identifier")
			return
		}

		reader, err := deps.Store.Open(c.Request.Context(), identifier)
		if err != nil {
			if storage.IsNotExist(err) {
				common.RespondError(c, http.StatusNotFound, "image not found")
				return
			}
			common.RespondError(c, http.StatusInternalServerError, "failed to read image")
			return
		}
		defer reader.Close()

		c.Header("Content-Type", "image/jpeg")
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Status(http.StatusOK)
		_, _ = io.Copy(c.Writer, reader)
	})
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	authHandler := handlerAuth.NewHandler(deps.LoginService)
	usersHandler := handlerUsers.NewHandler(deps.UsersService)
	postsHandler := handlerPosts.NewHandler(deps.PostsService, deps.CommentsService, deps.UsersService)
	datingHandler := handlerDating.NewHandler(deps.DatingService, deps.Uploads, deps.Config.UploadMaxProfilePhotos)
	marketHandler := handlerMarket.NewHandler(deps.MarketService)
	requestsHandler := handlerRequests.NewHandler(deps.RequestsService)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	})
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.Use(deps.AuthRateLimiter.Middleware())
		{
			authGroup.POST("/telegram", authHandler.TelegramLogin)
		}

		authed := apiGroup.Group("")
		authed.Use(deps.APIRateLimiter.Middleware())
		authed.Use(middleware.Auth(deps.JWTService))
		{
			usersGroup := authed.Group("/users")
			{
				// GET 树里 "me" 和数字 ID 共用 :id 段，handler 内部分流
				usersGroup.GET("/:id", usersHandler.Get)
				usersGroup.PUT("/me", usersHandler.UpdateMe)
			}

			postsGroup := authed.Group("/posts")
			{
				postsGroup.GET("", postsHandler.List)
				postsGroup.POST("", postsHandler.Create)
				postsGroup.GET("/:id", postsHandler.Get)
				postsGroup.DELETE("/:id", postsHandler.Delete)
				postsGroup.POST("/:id/like", postsHandler.ToggleLike)
				postsGroup.GET("/:id/comments", postsHandler.ListComments)
				postsGroup.POST("/:id/comments", postsHandler.CreateComment)
			}

			pollsGroup := authed.Group("/polls")
			{
				pollsGroup.POST("/:id/vote", postsHandler.VotePoll)
			}

			commentsGroup := authed.Group("/comments")
			{
				commentsGroup.DELETE("/:id", postsHandler.DeleteComment)
				commentsGroup.POST("/:id/like", postsHandler.ToggleCommentLike)
			}

			datingGroup := authed.Group("/dating")
			{
				datingGroup.GET("/feed", datingHandler.Feed)
				datingGroup.POST("/like", datingHandler.Like)
				datingGroup.POST("/dislike", datingHandler.Dislike)
				datingGroup.GET("/who-liked", datingHandler.WhoLiked)
				datingGroup.GET("/stats", datingHandler.Stats)
				datingGroup.GET("/matches", datingHandler.Matches)
				datingGroup.PUT("/profile", datingHandler.UpdateProfile)
			}

			marketGroup := authed.Group("/market")
			{
				marketGroup.GET("", marketHandler.List)
				marketGroup.POST("", marketHandler.Create)
				// GET 树里 "favorites" 和数字 ID 共用 :id 段，handler 内部分流
				marketGroup.GET("/:id", marketHandler.Get)
				marketGroup.POST("/:id/favorite", marketHandler.ToggleFavorite)
				marketGroup.PATCH("/:id/status", marketHandler.SetStatus)
				marketGroup.DELETE("/:id", marketHandler.Delete)
			}

			requestsGroup := authed.Group("/requests")
			{
				requestsGroup.GET("", requestsHandler.List)
				requestsGroup.POST("", requestsHandler.Create)
				requestsGroup.POST("/:id/respond", requestsHandler.Respond)
				requestsGroup.GET("/:id/responses", requestsHandler.Responses)
				requestsGroup.POST("/:id/close", requestsHandler.Close)
				requestsGroup.DELETE("/:id", requestsHandler.Delete)
			}
		}
	}
}

func statusWord(httpStatus int) string {
	if httpStatus == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
