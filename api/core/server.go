package core

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/uninet-app/uninet/api/middleware"
	"github.com/uninet-app/uninet/config"
)

// setupRouter 创建 gin 引擎并挂载全部中间件和路由
func setupRouter(deps *RouterDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	router := gin.New()

	// 仅在开发版本时启用 gin 日志
	if config.CommitHash == "n/a" {
		router.Use(gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.SetTrustedProxies(nil)

	// 请求体上限：base64 批次最大为原始字节的 4/3，再按最大批次条数放宽
	maxImages := cfg.UploadMaxItemImages
	if cfg.UploadMaxPostImages > maxImages {
		maxImages = cfg.UploadMaxPostImages
	}
	if cfg.UploadMaxProfilePhotos > maxImages {
		maxImages = cfg.UploadMaxProfilePhotos
	}
	bodyLimit := int64(cfg.UploadMaxFileSizeMB) * int64(maxImages) * 2 << 20
	if bodyLimit < 16<<20 {
		bodyLimit = 16 << 20
	}
	router.Use(middleware.MaxBytesReader(bodyLimit))

	router.Use(middleware.Metrics())

	authRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime)
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		authRateLimiter.StopCleanup()
		apiRateLimiter.StopCleanup()
	}

	deps.AuthRateLimiter = authRateLimiter
	deps.APIRateLimiter = apiRateLimiter

	RegisterRoutes(router, deps)

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(deps *RouterDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, cleanup := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, cleanup
}
