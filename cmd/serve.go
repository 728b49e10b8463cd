package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uninet-app/uninet/api/core"
	"github.com/uninet-app/uninet/cache"
	"github.com/uninet-app/uninet/config"
	"github.com/uninet-app/uninet/database"
	commentsrepo "github.com/uninet-app/uninet/database/repo/comments"
	datingrepo "github.com/uninet-app/uninet/database/repo/dating"
	marketrepo "github.com/uninet-app/uninet/database/repo/market"
	postsrepo "github.com/uninet-app/uninet/database/repo/posts"
	requestsrepo "github.com/uninet-app/uninet/database/repo/requests"
	usersrepo "github.com/uninet-app/uninet/database/repo/users"
	"github.com/uninet-app/uninet/internal/auth"
	"github.com/uninet-app/uninet/internal/comments"
	"github.com/uninet-app/uninet/internal/dating"
	"github.com/uninet-app/uninet/internal/market"
	"github.com/uninet-app/uninet/internal/media"
	"github.com/uninet-app/uninet/internal/posts"
	"github.com/uninet-app/uninet/internal/requests"
	"github.com/uninet-app/uninet/internal/users"
	"github.com/uninet-app/uninet/internal/worker"
	"github.com/uninet-app/uninet/storage"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbFactory, err := database.NewFactory(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := dbFactory.AutoMigrate(); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	storageFactory, err := storage.NewFactory(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("Storage providers available: %v", storageFactory.ListProviders())

	if err := cache.Init(cfg); err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	worker.InitGlobalPool(cfg.GetWorkerCount(), 1000)

	jwtService, err := auth.NewJWTService(cfg.JwtSecret, cfg.JwtExpiresIn)
	if err != nil {
		log.Fatalf("Failed to initialize JWT: %v", err)
	}

	db := dbFactory.GetProvider().DB()
	usersRepo := usersrepo.NewRepository(db)
	postsRepo := postsrepo.NewRepository(db)
	commentsRepo := commentsrepo.NewRepository(db)
	datingRepo := datingrepo.NewRepository(db)
	marketRepo := marketrepo.NewRepository(db)
	requestsRepo := requestsrepo.NewRepository(db)

	store := media.NewStore(storageFactory.GetDefault(), cfg.BaseURL())
	uploads := media.NewUploadService(media.NewCodec(), store, worker.RunWait)

	requestsService := requests.NewService(requestsRepo)

	deps := &core.RouterDependencies{
		Config:         cfg,
		DB:             dbFactory.GetProvider(),
		StorageFactory: storageFactory,
		Cache:          cache.Default(),
		Store:          store,
		Uploads:        uploads,

		JWTService:      jwtService,
		LoginService:    auth.NewLoginService(usersRepo, jwtService, cfg.AuthDevMode),
		UsersService:    users.NewService(usersRepo, uploads, store, cache.Default()),
		PostsService:    posts.NewService(postsRepo, usersRepo, uploads, store, cfg.UploadMaxPostImages),
		CommentsService: comments.NewService(commentsRepo, postsRepo),
		DatingService:   dating.NewService(datingRepo, usersRepo, store, cache.Default()),
		MarketService:   market.NewService(marketRepo, uploads, store, cfg.UploadMaxItemImages),
		RequestsService: requestsService,
	}

	server, cleanup := core.StartServer(deps)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 定期把过期的求助置为过期状态
	sweepStop := make(chan struct{})
	go startRequestSweeper(requestsService, sweepStop)

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	close(sweepStop)

	if cleanup != nil {
		cleanup()
		log.Println("Cleanup tasks finished.")
	}

	worker.StopGlobalPool()
	cache.Close()

	if err := dbFactory.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited successfully")
}

// startRequestSweeper 每隔十分钟扫一遍过期求助
func startRequestSweeper(svc *requests.Service, stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			count, err := svc.SweepExpired(context.Background())
			if err != nil {
				log.Printf("WARN: failed to sweep expired requests: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("Marked %d requests as expired", count)
			}
		case <-stop:
			return
		}
	}
}
