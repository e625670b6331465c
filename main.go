package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filebox/config"
	"filebox/database"
	"filebox/handlers"
	"filebox/logger"
	"filebox/middleware"
	"filebox/repositories"
	"filebox/services"
	"filebox/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	logger.Infof("starting filebox")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Infof("database migration completed (%s)", cfg.Database.Driver)

	redisClient, err := database.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Infof("redis not configured, login throttling disabled")
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	repoContainer := repositories.NewGormRepositories(db, redisClient).BuildContainer()
	serviceContainer := services.NewContainer(repoContainer, blobs, cfg, nil)

	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           setupRouter(cfg, serviceContainer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server listening on http://%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		logger.Infof("storing blobs in s3 bucket %s", cfg.S3.Bucket)
		return storage.NewS3Store(ctx, cfg.S3)
	default:
		logger.Infof("storing blobs under %s", cfg.Storage.BasePath)
		return storage.NewLocalStore(cfg.Storage.BasePath)
	}
}

func setupRouter(cfg *config.Config, container *services.Container) *gin.Engine {
	handlers.SetServices(container)

	r := gin.New()
	r.MaxMultipartMemory = cfg.Server.MaxMultipartMemory
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	setupRoutes(r, cfg, container.Gate)
	return r
}

func setupRoutes(r *gin.Engine, cfg *config.Config, gate services.AuthGate) {
	api := r.Group("/api")

	api.GET("/health", handlers.HealthCheck)

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(gate))
	{
		protected.GET("/auth/verify", handlers.Verify)
		protected.POST("/auth/logout", handlers.Logout)

		protected.POST("/upload", limitBody(cfg.Storage.MaxFileSize), handlers.UploadFile)
		protected.GET("/files", handlers.ListFiles)
		protected.GET("/files/:id", handlers.DownloadFile)
		protected.DELETE("/files/:id", handlers.DeleteFile)
		protected.PUT("/files/:id/rename", handlers.RenameFile)
	}
}

// limitBody caps upload request bodies. The slack leaves room for the
// multipart framing around a file of exactly max bytes.
func limitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max+1<<20)
		}
		c.Next()
	}
}
