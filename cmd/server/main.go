package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"companion_hub/internal/api"
	"companion_hub/internal/app/service"
	"companion_hub/internal/app/worker"
	"companion_hub/internal/common/security"
	"companion_hub/internal/domain/repository"
	"companion_hub/internal/domain/repository/memory"
	"companion_hub/internal/platform/cache"
	"companion_hub/internal/platform/config"
	"companion_hub/internal/platform/database"
)

type repositories struct {
	users      repository.UserRepository
	posts      repository.PostRepository
	comments   repository.CommentRepository
	references repository.ReferenceRepository
}

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg := config.Load()
	fmt.Println("Configuration loaded.")
	if cfg.JWTKeyIsDefault {
		log.Println("WARN: JWT_SECRET is not set, signing tokens with the development secret")
	}

	// 2. Initialize Storage
	var db *sql.DB
	var repos repositories
	switch cfg.StorageBackend {
	case config.StorageMemory:
		store := memory.NewStore()
		repos = repositories{store.Users(), store.Posts(), store.Comments(), store.References()}
		log.Println("Using in-memory storage; data is lost on restart.")
	case config.StoragePostgres:
		var err error
		db, err = database.Connect(ctx, cfg)
		if err != nil {
			log.Fatalf("Database: %v", err)
		}
		defer database.Close(db)
		repos = repositories{
			users:      repository.NewPgUserRepository(db),
			posts:      repository.NewPgPostRepository(db),
			comments:   repository.NewPgCommentRepository(db),
			references: repository.NewPgReferenceRepository(db),
		}
		fmt.Println("Database connected.")
	default:
		log.Fatalf("Unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	// 3. Initialize Redis (optional)
	rdb, err := cache.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("Redis: %v", err)
	}
	defer cache.CloseRedis(rdb)
	referenceCache := cache.Noop()
	if rdb != nil {
		referenceCache = cache.NewRedisStore(rdb, "companion_hub:")
		fmt.Println("Redis connected.")
	}

	// 4. Initialize Security
	tokens := security.NewTokenManager(cfg.JWTKey, cfg.JWTExp)
	hasher := security.NewPasswordHasher(cfg.BcryptCost)

	// 5. Initialize Services
	policy := service.AccessPolicy{
		RequireAuthForPostDelete: cfg.RequireAuthForPostDelete,
		EnforceOwnership:         cfg.EnforceOwnership,
	}
	authService := service.NewAuthService(repos.users, hasher, tokens)
	postService := service.NewPostService(repos.posts, repos.comments, policy)
	commentService := service.NewCommentService(repos.comments, repos.posts, policy)
	referenceService := service.NewReferenceService(repos.references, referenceCache, cfg.ReferenceCacheTTL)

	// 6. Initialize Cache Warmer (as a goroutine)
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	var warmer *worker.CacheWarmer
	if rdb != nil && cfg.CacheWarmInterval > 0 {
		warmer = worker.NewCacheWarmer(referenceService, cfg.CacheWarmInterval)
		go warmer.Start(workerCtx)
		fmt.Println("Cache warmer started.")
	}

	// 7. Initialize Router & HTTP Server
	opts := api.RouterOptions{CORSAllowedOrigins: cfg.CORSAllowedOrigins}
	if db != nil {
		opts.HealthCheck = db.PingContext
	}
	router := api.NewRouter(tokens, authService, postService, commentService, referenceService, opts)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	if warmer != nil {
		<-warmer.Done()
	}

	log.Println("Server stopped gracefully.")
}
