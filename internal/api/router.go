package api

import (
	"context"
	"net/http"
	"time"

	"companion_hub/internal/api/handler"
	"companion_hub/internal/api/middleware"
	"companion_hub/internal/app/service"
	"companion_hub/internal/common"
	"companion_hub/internal/common/security"
	"companion_hub/internal/domain/model"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	CORSAllowedOrigins []string
	// HealthCheck backs GET /health; nil always reports healthy.
	HealthCheck func(ctx context.Context) error
}

func NewRouter(
	tokens *security.TokenManager,
	authService *service.AuthService,
	postService *service.PostService,
	commentService *service.CommentService,
	referenceService *service.ReferenceService,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Parses "Authorization: <scheme> <token>" into the context for every
	// request; only routes behind middleware.Authenticator enforce it.
	r.Use(middleware.Verifier(tokens))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Backend API is running..."))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if opts.HealthCheck != nil {
			if err := opts.HealthCheck(r.Context()); err != nil {
				common.RespondWithError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(authService)
	r.Group(authHandler.RegisterRoutes)

	// Reference data (public, read-only)
	r.Route("/characters", handler.NewReferenceHandler(referenceService, model.KindCharacter).RegisterRoutes)
	r.Route("/weapons", handler.NewReferenceHandler(referenceService, model.KindWeapon).RegisterRoutes)

	// Posts and their comment threads
	postHandler := handler.NewPostHandler(postService, commentService)
	r.Route("/posts", postHandler.RegisterRoutes)

	// Comment routes (authenticated)
	commentHandler := handler.NewCommentHandler(commentService)
	r.Route("/comments", commentHandler.RegisterRoutes)

	return r
}
