package api

import (
	"net/http"
	"time"

	"herblog/internal/api/handler"
	"herblog/internal/app/service"
	"herblog/internal/common/security"
	"herblog/internal/platform/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	jwt *security.JWT,
	authService *service.AuthService,
	postService *service.PostService,
	commentService *service.CommentService,
	images storage.ImageStore,
	uploadsDir string,
	maxUpload int64,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// JWT Auth Middleware Setup
	// jwtauth.Verifier looks for a token in "Authorization: Bearer T" and puts
	// the parsed claims in context; middleware.Authenticator enforces them on
	// protected groups only.
	r.Use(jwtauth.Verifier(jwt.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Uploaded images are served statically
	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir)))
	r.Get("/uploads/*", uploads.ServeHTTP)

	// API Routes
	r.Route("/api", func(apiRouter chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		apiRouter.Route("/auth", authHandler.RegisterRoutes)

		postHandler := handler.NewPostHandler(postService, images, maxUpload)
		apiRouter.Route("/posts", postHandler.RegisterRoutes)

		commentHandler := handler.NewCommentHandler(commentService)
		apiRouter.Route("/comments", commentHandler.RegisterRoutes)
	})

	return r
}
