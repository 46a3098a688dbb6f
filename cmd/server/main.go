package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herblog/internal/api"
	"herblog/internal/app/service"
	"herblog/internal/common/security"
	"herblog/internal/domain/repository"
	"herblog/internal/platform/cache"
	"herblog/internal/platform/config"
	"herblog/internal/platform/database"
	"herblog/internal/platform/storage"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	jwt := security.NewJWT(config.AppConfig.JWTKey, config.AppConfig.JWTExp)
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis post-listing cache
	listCache := cache.Connect()
	defer listCache.Close()
	fmt.Println("Redis connected.")

	// 5. Initialize Image Store
	images, err := storage.NewLocalImageStore(config.AppConfig.UploadDir)
	if err != nil {
		log.Fatalf("Could not initialize image store: %v", err)
	}

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	postRepo := repository.NewPgPostRepository(database.DB)
	commentRepo := repository.NewPgCommentRepository(database.DB)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, jwt)
	postService := service.NewPostService(postRepo, listCache)
	commentService := service.NewCommentService(commentRepo, postRepo, userRepo)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(jwt, authService, postService, commentService,
		images, config.AppConfig.UploadDir, config.AppConfig.MaxUploadBytes)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
