package router

import (
	"log"

	"github.com/clutch-social/backend/internal/friends"
	"github.com/clutch-social/backend/internal/handlers"
	"github.com/clutch-social/backend/internal/middleware"
	"github.com/clutch-social/backend/internal/repositories"
	"github.com/clutch-social/backend/pkg/config"
	"github.com/clutch-social/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, app *firebase.App, cfg *config.Config) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewFirestoreUserRepository(app.Firestore)
	friendshipRepo := repositories.NewFirestoreFriendshipRepository(app.Firestore)

	friendsService := friends.NewService(userRepo, friendshipRepo, friends.Config{
		PageSize:               cfg.SuggestionPageSize,
		ExcludeIncomingPending: true,
	})

	// --- Unprotected routes for registration ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, app.AuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require a Firebase ID token) ---
	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(app.AuthClient))
	log.Println("Firebase authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo, app.Bucket)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Friendship routes
	friendshipHandler := handlers.NewFriendshipHandler(friendsService)
	friendshipHandler.RegisterFriendshipRoutes(api)
	log.Println("Friendship routes configured.")

	// Suggestion routes
	suggestionHandler := handlers.NewSuggestionHandler(friendsService)
	suggestionHandler.RegisterSuggestionRoutes(api)
	log.Println("Suggestion routes configured.")

	log.Println("All routes configured.")
}
