package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/novelshelf/novelshelf-backend/internal/handlers"
	"github.com/novelshelf/novelshelf-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler           *handlers.AuthHandler
	AuthMiddleware        *middleware.AuthMiddleware
	UserHandler           *handlers.UserHandler
	BookHandler           *handlers.BookHandler
	ShelfHandler          *handlers.ShelfHandler
	SocialHandler         *handlers.SocialHandler
	RecommendationHandler *handlers.RecommendationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("novelshelf-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)

	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.PATCH("/user", cfg.UserHandler.UpdateProfile)
	protected.GET("/user/preferences", cfg.UserHandler.GetPreferences)
	protected.PUT("/user/preferences", cfg.UserHandler.UpdatePreferences)
	protected.GET("/users/:id", cfg.UserHandler.GetByID)

	// Social graph
	protected.POST("/users/:id/follow", cfg.SocialHandler.Follow)
	protected.DELETE("/users/:id/follow", cfg.SocialHandler.Unfollow)
	protected.GET("/user/following", cfg.SocialHandler.Following)
	protected.GET("/user/followers", cfg.SocialHandler.Followers)

	// Catalog
	protected.POST("/books", cfg.BookHandler.Create)
	protected.GET("/books/search", cfg.BookHandler.Search)
	protected.GET("/books/:id", cfg.BookHandler.GetByID)
	protected.POST("/books/:id/like", cfg.BookHandler.Like)
	protected.DELETE("/books/:id/like", cfg.BookHandler.Unlike)
	protected.PUT("/books/:id/rating", cfg.BookHandler.Rate)

	// Shelves
	protected.PUT("/books/:id/shelf", cfg.ShelfHandler.Shelve)
	protected.DELETE("/books/:id/shelf", cfg.ShelfHandler.Unshelve)
	protected.GET("/shelf", cfg.ShelfHandler.List)

	// Recommendations
	protected.GET("/recommendations/home", cfg.RecommendationHandler.Home)
	protected.GET("/recommendations/friends", cfg.RecommendationHandler.Friends)
	protected.POST("/recommendations/feedback", cfg.RecommendationHandler.Feedback)
	protected.GET("/recommendations/metrics", cfg.RecommendationHandler.Metrics)

	return router
}
