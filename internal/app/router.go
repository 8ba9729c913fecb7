package app

import (
	"github.com/gin-gonic/gin"

	"github.com/novelshelf/novelshelf-backend/internal/server"
)

func wireRouter(handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:           handlerset.Auth,
		AuthMiddleware:        middlewareset.Auth,
		UserHandler:           handlerset.User,
		BookHandler:           handlerset.Book,
		ShelfHandler:          handlerset.Shelf,
		SocialHandler:         handlerset.Social,
		RecommendationHandler: handlerset.Recommendation,
	})
}
