package app

import (
	"github.com/novelshelf/novelshelf-backend/internal/handlers"
	"github.com/novelshelf/novelshelf-backend/internal/logger"
)

type Handlers struct {
	Auth           *handlers.AuthHandler
	User           *handlers.UserHandler
	Book           *handlers.BookHandler
	Shelf          *handlers.ShelfHandler
	Social         *handlers.SocialHandler
	Recommendation *handlers.RecommendationHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:           handlers.NewAuthHandler(serviceset.Auth),
		User:           handlers.NewUserHandler(serviceset.User),
		Book:           handlers.NewBookHandler(serviceset.Book),
		Shelf:          handlers.NewShelfHandler(serviceset.Shelf),
		Social:         handlers.NewSocialHandler(serviceset.Social),
		Recommendation: handlers.NewRecommendationHandler(serviceset.Recommendation),
	}
}
