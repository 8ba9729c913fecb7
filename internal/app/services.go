package app

import (
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/services"
)

type Services struct {
	Auth           services.AuthService
	User           services.UserService
	Book           services.BookService
	Shelf          services.ShelfService
	Social         services.SocialService
	Recommendation services.RecommendationService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")

	var experiment *recommendation.Experiment
	if cfg.ExperimentFile != "" {
		loaded, err := recommendation.LoadExperimentFile(cfg.ExperimentFile)
		if err != nil {
			log.Warn("Experiment file unusable, serving control to everyone", "error", err)
		} else {
			experiment = loaded
		}
	}
	registry := recommendation.NewRegistry(log, recommendation.DefaultConfig(), experiment)

	generator := recommendation.NewGenerator(log, reposet.Book, clients.SocialGraph, reposet.History, reposet.User, cfg.StrategyTimeout)
	friendAgg := recommendation.NewFriendAggregator(log, clients.SocialGraph, reposet.Book, reposet.Prefs, reposet.User, cfg.StrategyTimeout)

	var cacheStore services.RecommendationCacheStore
	var staleMarker services.CacheStaleMarker
	if clients.RecCache != nil {
		cacheStore = clients.RecCache
		staleMarker = clients.RecCache
	}

	return Services{
		Auth:   services.NewAuthService(db, log, reposet.User, reposet.UserToken, reposet.Prefs),
		User:   services.NewUserService(db, log, reposet.User, reposet.Prefs),
		Book:   services.NewBookService(db, log, reposet.Book, reposet.Activity, clients.SocialGraph, staleMarker),
		Shelf:  services.NewShelfService(db, log, reposet.Shelf, reposet.Book, clients.SocialGraph, staleMarker),
		Social: services.NewSocialService(db, log, reposet.Follow, reposet.User, clients.SocialGraph, staleMarker),
		Recommendation: services.NewRecommendationService(
			db, log, registry, generator, friendAgg,
			reposet.Prefs, reposet.History, reposet.Shelf, reposet.Feedback, cacheStore,
		),
	}
}
