package app

import (
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/repos"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Book      repos.BookRepo
	Prefs     repos.PreferenceProfileRepo
	Shelf     repos.ShelfRepo
	Activity  repos.BookActivityRepo
	History   repos.ReadingHistoryRepo
	Follow    repos.FollowRepo
	Feedback  repos.RecommendationFeedbackRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	shelfRepo := repos.NewShelfRepo(db, log)
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),
		Book:      repos.NewBookRepo(db, log),
		Prefs:     repos.NewPreferenceProfileRepo(db, log),
		Shelf:     shelfRepo,
		Activity:  repos.NewBookActivityRepo(db, log),
		History:   repos.NewReadingHistoryRepo(db, shelfRepo, log),
		Follow:    repos.NewFollowRepo(db, log),
		Feedback:  repos.NewRecommendationFeedbackRepo(db, log),
	}
}
