package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PreferenceProfile holds a user's taste profile. Created at onboarding and
// continuously updated by the external signal-ingestion path; the
// recommendation pipeline only reads it.
type PreferenceProfile struct {
	UserID               uuid.UUID      `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	TopGenres            datatypes.JSON `gorm:"type:jsonb;column:top_genres" json:"top_genres"`
	FavoriteAuthors      datatypes.JSON `gorm:"type:jsonb;column:favorite_authors" json:"favorite_authors"`
	ImplicitGenreWeights datatypes.JSON `gorm:"type:jsonb;column:implicit_genre_weights" json:"implicit_genre_weights"`
	ReadingPace          float64        `gorm:"column:reading_pace" json:"reading_pace"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (PreferenceProfile) TableName() string {
	return "preference_profile"
}
