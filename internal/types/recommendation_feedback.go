package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	FeedbackShown     = "shown"
	FeedbackClicked   = "clicked"
	FeedbackConverted = "converted"
	FeedbackDismissed = "dismissed"
)

// RecommendationFeedback is one funnel row per (user, book, algorithm).
// A later action updates the row instead of appending a duplicate, so a
// book shown then clicked then converted stays a single row with all three
// timestamps set. Rows are never deleted.
type RecommendationFeedback struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_feedback_key,unique;column:user_id" json:"user_id"`
	BookID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_feedback_key,unique;column:book_id" json:"book_id"`
	Algorithm   string         `gorm:"not null;index:idx_feedback_key,unique;index;column:algorithm" json:"algorithm"`
	LastAction  string         `gorm:"not null;column:last_action" json:"last_action"`
	Position    int            `gorm:"column:position" json:"position"`
	Score       float64        `gorm:"column:score" json:"score"`
	Breakdown   datatypes.JSON `gorm:"type:jsonb;column:breakdown" json:"breakdown"`
	ShownAt     *time.Time     `gorm:"column:shown_at" json:"shown_at,omitempty"`
	ClickedAt   *time.Time     `gorm:"column:clicked_at" json:"clicked_at,omitempty"`
	ConvertedAt *time.Time     `gorm:"column:converted_at" json:"converted_at,omitempty"`
	DismissedAt *time.Time     `gorm:"column:dismissed_at" json:"dismissed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (RecommendationFeedback) TableName() string {
	return "recommendation_feedback"
}
