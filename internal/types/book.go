package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Book is a catalog entry. Rows are immutable except for the periodic
// rating-stat refresh performed by the external ingestion pipeline.
type Book struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title         string         `gorm:"not null;column:title" json:"title"`
	Authors       datatypes.JSON `gorm:"type:jsonb;column:authors" json:"authors"`
	Genres        datatypes.JSON `gorm:"type:jsonb;column:genres" json:"genres"`
	Description   string         `gorm:"column:description" json:"description"`
	CoverURL      string         `gorm:"column:cover_url" json:"cover_url"`
	PageCount     int            `gorm:"column:page_count" json:"page_count"`
	PublishedDate time.Time      `gorm:"column:published_date" json:"published_date"`
	AverageRating float64        `gorm:"column:average_rating" json:"average_rating"`
	RatingsCount  int            `gorm:"column:ratings_count" json:"ratings_count"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Book) TableName() string {
	return "book"
}
