package types

import (
	"time"

	"github.com/google/uuid"
)

type BookLike struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_like_user_book,unique;column:user_id" json:"user_id"`
	BookID    uuid.UUID `gorm:"type:uuid;not null;index:idx_like_user_book,unique;column:book_id" json:"book_id"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (BookLike) TableName() string {
	return "book_like"
}

type BookRating struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_rating_user_book,unique;column:user_id" json:"user_id"`
	BookID    uuid.UUID `gorm:"type:uuid;not null;index:idx_rating_user_book,unique;column:book_id" json:"book_id"`
	Rating    float64   `gorm:"not null;column:rating" json:"rating"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (BookRating) TableName() string {
	return "book_rating"
}
