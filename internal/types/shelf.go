package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ShelfWantToRead = "want_to_read"
	ShelfReading    = "reading"
	ShelfRead       = "read"
)

type ShelfItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_shelf_user_book,unique;column:user_id" json:"user_id"`
	BookID    uuid.UUID `gorm:"type:uuid;not null;index:idx_shelf_user_book,unique;column:book_id" json:"book_id"`
	Shelf     string    `gorm:"not null;column:shelf" json:"shelf"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ShelfItem) TableName() string {
	return "shelf_item"
}
