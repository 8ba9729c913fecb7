package types

import (
	"time"

	"github.com/google/uuid"
)

// Follow is the relational mirror of the FOLLOWS edge kept in the social
// graph store. The recommendation pipeline reads the graph; this row exists
// so follows survive a graph rebuild.
type Follow struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FollowerID uuid.UUID `gorm:"type:uuid;not null;index:idx_follow_pair,unique;column:follower_id" json:"follower_id"`
	FolloweeID uuid.UUID `gorm:"type:uuid;not null;index:idx_follow_pair,unique;column:followee_id" json:"followee_id"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Follow) TableName() string {
	return "follow"
}
