package model

import (
	"time"
)

// Player represents a registered player. Players are never hard-deleted;
// IsActive is flipped off instead so past game scores keep their reference.
type Player struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Scores []GameScore `gorm:"foreignKey:PlayerID" json:"scores,omitempty"`
}

// TableName specifies the table name for Player
func (Player) TableName() string {
	return "players"
}
