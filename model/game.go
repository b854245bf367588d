package model

import (
	"time"
)

// Game is a single recorded play session. Scores and setting values are
// owned rows and cascade away when the game is deleted.
type Game struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GameDate  time.Time `gorm:"type:date;not null" json:"game_date"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Scores        []GameScore        `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"scores,omitempty"`
	SettingValues []GameSettingValue `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"setting_values,omitempty"`
}

// TableName specifies the table name for Game
func (Game) TableName() string {
	return "games"
}
