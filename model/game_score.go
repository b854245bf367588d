package model

// GameScore holds one player's score in one game. A player appears at most
// once per game.
type GameScore struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	GameID   uint `gorm:"not null;uniqueIndex:idx_game_player" json:"game_id"`
	PlayerID uint `gorm:"not null;uniqueIndex:idx_game_player" json:"player_id"`
	Score    int  `gorm:"not null" json:"score"`

	// Relationships
	Player Player `json:"player,omitempty"`
}

// TableName specifies the table name for GameScore
func (GameScore) TableName() string {
	return "game_scores"
}
