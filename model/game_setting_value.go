package model

// GameSettingValue stores one setting's value for one game. Exactly one of
// the value columns is populated, chosen by the owning setting's type:
// list -> ValueText, number -> ValueNumber, boolean -> ValueBoolean,
// time -> ValueTimeMinutes.
type GameSettingValue struct {
	ID               uint     `gorm:"primaryKey" json:"id"`
	GameID           uint     `gorm:"not null;uniqueIndex:idx_game_setting" json:"game_id"`
	SettingID        uint     `gorm:"not null;uniqueIndex:idx_game_setting" json:"setting_id"`
	ValueText        *string  `gorm:"type:text" json:"value_text,omitempty"`
	ValueNumber      *float64 `json:"value_number,omitempty"`
	ValueBoolean     *bool    `json:"value_boolean,omitempty"`
	ValueTimeMinutes *int     `json:"value_time_minutes,omitempty"`

	// Relationships
	Setting Setting `json:"setting,omitempty"`
}

// TableName specifies the table name for GameSettingValue
func (GameSettingValue) TableName() string {
	return "game_setting_values"
}
