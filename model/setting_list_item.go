package model

import (
	"time"
)

// SettingListItem is one allowed value of a list-typed setting. Items keep
// their identity forever: renames change Value but never ID or OrderIndex,
// so values recorded in past games stay resolvable.
type SettingListItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SettingID  uint      `gorm:"not null;uniqueIndex:idx_setting_item_value" json:"setting_id"`
	Value      string    `gorm:"not null;uniqueIndex:idx_setting_item_value" json:"value"`
	OrderIndex int       `gorm:"default:0" json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for SettingListItem
func (SettingListItem) TableName() string {
	return "game_setting_list_items"
}
