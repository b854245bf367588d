package model

import (
	"time"
)

// SettingType is the closed set of value kinds a game setting can hold.
type SettingType string

const (
	SettingTypeNumber  SettingType = "number"
	SettingTypeBoolean SettingType = "boolean"
	SettingTypeTime    SettingType = "time"
	SettingTypeList    SettingType = "list"
)

// Valid reports whether t is one of the known setting types.
func (t SettingType) Valid() bool {
	switch t {
	case SettingTypeNumber, SettingTypeBoolean, SettingTypeTime, SettingTypeList:
		return true
	}
	return false
}

// Setting represents a named, typed game configuration entry.
// List-typed settings own an ordered set of SettingListItem rows and may
// only be active while they have at least one item.
type Setting struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"not null;uniqueIndex" json:"name"`
	Note      string      `gorm:"type:text" json:"note"`
	Type      SettingType `gorm:"type:varchar(20);not null" json:"type"`
	Position  int         `gorm:"default:0" json:"position"`
	IsActive  bool        `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Relationships
	Items []SettingListItem `gorm:"foreignKey:SettingID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// TableName specifies the table name for Setting
func (Setting) TableName() string {
	return "game_settings"
}
