package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/datalings/onthescales/model"
)

// SettingService handles the setting catalog and its list items
type SettingService struct {
	db *gorm.DB
}

// NewSettingService creates a new setting service
func NewSettingService(db *gorm.DB) *SettingService {
	return &SettingService{db: db}
}

// CreateSettingInput carries the fields for a new catalog entry.
type CreateSettingInput struct {
	Name     string
	Note     string
	Type     model.SettingType
	Position int
}

// Create adds a catalog entry. List-typed settings are always persisted
// inactive: they start with zero items and cannot be used until at least
// one item exists.
func (s *SettingService) Create(in CreateSettingInput) (*model.Setting, error) {
	if !in.Type.Valid() {
		return nil, ErrValidationFailed
	}

	var existing model.Setting
	err := s.db.Where("name = ?", in.Name).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateName
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check setting name: %w", err)
	}

	setting := model.Setting{
		Name:     in.Name,
		Note:     in.Note,
		Type:     in.Type,
		Position: in.Position,
		IsActive: in.Type != model.SettingTypeList,
	}

	if err := s.db.Create(&setting).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create setting: %w", err)
	}

	return &setting, nil
}

// ListAll returns every setting ordered by position then name.
func (s *SettingService) ListAll() ([]model.Setting, error) {
	var settings []model.Setting
	if err := s.db.Order("position, name").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return settings, nil
}

// ListActive returns only active settings ordered by position then name.
func (s *SettingService) ListActive() ([]model.Setting, error) {
	var settings []model.Setting
	if err := s.db.Where("is_active = ?", true).Order("position, name").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch active settings: %w", err)
	}
	return settings, nil
}

// Get fetches one setting by id.
func (s *SettingService) Get(id uint) (*model.Setting, error) {
	var setting model.Setting
	if err := s.db.First(&setting, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch setting: %w", err)
	}
	return &setting, nil
}

// Items returns a setting's list items ordered by order index then id.
func (s *SettingService) Items(settingID uint) ([]model.SettingListItem, error) {
	if _, err := s.Get(settingID); err != nil {
		return nil, err
	}

	var items []model.SettingListItem
	if err := s.db.Where("setting_id = ?", settingID).
		Order("order_index, id").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch list items: %w", err)
	}
	return items, nil
}

// AddItem appends one allowed value to a list-typed setting. The (setting,
// value) pair is unique; collisions return ErrDuplicateValue.
func (s *SettingService) AddItem(settingID uint, value string, orderIndex int) (*model.SettingListItem, error) {
	setting, err := s.Get(settingID)
	if err != nil {
		return nil, err
	}
	if setting.Type != model.SettingTypeList {
		return nil, ErrValidationFailed
	}

	var existing model.SettingListItem
	err = s.db.Where("setting_id = ? AND value = ?", settingID, value).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateValue
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check list item: %w", err)
	}

	item := model.SettingListItem{
		SettingID:  settingID,
		Value:      value,
		OrderIndex: orderIndex,
	}

	if err := s.db.Create(&item).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateValue
		}
		return nil, fmt.Errorf("failed to create list item: %w", err)
	}

	return &item, nil
}

// RenameItem changes an item's value text. The item keeps its id and order
// index so values referenced by past games stay intact.
func (s *SettingService) RenameItem(itemID uint, newValue string) (*model.SettingListItem, error) {
	var item model.SettingListItem
	if err := s.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch list item: %w", err)
	}

	var existing model.SettingListItem
	err := s.db.Where("setting_id = ? AND value = ? AND id != ?", item.SettingID, newValue, itemID).
		First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateValue
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check list item: %w", err)
	}

	if err := s.db.Model(&item).Update("value", newValue).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateValue
		}
		return nil, fmt.Errorf("failed to rename list item: %w", err)
	}

	return &item, nil
}

// UpdateSettingInput carries the updatable fields of a catalog entry. Nil
// pointers leave the current value untouched.
type UpdateSettingInput struct {
	Name     *string
	Note     *string
	Type     *model.SettingType
	Position *int
}

// Update edits a catalog entry. Name collisions with a different setting
// return ErrDuplicateName. Switching a setting to the list type deactivates
// it while it has no items, the same way Create does.
func (s *SettingService) Update(id uint, in UpdateSettingInput) (*model.Setting, error) {
	setting, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}

	if in.Name != nil && *in.Name != setting.Name {
		var existing model.Setting
		err := s.db.Where("name = ? AND id != ?", *in.Name, id).First(&existing).Error
		if err == nil {
			return nil, ErrDuplicateName
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check setting name: %w", err)
		}
		updates["name"] = *in.Name
	}
	if in.Note != nil {
		updates["note"] = *in.Note
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, ErrValidationFailed
		}
		if *in.Type == model.SettingTypeList && setting.Type != model.SettingTypeList {
			var count int64
			if err := s.db.Model(&model.SettingListItem{}).
				Where("setting_id = ?", id).
				Count(&count).Error; err != nil {
				return nil, fmt.Errorf("failed to count list items: %w", err)
			}
			if count == 0 {
				updates["is_active"] = false
			}
		}
		updates["type"] = *in.Type
	}
	if in.Position != nil {
		updates["position"] = *in.Position
	}

	if len(updates) == 0 {
		return setting, nil
	}

	if err := s.db.Model(setting).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}

	return setting, nil
}

// SetActive flips a setting's active flag. Activating a list setting with
// zero items returns ErrActivationBlocked.
func (s *SettingService) SetActive(id uint, active bool) (*model.Setting, error) {
	setting, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if active && setting.Type == model.SettingTypeList {
		var count int64
		if err := s.db.Model(&model.SettingListItem{}).
			Where("setting_id = ?", id).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count list items: %w", err)
		}
		if count == 0 {
			return nil, ErrActivationBlocked
		}
	}

	if err := s.db.Model(setting).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update setting status: %w", err)
	}

	return setting, nil
}
