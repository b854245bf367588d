package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/datalings/onthescales/model"
)

// PlayerService handles the player registry
type PlayerService struct {
	db *gorm.DB
}

// NewPlayerService creates a new player service
func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{db: db}
}

// Create registers a new player. Names are unique with a case-sensitive
// exact match; collisions return ErrDuplicateName.
func (s *PlayerService) Create(name string) (*model.Player, error) {
	var existing model.Player
	err := s.db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateName
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check player name: %w", err)
	}

	player := model.Player{
		Name:     name,
		IsActive: true,
	}

	if err := s.db.Create(&player).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return &player, nil
}

// ListAll returns every player, active or not, ordered by name.
func (s *PlayerService) ListAll() ([]model.Player, error) {
	var players []model.Player
	if err := s.db.Order("name").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch players: %w", err)
	}
	return players, nil
}

// ListActive returns only active players, ordered by name.
func (s *PlayerService) ListActive() ([]model.Player, error) {
	var players []model.Player
	if err := s.db.Where("is_active = ?", true).Order("name").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch active players: %w", err)
	}
	return players, nil
}

// Get fetches one player by id.
func (s *PlayerService) Get(id uint) (*model.Player, error) {
	var player model.Player
	if err := s.db.First(&player, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch player: %w", err)
	}
	return &player, nil
}

// SetActive flips the soft-delete flag. Deactivated players stay in the
// registry so historic game scores keep resolving.
func (s *PlayerService) SetActive(id uint, active bool) (*model.Player, error) {
	player, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(player).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update player status: %w", err)
	}

	return player, nil
}

// Rename changes a player's display name. Returns ErrDuplicateName when
// another player already holds the new name.
func (s *PlayerService) Rename(id uint, newName string) (*model.Player, error) {
	player, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var existing model.Player
	err = s.db.Where("name = ? AND id != ?", newName, id).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateName
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check player name: %w", err)
	}

	if err := s.db.Model(player).Update("name", newName).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to rename player: %w", err)
	}

	return player, nil
}
