package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/datalings/onthescales/model"
	"github.com/datalings/onthescales/utils/cache"
)

// GameDateLayout is the textual date form used at the API boundary.
const GameDateLayout = "02.01.2006"

// ParseGameDate parses a dd.mm.yyyy date string.
func ParseGameDate(s string) (time.Time, error) {
	t, err := time.Parse(GameDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// FormatGameDate renders a stored date back into its boundary form.
func FormatGameDate(t time.Time) string {
	return t.Format(GameDateLayout)
}

// GameService handles the game ledger
type GameService struct {
	db    *gorm.DB
	cache *cache.RedisCache // nil disables statistics cache invalidation
}

// NewGameService creates a new game service
func NewGameService(db *gorm.DB, statsCache *cache.RedisCache) *GameService {
	return &GameService{db: db, cache: statsCache}
}

// GameInput carries everything needed to record or update a game.
type GameInput struct {
	Date          time.Time
	PlayerScores  map[uint]int
	SettingValues map[uint]string
	Notes         string
}

// GameSummary is one row of the game history listing.
type GameSummary struct {
	ID          uint   `json:"id"`
	GameDate    string `json:"game_date"`
	Notes       string `json:"notes"`
	PlayerCount int    `json:"player_count"`
}

// GameScoreDetail is one player's score inside a game aggregate.
type GameScoreDetail struct {
	PlayerID   uint   `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}

// GameSettingDetail is one setting value inside a game aggregate, rendered
// back to its textual form.
type GameSettingDetail struct {
	SettingID   uint              `json:"setting_id"`
	SettingName string            `json:"setting_name"`
	SettingType model.SettingType `json:"setting_type"`
	Value       string            `json:"value"`
}

// GameDetails is the full aggregate view of one game.
type GameDetails struct {
	ID       uint                `json:"id"`
	GameDate string              `json:"game_date"`
	Notes    string              `json:"notes"`
	Scores   []GameScoreDetail   `json:"scores"`
	Settings []GameSettingDetail `json:"settings"`
}

// Record writes one game with its scores and setting values in a single
// transaction. A game needs at least one non-zero score; every referenced
// player and setting must exist.
func (s *GameService) Record(in GameInput) (*model.Game, error) {
	if err := validateScores(in.PlayerScores); err != nil {
		return nil, err
	}

	var game model.Game

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkPlayersExist(tx, in.PlayerScores); err != nil {
			return err
		}
		settings, err := fetchSettings(tx, in.SettingValues)
		if err != nil {
			return err
		}

		game = model.Game{
			GameDate: in.Date,
			Notes:    in.Notes,
		}
		if err := tx.Create(&game).Error; err != nil {
			return fmt.Errorf("failed to create game: %w", err)
		}

		for playerID, score := range in.PlayerScores {
			row := model.GameScore{
				GameID:   game.ID,
				PlayerID: playerID,
				Score:    score,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create score row: %w", err)
			}
		}

		for settingID, raw := range in.SettingValues {
			row, err := buildSettingValue(tx, game.ID, settings[settingID], raw)
			if err != nil {
				return err
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to create setting value row: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.clearStatsCache()
	return &game, nil
}

// Update replaces a game's date and notes and re-synchronizes its score and
// value rows inside one transaction: existing rows are updated, missing ones
// inserted, stale ones removed. Applying the same input twice is a no-op.
func (s *GameService) Update(gameID uint, in GameInput) (*model.Game, error) {
	if err := validateScores(in.PlayerScores); err != nil {
		return nil, err
	}

	var game model.Game

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&game, gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch game: %w", err)
		}

		if err := checkPlayersExist(tx, in.PlayerScores); err != nil {
			return err
		}
		settings, err := fetchSettings(tx, in.SettingValues)
		if err != nil {
			return err
		}

		if err := tx.Model(&game).Updates(map[string]interface{}{
			"game_date": in.Date,
			"notes":     in.Notes,
		}).Error; err != nil {
			return fmt.Errorf("failed to update game: %w", err)
		}

		if err := syncScores(tx, gameID, in.PlayerScores); err != nil {
			return err
		}
		if err := syncSettingValues(tx, gameID, settings, in.SettingValues); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.clearStatsCache()
	return &game, nil
}

// Delete removes a game and all its dependent score/value rows atomically.
func (s *GameService) Delete(gameID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var game model.Game
		if err := tx.First(&game, gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch game: %w", err)
		}

		// Dependent rows first; the schema cascade covers engines that
		// enforce it, the explicit deletes cover the rest.
		if err := tx.Where("game_id = ?", gameID).Delete(&model.GameSettingValue{}).Error; err != nil {
			return fmt.Errorf("failed to delete setting values: %w", err)
		}
		if err := tx.Where("game_id = ?", gameID).Delete(&model.GameScore{}).Error; err != nil {
			return fmt.Errorf("failed to delete scores: %w", err)
		}
		if err := tx.Delete(&game).Error; err != nil {
			return fmt.Errorf("failed to delete game: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.clearStatsCache()
	return nil
}

// Details joins one game with its scores (player names, best score first)
// and setting values (catalog order, rendered values).
func (s *GameService) Details(gameID uint) (*GameDetails, error) {
	var game model.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch game: %w", err)
	}

	var scores []model.GameScore
	if err := s.db.Preload("Player").
		Where("game_id = ?", gameID).
		Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch scores: %w", err)
	}

	var values []model.GameSettingValue
	if err := s.db.Preload("Setting").
		Where("game_id = ?", gameID).
		Find(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch setting values: %w", err)
	}

	details := &GameDetails{
		ID:       game.ID,
		GameDate: FormatGameDate(game.GameDate),
		Notes:    game.Notes,
		Scores:   make([]GameScoreDetail, 0, len(scores)),
		Settings: make([]GameSettingDetail, 0, len(values)),
	}

	for _, sc := range scores {
		details.Scores = append(details.Scores, GameScoreDetail{
			PlayerID:   sc.PlayerID,
			PlayerName: sc.Player.Name,
			Score:      sc.Score,
		})
	}
	sort.Slice(details.Scores, func(i, j int) bool {
		if details.Scores[i].Score != details.Scores[j].Score {
			return details.Scores[i].Score > details.Scores[j].Score
		}
		return details.Scores[i].PlayerName < details.Scores[j].PlayerName
	})

	sort.Slice(values, func(i, j int) bool {
		if values[i].Setting.Position != values[j].Setting.Position {
			return values[i].Setting.Position < values[j].Setting.Position
		}
		return values[i].SettingID < values[j].SettingID
	})
	for _, v := range values {
		details.Settings = append(details.Settings, GameSettingDetail{
			SettingID:   v.SettingID,
			SettingName: v.Setting.Name,
			SettingType: v.Setting.Type,
			Value:       renderSettingValue(v),
		})
	}

	return details, nil
}

// ListSummaries returns the game history, newest first.
func (s *GameService) ListSummaries() ([]GameSummary, error) {
	type row struct {
		ID          uint
		GameDate    time.Time
		Notes       string
		PlayerCount int
	}

	var rows []row
	err := s.db.Model(&model.Game{}).
		Select("games.id, games.game_date, games.notes, COUNT(game_scores.id) AS player_count").
		Joins("LEFT JOIN game_scores ON game_scores.game_id = games.id").
		Group("games.id, games.game_date, games.notes").
		Order("games.game_date DESC, games.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch games: %w", err)
	}

	summaries := make([]GameSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, GameSummary{
			ID:          r.ID,
			GameDate:    FormatGameDate(r.GameDate),
			Notes:       r.Notes,
			PlayerCount: r.PlayerCount,
		})
	}
	return summaries, nil
}

func (s *GameService) clearStatsCache() {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.cache.Delete(ctx, statsDashboardCacheKey, statsSummaryCacheKey)
}

// validateScores rejects games where every score is zero.
func validateScores(scores map[uint]int) error {
	for _, score := range scores {
		if score != 0 {
			return nil
		}
	}
	return ErrValidationFailed
}

func checkPlayersExist(tx *gorm.DB, scores map[uint]int) error {
	if len(scores) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	var count int64
	if err := tx.Model(&model.Player{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check players: %w", err)
	}
	if count != int64(len(ids)) {
		return ErrNotFound
	}
	return nil
}

func fetchSettings(tx *gorm.DB, values map[uint]string) (map[uint]*model.Setting, error) {
	result := make(map[uint]*model.Setting, len(values))
	if len(values) == 0 {
		return result, nil
	}
	ids := make([]uint, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	var settings []model.Setting
	if err := tx.Where("id IN ?", ids).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	if len(settings) != len(ids) {
		return nil, ErrNotFound
	}
	for i := range settings {
		result[settings[i].ID] = &settings[i]
	}
	return result, nil
}

// buildSettingValue routes a raw textual value into the column matching the
// setting's declared type.
func buildSettingValue(tx *gorm.DB, gameID uint, setting *model.Setting, raw string) (*model.GameSettingValue, error) {
	row := &model.GameSettingValue{
		GameID:    gameID,
		SettingID: setting.ID,
	}
	if err := assignSettingValue(tx, row, setting, raw); err != nil {
		return nil, err
	}
	return row, nil
}

func assignSettingValue(tx *gorm.DB, row *model.GameSettingValue, setting *model.Setting, raw string) error {
	raw = strings.TrimSpace(raw)

	// Reset all columns so re-assignment on update never leaves two populated.
	row.ValueText = nil
	row.ValueNumber = nil
	row.ValueBoolean = nil
	row.ValueTimeMinutes = nil

	switch setting.Type {
	case model.SettingTypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ErrValidationFailed
		}
		row.ValueNumber = &n

	case model.SettingTypeBoolean:
		b, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return ErrValidationFailed
		}
		row.ValueBoolean = &b

	case model.SettingTypeTime:
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 1 {
			return ErrValidationFailed
		}
		row.ValueTimeMinutes = &minutes

	case model.SettingTypeList:
		var count int64
		if err := tx.Model(&model.SettingListItem{}).
			Where("setting_id = ? AND value = ?", setting.ID, raw).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check list item: %w", err)
		}
		if count == 0 {
			return ErrValidationFailed
		}
		value := raw
		row.ValueText = &value

	default:
		return ErrValidationFailed
	}

	return nil
}

// renderSettingValue turns a stored value row back into text, the inverse
// of assignSettingValue.
func renderSettingValue(v model.GameSettingValue) string {
	switch v.Setting.Type {
	case model.SettingTypeNumber:
		if v.ValueNumber != nil {
			return strconv.FormatFloat(*v.ValueNumber, 'f', -1, 64)
		}
	case model.SettingTypeBoolean:
		if v.ValueBoolean != nil {
			if *v.ValueBoolean {
				return "True"
			}
			return "False"
		}
	case model.SettingTypeTime:
		if v.ValueTimeMinutes != nil {
			return strconv.Itoa(*v.ValueTimeMinutes)
		}
	case model.SettingTypeList:
		if v.ValueText != nil {
			return *v.ValueText
		}
	}
	return ""
}

func syncScores(tx *gorm.DB, gameID uint, scores map[uint]int) error {
	var existing []model.GameScore
	if err := tx.Where("game_id = ?", gameID).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to fetch score rows: %w", err)
	}

	seen := make(map[uint]bool, len(existing))
	for i := range existing {
		row := &existing[i]
		score, ok := scores[row.PlayerID]
		if !ok {
			if err := tx.Delete(row).Error; err != nil {
				return fmt.Errorf("failed to delete stale score row: %w", err)
			}
			continue
		}
		seen[row.PlayerID] = true
		if row.Score != score {
			if err := tx.Model(row).Update("score", score).Error; err != nil {
				return fmt.Errorf("failed to update score row: %w", err)
			}
		}
	}

	for playerID, score := range scores {
		if seen[playerID] {
			continue
		}
		row := model.GameScore{GameID: gameID, PlayerID: playerID, Score: score}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create score row: %w", err)
		}
	}

	return nil
}

func syncSettingValues(tx *gorm.DB, gameID uint, settings map[uint]*model.Setting, values map[uint]string) error {
	var existing []model.GameSettingValue
	if err := tx.Where("game_id = ?", gameID).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to fetch value rows: %w", err)
	}

	seen := make(map[uint]bool, len(existing))
	for i := range existing {
		row := &existing[i]
		raw, ok := values[row.SettingID]
		if !ok {
			if err := tx.Delete(row).Error; err != nil {
				return fmt.Errorf("failed to delete stale value row: %w", err)
			}
			continue
		}
		seen[row.SettingID] = true
		if err := assignSettingValue(tx, row, settings[row.SettingID], raw); err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("failed to update value row: %w", err)
		}
	}

	for settingID, raw := range values {
		if seen[settingID] {
			continue
		}
		row, err := buildSettingValue(tx, gameID, settings[settingID], raw)
		if err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to create value row: %w", err)
		}
	}

	return nil
}
