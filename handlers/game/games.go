package game

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/datalings/onthescales/services"
	"github.com/datalings/onthescales/utils/cache"
	"github.com/datalings/onthescales/utils/response"
	"github.com/datalings/onthescales/utils/validation"
)

// GameHandler handles game ledger requests
type GameHandler struct {
	service   *services.GameService
	validator *validation.Validator
}

// NewGameHandler creates a new game handler
func NewGameHandler(db *gorm.DB, statsCache *cache.RedisCache) *GameHandler {
	return &GameHandler{
		service:   services.NewGameService(db, statsCache),
		validator: validation.NewValidator(),
	}
}

// GameRequest represents the request body for recording or updating a game.
// Score and setting maps are keyed by the stringified player/setting id,
// setting values arrive as text and are routed by the setting's type.
type GameRequest struct {
	Date          string            `json:"date" validate:"required"`
	Notes         string            `json:"notes" validate:"max=2000"`
	PlayerScores  map[string]int    `json:"player_scores" validate:"required,min=1"`
	SettingValues map[string]string `json:"setting_values"`
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(c *fiber.Ctx) error {
	summaries, err := h.service.ListSummaries()
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch games")
	}
	return response.Success(c, summaries)
}

// GetGame handles GET /api/v1/games/:id
func (h *GameHandler) GetGame(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid game id")
	}

	details, err := h.service.Details(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Game not found")
		}
		return response.InternalServerError(c, "Failed to fetch game")
	}

	return response.Success(c, details)
}

// RecordGame handles POST /api/v1/games
func (h *GameHandler) RecordGame(c *fiber.Ctx) error {
	in, err := h.parseGameRequest(c)
	if err != nil {
		return err
	}

	game, err := h.service.Record(*in)
	if err != nil {
		return translateLedgerError(c, err, "Failed to record game")
	}

	return response.Created(c, game)
}

// UpdateGame handles PUT /api/v1/games/:id
func (h *GameHandler) UpdateGame(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid game id")
	}

	in, err := h.parseGameRequest(c)
	if err != nil {
		return err
	}

	game, err := h.service.Update(id, *in)
	if err != nil {
		return translateLedgerError(c, err, "Failed to update game")
	}

	return response.SuccessWithMessage(c, "Game updated successfully", game)
}

// DeleteGame handles DELETE /api/v1/games/:id
func (h *GameHandler) DeleteGame(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid game id")
	}

	if err := h.service.Delete(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Game not found")
		}
		return response.InternalServerError(c, "Failed to delete game")
	}

	return response.NoContent(c)
}

// parseGameRequest reads and validates the shared record/update payload.
// Returned errors are already written fiber responses.
func (h *GameHandler) parseGameRequest(c *fiber.Ctx) (*services.GameInput, error) {
	var req GameRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, response.BadRequest(c, "Invalid request body")
	}

	req.Notes = validation.SanitizeString(req.Notes)
	if err := h.validator.ValidateStruct(req); err != nil {
		return nil, response.ValidationError(c, err)
	}

	date, err := services.ParseGameDate(req.Date)
	if err != nil {
		return nil, response.BadRequest(c, "Date must be in dd.mm.yyyy format")
	}

	scores := make(map[uint]int, len(req.PlayerScores))
	for key, score := range req.PlayerScores {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, response.BadRequest(c, "Invalid player id in scores")
		}
		scores[uint(id)] = score
	}

	values := make(map[uint]string, len(req.SettingValues))
	for key, value := range req.SettingValues {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, response.BadRequest(c, "Invalid setting id in values")
		}
		values[uint(id)] = value
	}

	return &services.GameInput{
		Date:          date,
		PlayerScores:  scores,
		SettingValues: values,
		Notes:         req.Notes,
	}, nil
}

func translateLedgerError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Referenced record not found")
	case errors.Is(err, services.ErrValidationFailed):
		return response.ValidationError(c, errors.New("at least one player needs a non-zero score and every value must match its setting type"))
	case errors.Is(err, services.ErrInvalidDateFormat):
		return response.BadRequest(c, "Date must be in dd.mm.yyyy format")
	}
	return response.InternalServerError(c, fallback)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
