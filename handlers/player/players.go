package player

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/datalings/onthescales/services"
	"github.com/datalings/onthescales/utils/response"
	"github.com/datalings/onthescales/utils/validation"
)

// PlayerHandler handles player registry requests
type PlayerHandler struct {
	service   *services.PlayerService
	validator *validation.Validator
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(db *gorm.DB) *PlayerHandler {
	return &PlayerHandler{
		service:   services.NewPlayerService(db),
		validator: validation.NewValidator(),
	}
}

// CreatePlayerRequest represents the request body for registering a player
type CreatePlayerRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// RenamePlayerRequest represents the request body for renaming a player
type RenamePlayerRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// SetPlayerStatusRequest represents the request body for (de)activating a player
type SetPlayerStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ListPlayers handles GET /api/v1/players
func (h *PlayerHandler) ListPlayers(c *fiber.Ctx) error {
	var (
		players interface{}
		err     error
	)

	if c.Query("is_active") == "true" {
		players, err = h.service.ListActive()
	} else {
		players, err = h.service.ListAll()
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch players")
	}

	return response.Success(c, players)
}

// GetPlayer handles GET /api/v1/players/:id
func (h *PlayerHandler) GetPlayer(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid player id")
	}

	player, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Player not found")
		}
		return response.InternalServerError(c, "Failed to fetch player")
	}

	return response.Success(c, player)
}

// CreatePlayer handles POST /api/v1/players
func (h *PlayerHandler) CreatePlayer(c *fiber.Ctx) error {
	var req CreatePlayerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	player, err := h.service.Create(req.Name)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateName) {
			return response.Conflict(c, "Player with this name already exists")
		}
		return response.InternalServerError(c, "Failed to create player")
	}

	return response.Created(c, player)
}

// RenamePlayer handles PUT /api/v1/players/:id
func (h *PlayerHandler) RenamePlayer(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid player id")
	}

	var req RenamePlayerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	player, err := h.service.Rename(id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Player not found")
		case errors.Is(err, services.ErrDuplicateName):
			return response.Conflict(c, "Player with this name already exists")
		}
		return response.InternalServerError(c, "Failed to rename player")
	}

	return response.SuccessWithMessage(c, "Player renamed successfully", player)
}

// SetPlayerStatus handles PATCH /api/v1/players/:id/status
func (h *PlayerHandler) SetPlayerStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid player id")
	}

	var req SetPlayerStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	player, err := h.service.SetActive(id, *req.IsActive)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Player not found")
		}
		return response.InternalServerError(c, "Failed to update player status")
	}

	return response.SuccessWithMessage(c, "Player status updated", player)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
