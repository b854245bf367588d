package setting

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/datalings/onthescales/model"
	"github.com/datalings/onthescales/services"
	"github.com/datalings/onthescales/utils/response"
	"github.com/datalings/onthescales/utils/validation"
)

// SettingHandler handles setting catalog requests
type SettingHandler struct {
	service   *services.SettingService
	validator *validation.Validator
}

// NewSettingHandler creates a new setting handler
func NewSettingHandler(db *gorm.DB) *SettingHandler {
	return &SettingHandler{
		service:   services.NewSettingService(db),
		validator: validation.NewValidator(),
	}
}

// CreateSettingRequest represents the request body for creating a setting
type CreateSettingRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Note     string `json:"note" validate:"max=2000"`
	Type     string `json:"type" validate:"required,oneof=number boolean time list"`
	Position int    `json:"position" validate:"gte=0"`
}

// UpdateSettingRequest represents the request body for updating a setting.
// Absent fields keep their current values.
type UpdateSettingRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Note     *string `json:"note" validate:"omitempty,max=2000"`
	Type     *string `json:"type" validate:"omitempty,oneof=number boolean time list"`
	Position *int    `json:"position" validate:"omitempty,gte=0"`
}

// SetSettingStatusRequest represents the request body for (de)activating a setting
type SetSettingStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// AddItemRequest represents the request body for adding a list item
type AddItemRequest struct {
	Value      string `json:"value" validate:"required,min=1,max=255"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
}

// RenameItemRequest represents the request body for renaming a list item
type RenameItemRequest struct {
	Value string `json:"value" validate:"required,min=1,max=255"`
}

// ListSettings handles GET /api/v1/settings
func (h *SettingHandler) ListSettings(c *fiber.Ctx) error {
	var (
		settings interface{}
		err      error
	)

	if c.Query("is_active") == "true" {
		settings, err = h.service.ListActive()
	} else {
		settings, err = h.service.ListAll()
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch settings")
	}

	return response.Success(c, settings)
}

// GetSetting handles GET /api/v1/settings/:id
func (h *SettingHandler) GetSetting(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid setting id")
	}

	setting, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Setting not found")
		}
		return response.InternalServerError(c, "Failed to fetch setting")
	}

	return response.Success(c, setting)
}

// CreateSetting handles POST /api/v1/settings
func (h *SettingHandler) CreateSetting(c *fiber.Ctx) error {
	var req CreateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Name = validation.SanitizeString(req.Name)
	req.Note = validation.SanitizeString(req.Note)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	setting, err := h.service.Create(services.CreateSettingInput{
		Name:     req.Name,
		Note:     req.Note,
		Type:     model.SettingType(req.Type),
		Position: req.Position,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicateName) {
			return response.Conflict(c, "Setting with this name already exists")
		}
		return response.InternalServerError(c, "Failed to create setting")
	}

	return response.Created(c, setting)
}

// UpdateSetting handles PUT /api/v1/settings/:id
func (h *SettingHandler) UpdateSetting(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid setting id")
	}

	var req UpdateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	in := services.UpdateSettingInput{
		Note:     req.Note,
		Position: req.Position,
	}
	if req.Name != nil {
		name := validation.SanitizeString(*req.Name)
		in.Name = &name
	}
	if req.Type != nil {
		t := model.SettingType(*req.Type)
		in.Type = &t
	}

	setting, err := h.service.Update(id, in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Setting not found")
		case errors.Is(err, services.ErrDuplicateName):
			return response.Conflict(c, "Setting with this name already exists")
		case errors.Is(err, services.ErrValidationFailed):
			return response.BadRequest(c, "Unknown setting type")
		}
		return response.InternalServerError(c, "Failed to update setting")
	}

	return response.SuccessWithMessage(c, "Setting updated successfully", setting)
}

// SetSettingStatus handles PATCH /api/v1/settings/:id/status
func (h *SettingHandler) SetSettingStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid setting id")
	}

	var req SetSettingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	setting, err := h.service.SetActive(id, *req.IsActive)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Setting not found")
		case errors.Is(err, services.ErrActivationBlocked):
			return response.Conflict(c, "List setting needs at least one item before activation")
		}
		return response.InternalServerError(c, "Failed to update setting status")
	}

	return response.SuccessWithMessage(c, "Setting status updated", setting)
}

// ListItems handles GET /api/v1/settings/:id/items
func (h *SettingHandler) ListItems(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid setting id")
	}

	items, err := h.service.Items(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Setting not found")
		}
		return response.InternalServerError(c, "Failed to fetch list items")
	}

	return response.Success(c, items)
}

// AddItem handles POST /api/v1/settings/:id/items
func (h *SettingHandler) AddItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid setting id")
	}

	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Value = validation.SanitizeString(req.Value)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	item, err := h.service.AddItem(id, req.Value, req.OrderIndex)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Setting not found")
		case errors.Is(err, services.ErrDuplicateValue):
			return response.Conflict(c, "Item with this value already exists for the setting")
		case errors.Is(err, services.ErrValidationFailed):
			return response.BadRequest(c, "Items can only be added to list settings")
		}
		return response.InternalServerError(c, "Failed to add list item")
	}

	return response.Created(c, item)
}

// RenameItem handles PUT /api/v1/settings/items/:itemID
func (h *SettingHandler) RenameItem(c *fiber.Ctx) error {
	itemID, err := parseID(c, "itemID")
	if err != nil {
		return response.BadRequest(c, "Invalid item id")
	}

	var req RenameItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Value = validation.SanitizeString(req.Value)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	item, err := h.service.RenameItem(itemID, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "List item not found")
		case errors.Is(err, services.ErrDuplicateValue):
			return response.Conflict(c, "Item with this value already exists for the setting")
		}
		return response.InternalServerError(c, "Failed to rename list item")
	}

	return response.SuccessWithMessage(c, "List item renamed successfully", item)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
