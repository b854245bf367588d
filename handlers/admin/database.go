package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/datalings/onthescales/database"
	"github.com/datalings/onthescales/utils/response"
)

// DatabaseHandler handles destructive maintenance requests
type DatabaseHandler struct {
	store database.Storage
}

// NewDatabaseHandler creates a new database maintenance handler
func NewDatabaseHandler(store database.Storage) *DatabaseHandler {
	return &DatabaseHandler{store: store}
}

// NukeDatabase handles POST /api/v1/admin/database/nuke. It drops every
// application table and rebuilds the empty schema from scratch.
func (h *DatabaseHandler) NukeDatabase(c *fiber.Ctx) error {
	if err := h.store.Nuke(); err != nil {
		return response.InternalServerError(c, "Failed to drop tables")
	}
	if err := h.store.Init(); err != nil {
		return response.InternalServerError(c, "Failed to rebuild schema")
	}

	return response.SuccessWithMessage(c, "Database rebuilt from scratch", nil)
}
