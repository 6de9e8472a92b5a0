package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListRooms handles GET /v1/rooms and returns the room catalog.
func (h *PriceFormHandler) ListRooms(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"rooms": h.Rooms.Rooms()})
}
