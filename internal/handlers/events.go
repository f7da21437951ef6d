// internal/handlers/events.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/freshtrace/registry-backend/internal/services"
	"github.com/freshtrace/registry-backend/internal/utils"
)

// EventHandler serves the persisted notification stream. Consumers needing
// freshness history read it from here; the registry keeps only the latest
// score.
type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// GET /events
func (h *EventHandler) GetEvents(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	kind := c.Query("kind")

	events, total, err := h.eventService.ListEvents(kind, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(events, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /products/:id/events
func (h *EventHandler) GetProductEvents(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	events, total, err := h.eventService.ListProductEvents(id, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(events, total, params)
	utils.PaginatedResponse(c, result)
}
