// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/freshtrace/registry-backend/internal/registry"
	"github.com/freshtrace/registry-backend/internal/services"
	"github.com/freshtrace/registry-backend/internal/utils"
)

// AdminHandler manages the authorized-updater set. The contract enforces
// owner-only access; the handler just relays the caller identity.
type AdminHandler struct {
	registryService *services.RegistryService
}

func NewAdminHandler(registryService *services.RegistryService) *AdminHandler {
	return &AdminHandler{
		registryService: registryService,
	}
}

type addUpdaterRequest struct {
	Identity string `json:"identity" validate:"required,max=255"`
}

// POST /updaters
func (h *AdminHandler) AddAuthorizedUpdater(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req addUpdaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "INVALID_INPUT", "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.registryService.AddAuthorizedUpdater(registry.Identity(req.Identity), caller); err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"identity":   req.Identity,
		"authorized": true,
	})
}

// DELETE /updaters/:identity
func (h *AdminHandler) RemoveAuthorizedUpdater(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	identity := c.Param("identity")
	if err := h.registryService.RemoveAuthorizedUpdater(registry.Identity(identity), caller); err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"identity":   identity,
		"authorized": false,
	})
}

// GET /updaters/:identity
func (h *AdminHandler) GetUpdaterStatus(c *gin.Context) {
	identity := c.Param("identity")

	utils.SuccessResponse(c, gin.H{
		"identity":   identity,
		"authorized": h.registryService.IsAuthorizedUpdater(registry.Identity(identity)),
	})
}
