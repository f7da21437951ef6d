// internal/handlers/helpers.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/freshtrace/registry-backend/internal/registry"
	"github.com/freshtrace/registry-backend/internal/utils"
)

// respondRegistryError maps the contract's error kinds onto HTTP statuses.
// Every rejection reached this point without mutating state, so the body can
// safely echo the reason.
func respondRegistryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, registry.ErrUnauthorized):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, registry.ErrExpired):
		utils.ConflictResponse(c, "EXPIRED", err.Error())
	case errors.Is(err, registry.ErrInvalidTiming):
		utils.BadRequestResponse(c, "INVALID_TIMING", err.Error(), nil)
	case errors.Is(err, registry.ErrInvalidInput):
		utils.BadRequestResponse(c, "INVALID_INPUT", err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

func productIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, "INVALID_INPUT", "Invalid product ID", nil)
		return 0, false
	}
	return id, true
}

func callerIdentity(c *gin.Context) (registry.Identity, bool) {
	identity, exists := utils.GetIdentityFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return "", false
	}
	return registry.Identity(identity), true
}
