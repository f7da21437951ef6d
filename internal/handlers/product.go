// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/freshtrace/registry-backend/internal/services"
	"github.com/freshtrace/registry-backend/internal/utils"
)

type ProductHandler struct {
	registryService *services.RegistryService
}

func NewProductHandler(registryService *services.RegistryService) *ProductHandler {
	return &ProductHandler{
		registryService: registryService,
	}
}

// POST /products
func (h *ProductHandler) RegisterProduct(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req services.RegisterProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "INVALID_INPUT", "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	id, err := h.registryService.RegisterProduct(caller, &req)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"product_id": id,
	})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	product, err := h.registryService.GetProductInfo(id)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// GET /products/:id/history
func (h *ProductHandler) GetTransferHistory(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	history, err := h.registryService.GetTransferHistory(id)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": id,
		"transfers":  history,
	})
}

// GET /products/:id/expired
func (h *ProductHandler) IsProductExpired(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	expired, err := h.registryService.IsProductExpired(id)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": id,
		"expired":    expired,
	})
}

// POST /products/:id/transfer
func (h *ProductHandler) TransferProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req services.TransferProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "INVALID_INPUT", "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.registryService.TransferProduct(id, caller, &req); err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": id,
		"new_owner":  req.NewOwner,
	})
}

// PUT /products/:id/freshness
func (h *ProductHandler) UpdateFreshness(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req services.UpdateFreshnessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "INVALID_INPUT", "Invalid request body", err.Error())
		return
	}

	if err := h.registryService.UpdateFreshness(id, caller, &req); err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": id,
		"score":      req.Score,
	})
}

// GET /stats/registry
func (h *ProductHandler) GetRegistryStats(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"total_products": h.registryService.TotalProducts(),
	})
}
