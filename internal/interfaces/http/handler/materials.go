package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/wms/backend/internal/application/inventory"
)

// MaterialHandler handles the material catalog endpoints
type MaterialHandler struct {
	BaseHandler
	catalog *inventoryapp.CatalogService
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(catalog *inventoryapp.CatalogService) *MaterialHandler {
	return &MaterialHandler{catalog: catalog}
}

// ReturnableRequest toggles return eligibility for a material
type ReturnableRequest struct {
	Returnable *bool `json:"returnable" binding:"required"`
}

// Register adds a material to the catalog
func (h *MaterialHandler) Register(c *gin.Context) {
	var req inventoryapp.RegisterMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.catalog.RegisterMaterial(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns one material by ID
func (h *MaterialHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	resp, err := h.catalog.GetMaterial(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetReturnable toggles whether a material may appear on return lines
func (h *MaterialHandler) SetReturnable(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	var req ReturnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.catalog.SetReturnable(c.Request.Context(), id, *req.Returnable)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Balance reports the ledger quantity for a material, optionally scoped to a
// location via the location_id query parameter
func (h *MaterialHandler) Balance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	var locationID *uuid.UUID
	if raw := c.Query("location_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid location ID format")
			return
		}
		locationID = &parsed
	}

	resp, err := h.catalog.GetBalance(c.Request.Context(), id, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetBalance records a stock-count result, overwriting the ledger balance for
// a material at one location
func (h *MaterialHandler) SetBalance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user could not be determined")
		return
	}

	var req inventoryapp.SetStockBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.catalog.SetStockBalance(c.Request.Context(), id, req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
