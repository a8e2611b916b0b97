package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/breakretail/backoffice-api/internal/application/service"
	"github.com/breakretail/backoffice-api/internal/presentation/http/dto/response"
)

// LocationHandler handles store location and stock HTTP requests
type LocationHandler struct {
	locationService *service.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationService *service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// List handles listing all store locations
func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.locationService.ListLocations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Locations retrieved successfully", locations)
}

// Create handles creating a store location
func (h *LocationHandler) Create(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required,min=2,max=255"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	location, err := h.locationService.CreateLocation(c.Request.Context(), req.Name, req.Address)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Location created successfully", location)
}

// Get handles getting a single location
func (h *LocationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid location ID")
		return
	}

	location, err := h.locationService.GetLocation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Location retrieved successfully", location)
}

// Update handles updating a location
func (h *LocationHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid location ID")
		return
	}

	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	location, err := h.locationService.UpdateLocation(c.Request.Context(), id, req.Name, req.Address)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Location updated successfully", location)
}

// Delete handles deleting a location
func (h *LocationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid location ID")
		return
	}

	if err := h.locationService.DeleteLocation(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Location deleted successfully", nil)
}

// ListStock handles listing the stock rows for a location
func (h *LocationHandler) ListStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid location ID")
		return
	}

	stocks, err := h.locationService.ListStock(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock retrieved successfully", stocks)
}

// AdjustStock handles manual stock adjustments (receiving, audits, shrinkage)
func (h *LocationHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid location ID")
		return
	}

	var req struct {
		ProductID    uuid.UUID `json:"product_id" binding:"required"`
		Delta        int       `json:"delta" binding:"required"`
		ReorderLevel *int      `json:"reorder_level" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	stock, err := h.locationService.AdjustStock(c.Request.Context(), &service.AdjustStockInput{
		LocationID:   id,
		ProductID:    req.ProductID,
		Delta:        req.Delta,
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock adjusted successfully", stock)
}

// GetLowStock handles listing the stock rows at or below their reorder level
func (h *LocationHandler) GetLowStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid location ID")
		return
	}

	stocks, err := h.locationService.GetLowStock(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Low stock retrieved successfully", stocks)
}
