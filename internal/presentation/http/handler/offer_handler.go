package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/breakretail/backoffice-api/internal/application/service"
	"github.com/breakretail/backoffice-api/internal/presentation/http/dto/response"
)

// OfferHandler handles offer catalog HTTP requests
type OfferHandler struct {
	offerService *service.OfferService
}

// NewOfferHandler creates a new offer handler
func NewOfferHandler(offerService *service.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

type offerRequest struct {
	Name          string          `json:"name" binding:"required,min=2,max=255"`
	Description   string          `json:"description"`
	DiscountType  int             `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Requirements  []struct {
		ProductID uuid.UUID `json:"product_id" binding:"required"`
		Quantity  int       `json:"quantity" binding:"required,min=1"`
	} `json:"requirements" binding:"required"`
}

func (r *offerRequest) toInput() *service.OfferInput {
	requirements := make([]service.OfferRequirementInput, len(r.Requirements))
	for i, req := range r.Requirements {
		requirements[i] = service.OfferRequirementInput{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
	}
	return &service.OfferInput{
		Name:          r.Name,
		Description:   r.Description,
		DiscountType:  r.DiscountType,
		DiscountValue: r.DiscountValue,
		Requirements:  requirements,
	}
}

// List handles listing the whole offer catalog
func (h *OfferHandler) List(c *gin.Context) {
	offers, err := h.offerService.ListOffers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Offers retrieved successfully", offers)
}

// ListActive handles listing the offers currently applied to orders
func (h *OfferHandler) ListActive(c *gin.Context) {
	offers, err := h.offerService.ActiveOffers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Active offers retrieved successfully", offers)
}

// Create handles creating an offer
func (h *OfferHandler) Create(c *gin.Context) {
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	offer, err := h.offerService.CreateOffer(c.Request.Context(), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Offer created successfully", offer)
}

// Get handles getting a single offer
func (h *OfferHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid offer ID")
		return
	}

	offer, err := h.offerService.GetOffer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Offer retrieved successfully", offer)
}

// Update handles replacing the whole offer definition
func (h *OfferHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid offer ID")
		return
	}

	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	offer, err := h.offerService.UpdateOffer(c.Request.Context(), id, req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Offer updated successfully", offer)
}

// SetActive handles activating or deactivating an offer
func (h *OfferHandler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid offer ID")
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	offer, err := h.offerService.SetOfferActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Offer updated successfully", offer)
}

// Delete handles deleting an offer
func (h *OfferHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid offer ID")
		return
	}

	if err := h.offerService.DeleteOffer(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Offer deleted successfully", nil)
}
