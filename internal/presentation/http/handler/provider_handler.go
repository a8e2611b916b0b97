package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/breakretail/backoffice-api/internal/application/service"
	"github.com/breakretail/backoffice-api/internal/presentation/http/dto/response"
)

// ProviderHandler handles merchandise supplier HTTP requests
type ProviderHandler struct {
	providerService *service.ProviderService
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(providerService *service.ProviderService) *ProviderHandler {
	return &ProviderHandler{providerService: providerService}
}

type providerRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=255"`
	ContactName string `json:"contact_name" binding:"max=255"`
	Phone       string `json:"phone" binding:"max=50"`
	Email       string `json:"email" binding:"omitempty,email"`
	Address     string `json:"address"`
}

func (r *providerRequest) toInput() *service.ProviderInput {
	return &service.ProviderInput{
		Name:        r.Name,
		ContactName: r.ContactName,
		Phone:       r.Phone,
		Email:       r.Email,
		Address:     r.Address,
	}
}

// List handles listing all providers
func (h *ProviderHandler) List(c *gin.Context) {
	providers, err := h.providerService.ListProviders(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Providers retrieved successfully", providers)
}

// Create handles registering a provider
func (h *ProviderHandler) Create(c *gin.Context) {
	var req providerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	provider, err := h.providerService.CreateProvider(c.Request.Context(), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Provider created successfully", provider)
}

// Get handles getting a single provider
func (h *ProviderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid provider ID")
		return
	}

	provider, err := h.providerService.GetProvider(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Provider retrieved successfully", provider)
}

// Update handles replacing a provider's contact record
func (h *ProviderHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid provider ID")
		return
	}

	var req providerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	provider, err := h.providerService.UpdateProvider(c.Request.Context(), id, req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Provider updated successfully", provider)
}

// Delete handles deleting a provider
func (h *ProviderHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid provider ID")
		return
	}

	if err := h.providerService.DeleteProvider(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Provider deleted successfully", nil)
}
