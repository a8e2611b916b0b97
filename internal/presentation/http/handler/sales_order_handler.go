package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/breakretail/backoffice-api/internal/application/service"
	"github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/breakretail/backoffice-api/internal/presentation/http/dto/response"
	"github.com/breakretail/backoffice-api/pkg/pagination"
)

// SalesOrderHandler handles sales order HTTP requests
type SalesOrderHandler struct {
	orderService *service.SalesOrderService
	authService  *service.AuthService
}

// NewSalesOrderHandler creates a new sales order handler
func NewSalesOrderHandler(orderService *service.SalesOrderService, authService *service.AuthService) *SalesOrderHandler {
	return &SalesOrderHandler{orderService: orderService, authService: authService}
}

// List handles listing sales orders
func (h *SalesOrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &repository.SalesOrderFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    page,
			PerPage: perPage,
		},
		SortOrder: c.Query("sort_order"),
	}

	if locationIDStr := c.Query("location_id"); locationIDStr != "" {
		if locationID, err := uuid.Parse(locationIDStr); err == nil {
			params.LocationID = &locationID
		}
	}

	if startDateStr := c.Query("start_date"); startDateStr != "" {
		if startDate, err := time.Parse("2006-01-02", startDateStr); err == nil {
			params.StartDate = &startDate
		}
	}

	if endDateStr := c.Query("end_date"); endDateStr != "" {
		if endDate, err := time.Parse("2006-01-02", endDateStr); err == nil {
			params.EndDate = &endDate
		}
	}

	result, err := h.orderService.ListSalesOrders(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Sales orders retrieved successfully", result)
}

// Create handles submitting a completed sale from a register
func (h *SalesOrderHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		LocationID    uuid.UUID `json:"location_id" binding:"required"`
		PaymentMethod int       `json:"payment_method"`
		Items         []struct {
			ProductID uuid.UUID `json:"product_id" binding:"required"`
			Quantity  int       `json:"quantity" binding:"required,min=1"`
		} `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	// Resolve the cashier's display name for the order audit fields
	user, err := h.authService.GetCurrentUser(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]service.SalesOrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.SalesOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	order, err := h.orderService.CreateSalesOrder(c.Request.Context(), &service.CreateSalesOrderInput{
		LocationID:    req.LocationID,
		PaymentMethod: req.PaymentMethod,
		UserID:        *userID,
		UserName:      user.FullName(),
		Items:         items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sales order created successfully", order)
}

// Get handles getting a single sales order
func (h *SalesOrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid sales order ID")
		return
	}

	order, err := h.orderService.GetSalesOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sales order retrieved successfully", order)
}

// GetByNumber handles looking up a sales order by its receipt number
func (h *SalesOrderHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		response.BadRequest(c, "Order number is required")
		return
	}

	order, err := h.orderService.GetSalesOrderByNumber(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sales order retrieved successfully", order)
}
