package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/internal/domain/enum"
	"github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/breakretail/backoffice-api/internal/infrastructure/fiscal"
	"github.com/breakretail/backoffice-api/pkg/apperror"
	"github.com/breakretail/backoffice-api/pkg/pagination"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FiscalAuthorizer obtains an authorization code for a tax-inclusive total
type FiscalAuthorizer interface {
	Authorize(ctx context.Context, totalAmount decimal.Decimal, invoiceDate time.Time) (*fiscal.Authorization, error)
}

// ActiveOfferSource provides the offers eligible for discount matching
type ActiveOfferSource interface {
	ActiveOffers(ctx context.Context) ([]entity.Offer, error)
}

// StockEventPublisher broadcasts stock level changes to interested consumers
type StockEventPublisher interface {
	PublishStockChanged(ctx context.Context, locationID, productID uuid.UUID, quantity int) error
}

// SalesOrderService handles point-of-sale order submission. Orders are priced,
// discounted, fiscally authorized when the payment method requires it, and
// persisted together with their stock movements.
type SalesOrderService struct {
	orderRepo   repository.SalesOrderRepository
	productRepo repository.ProductRepository
	stockRepo   repository.LocationStockRepository
	offers      ActiveOfferSource
	authorizer  FiscalAuthorizer
	events      StockEventPublisher
	logger      zerolog.Logger

	// The fiscal authority rejects any invoice number other than exactly
	// last+1, so authorization exchanges must not interleave.
	fiscalMu sync.Mutex
}

// NewSalesOrderService creates a new sales order service
func NewSalesOrderService(
	orderRepo repository.SalesOrderRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.LocationStockRepository,
	offers ActiveOfferSource,
	authorizer FiscalAuthorizer,
	events StockEventPublisher,
	logger zerolog.Logger,
) *SalesOrderService {
	return &SalesOrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		offers:      offers,
		authorizer:  authorizer,
		events:      events,
		logger:      logger,
	}
}

// SalesOrderItemInput represents one item in an order submission
type SalesOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateSalesOrderInput represents the create sales order input
type CreateSalesOrderInput struct {
	LocationID    uuid.UUID
	PaymentMethod int
	UserID        uuid.UUID
	UserName      string
	Items         []SalesOrderItemInput
}

// CreateSalesOrder submits a completed sale: prices the lines from the
// catalog, applies the active offers, decrements per-location stock, obtains
// a fiscal authorization for card payments, and persists the order.
func (s *SalesOrderService) CreateSalesOrder(ctx context.Context, input *CreateSalesOrderInput) (*entity.SalesOrder, error) {
	if len(input.Items) == 0 {
		return nil, apperror.NewBadRequestError("Order must contain at least one item")
	}

	method, err := parsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	order, err := entity.NewSalesOrder(generateOrderNumber(), input.LocationID, method)
	if err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}
	order.SetCreatedBy(input.UserID, input.UserName)

	// Batch fetch all products in one query (prevents N+1)
	productIDs := make([]uuid.UUID, len(input.Items))
	for i, item := range input.Items {
		productIDs[i] = item.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	for _, item := range input.Items {
		product, exists := productMap[item.ProductID]
		if !exists {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", item.ProductID))
		}
		if err := order.AddLine(product.ID, product.Name, item.Quantity, product.SalePrice); err != nil {
			return nil, apperror.NewBadRequestError(err.Error())
		}
	}

	offers, err := s.offers.ActiveOffers(ctx)
	if err != nil {
		return nil, err
	}
	if err := order.SetDiscount(CalculateDiscount(order, offers)); err != nil {
		return nil, err
	}

	// Stock shortages must reject the order before any fiscal exchange; an
	// authorization obtained for an order that is never persisted burns an
	// invoice number at the authority.
	adjusted, err := s.consumeStock(ctx, order)
	if err != nil {
		return nil, err
	}

	if order.RequiresFiscalAuthorization() {
		if err := s.authorizeOrder(ctx, order); err != nil {
			s.restoreStock(ctx, order)
			return nil, err
		}
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		// Stock was already decremented, restore it.
		s.restoreStock(ctx, order)
		return nil, err
	}

	for _, stock := range adjusted {
		if err := s.events.PublishStockChanged(ctx, stock.LocationID, stock.ProductID, stock.Quantity); err != nil {
			s.logger.Warn().Err(err).
				Str("product_id", stock.ProductID.String()).
				Msg("failed to publish stock change")
		}
	}

	s.logger.Info().
		Str("order_number", order.Number).
		Str("total", order.Total.String()).
		Str("discount", order.DiscountTotal.String()).
		Msg("sales order created")

	return s.orderRepo.GetByID(ctx, order.ID)
}

func (s *SalesOrderService) authorizeOrder(ctx context.Context, order *entity.SalesOrder) error {
	s.fiscalMu.Lock()
	defer s.fiscalMu.Unlock()

	auth, err := s.authorizer.Authorize(ctx, order.Total, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Str("order_number", order.Number).Msg("fiscal authorization failed")
		return apperror.NewBadGatewayError("Fiscal authorization failed: " + err.Error())
	}

	return order.SetFiscalAuthorization(auth.Code, auth.ExpiresAt, auth.InvoiceNumber, auth.PointOfSale, auth.InvoiceType)
}

type stockAdjustment struct {
	stock    *entity.LocationStock
	quantity int
}

// consumeStock decrements the per-location stock row for every line, failing
// the whole order on the first shortage. Rows adjusted so far are restored.
func (s *SalesOrderService) consumeStock(ctx context.Context, order *entity.SalesOrder) ([]*entity.LocationStock, error) {
	adjusted := make([]stockAdjustment, 0, len(order.Lines))

	for _, line := range order.Lines {
		stock, err := s.stockRepo.GetByLocationAndProduct(ctx, order.LocationID, line.ProductID)
		if err != nil {
			s.rollbackStock(ctx, adjusted)
			return nil, err
		}
		if stock == nil {
			s.rollbackStock(ctx, adjusted)
			return nil, apperror.NewBadRequestError(fmt.Sprintf("No stock record for %s at this location", line.ProductName))
		}
		if err := stock.Adjust(-line.Quantity); err != nil {
			s.rollbackStock(ctx, adjusted)
			return nil, apperror.NewBadRequestError(fmt.Sprintf("Insufficient stock for %s", line.ProductName))
		}
		if err := s.stockRepo.Update(ctx, stock); err != nil {
			s.rollbackStock(ctx, adjusted)
			return nil, err
		}
		adjusted = append(adjusted, stockAdjustment{stock: stock, quantity: line.Quantity})
	}

	stocks := make([]*entity.LocationStock, len(adjusted))
	for i, adj := range adjusted {
		stocks[i] = adj.stock
	}
	return stocks, nil
}

func (s *SalesOrderService) rollbackStock(ctx context.Context, adjusted []stockAdjustment) {
	for _, adj := range adjusted {
		_ = adj.stock.Adjust(adj.quantity)
		if err := s.stockRepo.Update(ctx, adj.stock); err != nil {
			s.logger.Error().Err(err).
				Str("product_id", adj.stock.ProductID.String()).
				Msg("failed to restore stock after aborted order")
		}
	}
}

func (s *SalesOrderService) restoreStock(ctx context.Context, order *entity.SalesOrder) {
	for _, line := range order.Lines {
		stock, err := s.stockRepo.GetByLocationAndProduct(ctx, order.LocationID, line.ProductID)
		if err != nil || stock == nil {
			continue
		}
		_ = stock.Adjust(line.Quantity)
		if err := s.stockRepo.Update(ctx, stock); err != nil {
			s.logger.Error().Err(err).
				Str("product_id", line.ProductID.String()).
				Msg("failed to restore stock after failed persist")
		}
	}
}

// GetSalesOrder retrieves a sales order by ID
func (s *SalesOrderService) GetSalesOrder(ctx context.Context, id uuid.UUID) (*entity.SalesOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Sales order")
	}
	return order, nil
}

// GetSalesOrderByNumber retrieves a sales order by its human-readable number
func (s *SalesOrderService) GetSalesOrderByNumber(ctx context.Context, number string) (*entity.SalesOrder, error) {
	order, err := s.orderRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Sales order")
	}
	return order, nil
}

// ListSalesOrders lists sales orders with filtering
func (s *SalesOrderService) ListSalesOrders(ctx context.Context, params *repository.SalesOrderFilterParams) (*pagination.PaginatedResult[entity.SalesOrder], error) {
	orders, total, err := s.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(orders, pag), nil
}

func parsePaymentMethod(raw int) (enum.PaymentMethod, error) {
	method := enum.PaymentMethod(raw)
	if !method.IsValid() {
		return 0, apperror.NewBadRequestError("Invalid payment method")
	}
	return method, nil
}

// generateOrderNumber produces a short unique order identifier
func generateOrderNumber() string {
	return fmt.Sprintf("SO-%s", uuid.New().String()[:8])
}
