package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/internal/domain/enum"
	"github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/breakretail/backoffice-api/internal/infrastructure/fiscal"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeOrderRepo struct {
	orders    map[uuid.UUID]*entity.SalesOrder
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*entity.SalesOrder)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *entity.SalesOrder) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.SalesOrder, error) {
	return r.orders[id], nil
}

func (r *fakeOrderRepo) GetByNumber(ctx context.Context, number string) (*entity.SalesOrder, error) {
	for _, order := range r.orders {
		if order.Number == number {
			return order, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) List(ctx context.Context, params *repository.SalesOrderFilterParams) ([]entity.SalesOrder, int64, error) {
	result := make([]entity.SalesOrder, 0, len(r.orders))
	for _, order := range r.orders {
		result = append(result, *order)
	}
	return result, int64(len(result)), nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*entity.Product
}

func newFakeProductRepo(products ...*entity.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: make(map[uuid.UUID]*entity.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *fakeProductRepo) Create(ctx context.Context, p *entity.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	return r.products[id], nil
}

func (r *fakeProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	result := make([]entity.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeProductRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, p *entity.Product) error { return nil }
func (r *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }

func (r *fakeProductRepo) List(ctx context.Context, params *repository.ProductFilterParams) ([]entity.Product, int64, error) {
	return nil, 0, nil
}

func (r *fakeProductRepo) GetLowStock(ctx context.Context) ([]entity.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) SetStockQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return nil
}

type stockKey struct {
	location uuid.UUID
	product  uuid.UUID
}

type fakeStockRepo struct {
	stocks map[stockKey]*entity.LocationStock
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{stocks: make(map[stockKey]*entity.LocationStock)}
}

func (r *fakeStockRepo) seed(locationID, productID uuid.UUID, quantity int) {
	r.stocks[stockKey{locationID, productID}] = &entity.LocationStock{
		ID:         uuid.New(),
		LocationID: locationID,
		ProductID:  productID,
		Quantity:   quantity,
	}
}

func (r *fakeStockRepo) quantity(locationID, productID uuid.UUID) int {
	if stock, ok := r.stocks[stockKey{locationID, productID}]; ok {
		return stock.Quantity
	}
	return -1
}

func (r *fakeStockRepo) GetByLocationAndProduct(ctx context.Context, locationID, productID uuid.UUID) (*entity.LocationStock, error) {
	return r.stocks[stockKey{locationID, productID}], nil
}

func (r *fakeStockRepo) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]entity.LocationStock, error) {
	return nil, nil
}

func (r *fakeStockRepo) Upsert(ctx context.Context, stock *entity.LocationStock) error {
	r.stocks[stockKey{stock.LocationID, stock.ProductID}] = stock
	return nil
}

func (r *fakeStockRepo) Update(ctx context.Context, stock *entity.LocationStock) error {
	r.stocks[stockKey{stock.LocationID, stock.ProductID}] = stock
	return nil
}

type fakeOfferSource struct {
	offers []entity.Offer
}

func (f *fakeOfferSource) ActiveOffers(ctx context.Context) ([]entity.Offer, error) {
	return f.offers, nil
}

type fakeAuthorizer struct {
	calls int
	err   error
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, totalAmount decimal.Decimal, invoiceDate time.Time) (*fiscal.Authorization, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &fiscal.Authorization{
		Code:          "71000000000001",
		ExpiresAt:     invoiceDate.AddDate(0, 0, 10),
		InvoiceNumber: 7,
		PointOfSale:   3,
		InvoiceType:   6,
	}, nil
}

type fakePublisher struct {
	events int
}

func (f *fakePublisher) PublishStockChanged(ctx context.Context, locationID, productID uuid.UUID, quantity int) error {
	f.events++
	return nil
}

type orderFixture struct {
	service    *SalesOrderService
	orderRepo  *fakeOrderRepo
	stockRepo  *fakeStockRepo
	authorizer *fakeAuthorizer
	publisher  *fakePublisher
	locationID uuid.UUID
	product    *entity.Product
}

func newOrderFixture(t *testing.T, offers []entity.Offer) *orderFixture {
	t.Helper()

	product := &entity.Product{
		ID:        uuid.New(),
		Barcode:   "779000000001",
		Name:      "Yerba Mate 1kg",
		SalePrice: decimal.RequireFromString("50.00"),
	}

	fixture := &orderFixture{
		orderRepo:  newFakeOrderRepo(),
		stockRepo:  newFakeStockRepo(),
		authorizer: &fakeAuthorizer{},
		publisher:  &fakePublisher{},
		locationID: uuid.New(),
		product:    product,
	}
	fixture.stockRepo.seed(fixture.locationID, product.ID, 10)

	fixture.service = NewSalesOrderService(
		fixture.orderRepo,
		newFakeProductRepo(product),
		fixture.stockRepo,
		&fakeOfferSource{offers: offers},
		fixture.authorizer,
		fixture.publisher,
		zerolog.Nop(),
	)
	return fixture
}

func TestCreateSalesOrderCashSkipsFiscalAuthorization(t *testing.T) {
	fixture := newOrderFixture(t, nil)

	order, err := fixture.service.CreateSalesOrder(context.Background(), &CreateSalesOrderInput{
		LocationID:    fixture.locationID,
		PaymentMethod: int(enum.PaymentMethodCash),
		Items:         []SalesOrderItemInput{{ProductID: fixture.product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if fixture.authorizer.calls != 0 {
		t.Fatalf("cash orders must not be fiscally authorized, got %d calls", fixture.authorizer.calls)
	}
	if order.HasFiscalAuthorization() {
		t.Fatalf("cash order unexpectedly carries fiscal fields")
	}
	assertDecimal(t, order.Total, "100.00")
	if got := fixture.stockRepo.quantity(fixture.locationID, fixture.product.ID); got != 8 {
		t.Fatalf("expected stock 8 after sale, got %d", got)
	}
	if fixture.publisher.events != 1 {
		t.Fatalf("expected one stock event, got %d", fixture.publisher.events)
	}
}

func TestCreateSalesOrderCardRecordsFiscalReceipt(t *testing.T) {
	fixture := newOrderFixture(t, nil)

	order, err := fixture.service.CreateSalesOrder(context.Background(), &CreateSalesOrderInput{
		LocationID:    fixture.locationID,
		PaymentMethod: int(enum.PaymentMethodCard),
		Items:         []SalesOrderItemInput{{ProductID: fixture.product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if fixture.authorizer.calls != 1 {
		t.Fatalf("expected exactly one authorization, got %d", fixture.authorizer.calls)
	}
	if !order.HasFiscalAuthorization() {
		t.Fatalf("card order is missing fiscal fields")
	}
	if order.AuthorizationCode != "71000000000001" || order.InvoiceNumber != 7 {
		t.Fatalf("unexpected fiscal fields: code=%s number=%d", order.AuthorizationCode, order.InvoiceNumber)
	}
}

func TestCreateSalesOrderFiscalFailureAbortsOrder(t *testing.T) {
	fixture := newOrderFixture(t, nil)
	fixture.authorizer.err = errors.New("authority unavailable")

	_, err := fixture.service.CreateSalesOrder(context.Background(), &CreateSalesOrderInput{
		LocationID:    fixture.locationID,
		PaymentMethod: int(enum.PaymentMethodCard),
		Items:         []SalesOrderItemInput{{ProductID: fixture.product.ID, Quantity: 1}},
	})
	if err == nil {
		t.Fatalf("expected failure when fiscal authorization fails")
	}

	if len(fixture.orderRepo.orders) != 0 {
		t.Fatalf("order must not be persisted after fiscal failure")
	}
	if got := fixture.stockRepo.quantity(fixture.locationID, fixture.product.ID); got != 10 {
		t.Fatalf("stock must be untouched after fiscal failure, got %d", got)
	}
}

func TestCreateSalesOrderAppliesActiveOffers(t *testing.T) {
	fixture := newOrderFixture(t, nil)

	offerID := uuid.New()
	fixture.service.offers = &fakeOfferSource{offers: []entity.Offer{{
		ID:            offerID,
		Name:          "10% off mate",
		DiscountType:  enum.DiscountTypePercentage,
		DiscountValue: decimal.RequireFromString("10"),
		IsActive:      true,
		Requirements: []entity.OfferRequirement{{
			ID: uuid.New(), OfferID: offerID, ProductID: fixture.product.ID, Quantity: 1,
		}},
	}}}

	order, err := fixture.service.CreateSalesOrder(context.Background(), &CreateSalesOrderInput{
		LocationID:    fixture.locationID,
		PaymentMethod: int(enum.PaymentMethodCash),
		Items:         []SalesOrderItemInput{{ProductID: fixture.product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// 2 x 50.00 with 10% off each matched unit.
	assertDecimal(t, order.Subtotal, "100.00")
	assertDecimal(t, order.DiscountTotal, "10.00")
	assertDecimal(t, order.Total, "90.00")
}

func TestCreateSalesOrderInsufficientStock(t *testing.T) {
	fixture := newOrderFixture(t, nil)

	_, err := fixture.service.CreateSalesOrder(context.Background(), &CreateSalesOrderInput{
		LocationID:    fixture.locationID,
		PaymentMethod: int(enum.PaymentMethodCash),
		Items:         []SalesOrderItemInput{{ProductID: fixture.product.ID, Quantity: 11}},
	})
	if err == nil {
		t.Fatalf("expected failure when stock is insufficient")
	}
	if len(fixture.orderRepo.orders) != 0 {
		t.Fatalf("order must not be persisted on stock shortage")
	}
	if got := fixture.stockRepo.quantity(fixture.locationID, fixture.product.ID); got != 10 {
		t.Fatalf("stock must be untouched on shortage, got %d", got)
	}
}

func TestCreateSalesOrderStockShortageSkipsFiscalAuthorization(t *testing.T) {
	fixture := newOrderFixture(t, nil)

	_, err := fixture.service.CreateSalesOrder(context.Background(), &CreateSalesOrderInput{
		LocationID:    fixture.locationID,
		PaymentMethod: int(enum.PaymentMethodCard),
		Items:         []SalesOrderItemInput{{ProductID: fixture.product.ID, Quantity: 11}},
	})
	if err == nil {
		t.Fatalf("expected failure when stock is insufficient")
	}

	// A shortage is detectable locally; the authority must never issue an
	// invoice number for an order that cannot be fulfilled.
	if fixture.authorizer.calls != 0 {
		t.Fatalf("undersupplied card order was fiscally authorized %d time(s)", fixture.authorizer.calls)
	}
	if got := fixture.stockRepo.quantity(fixture.locationID, fixture.product.ID); got != 10 {
		t.Fatalf("stock must be untouched on shortage, got %d", got)
	}
}

func TestCreateSalesOrderPersistFailureRestoresStock(t *testing.T) {
	fixture := newOrderFixture(t, nil)
	fixture.orderRepo.createErr = errors.New("database unavailable")

	_, err := fixture.service.CreateSalesOrder(context.Background(), &CreateSalesOrderInput{
		LocationID:    fixture.locationID,
		PaymentMethod: int(enum.PaymentMethodCash),
		Items:         []SalesOrderItemInput{{ProductID: fixture.product.ID, Quantity: 3}},
	})
	if err == nil {
		t.Fatalf("expected persist failure to surface")
	}
	if got := fixture.stockRepo.quantity(fixture.locationID, fixture.product.ID); got != 10 {
		t.Fatalf("stock must be restored after persist failure, got %d", got)
	}
}

func TestCreateSalesOrderRejectsUnknownProduct(t *testing.T) {
	fixture := newOrderFixture(t, nil)

	_, err := fixture.service.CreateSalesOrder(context.Background(), &CreateSalesOrderInput{
		LocationID:    fixture.locationID,
		PaymentMethod: int(enum.PaymentMethodCash),
		Items:         []SalesOrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	if err == nil {
		t.Fatalf("expected failure for unknown product")
	}
}

func TestCreateSalesOrderRejectsEmptyItems(t *testing.T) {
	fixture := newOrderFixture(t, nil)

	_, err := fixture.service.CreateSalesOrder(context.Background(), &CreateSalesOrderInput{
		LocationID:    fixture.locationID,
		PaymentMethod: int(enum.PaymentMethodCash),
	})
	if err == nil {
		t.Fatalf("expected failure for empty item list")
	}
}
