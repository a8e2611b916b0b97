package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/breakretail/backoffice-api/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newOrderForTest(t *testing.T) *SalesOrder {
	t.Helper()
	order, err := NewSalesOrder("SO-test", uuid.New(), enum.PaymentMethodCash)
	if err != nil {
		t.Fatalf("NewSalesOrder: %v", err)
	}
	return order
}

func TestNewSalesOrderValidation(t *testing.T) {
	if _, err := NewSalesOrder("", uuid.New(), enum.PaymentMethodCash); !errors.Is(err, ErrOrderNumberRequired) {
		t.Errorf("empty number: got %v, want ErrOrderNumberRequired", err)
	}
	if _, err := NewSalesOrder("SO-1", uuid.Nil, enum.PaymentMethodCash); !errors.Is(err, ErrOrderLocationRequired) {
		t.Errorf("nil location: got %v, want ErrOrderLocationRequired", err)
	}
}

func TestAddLineRecomputesTotals(t *testing.T) {
	order := newOrderForTest(t)

	if err := order.AddLine(uuid.New(), "Yerba Mate 1kg", 2, decimal.RequireFromString("50.00")); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := order.AddLine(uuid.New(), "Dulce de Leche", 1, decimal.RequireFromString("12.50")); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if got, want := order.Subtotal.String(), "112.5"; got != want {
		t.Errorf("Subtotal = %s, want %s", got, want)
	}
	if got, want := order.Total.String(), "112.5"; got != want {
		t.Errorf("Total = %s, want %s", got, want)
	}
	if order.Lines[0].Position != 0 || order.Lines[1].Position != 1 {
		t.Errorf("line positions = %d, %d, want 0, 1", order.Lines[0].Position, order.Lines[1].Position)
	}
}

func TestAddLineValidation(t *testing.T) {
	order := newOrderForTest(t)
	price := decimal.RequireFromString("10.00")

	if err := order.AddLine(uuid.Nil, "x", 1, price); !errors.Is(err, ErrLineProductRequired) {
		t.Errorf("nil product: got %v", err)
	}
	if err := order.AddLine(uuid.New(), "x", 0, price); !errors.Is(err, ErrLineQuantityInvalid) {
		t.Errorf("zero quantity: got %v", err)
	}
	if err := order.AddLine(uuid.New(), "x", 1, decimal.Zero); !errors.Is(err, ErrLineUnitPriceInvalid) {
		t.Errorf("zero price: got %v", err)
	}
}

func TestSetDiscountFinalizesOnce(t *testing.T) {
	order := newOrderForTest(t)
	if err := order.AddLine(uuid.New(), "Yerba Mate 1kg", 2, decimal.RequireFromString("50.00")); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if err := order.SetDiscount(decimal.RequireFromString("10.00")); err != nil {
		t.Fatalf("SetDiscount: %v", err)
	}
	if got, want := order.Total.String(), "90"; got != want {
		t.Errorf("Total = %s, want %s", got, want)
	}

	if err := order.SetDiscount(decimal.Zero); !errors.Is(err, ErrDiscountAlreadySet) {
		t.Errorf("second SetDiscount: got %v, want ErrDiscountAlreadySet", err)
	}
}

func TestSetDiscountBounds(t *testing.T) {
	order := newOrderForTest(t)
	if err := order.AddLine(uuid.New(), "Yerba Mate 1kg", 1, decimal.RequireFromString("50.00")); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if err := order.SetDiscount(decimal.RequireFromString("-1")); !errors.Is(err, ErrDiscountNegative) {
		t.Errorf("negative discount: got %v", err)
	}
	if err := order.SetDiscount(decimal.RequireFromString("50.01")); !errors.Is(err, ErrDiscountExceedsTotal) {
		t.Errorf("discount above subtotal: got %v", err)
	}
	if err := order.SetDiscount(decimal.RequireFromString("50.00")); err != nil {
		t.Errorf("discount equal to subtotal: got %v", err)
	}
	if got, want := order.Total.String(), "0"; got != want {
		t.Errorf("Total = %s, want %s", got, want)
	}
}

func TestSetFiscalAuthorizationRecordedOnce(t *testing.T) {
	order := newOrderForTest(t)
	expires := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	if err := order.SetFiscalAuthorization("", expires, 42, 3, 6); !errors.Is(err, ErrFiscalCodeRequired) {
		t.Errorf("empty code: got %v", err)
	}

	if err := order.SetFiscalAuthorization("71234567890123", expires, 42, 3, 6); err != nil {
		t.Fatalf("SetFiscalAuthorization: %v", err)
	}
	if !order.HasFiscalAuthorization() {
		t.Error("HasFiscalAuthorization = false after recording")
	}
	if order.InvoiceNumber != 42 || order.PointOfSale != 3 || order.InvoiceType != 6 {
		t.Errorf("fiscal fields = %d/%d/%d, want 42/3/6", order.InvoiceNumber, order.PointOfSale, order.InvoiceType)
	}

	if err := order.SetFiscalAuthorization("99999999999999", expires, 43, 3, 6); !errors.Is(err, ErrFiscalAlreadySet) {
		t.Errorf("second recording: got %v, want ErrFiscalAlreadySet", err)
	}
	if order.AuthorizationCode != "71234567890123" {
		t.Errorf("AuthorizationCode overwritten to %s", order.AuthorizationCode)
	}
}

func TestRequiresFiscalAuthorizationByPaymentMethod(t *testing.T) {
	cash := newOrderForTest(t)
	if cash.RequiresFiscalAuthorization() {
		t.Error("cash order should not require fiscal authorization")
	}

	card, err := NewSalesOrder("SO-card", uuid.New(), enum.PaymentMethodCard)
	if err != nil {
		t.Fatalf("NewSalesOrder: %v", err)
	}
	if !card.RequiresFiscalAuthorization() {
		t.Error("card order should require fiscal authorization")
	}
}
