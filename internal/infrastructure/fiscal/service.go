package fiscal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Authorization is the outcome of a successful fiscal exchange for one order
type Authorization struct {
	Code          string
	ExpiresAt     time.Time
	InvoiceNumber int64
	PointOfSale   int
	InvoiceType   int
}

// taxDivisor removes the 21% VAT from tax-inclusive retail prices
var taxDivisor = decimal.RequireFromString("1.21")

// Service orchestrates ticket acquisition and invoice authorization:
// authenticate, fetch the last authorized number, request authorization for
// last+1, and recover from submission timeouts through the reconciliation
// query.
type Service struct {
	tickets  *TicketSource
	invoices *InvoiceClient
	settings *Settings
	logger   zerolog.Logger
}

// NewService wires the WSAA and WSFE clients over one HTTP client
func NewService(httpClient *http.Client, settings *Settings, signer RequestSigner, logger zerolog.Logger) *Service {
	return &Service{
		tickets:  NewTicketSource(httpClient, settings, signer, logger),
		invoices: NewInvoiceClient(httpClient, settings, logger),
		settings: settings,
		logger:   logger,
	}
}

// Authorize obtains a fiscal authorization code for a tax-inclusive total.
// It is called at most once per order; callers must not retry a returned
// error automatically.
func (s *Service) Authorize(ctx context.Context, totalAmount decimal.Decimal, invoiceDate time.Time) (*Authorization, error) {
	ticket, err := s.tickets.GetTicket(ctx)
	if err != nil {
		return nil, err
	}

	// The authority permanently rejects any number that is not exactly
	// last+1, so the last-authorized query runs before every request.
	lastNumber, err := s.invoices.LastAuthorized(ctx, ticket)
	if err != nil {
		return nil, err
	}
	nextNumber := lastNumber + 1

	s.logger.Info().
		Int64("invoice_number", nextNumber).
		Int("point_of_sale", s.settings.PointOfSale).
		Int("invoice_type", s.settings.InvoiceType).
		Msg("requesting fiscal authorization")

	// Net is rounded; tax is the remainder so net+tax reconstructs the total
	// exactly.
	netAmount := totalAmount.Div(taxDivisor).Round(2)
	taxAmount := totalAmount.Sub(netAmount)

	request := &AuthorizationRequest{
		InvoiceNumber: nextNumber,
		InvoiceDate:   invoiceDate,
		TotalAmount:   totalAmount,
		NetAmount:     netAmount,
		TaxAmount:     taxAmount,
	}

	reply, err := s.invoices.RequestAuthorization(ctx, ticket, request)
	if err != nil {
		var transport *TransportError
		if !errors.As(err, &transport) {
			return nil, err
		}

		// The request may have been processed even though no response was
		// observed. Query the exact number just attempted; a recorded
		// authorization there means the submission succeeded and the
		// response was lost.
		s.logger.Warn().Err(err).Int64("invoice_number", nextNumber).Msg("authorization submission failed, reconciling")

		reply, err = s.invoices.Consult(ctx, ticket, nextNumber)
		if err != nil {
			// The consult itself failed, so the fate of the submission is
			// unknown. This must not read like a definitive miss.
			return nil, fmt.Errorf(
				"authorization request for invoice %d failed and the reconciliation query also failed, "+
					"so its status is unknown; verify with the authority before resubmitting: %w",
				nextNumber, err)
		}
		if reply == nil {
			return nil, fmt.Errorf(
				"authorization request for invoice %d failed and no record of it was found; "+
					"do not resubmit without manually verifying invoice-number correlativity: %w",
				nextNumber, transport)
		}
	}

	s.logger.Info().
		Str("authorization_code", reply.Code).
		Time("expires_at", reply.ExpiresAt).
		Int64("invoice_number", nextNumber).
		Msg("fiscal authorization obtained")

	return &Authorization{
		Code:          reply.Code,
		ExpiresAt:     reply.ExpiresAt,
		InvoiceNumber: nextNumber,
		PointOfSale:   s.settings.PointOfSale,
		InvoiceType:   s.settings.InvoiceType,
	}, nil
}
