package fiscal

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AuthorizationRequest carries one invoice to be authorized. Amounts are
// tax-inclusive totals already split into net and tax portions.
type AuthorizationRequest struct {
	InvoiceNumber int64
	InvoiceDate   time.Time
	TotalAmount   decimal.Decimal
	NetAmount     decimal.Decimal
	TaxAmount     decimal.Decimal
}

// AuthorizationReply is the authority's answer for one invoice
type AuthorizationReply struct {
	Code      string
	ExpiresAt time.Time
}

// TransportError wraps a network-level failure on the authorization request:
// the request may have been received and processed by the authority even
// though no response was observed, so callers must reconcile instead of
// resubmitting.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fiscal %s transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectionError is a definitive refusal from the authority, carrying its
// error and observation codes for diagnosis. It must never be retried
// automatically.
type RejectionError struct {
	InvoiceNumber int64
	Detail        string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("invoice %d rejected by fiscal authority: %s", e.InvoiceNumber, e.Detail)
}

// InvoiceClient calls the WSFE invoicing operations: last-authorized query,
// authorization request and the reconciliation lookup.
type InvoiceClient struct {
	httpClient *http.Client
	settings   *Settings
	logger     zerolog.Logger
}

// NewInvoiceClient creates a client for the configured WSFE endpoint
func NewInvoiceClient(httpClient *http.Client, settings *Settings, logger zerolog.Logger) *InvoiceClient {
	return &InvoiceClient{httpClient: httpClient, settings: settings, logger: logger}
}

// LastAuthorized returns the last invoice number the authority has authorized
// for this point-of-sale and invoice type. The next number to request is
// always last+1; anything else is permanently rejected.
func (c *InvoiceClient) LastAuthorized(ctx context.Context, ticket *Ticket) (int64, error) {
	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"
               xmlns:ar="http://ar.gov.afip.dif.FEV1/">
  <soap:Body>
    <ar:FECompUltimoAutorizado>
      <ar:Auth>
        <ar:Token>%s</ar:Token>
        <ar:Sign>%s</ar:Sign>
        <ar:Cuit>%d</ar:Cuit>
      </ar:Auth>
      <ar:PtoVta>%d</ar:PtoVta>
      <ar:CbteTipo>%d</ar:CbteTipo>
    </ar:FECompUltimoAutorizado>
  </soap:Body>
</soap:Envelope>`,
		xmlEscape(ticket.Token), xmlEscape(ticket.Sign), c.settings.CUIT,
		c.settings.PointOfSale, c.settings.InvoiceType)

	body, err := c.post(ctx, "FECompUltimoAutorizado", envelope)
	if err != nil {
		return 0, err
	}

	var parsed lastAuthorizedEnvelope
	if err := xml.Unmarshal([]byte(body), &parsed); err != nil {
		return 0, fmt.Errorf("parse last-authorized response: %w", err)
	}
	if detail := joinCodes(parsed.Result.Errors); detail != "" {
		return 0, fmt.Errorf("last-authorized query failed: %s", detail)
	}

	c.logger.Info().Int64("invoice_number", parsed.Result.Number).Msg("last authorized invoice number")
	return parsed.Result.Number, nil
}

// RequestAuthorization submits one invoice for authorization. A network
// failure is returned as a *TransportError so the caller can reconcile; a
// refusal is a *RejectionError.
func (c *InvoiceClient) RequestAuthorization(ctx context.Context, ticket *Ticket, request *AuthorizationRequest) (*AuthorizationReply, error) {
	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"
               xmlns:ar="http://ar.gov.afip.dif.FEV1/">
  <soap:Body>
    <ar:FECAESolicitar>
      <ar:Auth>
        <ar:Token>%s</ar:Token>
        <ar:Sign>%s</ar:Sign>
        <ar:Cuit>%d</ar:Cuit>
      </ar:Auth>
      <ar:FeCAEReq>
        <ar:FeCabReq>
          <ar:CantReg>1</ar:CantReg>
          <ar:PtoVta>%d</ar:PtoVta>
          <ar:CbteTipo>%d</ar:CbteTipo>
        </ar:FeCabReq>
        <ar:FeDetReq>
          <ar:FECAEDetRequest>
            <ar:Concepto>1</ar:Concepto>
            <ar:DocTipo>%d</ar:DocTipo>
            <ar:DocNro>%d</ar:DocNro>
            <ar:CbteDesde>%d</ar:CbteDesde>
            <ar:CbteHasta>%d</ar:CbteHasta>
            <ar:CbteFch>%s</ar:CbteFch>
            <ar:ImpTotal>%s</ar:ImpTotal>
            <ar:ImpTotConc>0</ar:ImpTotConc>
            <ar:ImpNeto>%s</ar:ImpNeto>
            <ar:ImpOpEx>0</ar:ImpOpEx>
            <ar:ImpTrib>0</ar:ImpTrib>
            <ar:ImpIVA>%s</ar:ImpIVA>
            <ar:MonId>PES</ar:MonId>
            <ar:MonCotiz>1</ar:MonCotiz>
            <ar:CondicionIVAReceptorId>%d</ar:CondicionIVAReceptorId>
            <ar:Iva>
              <ar:AlicIva>
                <ar:Id>5</ar:Id>
                <ar:BaseImp>%s</ar:BaseImp>
                <ar:Importe>%s</ar:Importe>
              </ar:AlicIva>
            </ar:Iva>
          </ar:FECAEDetRequest>
        </ar:FeDetReq>
      </ar:FeCAEReq>
    </ar:FECAESolicitar>
  </soap:Body>
</soap:Envelope>`,
		xmlEscape(ticket.Token), xmlEscape(ticket.Sign), c.settings.CUIT,
		c.settings.PointOfSale, c.settings.InvoiceType,
		c.settings.DocumentType, c.settings.DocumentNumber,
		request.InvoiceNumber, request.InvoiceNumber,
		request.InvoiceDate.Format("20060102"),
		request.TotalAmount.StringFixed(2),
		request.NetAmount.StringFixed(2),
		request.TaxAmount.StringFixed(2),
		c.settings.BuyerTaxConditionID,
		request.NetAmount.StringFixed(2),
		request.TaxAmount.StringFixed(2))

	body, err := c.post(ctx, "FECAESolicitar", envelope)
	if err != nil {
		return nil, err
	}

	return c.parseAuthorizationResponse(body, request.InvoiceNumber)
}

// Consult queries the status of a specific invoice number. It returns
// (nil, nil) only when the authority answered and has no authorized record at
// that number; a failed or unparseable query is an error, never a miss.
func (c *InvoiceClient) Consult(ctx context.Context, ticket *Ticket, invoiceNumber int64) (*AuthorizationReply, error) {
	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"
               xmlns:ar="http://ar.gov.afip.dif.FEV1/">
  <soap:Body>
    <ar:FECompConsultar>
      <ar:Auth>
        <ar:Token>%s</ar:Token>
        <ar:Sign>%s</ar:Sign>
        <ar:Cuit>%d</ar:Cuit>
      </ar:Auth>
      <ar:FeCompConsReq>
        <ar:CbteTipo>%d</ar:CbteTipo>
        <ar:CbteNro>%d</ar:CbteNro>
        <ar:PtoVta>%d</ar:PtoVta>
      </ar:FeCompConsReq>
    </ar:FECompConsultar>
  </soap:Body>
</soap:Envelope>`,
		xmlEscape(ticket.Token), xmlEscape(ticket.Sign), c.settings.CUIT,
		c.settings.InvoiceType, invoiceNumber, c.settings.PointOfSale)

	body, err := c.post(ctx, "FECompConsultar", envelope)
	if err != nil {
		return nil, err
	}

	var parsed consultEnvelope
	if err := xml.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("parse reconciliation response: %w", err)
	}

	code := parsed.Result.Record.AuthorizationCode
	rawExpiry := parsed.Result.Record.ExpiresAt
	if strings.TrimSpace(code) == "" || strings.TrimSpace(rawExpiry) == "" {
		return nil, nil
	}

	expiresAt, err := time.Parse("20060102", rawExpiry)
	if err != nil {
		return nil, fmt.Errorf("parse reconciliation expiry %q: %w", rawExpiry, err)
	}

	return &AuthorizationReply{Code: code, ExpiresAt: expiresAt}, nil
}

func (c *InvoiceClient) post(ctx context.Context, operation, envelope string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.InvoiceURL(), bytes.NewBufferString(envelope))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://ar.gov.afip.dif.FEV1/"+operation)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: operation, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fiscal %s failed with status %d: %s", operation, resp.StatusCode, body)
	}

	return string(body), nil
}

func (c *InvoiceClient) parseAuthorizationResponse(body string, invoiceNumber int64) (*AuthorizationReply, error) {
	var parsed authorizationEnvelope
	if err := xml.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("parse authorization response: %w", err)
	}

	result := parsed.Result

	if detail := joinCodes(result.Errors); detail != "" {
		c.logger.Warn().Str("errors", detail).Int64("invoice_number", invoiceNumber).Msg("authorization request returned errors")
	}

	if len(result.Details) == 0 {
		detail := joinCodes(result.Errors)
		if detail == "" {
			detail = "no invoice detail in response"
		}
		return nil, &RejectionError{InvoiceNumber: invoiceNumber, Detail: detail}
	}

	record := result.Details[0]

	if obs := joinCodes(record.Observations); obs != "" {
		c.logger.Info().Str("observations", obs).Int64("invoice_number", invoiceNumber).Msg("authorization observations")
	}

	// Rejection status, or an approved-looking response with no code, are
	// both definitive failures.
	if record.Result == "R" || strings.TrimSpace(record.Code) == "" {
		detail := joinCodes(record.Observations)
		if detail == "" {
			detail = joinCodes(result.Errors)
		}
		if detail == "" {
			detail = "unknown rejection reason"
		}
		return nil, &RejectionError{InvoiceNumber: invoiceNumber, Detail: detail}
	}

	expiresAt, err := time.Parse("20060102", record.ExpiresRaw)
	if err != nil {
		return nil, fmt.Errorf("parse authorization expiry %q: %w", record.ExpiresRaw, err)
	}

	return &AuthorizationReply{Code: record.Code, ExpiresAt: expiresAt}, nil
}

type codeMessage struct {
	Code string `xml:"Code"`
	Msg  string `xml:"Msg"`
}

func joinCodes(items []codeMessage) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("code=%s msg=%s", item.Code, item.Msg)
	}
	return strings.Join(parts, "; ")
}

type lastAuthorizedEnvelope struct {
	Result struct {
		Number int64         `xml:"CbteNro"`
		Errors []codeMessage `xml:"Errors>Err"`
	} `xml:"Body>FECompUltimoAutorizadoResponse>FECompUltimoAutorizadoResult"`
}

type authorizationEnvelope struct {
	Result struct {
		Details []struct {
			Result       string        `xml:"Resultado"`
			Code         string        `xml:"CAE"`
			ExpiresRaw   string        `xml:"CAEFchVto"`
			Observations []codeMessage `xml:"Observaciones>Obs"`
		} `xml:"FeDetResp>FECAEDetResponse"`
		Errors []codeMessage `xml:"Errors>Err"`
	} `xml:"Body>FECAESolicitarResponse>FECAESolicitarResult"`
}

type consultEnvelope struct {
	Result struct {
		Record struct {
			AuthorizationCode string `xml:"CodAutorizacion"`
			ExpiresAt         string `xml:"FchVto"`
		} `xml:"ResultGet"`
	} `xml:"Body>FECompConsultarResponse>FECompConsultarResult"`
}

func xmlEscape(value string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(value))
	return buf.String()
}
