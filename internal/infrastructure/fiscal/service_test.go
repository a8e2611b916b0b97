package fiscal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const lastAuthorizedBody = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <FECompUltimoAutorizadoResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECompUltimoAutorizadoResult>
        <PtoVta>3</PtoVta>
        <CbteTipo>6</CbteTipo>
        <CbteNro>41</CbteNro>
      </FECompUltimoAutorizadoResult>
    </FECompUltimoAutorizadoResponse>
  </soap:Body>
</soap:Envelope>`

const authorizationApprovedBody = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECAESolicitarResult>
        <FeCabResp><Resultado>A</Resultado></FeCabResp>
        <FeDetResp>
          <FECAEDetResponse>
            <Resultado>A</Resultado>
            <CAE>71234567890123</CAE>
            <CAEFchVto>20260910</CAEFchVto>
          </FECAEDetResponse>
        </FeDetResp>
      </FECAESolicitarResult>
    </FECAESolicitarResponse>
  </soap:Body>
</soap:Envelope>`

const authorizationRejectedBody = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECAESolicitarResult>
        <FeCabResp><Resultado>R</Resultado></FeCabResp>
        <FeDetResp>
          <FECAEDetResponse>
            <Resultado>R</Resultado>
            <Observaciones>
              <Obs><Code>10016</Code><Msg>numero de comprobante incorrecto</Msg></Obs>
            </Observaciones>
          </FECAEDetResponse>
        </FeDetResp>
      </FECAESolicitarResult>
    </FECAESolicitarResponse>
  </soap:Body>
</soap:Envelope>`

const consultFoundBody = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <FECompConsultarResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECompConsultarResult>
        <ResultGet>
          <CodAutorizacion>71234567890123</CodAutorizacion>
          <FchVto>20260910</FchVto>
        </ResultGet>
      </FECompConsultarResult>
    </FECompConsultarResponse>
  </soap:Body>
</soap:Envelope>`

const consultMissBody = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <FECompConsultarResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECompConsultarResult>
        <Errors>
          <Err><Code>602</Code><Msg>no existen datos para la consulta</Msg></Err>
        </Errors>
      </FECompConsultarResult>
    </FECompConsultarResponse>
  </soap:Body>
</soap:Envelope>`

func soapOperation(r *http.Request) string {
	action := r.Header.Get("SOAPAction")
	return strings.TrimPrefix(action, "http://ar.gov.afip.dif.FEV1/")
}

func newServiceForTest(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	settings := &Settings{
		CUIT:                20123456789,
		PointOfSale:         3,
		InvoiceType:         6,
		DocumentType:        99,
		BuyerTaxConditionID: 5,
		InvoiceEndpoint:     server.URL,
	}
	svc := NewService(server.Client(), settings, fakeSigner{}, zerolog.Nop())
	svc.tickets.cached = &Ticket{Token: "tok", Sign: "sig", ExpiresAt: time.Now().Add(time.Hour)}
	return svc
}

func TestAuthorizeRequestsNextCorrelativeNumber(t *testing.T) {
	var authorizationRequest atomic.Value
	svc := newServiceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch soapOperation(r) {
		case "FECompUltimoAutorizado":
			fmt.Fprint(w, lastAuthorizedBody)
		case "FECAESolicitar":
			body, _ := io.ReadAll(r.Body)
			authorizationRequest.Store(string(body))
			fmt.Fprint(w, authorizationApprovedBody)
		default:
			t.Errorf("unexpected operation %s", soapOperation(r))
		}
	}))

	total := decimal.RequireFromString("121.00")
	auth, err := svc.Authorize(context.Background(), total, time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}

	if auth.InvoiceNumber != 42 {
		t.Fatalf("expected invoice number 42 (last+1), got %d", auth.InvoiceNumber)
	}
	if auth.Code != "71234567890123" {
		t.Fatalf("unexpected authorization code %q", auth.Code)
	}
	if auth.PointOfSale != 3 || auth.InvoiceType != 6 {
		t.Fatalf("point of sale / invoice type not propagated: %+v", auth)
	}
	if want := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC); !auth.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, auth.ExpiresAt)
	}

	sent, _ := authorizationRequest.Load().(string)
	for _, fragment := range []string{
		"<ar:CbteDesde>42</ar:CbteDesde>",
		"<ar:CbteHasta>42</ar:CbteHasta>",
		"<ar:CbteFch>20260830</ar:CbteFch>",
		"<ar:ImpTotal>121.00</ar:ImpTotal>",
		"<ar:ImpNeto>100.00</ar:ImpNeto>",
		"<ar:ImpIVA>21.00</ar:ImpIVA>",
	} {
		if !strings.Contains(sent, fragment) {
			t.Fatalf("authorization request is missing %s:\n%s", fragment, sent)
		}
	}
}

func TestAuthorizeNetPlusTaxReconstructsTotal(t *testing.T) {
	// 100.01 / 1.21 = 82.652... rounds to 82.65; tax must be the remainder
	// 17.36, not an independently rounded value.
	var authorizationRequest atomic.Value
	svc := newServiceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch soapOperation(r) {
		case "FECompUltimoAutorizado":
			fmt.Fprint(w, lastAuthorizedBody)
		case "FECAESolicitar":
			body, _ := io.ReadAll(r.Body)
			authorizationRequest.Store(string(body))
			fmt.Fprint(w, authorizationApprovedBody)
		}
	}))

	if _, err := svc.Authorize(context.Background(), decimal.RequireFromString("100.01"), time.Now()); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	sent, _ := authorizationRequest.Load().(string)
	if !strings.Contains(sent, "<ar:ImpNeto>82.65</ar:ImpNeto>") {
		t.Fatalf("unexpected net amount:\n%s", sent)
	}
	if !strings.Contains(sent, "<ar:ImpIVA>17.36</ar:ImpIVA>") {
		t.Fatalf("unexpected tax amount:\n%s", sent)
	}
}

func TestAuthorizeRecoversThroughReconciliation(t *testing.T) {
	var submissions, consults atomic.Int64
	svc := newServiceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch soapOperation(r) {
		case "FECompUltimoAutorizado":
			fmt.Fprint(w, lastAuthorizedBody)
		case "FECAESolicitar":
			submissions.Add(1)
			// Drop the connection: the authority processed the request but
			// the client never sees a response.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatalf("test server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack: %v", err)
			}
			conn.Close()
		case "FECompConsultar":
			consults.Add(1)
			fmt.Fprint(w, consultFoundBody)
		}
	}))

	auth, err := svc.Authorize(context.Background(), decimal.RequireFromString("121.00"), time.Now())
	if err != nil {
		t.Fatalf("expected reconciliation to recover the authorization: %v", err)
	}

	if auth.Code != "71234567890123" || auth.InvoiceNumber != 42 {
		t.Fatalf("unexpected recovered authorization: %+v", auth)
	}
	if got := submissions.Load(); got != 1 {
		t.Fatalf("expected no resubmission after timeout, got %d submissions", got)
	}
	if got := consults.Load(); got != 1 {
		t.Fatalf("expected one reconciliation query, got %d", got)
	}
}

func TestAuthorizeFailsFatallyOnReconciliationMiss(t *testing.T) {
	svc := newServiceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch soapOperation(r) {
		case "FECompUltimoAutorizado":
			fmt.Fprint(w, lastAuthorizedBody)
		case "FECAESolicitar":
			hj := w.(http.Hijacker)
			conn, _, _ := hj.Hijack()
			conn.Close()
		case "FECompConsultar":
			fmt.Fprint(w, consultMissBody)
		}
	}))

	_, err := svc.Authorize(context.Background(), decimal.RequireFromString("121.00"), time.Now())
	if err == nil {
		t.Fatalf("expected a fatal error when reconciliation finds nothing")
	}
	if !strings.Contains(err.Error(), "correlativity") {
		t.Fatalf("error must warn against blind resubmission, got: %v", err)
	}
}

func TestAuthorizeReconciliationFailureIsNotAMiss(t *testing.T) {
	svc := newServiceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch soapOperation(r) {
		case "FECompUltimoAutorizado":
			fmt.Fprint(w, lastAuthorizedBody)
		default:
			// Both the submission and the reconciliation query lose their
			// connections.
			hj := w.(http.Hijacker)
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))

	_, err := svc.Authorize(context.Background(), decimal.RequireFromString("121.00"), time.Now())
	if err == nil {
		t.Fatalf("expected an error when the reconciliation query fails")
	}
	if strings.Contains(err.Error(), "no record") {
		t.Fatalf("a failed consult must not be reported as a definitive miss, got: %v", err)
	}
	if !strings.Contains(err.Error(), "status is unknown") {
		t.Fatalf("error must state the authorization status is unknown, got: %v", err)
	}
}

func TestAuthorizeRejectionCarriesAuthorityCodes(t *testing.T) {
	svc := newServiceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch soapOperation(r) {
		case "FECompUltimoAutorizado":
			fmt.Fprint(w, lastAuthorizedBody)
		case "FECAESolicitar":
			fmt.Fprint(w, authorizationRejectedBody)
		case "FECompConsultar":
			t.Errorf("rejections must not trigger reconciliation")
		}
	}))

	_, err := svc.Authorize(context.Background(), decimal.RequireFromString("121.00"), time.Now())
	if err == nil {
		t.Fatalf("expected rejection error")
	}
	if !strings.Contains(err.Error(), "10016") {
		t.Fatalf("rejection error must carry the authority's codes, got: %v", err)
	}
}
