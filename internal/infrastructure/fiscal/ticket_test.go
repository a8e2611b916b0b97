package fiscal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSigner struct{}

func (fakeSigner) Sign(content []byte) ([]byte, error) {
	return content, nil
}

func wsaaResponse(token, sign string, expiresAt time.Time) string {
	inner := fmt.Sprintf(`<loginTicketResponse version="1.0">
  <header>
    <expirationTime>%s</expirationTime>
  </header>
  <credentials>
    <token>%s</token>
    <sign>%s</sign>
  </credentials>
</loginTicketResponse>`, expiresAt.Format(time.RFC3339), token, sign)

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <loginCmsResponse xmlns="https://wsaa.view.sua.dvadac.desein.afip.gov">
      <loginCmsReturn>%s</loginCmsReturn>
    </loginCmsResponse>
  </soapenv:Body>
</soapenv:Envelope>`, xmlEscape(inner))
}

func newTicketSourceForTest(t *testing.T, handler http.Handler) (*TicketSource, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	settings := &Settings{AuthEndpoint: server.URL}
	source := NewTicketSource(server.Client(), settings, fakeSigner{}, zerolog.Nop())
	source.retryWait = 10 * time.Millisecond
	return source, server
}

func TestGetTicketCachesWhileValid(t *testing.T) {
	var logins atomic.Int64
	source, _ := newTicketSourceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		fmt.Fprint(w, wsaaResponse("tok", "sig", time.Now().Add(12*time.Hour)))
	}))

	first, err := source.GetTicket(context.Background())
	if err != nil {
		t.Fatalf("first ticket: %v", err)
	}
	second, err := source.GetTicket(context.Background())
	if err != nil {
		t.Fatalf("second ticket: %v", err)
	}

	if got := logins.Load(); got != 1 {
		t.Fatalf("expected exactly one login exchange, got %d", got)
	}
	if first != second {
		t.Fatalf("expected the cached ticket to be reused")
	}
}

func TestGetTicketConcurrentCallersSingleLogin(t *testing.T) {
	var logins atomic.Int64
	source, _ := newTicketSourceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, wsaaResponse("tok", "sig", time.Now().Add(12*time.Hour)))
	}))

	const callers = 10
	tickets := make([]*Ticket, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket, err := source.GetTicket(context.Background())
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			tickets[i] = ticket
		}(i)
	}
	wg.Wait()

	if got := logins.Load(); got != 1 {
		t.Fatalf("expected exactly one login exchange across concurrent callers, got %d", got)
	}
	for i := 1; i < callers; i++ {
		if tickets[i] != tickets[0] {
			t.Fatalf("caller %d observed a different ticket", i)
		}
	}
}

func TestGetTicketRefreshesNearExpiry(t *testing.T) {
	var logins atomic.Int64
	source, _ := newTicketSourceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		fmt.Fprint(w, wsaaResponse("tok", "sig", time.Now().Add(12*time.Hour)))
	}))

	if _, err := source.GetTicket(context.Background()); err != nil {
		t.Fatalf("first ticket: %v", err)
	}

	// Move the clock to within the 5-minute safety margin of expiry.
	source.now = func() time.Time {
		return time.Now().Add(12*time.Hour - 2*time.Minute)
	}

	if _, err := source.GetTicket(context.Background()); err != nil {
		t.Fatalf("refresh ticket: %v", err)
	}
	if got := logins.Load(); got != 2 {
		t.Fatalf("expected a second login once inside the expiry margin, got %d", got)
	}
}

func TestGetTicketRetriesAfterOutstandingTicket(t *testing.T) {
	var logins atomic.Int64
	source, _ := newTicketSourceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logins.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `<soapenv:Fault>coe.alreadyAuthenticated: el CEE ya posee un TA valido</soapenv:Fault>`)
			return
		}
		fmt.Fprint(w, wsaaResponse("tok", "sig", time.Now().Add(12*time.Hour)))
	}))

	ticket, err := source.GetTicket(context.Background())
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if ticket.Token != "tok" {
		t.Fatalf("unexpected token %q", ticket.Token)
	}
	if got := logins.Load(); got != 2 {
		t.Fatalf("expected exactly one retry, got %d attempts", got)
	}
}

func TestGetTicketFailsWhenRetryAlsoRejected(t *testing.T) {
	source, _ := newTicketSourceForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `coe.alreadyAuthenticated`)
	}))

	if _, err := source.GetTicket(context.Background()); err == nil {
		t.Fatalf("expected failure when the retry is also rejected")
	}
}
