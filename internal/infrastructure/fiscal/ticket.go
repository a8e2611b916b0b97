package fiscal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Ticket is the short-lived credential WSAA issues for calling the invoicing
// service. It is valid for roughly twelve hours.
type Ticket struct {
	Token     string
	Sign      string
	ExpiresAt time.Time
}

// expiryMargin is how much remaining validity a cached ticket must have
// before it is considered stale and re-acquired.
const expiryMargin = 5 * time.Minute

func (t *Ticket) valid(now time.Time) bool {
	return t != nil && t.ExpiresAt.After(now.Add(expiryMargin))
}

// TicketSource obtains and caches WSAA tickets. Tickets are expensive and
// rate-limited to obtain, so the source is meant to live as a singleton: one
// cached ticket serves every concurrent order submission, and the lock
// guarantees that at most one login exchange is in flight at a time.
type TicketSource struct {
	httpClient *http.Client
	settings   *Settings
	signer     RequestSigner
	logger     zerolog.Logger

	mu     sync.RWMutex
	cached *Ticket

	// overridable in tests
	now       func() time.Time
	retryWait time.Duration
}

// NewTicketSource creates a ticket source backed by the configured WSAA
// endpoint
func NewTicketSource(httpClient *http.Client, settings *Settings, signer RequestSigner, logger zerolog.Logger) *TicketSource {
	return &TicketSource{
		httpClient: httpClient,
		settings:   settings,
		signer:     signer,
		logger:     logger,
		now:        time.Now,
		retryWait:  30 * time.Second,
	}
}

// GetTicket returns the cached ticket while it has more than the safety
// margin of validity left, otherwise performs the login exchange. Concurrent
// callers during a refresh block until the first one has cached the new
// ticket and then all observe it.
func (s *TicketSource) GetTicket(ctx context.Context) (*Ticket, error) {
	s.mu.RLock()
	ticket := s.cached
	s.mu.RUnlock()
	if ticket.valid(s.now()) {
		return ticket, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check: another caller may have refreshed while we waited for the lock.
	if s.cached.valid(s.now()) {
		return s.cached, nil
	}

	s.logger.Info().Str("endpoint", s.settings.AuthURL()).Msg("requesting new fiscal ticket")

	ticket, err := s.login(ctx)
	if err != nil {
		return nil, err
	}

	s.cached = ticket
	s.logger.Info().Time("expires_at", ticket.ExpiresAt).Msg("fiscal ticket obtained")
	return ticket, nil
}

func (s *TicketSource) login(ctx context.Context) (*Ticket, error) {
	loginXML := s.buildLoginRequest()

	signed, err := s.signer.Sign([]byte(loginXML))
	if err != nil {
		return nil, fmt.Errorf("sign login request: %w", err)
	}

	envelope := buildLoginEnvelope(base64.StdEncoding.EncodeToString(signed))

	status, body, err := s.post(ctx, envelope)
	if err != nil {
		return nil, fmt.Errorf("wsaa login: %w", err)
	}

	if status != http.StatusOK {
		// The authority still holds a valid ticket for this certificate from
		// a previous run. Wait out the overlap window and retry exactly once.
		if strings.Contains(strings.ToLower(body), "coe.alreadyauthenticated") {
			s.logger.Warn().Msg("fiscal authority reports an outstanding ticket, retrying after backoff")

			select {
			case <-time.After(s.retryWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			status, body, err = s.post(ctx, envelope)
			if err != nil {
				return nil, fmt.Errorf("wsaa login retry: %w", err)
			}
		}

		if status != http.StatusOK {
			return nil, fmt.Errorf("wsaa login failed with status %d: %s", status, body)
		}
	}

	return parseTicketResponse(body)
}

// buildLoginRequest states a generation time slightly in the past and an
// expiration a couple of minutes ahead so moderate clock skew against the
// authority does not invalidate the request.
func (s *TicketSource) buildLoginRequest() string {
	now := s.now().UTC()
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<loginTicketRequest version="1.0">
  <header>
    <uniqueId>%d</uniqueId>
    <generationTime>%s</generationTime>
    <expirationTime>%s</expirationTime>
  </header>
  <service>wsfe</service>
</loginTicketRequest>`,
		uint32(now.Unix()),
		now.Add(-10*time.Minute).Format("2006-01-02T15:04:05Z"),
		now.Add(2*time.Minute).Format("2006-01-02T15:04:05Z"),
	)
}

func buildLoginEnvelope(base64CMS string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"
                  xmlns:wsaa="http://wsaa.view.sua.dvadac.desein.afip.gov">
  <soapenv:Header/>
  <soapenv:Body>
    <wsaa:loginCms>
      <wsaa:in0>%s</wsaa:in0>
    </wsaa:loginCms>
  </soapenv:Body>
</soapenv:Envelope>`, base64CMS)
}

func (s *TicketSource) post(ctx context.Context, envelope string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.settings.AuthURL(), bytes.NewBufferString(envelope))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, string(body), nil
}

type loginResponseEnvelope struct {
	Return string `xml:"Body>loginCmsResponse>loginCmsReturn"`
}

type loginTicketResponse struct {
	ExpirationTime string `xml:"header>expirationTime"`
	Token          string `xml:"credentials>token"`
	Sign           string `xml:"credentials>sign"`
}

func parseTicketResponse(soapBody string) (*Ticket, error) {
	var envelope loginResponseEnvelope
	if err := xml.Unmarshal([]byte(soapBody), &envelope); err != nil {
		return nil, fmt.Errorf("parse wsaa response: %w", err)
	}
	if envelope.Return == "" {
		return nil, fmt.Errorf("wsaa response does not contain loginCmsReturn")
	}

	// The return value is itself an XML document embedded as text.
	var ticket loginTicketResponse
	if err := xml.Unmarshal([]byte(envelope.Return), &ticket); err != nil {
		return nil, fmt.Errorf("parse login ticket: %w", err)
	}
	if ticket.Token == "" || ticket.Sign == "" {
		return nil, fmt.Errorf("wsaa response is missing token or sign")
	}

	expiresAt, err := time.Parse(time.RFC3339, ticket.ExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("parse ticket expiration %q: %w", ticket.ExpirationTime, err)
	}

	return &Ticket{
		Token:     ticket.Token,
		Sign:      ticket.Sign,
		ExpiresAt: expiresAt,
	}, nil
}
