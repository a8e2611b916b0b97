package fiscal

// Settings holds the taxpayer identity and protocol parameters for the
// ARCA (ex-AFIP) electronic invoicing services.
type Settings struct {
	// CUIT is the taxpayer id the certificate was issued for
	CUIT int64

	// PointOfSale and InvoiceType identify the invoice-number sequence this
	// client must keep correlative (no gaps, no duplicates).
	PointOfSale int
	InvoiceType int

	// Buyer defaults for anonymous retail sales ("Consumidor Final")
	DocumentType        int
	DocumentNumber      int64
	BuyerTaxConditionID int

	// PEM files holding the taxpayer certificate and private key used to
	// sign WSAA login requests.
	CertificatePath string
	PrivateKeyPath  string

	// Environment selects the authority endpoints: "production" or anything
	// else for the homologation (testing) environment.
	Environment string

	// Explicit endpoint overrides, used by tests. When empty the
	// environment's well-known URLs are used.
	AuthEndpoint    string
	InvoiceEndpoint string
}

const (
	wsaaProductionURL   = "https://wsaa.afip.gov.ar/ws/services/LoginCms"
	wsaaHomologationURL = "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"
	wsfeProductionURL   = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"
	wsfeHomologationURL = "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
)

// AuthURL returns the WSAA login endpoint
func (s *Settings) AuthURL() string {
	if s.AuthEndpoint != "" {
		return s.AuthEndpoint
	}
	if s.Environment == "production" {
		return wsaaProductionURL
	}
	return wsaaHomologationURL
}

// InvoiceURL returns the WSFE invoicing endpoint
func (s *Settings) InvoiceURL() string {
	if s.InvoiceEndpoint != "" {
		return s.InvoiceEndpoint
	}
	if s.Environment == "production" {
		return wsfeProductionURL
	}
	return wsfeHomologationURL
}
