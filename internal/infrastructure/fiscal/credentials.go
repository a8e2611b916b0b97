package fiscal

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"go.mozilla.org/pkcs7"
)

// RequestSigner produces the CMS (PKCS#7) signature WSAA requires on login
// requests.
type RequestSigner interface {
	Sign(content []byte) ([]byte, error)
}

// FileSigner loads the taxpayer certificate and private key from PEM files
// and signs login requests with them.
type FileSigner struct {
	certificate *x509.Certificate
	privateKey  crypto.PrivateKey
}

// NewFileSigner reads and parses the PEM material once, up front, so a
// misconfigured path fails at boot instead of on the first sale.
func NewFileSigner(certificatePath, privateKeyPath string) (*FileSigner, error) {
	certificate, err := readPEMCertificate(certificatePath)
	if err != nil {
		return nil, fmt.Errorf("load fiscal certificate: %w", err)
	}

	privateKey, err := readPEMPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load fiscal private key: %w", err)
	}

	return &FileSigner{certificate: certificate, privateKey: privateKey}, nil
}

// Sign wraps the content in a signed CMS blob with only the end certificate
// attached
func (s *FileSigner) Sign(content []byte) ([]byte, error) {
	signed, err := pkcs7.NewSignedData(content)
	if err != nil {
		return nil, fmt.Errorf("build signed data: %w", err)
	}
	if err := signed.AddSigner(s.certificate, s.privateKey, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("sign login request: %w", err)
	}
	return signed.Finish()
}

func readPEMCertificate(path string) (*x509.Certificate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(raw)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("no CERTIFICATE block found")
	}
	return x509.ParseCertificate(block.Bytes)
}

func readPEMPrivateKey(path string) (crypto.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, errors.New("unsupported private key format")
}
