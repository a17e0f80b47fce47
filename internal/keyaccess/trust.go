package keyaccess

import (
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"time"

	"github.com/goccy/go-json"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"

	"github.com/tbd54566975/dcc-verifier/internal/hcert"
)

// Extended key usages a document signer certificate may carry to restrict the certificate types it signs
var (
	OIDTest        = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 1847, 2021, 1, 1}
	OIDVaccination = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 1847, 2021, 1, 2}
	OIDRecovery    = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 1847, 2021, 1, 3}
)

// TrustEntry is one public key credential of the trust list. Several entries may share a kid.
type TrustEntry struct {
	ID string `json:"id,omitempty"`
	// KID is the standard base64 key identifier certificates reference
	KID     string `json:"kid" validate:"required"`
	Country string `json:"country,omitempty"`
	// RawData is a DER encoded X.509 certificate; exactly one of RawData and JWK is set
	RawData []byte          `json:"rawData,omitempty"`
	JWK     json.RawMessage `json:"jwk,omitempty"`
}

func (e TrustEntry) IsEmpty() bool {
	return len(e.RawData) == 0 && len(e.JWK) == 0
}

// Certificate parses the X.509 form of the entry
func (e TrustEntry) Certificate() (*x509.Certificate, error) {
	if len(e.RawData) == 0 {
		return nil, errors.Errorf("trust entry<%s> carries no certificate", e.KID)
	}
	cert, err := x509.ParseCertificate(e.RawData)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing certificate of trust entry<%s>", e.KID)
	}
	return cert, nil
}

// NotAfter is the instant after which the entry no longer vouches for anything. JWK entries do
// not expire.
func (e TrustEntry) NotAfter() (time.Time, bool) {
	if len(e.RawData) == 0 {
		return time.Time{}, false
	}
	cert, err := e.Certificate()
	if err != nil {
		return time.Time{}, false
	}
	return cert.NotAfter, true
}

// IsExpiredAt reports whether now is strictly after the entry's expiry
func (e TrustEntry) IsExpiredAt(now time.Time) bool {
	notAfter, ok := e.NotAfter()
	return ok && now.After(notAfter)
}

// PublicKey returns the public key of the entry, from the certificate when there is one
func PublicKey(entry TrustEntry) (crypto.PublicKey, error) {
	if len(entry.RawData) > 0 {
		cert, err := entry.Certificate()
		if err != nil {
			return nil, err
		}
		return cert.PublicKey, nil
	}
	if len(entry.JWK) == 0 {
		return nil, errors.Errorf("trust entry<%s> carries no key material", entry.KID)
	}
	key, err := jwk.ParseKey(entry.JWK)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing jwk of trust entry<%s>", entry.KID)
	}
	var pubKey any
	if err = key.Raw(&pubKey); err != nil {
		return nil, errors.Wrapf(err, "getting raw key of trust entry<%s>", entry.KID)
	}
	return pubKey, nil
}

// allowsType checks the DCC extended key usages of a certificate. A certificate carrying none of
// them may sign every type.
func allowsType(cert *x509.Certificate, certType hcert.CertificateType) bool {
	var restricted, test, vaccination, recovery bool
	for _, oid := range cert.UnknownExtKeyUsage {
		switch {
		case oid.Equal(OIDTest):
			restricted, test = true, true
		case oid.Equal(OIDVaccination):
			restricted, vaccination = true, true
		case oid.Equal(OIDRecovery):
			restricted, recovery = true, true
		}
	}
	if !restricted {
		return true
	}
	switch certType {
	case hcert.Test:
		return test
	case hcert.Vaccination:
		return vaccination
	case hcert.Recovery:
		return recovery
	default:
		return false
	}
}
