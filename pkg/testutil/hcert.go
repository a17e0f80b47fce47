package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/veraison/go-cose"

	"github.com/tbd54566975/dcc-verifier/internal/hcert"
	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
)

// TestSigner is a document signer certificate and its key, used to issue test credentials
type TestSigner struct {
	Algorithm   cose.Algorithm
	PrivateKey  crypto.Signer
	Certificate *x509.Certificate
	// RawCertificate is the DER encoded certificate, the form trust entries carry
	RawCertificate []byte
	KID            []byte
}

// Base64KID is the kid as trust lists key it
func (s TestSigner) Base64KID() string {
	return base64.StdEncoding.EncodeToString(s.KID)
}

// TrustEntry is the trust list entry of the signer's certificate
func (s TestSigner) TrustEntry() keyaccess.TrustEntry {
	return keyaccess.TrustEntry{KID: s.Base64KID(), Country: "SI", RawData: s.RawCertificate}
}

// NewTestSigner creates an ES256 signer whose certificate is valid from notBefore to notAfter
func NewTestSigner(t *testing.T, notBefore, notAfter time.Time, extKeyUsages ...asn1.ObjectIdentifier) TestSigner {
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return newTestSigner(t, cose.AlgorithmES256, privKey, notBefore, notAfter, extKeyUsages...)
}

// NewRSATestSigner creates a PS256 signer
func NewRSATestSigner(t *testing.T, notBefore, notAfter time.Time) TestSigner {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return newTestSigner(t, cose.AlgorithmPS256, privKey, notBefore, notAfter)
}

func newTestSigner(t *testing.T, alg cose.Algorithm, privKey crypto.Signer, notBefore, notAfter time.Time, extKeyUsages ...asn1.ObjectIdentifier) TestSigner {
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	require.NoError(t, err)
	template := x509.Certificate{
		SerialNumber:       serial,
		Subject:            pkix.Name{Country: []string{"SI"}, CommonName: "DSC test"},
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		KeyUsage:           x509.KeyUsageDigitalSignature,
		UnknownExtKeyUsage: extKeyUsages,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, privKey.Public(), privKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	// the kid of a document signer is the first 8 bytes of its certificate's SHA-256
	sum := sha256.Sum256(der)
	return TestSigner{
		Algorithm:      alg,
		PrivateKey:     privKey,
		Certificate:    cert,
		RawCertificate: der,
		KID:            sum[:8],
	}
}

// SignCOSE signs a CWT payload as a COSE_Sign1 message carrying kid in its protected header
func (s TestSigner) SignCOSE(t *testing.T, payload []byte, kid []byte) []byte {
	signer, err := cose.NewSigner(s.Algorithm, s.PrivateKey)
	require.NoError(t, err)

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(s.Algorithm)
	if kid != nil {
		msg.Headers.Protected[cose.HeaderLabelKeyID] = kid
	}
	msg.Payload = payload
	require.NoError(t, msg.Sign(rand.Reader, nil, signer))

	raw, err := msg.MarshalCBOR()
	require.NoError(t, err)
	return raw
}

// Issue encodes, signs, compresses and base45 encodes a certificate into scannable text
func (s TestSigner) Issue(t *testing.T, cert hcert.GreenCertificate, issuer string, issuedAt, expiresAt time.Time) string {
	return s.IssueWithKID(t, cert, issuer, issuedAt, expiresAt, s.KID)
}

// IssueWithKID is Issue with an explicit kid, nil for none
func (s TestSigner) IssueWithKID(t *testing.T, cert hcert.GreenCertificate, issuer string, issuedAt, expiresAt time.Time, kid []byte) string {
	claims, err := hcert.EncodeClaims(issuer, issuedAt, expiresAt, cert)
	require.NoError(t, err)
	return EncodeCOSE(t, s.SignCOSE(t, claims, kid))
}

// EncodeCOSE compresses and base45 encodes a COSE message behind the HC1 prefix
func EncodeCOSE(t *testing.T, coseBytes []byte) string {
	compressed, err := hcert.Deflate(coseBytes)
	require.NoError(t, err)
	return hcert.HC1Prefix + hcert.Base45Encode(compressed)
}

// VaccinationCertificate is a completed two dose vaccination issued in country
func VaccinationCertificate(country string) hcert.GreenCertificate {
	return hcert.GreenCertificate{
		SchemaVersion: "1.3.0",
		Person: hcert.Person{
			FamilyName:             "Novak",
			StandardisedFamilyName: "NOVAK",
			GivenName:              "Ana",
			StandardisedGivenName:  "ANA",
		},
		DateOfBirth: "1980-04-12",
		Vaccinations: []hcert.VaccinationEntry{{
			Disease:               "840539006",
			VaccineOrProphylaxis:  "1119349007",
			MedicinalProduct:      "EU/1/20/1528",
			Manufacturer:          "ORG-100030215",
			DoseNumber:            2,
			TotalSeriesOfDoses:    2,
			DateOfVaccination:     "2021-06-01",
			CountryOfVaccination:  country,
			CertificateIssuer:     "Ministry of Health",
			CertificateIdentifier: "URN:UVCI:01:SI:VACC0001#K",
		}},
	}
}

// TestCertificate carries a single test statement with the given result and collection time
func TestCertificate(country, result string, collected time.Time) hcert.GreenCertificate {
	cert := VaccinationCertificate(country)
	cert.Vaccinations = nil
	cert.Tests = []hcert.TestStatement{{
		Disease:               "840539006",
		TypeOfTest:            "LP6464-4",
		TestName:              "PCR",
		DateTimeOfCollection:  collected.UTC().Format(time.RFC3339),
		TestResult:            result,
		TestingCentre:         "Test Centre Ljubljana",
		CountryOfVaccination:  country,
		CertificateIssuer:     "Ministry of Health",
		CertificateIdentifier: "URN:UVCI:01:SI:TEST0001#K",
	}}
	return cert
}

// RecoveryCertificate carries a single recovery statement valid between from and until
func RecoveryCertificate(country string, from, until time.Time) hcert.GreenCertificate {
	cert := VaccinationCertificate(country)
	cert.Vaccinations = nil
	cert.RecoveryStatements = []hcert.RecoveryStatement{{
		Disease:                 "840539006",
		DateOfFirstPositiveTest: from.AddDate(0, 0, -11).Format(time.DateOnly),
		CountryOfVaccination:    country,
		CertificateIssuer:       "Ministry of Health",
		CertificateValidFrom:    from.Format(time.DateOnly),
		CertificateValidUntil:   until.Format(time.DateOnly),
		CertificateIdentifier:   "URN:UVCI:01:SI:REC0001#K",
	}}
	return cert
}
