package hcert

import (
	"strings"
	"time"
)

// CertificateType is the kind of statement a certificate carries
type CertificateType string

const (
	Vaccination CertificateType = "VACCINATION"
	Recovery    CertificateType = "RECOVERY"
	Test        CertificateType = "TEST"
	Unknown     CertificateType = "UNKNOWN"

	// TestResultNotDetected is the SNOMED CT code of a negative test
	TestResultNotDetected = "260415000"
	// TestResultDetected is the SNOMED CT code of a positive test
	TestResultDetected = "260373001"
)

// GreenCertificateData is the decoded CWT: its claims and the certificate payload
type GreenCertificateData struct {
	IssuingCountry string           `json:"issuingCountry,omitempty"`
	IssuedAt       time.Time        `json:"issuedAt"`
	ExpirationTime time.Time        `json:"expirationTime"`
	Certificate    GreenCertificate `json:"certificate"`
	// HCertJSON is the certificate payload as JSON, the form rules are evaluated against
	HCertJSON string `json:"-"`
}

type GreenCertificate struct {
	SchemaVersion      string              `json:"ver"`
	Person             Person              `json:"nam"`
	DateOfBirth        string              `json:"dob"`
	Vaccinations       []VaccinationEntry  `json:"v,omitempty"`
	Tests              []TestStatement     `json:"t,omitempty"`
	RecoveryStatements []RecoveryStatement `json:"r,omitempty"`
}

type Person struct {
	StandardisedFamilyName string `json:"fnt"`
	FamilyName             string `json:"fn,omitempty"`
	StandardisedGivenName  string `json:"gnt,omitempty"`
	GivenName              string `json:"gn,omitempty"`
}

// FullName joins the given and family names for display
func (p Person) FullName() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{p.GivenName, p.FamilyName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(p.StandardisedGivenName + " " + p.StandardisedFamilyName)
	}
	return strings.Join(parts, " ")
}

type VaccinationEntry struct {
	Disease               string `json:"tg"`
	VaccineOrProphylaxis  string `json:"vp"`
	MedicinalProduct      string `json:"mp"`
	Manufacturer          string `json:"ma"`
	DoseNumber            int    `json:"dn"`
	TotalSeriesOfDoses    int    `json:"sd"`
	DateOfVaccination     string `json:"dt"`
	CountryOfVaccination  string `json:"co"`
	CertificateIssuer     string `json:"is"`
	CertificateIdentifier string `json:"ci"`
}

type TestStatement struct {
	Disease                 string `json:"tg"`
	TypeOfTest              string `json:"tt"`
	TestName                string `json:"nm,omitempty"`
	TestNameAndManufacturer string `json:"ma,omitempty"`
	DateTimeOfCollection    string `json:"sc"`
	TestResult              string `json:"tr"`
	TestingCentre           string `json:"tc,omitempty"`
	CountryOfVaccination    string `json:"co"`
	CertificateIssuer       string `json:"is"`
	CertificateIdentifier   string `json:"ci"`
}

// IsResultNegative reports whether the test did not detect the disease
func (t TestStatement) IsResultNegative() bool {
	return t.TestResult == TestResultNotDetected
}

type RecoveryStatement struct {
	Disease                 string `json:"tg"`
	DateOfFirstPositiveTest string `json:"fr"`
	CountryOfVaccination    string `json:"co"`
	CertificateIssuer       string `json:"is"`
	CertificateValidFrom    string `json:"df"`
	CertificateValidUntil   string `json:"du"`
	CertificateIdentifier   string `json:"ci"`
}

// Type classifies a certificate by the first kind of statement present, in the order
// vaccination, recovery, test
func (g GreenCertificate) Type() CertificateType {
	switch {
	case len(g.Vaccinations) > 0:
		return Vaccination
	case len(g.RecoveryStatements) > 0:
		return Recovery
	case len(g.Tests) > 0:
		return Test
	default:
		return Unknown
	}
}

// IssuingCountry is the country of the first statement, empty when there are none
func (g GreenCertificate) IssuingCountry() string {
	switch {
	case len(g.Vaccinations) > 0:
		return g.Vaccinations[0].CountryOfVaccination
	case len(g.RecoveryStatements) > 0:
		return g.RecoveryStatements[0].CountryOfVaccination
	case len(g.Tests) > 0:
		return g.Tests[0].CountryOfVaccination
	default:
		return ""
	}
}
