package certlogic

import (
	"strings"
	"time"

	"github.com/tbd54566975/dcc-verifier/internal/hcert"
)

type (
	RuleType            string
	RuleCertificateType string
	Result              string
)

const (
	Acceptance   RuleType = "Acceptance"
	Invalidation RuleType = "Invalidation"

	General     RuleCertificateType = "General"
	Test        RuleCertificateType = "Test"
	Vaccination RuleCertificateType = "Vaccination"
	Recovery    RuleCertificateType = "Recovery"

	Passed Result = "PASSED"
	Fail   Result = "FAIL"
	// Open is the outcome of a rule that could not be decided, such as one reading missing data
	Open Result = "OPEN"
)

// RuleCertificateTypeOf maps a certificate type to the rule certificate type that targets it
func RuleCertificateTypeOf(certType hcert.CertificateType) RuleCertificateType {
	switch certType {
	case hcert.Vaccination:
		return Vaccination
	case hcert.Recovery:
		return Recovery
	default:
		return Test
	}
}

type Description struct {
	Lang string `json:"lang"`
	Desc string `json:"desc"`
}

// Rule is a business rule a certificate is validated against
type Rule struct {
	Identifier      string              `json:"identifier" validate:"required"`
	Type            RuleType            `json:"type" validate:"required,oneof=Acceptance Invalidation"`
	Version         string              `json:"version" validate:"required"`
	SchemaVersion   string              `json:"schemaVersion" validate:"required"`
	Engine          string              `json:"engine"`
	EngineVersion   string              `json:"engineVersion"`
	CertificateType RuleCertificateType `json:"certificateType" validate:"required,oneof=General Test Vaccination Recovery"`
	Descriptions    []Description       `json:"descriptions,omitempty"`
	ValidFrom       time.Time           `json:"validFrom"`
	ValidTo         time.Time           `json:"validTo"`
	AffectedFields  []string            `json:"affectedFields,omitempty"`
	// Logic is a CEL expression over payload and external that must evaluate to a bool
	Logic       string `json:"logic" validate:"required"`
	CountryCode string `json:"countryCode" validate:"required"`
	Region      string `json:"region,omitempty"`
}

// Normalize returns the rule with UTC validity bounds and lowercased description languages
func (r Rule) Normalize() Rule {
	r.ValidFrom = r.ValidFrom.UTC()
	r.ValidTo = r.ValidTo.UTC()
	if len(r.Descriptions) > 0 {
		descriptions := make([]Description, len(r.Descriptions))
		for i, d := range r.Descriptions {
			descriptions[i] = Description{Lang: strings.ToLower(d.Lang), Desc: d.Desc}
		}
		r.Descriptions = descriptions
	}
	return r
}

// IsValidAt reports whether t falls inside the rule's validity window, bounds included
func (r Rule) IsValidAt(t time.Time) bool {
	return !t.Before(r.ValidFrom) && !t.After(r.ValidTo)
}

// ExternalParameter is the context a validation needs beyond the certificate itself
type ExternalParameter struct {
	ValidationClock   time.Time           `json:"validationClock"`
	ValueSets         map[string][]string `json:"valueSets"`
	CountryCode       string              `json:"countryCode"`
	Expiration        time.Time           `json:"exp"`
	IssuedAt          time.Time           `json:"iat"`
	IssuerCountryCode string              `json:"issuerCountryCode"`
	KID               string              `json:"kid"`
	Region            string              `json:"region"`
}

// variables is the form rule expressions read as `external`
func (e ExternalParameter) variables() map[string]any {
	valueSets := make(map[string]any, len(e.ValueSets))
	for id, codes := range e.ValueSets {
		valueSets[id] = codes
	}
	return map[string]any{
		"validationClock":   e.ValidationClock,
		"valueSets":         valueSets,
		"countryCode":       e.CountryCode,
		"exp":               e.Expiration,
		"iat":               e.IssuedAt,
		"issuerCountryCode": e.IssuerCountryCode,
		"kid":               e.KID,
		"region":            e.Region,
	}
}

// ValidationResult is the outcome of one rule
type ValidationResult struct {
	Rule   Rule   `json:"rule"`
	Result Result `json:"result"`
	// Current is the value the expression produced, when it produced one
	Current          string   `json:"current,omitempty"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
}
