package verification

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
	"github.com/tbd54566975/dcc-verifier/internal/hcert"
)

// ruleCertificateType classifies a certificate for rule selection. Recovery takes precedence
// over vaccination, and a certificate with neither is treated as a test.
func ruleCertificateType(cert hcert.GreenCertificate) hcert.CertificateType {
	switch {
	case len(cert.RecoveryStatements) > 0:
		return hcert.Recovery
	case len(cert.Vaccinations) > 0:
		return hcert.Vaccination
	default:
		// TODO: certificates without any statement should get a type of their own instead of Test
		return hcert.Test
	}
}

// issuingCountry prefers the issuer claim over the country of the certificate's first statement
func issuingCountry(data *hcert.GreenCertificateData) string {
	country := data.IssuingCountry
	if strings.TrimSpace(country) == "" {
		country = data.Certificate.IssuingCountry()
	}
	return strings.ToLower(strings.TrimSpace(country))
}

// validateRules evaluates the rules of destinationCountry against the certificate at now. It
// returns no outcomes when destinationCountry is blank. Any outcome other than passed fails the
// validation.
func (s *Service) validateRules(ctx context.Context, data *hcert.GreenCertificateData, destinationCountry, kid string,
	now time.Time) ([]certlogic.ValidationResult, bool, error) {
	destination := strings.ToLower(strings.TrimSpace(destinationCountry))
	if destination == "" {
		return []certlogic.ValidationResult{}, false, nil
	}

	certType := ruleCertificateType(data.Certificate)
	issuer := issuingCountry(data)
	rules := s.rules.GetRulesBy(now, destination, issuer, certType)
	external := certlogic.ExternalParameter{
		ValidationClock:   now,
		ValueSets:         s.valueSets.GetValueSetCodes(),
		CountryCode:       destination,
		Expiration:        data.ExpirationTime,
		IssuedAt:          data.IssuedAt,
		IssuerCountryCode: issuer,
		KID:               kid,
	}

	outcomes, err := s.engine.Validate(ctx, certType, data.Certificate.SchemaVersion, rules, external, data.HCertJSON)
	if err != nil {
		return nil, false, err
	}
	if outcomes == nil {
		outcomes = []certlogic.ValidationResult{}
	}

	failed := false
	for _, outcome := range outcomes {
		if outcome.Result != certlogic.Passed {
			failed = true
			break
		}
	}
	logrus.WithFields(logrus.Fields{
		"destination": destination,
		"issuer":      issuer,
		"rules":       len(rules),
		"failed":      failed,
	}).Debug("validated rules")
	return outcomes, failed, nil
}
