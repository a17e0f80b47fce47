package hcert

import (
	"time"
)

// CheckCertificate records the test and recovery shape checks of a decoded certificate,
// evaluated at now. Certificates without such statements leave the result untouched.
func CheckCertificate(cert GreenCertificate, now time.Time, result DecodeResult) DecodeResult {
	if len(cert.Tests) > 0 {
		check := TestVerificationResult{ResultNegative: true, DateInThePast: true}
		for _, t := range cert.Tests {
			check.ResultNegative = check.ResultNegative && t.IsResultNegative()
			collected, ok := parseDateTime(t.DateTimeOfCollection)
			check.DateInThePast = check.DateInThePast && ok && collected.Before(now)
		}
		result.TestVerification = &check
	}

	if len(cert.RecoveryStatements) > 0 {
		r := cert.RecoveryStatements[0]
		var check RecoveryVerificationResult
		if from, ok := parseDateTime(r.CertificateValidFrom); ok {
			check.NotValidSoFar = from.After(now)
		}
		if until, ok := parseDateTime(r.CertificateValidUntil); ok {
			check.NotValidAnymore = until.Before(now)
		}
		result.RecoveryVerification = &check
	}
	return result
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// parseDateTime accepts the date and date-time forms found in certificates. Values without a
// zone are read as UTC.
func parseDateTime(value string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
