package verification

import (
	"time"

	"github.com/TBD54566975/ssi-sdk/util"

	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
	"github.com/tbd54566975/dcc-verifier/internal/hcert"
)

// Verdict is the terminal outcome of one verification
type Verdict string

const (
	Success               Verdict = "SUCCESS"
	RulesValidationFailed Verdict = "RULES_VALIDATION_FAILED"
	Failed                Verdict = "FAILED"
)

// InnerStageResult is the outcome of the decode chain and trust resolution
type InnerStageResult struct {
	NoPublicKeysFound  bool `json:"noPublicKeysFound"`
	CertificateExpired bool `json:"certificateExpired"`
	// IsApplicableCode is set once the payload decoded far enough to yield a key identifier
	IsApplicableCode bool                        `json:"isApplicableCode"`
	Base64KID        string                      `json:"kid,omitempty"`
	Data             *hcert.GreenCertificateData `json:"-"`
}

type VerifyRequest struct {
	// Credential is the scanned text, such as HC1:...
	Credential string `json:"credential"`
	// CountryCode is the destination country. Blank skips rule validation.
	CountryCode string `json:"countryCode,omitempty"`
}

type VerificationReport struct {
	// ID identifies this verification attempt in logs
	ID              string                       `json:"id"`
	ValidationClock time.Time                    `json:"validationClock"`
	Verdict         Verdict                      `json:"verdict"`
	Inner           InnerStageResult             `json:"inner"`
	Diagnostics     hcert.DecodeResult           `json:"diagnostics"`
	Outcomes        []certlogic.ValidationResult `json:"outcomes"`
	// Certificate is the decoded certificate for display, when decoding got that far
	Certificate *hcert.GreenCertificateData `json:"certificate,omitempty"`
}

type BatchVerifyRequest struct {
	Requests []VerifyRequest `json:"requests" validate:"required"`
}

func (r BatchVerifyRequest) IsValid() bool {
	return util.IsValidStruct(r) == nil
}

type BatchVerifyResponse struct {
	Reports []VerificationReport `json:"reports"`
}
