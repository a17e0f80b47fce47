package verification

import (
	"github.com/tbd54566975/dcc-verifier/internal/hcert"
)

// composeVerdict derives the verdict of a verification. The first matching case wins, so a
// positive test fails even when every rule passed.
func composeVerdict(inner InnerStageResult, result hcert.DecodeResult) Verdict {
	switch {
	case !inner.IsApplicableCode || inner.Base64KID == "" || inner.Data == nil:
		return Failed
	case !result.StagesSucceeded() || !result.SignatureVerified || inner.NoPublicKeysFound:
		return Failed
	case inner.CertificateExpired || result.Expired:
		return Failed
	case !result.CertificateChecksPassed():
		return Failed
	case result.IsTestWithPositiveResult():
		return Failed
	case result.RulesValidationFailed:
		return RulesValidationFailed
	default:
		return Success
	}
}
