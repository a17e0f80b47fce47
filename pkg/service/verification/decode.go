package verification

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/internal/hcert"
	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
)

// decode runs the decode chain over raw and resolves the signer of the payload. Every stage
// threads the same DecodeResult through; the chain stops at the first stage that yields nothing
// to continue with.
func (s *Service) decode(ctx context.Context, raw string, now time.Time) (InnerStageResult, hcert.DecodeResult, error) {
	var result hcert.DecodeResult
	inner := InnerStageResult{NoPublicKeysFound: true}

	text, result := hcert.StripPrefix(raw, result)
	compressed, result := hcert.DecodeBase45(text, result)
	if compressed == nil {
		return inner, result, nil
	}
	coseBytes, result := hcert.Decompress(compressed, s.config.MaxDecompressedBytes, result)
	if coseBytes == nil {
		logrus.Debug("verification failed: payload did not decompress")
		return inner, result, nil
	}
	coseData, result := hcert.DecodeCOSE(coseBytes, result)
	if coseData == nil {
		logrus.Debug("verification failed: cose not decoded")
		return inner, result, nil
	}
	if err := ctx.Err(); err != nil {
		return inner, result, err
	}

	inner.IsApplicableCode = true
	inner.Base64KID = coseData.Base64KID()

	result = hcert.ValidateSchema(coseData.Payload, result)
	data, result := hcert.DecodeCBOR(coseData.Payload, result)
	inner.Data = data
	certType := hcert.Unknown
	if data != nil {
		result = hcert.CheckCertificate(data.Certificate, now, result)
		certType = data.Certificate.Type()
	}

	candidates := s.trust.GetCertificatesBy(inner.Base64KID)
	if len(candidates) == 0 {
		logrus.WithField("kid", inner.Base64KID).Debug("verification failed: no trust entries for kid")
		return inner, result, nil
	}
	if entry, ok := resolveSigner(coseData.Raw, candidates, certType); ok {
		result.SignatureVerified = true
		inner.NoPublicKeysFound = false
		if entry.IsExpiredAt(now) {
			inner.CertificateExpired = true
			result.Expired = true
		}
	}
	return inner, result, ctx.Err()
}

// resolveSigner returns the first candidate, in trust list order, whose key verifies the message
func resolveSigner(coseBytes []byte, candidates []keyaccess.TrustEntry, certType hcert.CertificateType) (keyaccess.TrustEntry, bool) {
	for _, candidate := range candidates {
		if keyaccess.VerifyCOSE(coseBytes, candidate, certType) {
			return candidate, true
		}
	}
	return keyaccess.TrustEntry{}, false
}
