package hcert

// DecodeResult collects the diagnostics of one pass through the decode chain. Stages take the
// result by value and return an updated copy, so a finished result is never shared or mutated.
// Fields keep their zero value ("not attempted") when the chain halts before reaching them.
type DecodeResult struct {
	// ContextPrefix is the recognized scheme prefix, empty when none matched
	ContextPrefix         string                      `json:"contextPrefix,omitempty"`
	PrefixValid           bool                        `json:"prefixValid"`
	Base45Decoded         bool                        `json:"base45Decoded"`
	ZlibDecoded           bool                        `json:"zlibDecoded"`
	CoseDecoded           bool                        `json:"coseDecoded"`
	SchemaValid           bool                        `json:"schemaValid"`
	CborDecoded           bool                        `json:"cborDecoded"`
	SignatureVerified     bool                        `json:"signatureVerified"`
	Expired               bool                        `json:"expired"`
	RulesValidationFailed bool                        `json:"rulesValidationFailed"`
	TestVerification      *TestVerificationResult     `json:"testVerification,omitempty"`
	RecoveryVerification  *RecoveryVerificationResult `json:"recoveryVerification,omitempty"`
	// Errors holds a short reason per failed stage, in stage order
	Errors []string `json:"errors,omitempty"`
}

// TestVerificationResult is computed over every test statement of a certificate
type TestVerificationResult struct {
	ResultNegative bool `json:"resultNegative"`
	DateInThePast  bool `json:"dateInThePast"`
}

func (t TestVerificationResult) IsValid() bool {
	return t.ResultNegative && t.DateInThePast
}

// RecoveryVerificationResult is computed for the first recovery statement of a certificate
type RecoveryVerificationResult struct {
	NotValidSoFar   bool `json:"notValidSoFar"`
	NotValidAnymore bool `json:"notValidAnymore"`
}

func (r RecoveryVerificationResult) IsValid() bool {
	return !r.NotValidSoFar && !r.NotValidAnymore
}

// StagesSucceeded reports whether every decode stage, including schema validation, passed
func (d DecodeResult) StagesSucceeded() bool {
	return d.Base45Decoded && d.ZlibDecoded && d.CoseDecoded && d.SchemaValid && d.CborDecoded
}

// CertificateChecksPassed reports the shape checks other than the test result itself
func (d DecodeResult) CertificateChecksPassed() bool {
	if d.TestVerification != nil && !d.TestVerification.DateInThePast {
		return false
	}
	if d.RecoveryVerification != nil && !d.RecoveryVerification.IsValid() {
		return false
	}
	return true
}

// IsTestWithPositiveResult is true only when a test statement was decoded and was not negative
func (d DecodeResult) IsTestWithPositiveResult() bool {
	return d.TestVerification != nil && !d.TestVerification.ResultNegative
}

// RulesApplicable reports whether business rules are evaluated for the credential. Signer
// expiry does not block the rules, so an expired signer still reports its rule outcomes.
func (d DecodeResult) RulesApplicable() bool {
	return d.StagesSucceeded() && d.SignatureVerified && d.CertificateChecksPassed() && !d.IsTestWithPositiveResult()
}

// IsValid reports whether the credential passed decoding, signature, shape checks and rules
func (d DecodeResult) IsValid() bool {
	return d.StagesSucceeded() && d.SignatureVerified && !d.Expired &&
		d.CertificateChecksPassed() && !d.IsTestWithPositiveResult() && !d.RulesValidationFailed
}

func (d DecodeResult) withError(reason string) DecodeResult {
	errs := make([]string, len(d.Errors), len(d.Errors)+1)
	copy(errs, d.Errors)
	d.Errors = append(errs, reason)
	return d
}
