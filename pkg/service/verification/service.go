package verification

import (
	"context"
	"fmt"
	"time"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
	"github.com/tbd54566975/dcc-verifier/internal/hcert"
	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
	"github.com/tbd54566975/dcc-verifier/pkg/service/framework"
)

// TrustSource looks up the trust entries of a base64 key identifier
type TrustSource interface {
	GetCertificatesBy(kid string) []keyaccess.TrustEntry
}

// RuleSource selects the rules that apply to a certificate
type RuleSource interface {
	GetRulesBy(validationClock time.Time, destinationCountry, issuingCountry string, certType hcert.CertificateType) []certlogic.Rule
}

// ValueSetSource provides the member codes of every value set
type ValueSetSource interface {
	GetValueSetCodes() map[string][]string
}

type Service struct {
	config config.VerificationServiceConfig

	// external dependencies
	trust     TrustSource
	rules     RuleSource
	valueSets ValueSetSource
	engine    certlogic.Engine
	clock     clock.Clock
	metrics   *Metrics
}

func (s *Service) Type() framework.Type {
	return framework.Verification
}

func (s *Service) Status() framework.Status {
	ae := sdkutil.NewAppendError()
	if s.trust == nil {
		ae.AppendString("no trust source configured")
	}
	if s.rules == nil {
		ae.AppendString("no rule source configured")
	}
	if s.valueSets == nil {
		ae.AppendString("no value set source configured")
	}
	if s.engine == nil {
		ae.AppendString("no rule engine configured")
	}
	if !ae.IsEmpty() {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: fmt.Sprintf("verification service is not ready: %s", ae.Error().Error()),
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s *Service) Config() config.VerificationServiceConfig {
	return s.config
}

// Option customizes a verification service
type Option func(*Service)

// WithClock sets the clock validation instants are read from
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithMetrics sets where verifications are recorded
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewVerificationService(config config.VerificationServiceConfig, trust TrustSource, rules RuleSource,
	valueSets ValueSetSource, engine certlogic.Engine, opts ...Option) (*Service, error) {
	if config.MaxDecompressedBytes <= 0 {
		config.MaxDecompressedBytes = 400 * 1024
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = 1
	}
	service := Service{
		config:    config,
		trust:     trust,
		rules:     rules,
		valueSets: valueSets,
		engine:    engine,
		clock:     clock.New(),
		metrics:   defaultMetrics,
	}
	for _, opt := range opts {
		opt(&service)
	}
	if !service.Status().IsReady() {
		return nil, errors.New(service.Status().Message)
	}
	return &service, nil
}

// Verify decodes a scanned credential, checks its signature against the trust list and validates
// it against the rules of the destination country. Every outcome of the credential itself is
// reported in the returned report; the only error is the context's.
func (s *Service) Verify(ctx context.Context, request VerifyRequest) (*VerificationReport, error) {
	start := time.Now()
	report := VerificationReport{
		ID:              uuid.NewString(),
		ValidationClock: s.clock.Now().UTC(),
		Outcomes:        []certlogic.ValidationResult{},
	}
	logger := logrus.WithField("verification", report.ID)
	logger.Debug("verifying credential")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inner, result, err := s.decode(ctx, request.Credential, report.ValidationClock)
	if err != nil {
		return nil, err
	}

	if inner.Data != nil && inner.Base64KID != "" && result.RulesApplicable() {
		outcomes, failed, err := s.validateRules(ctx, inner.Data, request.CountryCode, inner.Base64KID, report.ValidationClock)
		if err != nil {
			return nil, err
		}
		report.Outcomes = outcomes
		result.RulesValidationFailed = failed
	}

	report.Inner = inner
	report.Diagnostics = result
	report.Certificate = inner.Data
	report.Verdict = composeVerdict(inner, result)

	s.metrics.ObserveVerification(report.Verdict, start)
	logger.WithFields(logrus.Fields{
		"verdict": report.Verdict,
		"kid":     inner.Base64KID,
		"errors":  result.Errors,
	}).Info("verified credential")
	return &report, nil
}
