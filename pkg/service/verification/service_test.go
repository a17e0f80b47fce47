package verification

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
	"github.com/tbd54566975/dcc-verifier/internal/certlogic/mocks"
	"github.com/tbd54566975/dcc-verifier/internal/hcert"
	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
	"github.com/tbd54566975/dcc-verifier/pkg/testutil"
)

func TestMain(m *testing.M) {
	testutil.EnableSchemaCaching()
	os.Exit(m.Run())
}

type fakeTrust struct {
	entries map[string][]keyaccess.TrustEntry
	lookups atomic.Int32
}

func newFakeTrust(entries ...keyaccess.TrustEntry) *fakeTrust {
	f := fakeTrust{entries: make(map[string][]keyaccess.TrustEntry)}
	for _, e := range entries {
		f.entries[e.KID] = append(f.entries[e.KID], e)
	}
	return &f
}

func (f *fakeTrust) GetCertificatesBy(kid string) []keyaccess.TrustEntry {
	f.lookups.Add(1)
	return f.entries[kid]
}

type fakeRules []certlogic.Rule

func (f fakeRules) GetRulesBy(time.Time, string, string, hcert.CertificateType) []certlogic.Rule {
	return f
}

type fakeValueSets map[string][]string

func (f fakeValueSets) GetValueSetCodes() map[string][]string {
	return f
}

var testValueSets = fakeValueSets{"covid-19-lab-result": {"260373001", "260415000"}}

type fixture struct {
	now    time.Time
	clock  *clock.Mock
	signer testutil.TestSigner
	trust  *fakeTrust
}

func newFixture(t *testing.T) *fixture {
	now := time.Now().UTC().Truncate(time.Second)
	mockClock := clock.NewMock()
	mockClock.Set(now)
	signer := testutil.NewTestSigner(t, now.AddDate(-1, 0, 0), now.AddDate(1, 0, 0))
	return &fixture{now: now, clock: mockClock, signer: signer, trust: newFakeTrust(signer.TrustEntry())}
}

func (f *fixture) service(t *testing.T, engine certlogic.Engine, rules ...certlogic.Rule) *Service {
	s, err := NewVerificationService(config.VerificationServiceConfig{BatchConcurrency: 4, BatchLimit: 10},
		f.trust, fakeRules(rules), testValueSets, engine,
		WithClock(f.clock), WithMetrics(NewMetrics(prometheus.NewRegistry())))
	require.NoError(t, err)
	return s
}

func (f *fixture) vaccination(t *testing.T) string {
	return f.signer.Issue(t, testutil.VaccinationCertificate("SI"), "SI", f.now.Add(-time.Hour), f.now.AddDate(0, 6, 0))
}

func newCELEngine(t *testing.T) certlogic.Engine {
	engine, err := certlogic.NewCELEngine()
	require.NoError(t, err)
	return engine
}

func celRule(id, logic string) certlogic.Rule {
	return certlogic.Rule{
		Identifier:      id,
		Type:            certlogic.Acceptance,
		Version:         "1.0.0",
		SchemaVersion:   "1.0.0",
		CertificateType: certlogic.General,
		ValidFrom:       time.Now().AddDate(-1, 0, 0),
		ValidTo:         time.Now().AddDate(1, 0, 0),
		Logic:           logic,
		CountryCode:     "SI",
	}
}

func TestVerifyScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("valid vaccination with no applicable rules succeeds", func(tt *testing.T) {
		f := newFixture(tt)
		s := f.service(tt, newCELEngine(tt))

		report, err := s.Verify(ctx, VerifyRequest{Credential: f.vaccination(tt), CountryCode: "SI"})
		require.NoError(tt, err)
		assert.Equal(tt, Success, report.Verdict, report.Diagnostics.Errors)
		assert.True(tt, report.Inner.IsApplicableCode)
		assert.False(tt, report.Inner.NoPublicKeysFound)
		assert.False(tt, report.Inner.CertificateExpired)
		assert.Equal(tt, f.signer.Base64KID(), report.Inner.Base64KID)
		assert.True(tt, report.Diagnostics.SignatureVerified)
		assert.Empty(tt, report.Outcomes)
		require.NotNil(tt, report.Certificate)
		assert.Equal(tt, hcert.Vaccination, report.Certificate.Certificate.Type())
		assert.Equal(tt, f.now, report.ValidationClock)
		assert.NotEmpty(tt, report.ID)
	})

	t.Run("expired trust certificate fails with signature verified", func(tt *testing.T) {
		f := newFixture(tt)
		f.clock.Set(f.now.AddDate(1, 0, 1))
		s := f.service(tt, newCELEngine(tt))

		report, err := s.Verify(ctx, VerifyRequest{Credential: f.vaccination(tt), CountryCode: "SI"})
		require.NoError(tt, err)
		assert.Equal(tt, Failed, report.Verdict)
		assert.True(tt, report.Diagnostics.SignatureVerified)
		assert.True(tt, report.Diagnostics.Expired)
		assert.True(tt, report.Inner.CertificateExpired)
		assert.False(tt, report.Inner.NoPublicKeysFound)
	})

	t.Run("invalid base45 is not an applicable code", func(tt *testing.T) {
		f := newFixture(tt)
		ctrl := gomock.NewController(tt)
		engine := mocks.NewMockEngine(ctrl)
		s := f.service(tt, engine)

		report, err := s.Verify(ctx, VerifyRequest{Credential: "HC1:not base45!", CountryCode: "SI"})
		require.NoError(tt, err)
		assert.Equal(tt, Failed, report.Verdict)
		assert.False(tt, report.Inner.IsApplicableCode)
		assert.True(tt, report.Diagnostics.PrefixValid)
		assert.False(tt, report.Diagnostics.Base45Decoded)
		assert.Empty(tt, report.Outcomes)
		assert.Nil(tt, report.Certificate)
		assert.Zero(tt, f.trust.lookups.Load())
	})

	t.Run("a failed rule fails rules validation", func(tt *testing.T) {
		f := newFixture(tt)
		rule := celRule("VR-001", `payload.v[0].dn > payload.v[0].sd`)
		s := f.service(tt, newCELEngine(tt), rule)

		report, err := s.Verify(ctx, VerifyRequest{Credential: f.vaccination(tt), CountryCode: "SI"})
		require.NoError(tt, err)
		assert.Equal(tt, RulesValidationFailed, report.Verdict)
		require.Len(tt, report.Outcomes, 1)
		assert.Equal(tt, "VR-001", report.Outcomes[0].Rule.Identifier)
		assert.Equal(tt, certlogic.Fail, report.Outcomes[0].Result)
		assert.True(tt, report.Diagnostics.RulesValidationFailed)
	})

	t.Run("a positive test fails even when every rule passes", func(tt *testing.T) {
		f := newFixture(tt)
		ctrl := gomock.NewController(tt)
		engine := mocks.NewMockEngine(ctrl)
		engine.EXPECT().Validate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]certlogic.ValidationResult{{Rule: celRule("VR-001", "true"), Result: certlogic.Passed}}, nil).
			AnyTimes()
		s := f.service(tt, engine)

		cert := testutil.TestCertificate("SI", hcert.TestResultDetected, f.now.Add(-6*time.Hour))
		raw := f.signer.Issue(tt, cert, "SI", f.now.Add(-time.Hour), f.now.AddDate(0, 0, 2))
		report, err := s.Verify(ctx, VerifyRequest{Credential: raw, CountryCode: "SI"})
		require.NoError(tt, err)
		assert.Equal(tt, Failed, report.Verdict)
		assert.True(tt, report.Diagnostics.SignatureVerified)
		assert.True(tt, report.Diagnostics.IsTestWithPositiveResult())
		assert.False(tt, report.Diagnostics.RulesValidationFailed)
	})
}

func TestVerifyProperties(t *testing.T) {
	ctx := context.Background()

	t.Run("no key identifier halts before trust resolution", func(tt *testing.T) {
		f := newFixture(tt)
		s := f.service(tt, mocks.NewMockEngine(gomock.NewController(tt)))

		raw := f.signer.IssueWithKID(tt, testutil.VaccinationCertificate("SI"), "SI", f.now, f.now.AddDate(0, 1, 0), nil)
		report, err := s.Verify(ctx, VerifyRequest{Credential: raw, CountryCode: "SI"})
		require.NoError(tt, err)
		assert.Equal(tt, Failed, report.Verdict)
		assert.False(tt, report.Inner.IsApplicableCode)
		assert.Empty(tt, report.Inner.Base64KID)
		assert.Zero(tt, f.trust.lookups.Load())
	})

	t.Run("unknown key is applicable but fails", func(tt *testing.T) {
		f := newFixture(tt)
		f.trust = newFakeTrust()
		s := f.service(tt, mocks.NewMockEngine(gomock.NewController(tt)))

		report, err := s.Verify(ctx, VerifyRequest{Credential: f.vaccination(tt), CountryCode: "SI"})
		require.NoError(tt, err)
		assert.Equal(tt, Failed, report.Verdict)
		assert.True(tt, report.Inner.IsApplicableCode)
		assert.True(tt, report.Inner.NoPublicKeysFound)
		assert.Equal(tt, f.signer.Base64KID(), report.Inner.Base64KID)
		assert.False(tt, report.Diagnostics.SignatureVerified)
		assert.NotNil(tt, report.Certificate)
	})

	t.Run("blank destination skips rules", func(tt *testing.T) {
		f := newFixture(tt)
		// any engine call fails the test
		s := f.service(tt, mocks.NewMockEngine(gomock.NewController(tt)), celRule("VR-001", "false"))

		for _, country := range []string{"", "  "} {
			report, err := s.Verify(ctx, VerifyRequest{Credential: f.vaccination(tt), CountryCode: country})
			require.NoError(tt, err)
			assert.Equal(tt, Success, report.Verdict)
			assert.Empty(tt, report.Outcomes)
		}
	})

	t.Run("verification is idempotent under a fixed clock", func(tt *testing.T) {
		f := newFixture(tt)
		s := f.service(tt, newCELEngine(tt),
			celRule("VR-001", `payload.v[0].dn >= payload.v[0].sd`),
			celRule("VR-002", `payload.v[0].dn > payload.v[0].sd`),
			celRule("VR-003", `payload.t[0].tr in external.valueSets["covid-19-lab-result"]`))
		raw := f.vaccination(tt)

		first, err := s.Verify(ctx, VerifyRequest{Credential: raw, CountryCode: "SI"})
		require.NoError(tt, err)
		second, err := s.Verify(ctx, VerifyRequest{Credential: raw, CountryCode: "SI"})
		require.NoError(tt, err)

		assert.NotEqual(tt, first.ID, second.ID)
		assert.Empty(tt, cmp.Diff(first, second, cmpopts.IgnoreFields(VerificationReport{}, "ID")))
		assert.Equal(tt, RulesValidationFailed, first.Verdict)
		results := []certlogic.Result{first.Outcomes[0].Result, first.Outcomes[1].Result, first.Outcomes[2].Result}
		assert.Equal(tt, []certlogic.Result{certlogic.Passed, certlogic.Fail, certlogic.Open}, results)
	})

	t.Run("open outcomes fail rules validation", func(tt *testing.T) {
		f := newFixture(tt)
		ctrl := gomock.NewController(tt)
		engine := mocks.NewMockEngine(ctrl)
		engine.EXPECT().Validate(gomock.Any(), hcert.Vaccination, "1.3.0", gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]certlogic.ValidationResult{
				{Rule: celRule("VR-001", "true"), Result: certlogic.Passed},
				{Rule: celRule("VR-002", "true"), Result: certlogic.Open},
			}, nil)
		s := f.service(tt, engine)

		report, err := s.Verify(ctx, VerifyRequest{Credential: f.vaccination(tt), CountryCode: "SI"})
		require.NoError(tt, err)
		assert.Equal(tt, RulesValidationFailed, report.Verdict)
		assert.Len(tt, report.Outcomes, 2)
	})

	t.Run("external parameters", func(tt *testing.T) {
		f := newFixture(tt)
		ctrl := gomock.NewController(tt)
		engine := mocks.NewMockEngine(ctrl)
		var captured []certlogic.ExternalParameter
		engine.EXPECT().Validate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ hcert.CertificateType, _ string, _ []certlogic.Rule,
				external certlogic.ExternalParameter, payload string) ([]certlogic.ValidationResult, error) {
				captured = append(captured, external)
				assert.Contains(tt, payload, `"ver":"1.3.0"`)
				return []certlogic.ValidationResult{}, nil
			}).Times(2)
		s := f.service(tt, engine)

		report, err := s.Verify(ctx, VerifyRequest{Credential: f.vaccination(tt), CountryCode: "SI"})
		require.NoError(tt, err)
		assert.Equal(tt, Success, report.Verdict)

		// without an issuer claim the country of the first statement is used
		raw := f.signer.Issue(tt, testutil.VaccinationCertificate("AT"), "", f.now.Add(-time.Hour), f.now.AddDate(0, 6, 0))
		_, err = s.Verify(ctx, VerifyRequest{Credential: raw, CountryCode: "SI"})
		require.NoError(tt, err)

		require.Len(tt, captured, 2)
		assert.Equal(tt, "si", captured[0].CountryCode)
		assert.Equal(tt, "si", captured[0].IssuerCountryCode)
		assert.Equal(tt, "at", captured[1].IssuerCountryCode)
		assert.Equal(tt, f.now, captured[0].ValidationClock)
		assert.Equal(tt, f.signer.Base64KID(), captured[0].KID)
		assert.Equal(tt, f.now.AddDate(0, 6, 0).Unix(), captured[0].Expiration.Unix())
		assert.Equal(tt, map[string][]string(testValueSets), captured[0].ValueSets)
	})

	t.Run("cancelled context", func(tt *testing.T) {
		f := newFixture(tt)
		s := f.service(tt, newCELEngine(tt))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		report, err := s.Verify(cancelled, VerifyRequest{Credential: f.vaccination(tt), CountryCode: "SI"})
		assert.ErrorIs(tt, err, context.Canceled)
		assert.Nil(tt, report)
	})

	t.Run("metrics", func(tt *testing.T) {
		f := newFixture(tt)
		metrics := NewMetrics(prometheus.NewRegistry())
		s, err := NewVerificationService(config.VerificationServiceConfig{}, f.trust, fakeRules(nil), testValueSets,
			newCELEngine(tt), WithClock(f.clock), WithMetrics(metrics))
		require.NoError(tt, err)

		_, err = s.Verify(ctx, VerifyRequest{Credential: f.vaccination(tt)})
		require.NoError(tt, err)
		_, err = s.Verify(ctx, VerifyRequest{Credential: "garbage"})
		require.NoError(tt, err)

		assert.Equal(tt, float64(1), promtestutil.ToFloat64(metrics.Verdicts.WithLabelValues(string(Success))))
		assert.Equal(tt, float64(1), promtestutil.ToFloat64(metrics.Verdicts.WithLabelValues(string(Failed))))
	})
}

func TestMultipleTrustEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	raw := f.vaccination(t)
	kid := f.signer.Base64KID()

	expiredSigner := testutil.NewTestSigner(t, f.now.AddDate(-2, 0, 0), f.now.AddDate(-1, 0, 0))
	validSigner := testutil.NewTestSigner(t, f.now.AddDate(-1, 0, 0), f.now.AddDate(1, 0, 0))

	sameKID := func(e keyaccess.TrustEntry) keyaccess.TrustEntry {
		e.KID = kid
		return e
	}
	malformed := keyaccess.TrustEntry{KID: kid, RawData: []byte("not a certificate")}

	verify := func(tt *testing.T, entries ...keyaccess.TrustEntry) *VerificationReport {
		f.trust = newFakeTrust(entries...)
		s := f.service(tt, newCELEngine(tt))
		report, err := s.Verify(ctx, VerifyRequest{Credential: raw, CountryCode: "SI"})
		require.NoError(tt, err)
		return report
	}

	t.Run("only the second entry verifies", func(tt *testing.T) {
		others := [][2]keyaccess.TrustEntry{
			{sameKID(expiredSigner.TrustEntry()), malformed},
			{malformed, sameKID(expiredSigner.TrustEntry())},
			{sameKID(validSigner.TrustEntry()), sameKID(expiredSigner.TrustEntry())},
		}
		for _, pair := range others {
			report := verify(tt, pair[0], f.signer.TrustEntry(), pair[1])
			assert.True(tt, report.Diagnostics.SignatureVerified)
			assert.False(tt, report.Inner.NoPublicKeysFound)
			assert.False(tt, report.Inner.CertificateExpired)
			assert.Equal(tt, Success, report.Verdict)
		}
	})

	t.Run("expiry comes from the verifying entry", func(tt *testing.T) {
		expired := testutil.NewTestSigner(tt, f.now.AddDate(-2, 0, 0), f.now.AddDate(-1, 0, 0))
		raw := expired.Issue(tt, testutil.VaccinationCertificate("SI"), "SI", f.now.Add(-time.Hour), f.now.AddDate(0, 6, 0))
		entries := []keyaccess.TrustEntry{
			sameKID(validSigner.TrustEntry()),
			expired.TrustEntry(),
			sameKID(f.signer.TrustEntry()),
		}
		for i := range entries {
			entries[i].KID = expired.Base64KID()
		}
		f.trust = newFakeTrust(entries...)
		s := f.service(tt, newCELEngine(tt), celRule("VR-001", "true"))
		report, err := s.Verify(ctx, VerifyRequest{Credential: raw, CountryCode: "SI"})
		require.NoError(tt, err)
		assert.True(tt, report.Diagnostics.SignatureVerified)
		assert.True(tt, report.Inner.CertificateExpired)
		assert.Equal(tt, Failed, report.Verdict)

		// rules still run for an expired signer, the verdict stays failed
		require.Len(tt, report.Outcomes, 1)
		assert.Equal(tt, certlogic.Passed, report.Outcomes[0].Result)
		assert.False(tt, report.Diagnostics.RulesValidationFailed)
	})

	t.Run("no entry verifies", func(tt *testing.T) {
		report := verify(tt, sameKID(validSigner.TrustEntry()), malformed, sameKID(expiredSigner.TrustEntry()))
		assert.False(tt, report.Diagnostics.SignatureVerified)
		assert.True(tt, report.Inner.NoPublicKeysFound)
		assert.False(tt, report.Inner.CertificateExpired)
		assert.Equal(tt, Failed, report.Verdict)
	})
}

func TestBatchVerify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.service(t, newCELEngine(t))
	valid := f.vaccination(t)

	t.Run("reports follow request order", func(tt *testing.T) {
		requests := []VerifyRequest{
			{Credential: valid, CountryCode: "SI"},
			{Credential: "HC1:???", CountryCode: "SI"},
			{Credential: valid},
			{Credential: ""},
			{Credential: valid, CountryCode: "AT"},
		}
		response, err := s.BatchVerify(ctx, BatchVerifyRequest{Requests: requests})
		require.NoError(tt, err)
		require.Len(tt, response.Reports, len(requests))
		verdicts := make([]Verdict, 0, len(requests))
		for _, r := range response.Reports {
			verdicts = append(verdicts, r.Verdict)
		}
		assert.Equal(tt, []Verdict{Success, Failed, Success, Failed, Success}, verdicts)
	})

	t.Run("batch limit", func(tt *testing.T) {
		requests := make([]VerifyRequest, 11)
		_, err := s.BatchVerify(ctx, BatchVerifyRequest{Requests: requests})
		assert.Error(tt, err)

		_, err = s.BatchVerify(ctx, BatchVerifyRequest{})
		assert.Error(tt, err)
	})

	t.Run("cancelled batch", func(tt *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.BatchVerify(cancelled, BatchVerifyRequest{Requests: []VerifyRequest{{Credential: valid}}})
		assert.ErrorIs(tt, err, context.Canceled)
	})
}

func TestComposeVerdict(t *testing.T) {
	data := &hcert.GreenCertificateData{}
	decoded := hcert.DecodeResult{
		Base45Decoded: true, ZlibDecoded: true, CoseDecoded: true, SchemaValid: true, CborDecoded: true,
		SignatureVerified: true,
	}
	inner := InnerStageResult{IsApplicableCode: true, Base64KID: "a2lk", Data: data}
	negative := &hcert.TestVerificationResult{ResultNegative: true, DateInThePast: true}
	positive := &hcert.TestVerificationResult{ResultNegative: false, DateInThePast: true}

	with := func(mutate func(*InnerStageResult, *hcert.DecodeResult)) (InnerStageResult, hcert.DecodeResult) {
		i, d := inner, decoded
		mutate(&i, &d)
		return i, d
	}

	tests := []struct {
		name     string
		mutate   func(*InnerStageResult, *hcert.DecodeResult)
		expected Verdict
	}{
		{"all good", func(*InnerStageResult, *hcert.DecodeResult) {}, Success},
		{"negative test", func(_ *InnerStageResult, d *hcert.DecodeResult) { d.TestVerification = negative }, Success},
		{"not applicable", func(i *InnerStageResult, _ *hcert.DecodeResult) { i.IsApplicableCode = false }, Failed},
		{"no kid", func(i *InnerStageResult, _ *hcert.DecodeResult) { i.Base64KID = "" }, Failed},
		{"no data", func(i *InnerStageResult, _ *hcert.DecodeResult) { i.Data = nil }, Failed},
		{"schema invalid", func(_ *InnerStageResult, d *hcert.DecodeResult) { d.SchemaValid = false }, Failed},
		{"signature not verified", func(_ *InnerStageResult, d *hcert.DecodeResult) { d.SignatureVerified = false }, Failed},
		{"expired", func(i *InnerStageResult, _ *hcert.DecodeResult) { i.CertificateExpired = true }, Failed},
		{"expired and rules failed", func(i *InnerStageResult, d *hcert.DecodeResult) {
			i.CertificateExpired = true
			d.RulesValidationFailed = true
		}, Failed},
		{"recovery not yet valid", func(_ *InnerStageResult, d *hcert.DecodeResult) {
			d.RecoveryVerification = &hcert.RecoveryVerificationResult{NotValidSoFar: true}
		}, Failed},
		{"positive test", func(_ *InnerStageResult, d *hcert.DecodeResult) { d.TestVerification = positive }, Failed},
		{"positive test and rules failed", func(_ *InnerStageResult, d *hcert.DecodeResult) {
			d.TestVerification = positive
			d.RulesValidationFailed = true
		}, Failed},
		{"rules failed", func(_ *InnerStageResult, d *hcert.DecodeResult) { d.RulesValidationFailed = true }, RulesValidationFailed},
		{"missing prefix only", func(_ *InnerStageResult, d *hcert.DecodeResult) { d.PrefixValid = false }, Success},
	}
	for _, test := range tests {
		t.Run(test.name, func(tt *testing.T) {
			i, d := with(test.mutate)
			assert.Equal(tt, test.expected, composeVerdict(i, d))
		})
	}
}

func TestRuleCertificateType(t *testing.T) {
	vaccination := testutil.VaccinationCertificate("SI")
	recovery := testutil.RecoveryCertificate("SI", time.Now(), time.Now().AddDate(0, 6, 0))
	both := vaccination
	both.RecoveryStatements = recovery.RecoveryStatements
	test := testutil.TestCertificate("SI", hcert.TestResultNotDetected, time.Now())
	empty := vaccination
	empty.Vaccinations = nil

	assert.Equal(t, hcert.Vaccination, ruleCertificateType(vaccination))
	assert.Equal(t, hcert.Recovery, ruleCertificateType(recovery))
	assert.Equal(t, hcert.Recovery, ruleCertificateType(both))
	assert.Equal(t, hcert.Test, ruleCertificateType(test))
	assert.Equal(t, hcert.Test, ruleCertificateType(empty))
}
