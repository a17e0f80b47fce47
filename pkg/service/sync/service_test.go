package sync

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
	"github.com/tbd54566975/dcc-verifier/internal/hcert"
	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
	"github.com/tbd54566975/dcc-verifier/pkg/service/rule"
	"github.com/tbd54566975/dcc-verifier/pkg/service/trust"
	"github.com/tbd54566975/dcc-verifier/pkg/service/valueset"
	"github.com/tbd54566975/dcc-verifier/pkg/testutil"
)

const gateway = "https://dgc-gateway.example.com"

type stores struct {
	trust     *trust.Service
	rules     *rule.Service
	valueSets *valueset.Service
}

func newStores(t *testing.T) stores {
	db := testutil.SetupBoltTestDB(t)
	trustService, err := trust.NewTrustService(config.TrustServiceConfig{}, db)
	require.NoError(t, err)
	ruleService, err := rule.NewRuleService(config.RuleServiceConfig{}, db)
	require.NoError(t, err)
	valueSetService, err := valueset.NewValueSetService(config.ValueSetServiceConfig{}, db)
	require.NoError(t, err)
	return stores{trust: trustService, rules: ruleService, valueSets: valueSetService}
}

func syncConfig() config.SyncServiceConfig {
	return config.SyncServiceConfig{
		Interval:       time.Hour,
		MaxElapsedTime: 5 * time.Second,
		TrustListURL:   gateway + "/trustList",
		RulesURL:       gateway + "/rules",
		ValueSetsURL:   gateway + "/valuesets",
		CountriesURL:   gateway + "/countries",
		RequestTimeout: 5 * time.Second,
	}
}

func newTestSyncService(t *testing.T, cfg config.SyncServiceConfig, s stores, c clock.Clock) *Service {
	service, err := NewSyncService(cfg, s.trust, s.rules, s.valueSets, c)
	require.NoError(t, err)
	gock.InterceptClient(service.HTTPClient)
	t.Cleanup(func() {
		gock.RestoreClient(service.HTTPClient)
		gock.Off()
	})
	return service
}

func mockGateway(t *testing.T, times int) {
	signer := testutil.NewTestSigner(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	gock.New(gateway).Get("/trustList").Times(times).Reply(http.StatusOK).
		JSON(trust.ReplaceTrustEntriesRequest{Entries: []keyaccess.TrustEntry{signer.TrustEntry()}})
	gock.New(gateway).Get("/valuesets").Times(times).Reply(http.StatusOK).
		JSON(map[string]any{"valueSets": []map[string]any{{
			"valueSetId":     "covid-19-lab-result",
			"valueSetValues": map[string]any{"260415000": map[string]any{"display": "Not detected", "active": true}},
		}}})
	gock.New(gateway).Get("/rules").Times(times).Reply(http.StatusOK).
		JSON(rule.ReplaceRulesRequest{Rules: []certlogic.Rule{{
			Identifier:      "VR-SI-0001",
			Type:            certlogic.Acceptance,
			Version:         "1.0.0",
			SchemaVersion:   "1.0.0",
			CertificateType: certlogic.General,
			ValidFrom:       time.Now().AddDate(0, -1, 0),
			ValidTo:         time.Now().AddDate(1, 0, 0),
			Logic:           "true",
			CountryCode:     "SI",
		}}})
	gock.New(gateway).Get("/countries").Times(times).Reply(http.StatusOK).
		JSON(map[string]any{"countries": []string{"SI", "AT"}})
}

func TestSync(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces every store", func(tt *testing.T) {
		s := newStores(tt)
		service := newTestSyncService(tt, syncConfig(), s, nil)
		mockGateway(tt, 1)

		response, err := service.Sync(ctx)
		require.NoError(tt, err)
		assert.NotEmpty(tt, response.ID)
		assert.Equal(tt, 1, response.TrustCount)
		assert.Equal(tt, 1, response.ValueSets)
		assert.Equal(tt, 1, response.RuleCount)
		assert.Equal(tt, 2, response.Countries)
		assert.True(tt, gock.IsDone())

		entries, err := s.trust.ListTrustEntries(ctx, trust.ListTrustEntriesRequest{})
		require.NoError(tt, err)
		require.Len(tt, entries.Entries, 1)
		assert.Len(tt, s.trust.GetCertificatesBy(entries.Entries[0].KID), 1)
		assert.Equal(tt, []string{"260415000"}, s.valueSets.GetValueSetCodes()["covid-19-lab-result"])
		assert.Len(tt, s.rules.GetRulesBy(time.Now(), "si", "at", hcert.Vaccination), 1)
		countries, err := s.rules.ListCountries(ctx)
		require.NoError(tt, err)
		assert.Equal(tt, []string{"AT", "SI"}, countries.Countries)
	})

	t.Run("documents without a url are skipped", func(tt *testing.T) {
		s := newStores(tt)
		cfg := syncConfig()
		cfg.TrustListURL, cfg.RulesURL, cfg.ValueSetsURL = "", "", ""
		service := newTestSyncService(tt, cfg, s, nil)
		gock.New(gateway).Get("/countries").Reply(http.StatusOK).JSON(map[string]any{"countries": []string{"SI"}})

		response, err := service.Sync(ctx)
		require.NoError(tt, err)
		assert.Equal(tt, -1, response.TrustCount)
		assert.Equal(tt, 1, response.Countries)
	})

	t.Run("server errors are retried", func(tt *testing.T) {
		s := newStores(tt)
		cfg := syncConfig()
		cfg.TrustListURL, cfg.RulesURL, cfg.ValueSetsURL = "", "", ""
		service := newTestSyncService(tt, cfg, s, nil)
		gock.New(gateway).Get("/countries").Reply(http.StatusBadGateway)
		gock.New(gateway).Get("/countries").Reply(http.StatusOK).JSON(map[string]any{"countries": []string{"SI"}})

		response, err := service.Sync(ctx)
		require.NoError(tt, err)
		assert.Equal(tt, 1, response.Countries)
		assert.True(tt, gock.IsDone())
	})

	t.Run("client errors are not retried", func(tt *testing.T) {
		s := newStores(tt)
		service := newTestSyncService(tt, syncConfig(), s, nil)
		gock.New(gateway).Get("/trustList").Reply(http.StatusNotFound)

		_, err := service.Sync(ctx)
		assert.Error(tt, err)
		assert.True(tt, gock.IsDone())
	})

	t.Run("undecodable documents leave the store untouched", func(tt *testing.T) {
		s := newStores(tt)
		signer := testutil.NewTestSigner(tt, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
		_, err := s.trust.StoreTrustEntries(ctx, trust.StoreTrustEntriesRequest{Entries: []keyaccess.TrustEntry{signer.TrustEntry()}})
		require.NoError(tt, err)

		service := newTestSyncService(tt, syncConfig(), s, nil)
		gock.New(gateway).Get("/trustList").Reply(http.StatusOK).BodyString("{not json")

		_, err = service.Sync(ctx)
		assert.Error(tt, err)
		assert.Len(tt, s.trust.GetCertificatesBy(signer.Base64KID()), 1)
	})
}

func TestStartStop(t *testing.T) {
	s := newStores(t)
	mockClock := clock.NewMock()
	service := newTestSyncService(t, syncConfig(), s, mockClock)
	mockGateway(t, 2)

	service.Start(context.Background())
	// a second start is a no-op
	service.Start(context.Background())

	assert.Eventually(t, func() bool {
		countries, err := s.rules.ListCountries(context.Background())
		return err == nil && len(countries.Countries) == 2
	}, 5*time.Second, 10*time.Millisecond)

	mockClock.Add(time.Hour)
	assert.Eventually(t, gock.IsDone, 5*time.Second, 10*time.Millisecond)

	service.Stop()
	service.Stop()
}
