package rule

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
	"github.com/tbd54566975/dcc-verifier/internal/hcert"
	"github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/storage"
)

// snapshot is an immutable view of the rules and countries
type snapshot struct {
	// rules are normalized and grouped by upper case country code
	rules     map[string][]certlogic.Rule
	countries []string
}

func newSnapshot(rules []certlogic.Rule, countries []string) *snapshot {
	byCountry := make(map[string][]certlogic.Rule)
	for _, r := range rules {
		code := strings.ToUpper(r.CountryCode)
		byCountry[code] = append(byCountry[code], r.Normalize())
	}
	for code := range byCountry {
		sortRules(byCountry[code])
	}
	sorted := append([]string{}, countries...)
	sort.Strings(sorted)
	return &snapshot{rules: byCountry, countries: sorted}
}

type Service struct {
	storage *Storage
	config  config.RuleServiceConfig

	writes  sync.Mutex
	current atomic.Pointer[snapshot]
}

func (s *Service) Type() framework.Type {
	return framework.Rule
}

func (s *Service) Status() framework.Status {
	ae := sdkutil.NewAppendError()
	if s.storage == nil {
		ae.AppendString("no storage configured")
	}
	if s.current.Load() == nil {
		ae.AppendString("rules not loaded")
	}
	if !ae.IsEmpty() {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: fmt.Sprintf("rule service is not ready: %s", ae.Error().Error()),
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s *Service) Config() config.RuleServiceConfig {
	return s.config
}

func NewRuleService(config config.RuleServiceConfig, s storage.ServiceStorage) (*Service, error) {
	ruleStorage, err := NewRuleStorage(s)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate storage for the rule service")
	}
	service := Service{
		storage: ruleStorage,
		config:  config,
	}
	if err = service.Refresh(context.Background()); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not load rules")
	}
	if !service.Status().IsReady() {
		return nil, errors.New(service.Status().Message)
	}
	return &service, nil
}

// Refresh rebuilds the snapshot from storage
func (s *Service) Refresh(ctx context.Context) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	return s.refresh(ctx)
}

func (s *Service) refresh(ctx context.Context) error {
	rules, err := s.storage.ListRules(ctx)
	if err != nil {
		return err
	}
	countries, err := s.storage.ListCountries(ctx)
	if err != nil {
		return err
	}
	s.current.Store(newSnapshot(rules, countries))
	return nil
}

// GetRulesBy selects the rules a certificate of certType issued in issuingCountry must pass to
// enter destinationCountry at validationClock. Acceptance rules come from the destination and
// invalidation rules from the issuer. Only the highest version of each rule is returned, sorted by
// identifier with acceptance rules first.
func (s *Service) GetRulesBy(validationClock time.Time, destinationCountry, issuingCountry string,
	certType hcert.CertificateType) []certlogic.Rule {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	ruleCertType := certlogic.RuleCertificateTypeOf(certType)
	applies := func(r certlogic.Rule, ruleType certlogic.RuleType) bool {
		return r.Type == ruleType &&
			r.IsValidAt(validationClock) &&
			(r.CertificateType == certlogic.General || r.CertificateType == ruleCertType) &&
			strings.TrimSpace(r.Region) == ""
	}

	latest := make(map[string]certlogic.Rule)
	collect := func(country string, ruleType certlogic.RuleType) {
		for _, r := range snap.rules[strings.ToUpper(country)] {
			if !applies(r, ruleType) {
				continue
			}
			if prev, ok := latest[r.Identifier]; !ok || compareVersions(r.Version, prev.Version) > 0 {
				latest[r.Identifier] = r
			}
		}
	}
	collect(destinationCountry, certlogic.Acceptance)
	collect(issuingCountry, certlogic.Invalidation)

	rules := make([]certlogic.Rule, 0, len(latest))
	for _, r := range latest {
		rules = append(rules, r)
	}
	sortRules(rules)
	return rules
}

func (s *Service) ReplaceRules(ctx context.Context, request ReplaceRulesRequest) error {
	logrus.Debugf("replacing rules with %d rules", len(request.Rules))

	if !request.IsValid() {
		return sdkutil.LoggingNewErrorf("invalid replace rules request: %d rules", len(request.Rules))
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	if err := s.storage.ReplaceRules(ctx, request.Rules); err != nil {
		return sdkutil.LoggingErrorMsg(err, "could not replace rules")
	}
	if err := s.refresh(ctx); err != nil {
		return sdkutil.LoggingErrorMsg(err, "could not refresh rules")
	}
	return nil
}

func (s *Service) ListRules(_ context.Context, request ListRulesRequest) (*ListRulesResponse, error) {
	logrus.Debug("listing rules")

	snap := s.current.Load()
	if request.CountryCode != "" {
		rules := snap.rules[strings.ToUpper(request.CountryCode)]
		return &ListRulesResponse{Rules: append([]certlogic.Rule{}, rules...)}, nil
	}
	codes := make([]string, 0, len(snap.rules))
	for code := range snap.rules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	rules := make([]certlogic.Rule, 0)
	for _, code := range codes {
		rules = append(rules, snap.rules[code]...)
	}
	return &ListRulesResponse{Rules: rules}, nil
}

// ReplaceCountries replaces the list of countries rules may be requested for. Codes are stored
// upper case.
func (s *Service) ReplaceCountries(ctx context.Context, request ReplaceCountriesRequest) error {
	logrus.Debugf("replacing countries with %d countries", len(request.Countries))

	if !request.IsValid() {
		return sdkutil.LoggingNewErrorf("invalid replace countries request: %v", request.Countries)
	}
	countries := make([]string, 0, len(request.Countries))
	for _, c := range request.Countries {
		countries = append(countries, strings.ToUpper(strings.TrimSpace(c)))
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	if err := s.storage.ReplaceCountries(ctx, countries); err != nil {
		return sdkutil.LoggingErrorMsg(err, "could not replace countries")
	}
	if err := s.refresh(ctx); err != nil {
		return sdkutil.LoggingErrorMsg(err, "could not refresh countries")
	}
	return nil
}

func (s *Service) ListCountries(_ context.Context) (*ListCountriesResponse, error) {
	snap := s.current.Load()
	return &ListCountriesResponse{Countries: append([]string{}, snap.countries...)}, nil
}

// sortRules orders acceptance rules before invalidation rules, then by identifier and version
func sortRules(rules []certlogic.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Type != rules[j].Type {
			return rules[i].Type == certlogic.Acceptance
		}
		if rules[i].Identifier != rules[j].Identifier {
			return rules[i].Identifier < rules[j].Identifier
		}
		return compareVersions(rules[i].Version, rules[j].Version) < 0
	})
}

// compareVersions compares dotted numeric versions, treating missing or malformed parts as 0
func compareVersions(a, b string) int {
	partsA := strings.Split(a, ".")
	partsB := strings.Split(b, ".")
	for i := 0; i < len(partsA) || i < len(partsB); i++ {
		var x, y int
		if i < len(partsA) {
			x, _ = strconv.Atoi(partsA[i])
		}
		if i < len(partsB) {
			y, _ = strconv.Atoi(partsB[i])
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}
