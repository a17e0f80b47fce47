package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	gosync "sync"
	"time"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/internal/util"
	"github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/service/rule"
	"github.com/tbd54566975/dcc-verifier/pkg/service/trust"
	"github.com/tbd54566975/dcc-verifier/pkg/service/valueset"
)

// maxDocumentBytes caps the size of a downloaded document
const maxDocumentBytes = 32 << 20

var defaultInterval = config.DefaultSyncInterval

// Service downloads trust material and swaps it into the stores verifications read from
type Service struct {
	config config.SyncServiceConfig

	trust     TrustStore
	rules     RuleStore
	valueSets ValueSetStore

	HTTPClient *http.Client
	clock      clock.Clock

	// runs serializes syncs
	runs gosync.Mutex

	mu     gosync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *Service) Type() framework.Type {
	return framework.Sync
}

func (s *Service) Status() framework.Status {
	ae := sdkutil.NewAppendError()
	if s.trust == nil {
		ae.AppendString("no trust store configured")
	}
	if s.rules == nil {
		ae.AppendString("no rule store configured")
	}
	if s.valueSets == nil {
		ae.AppendString("no value set store configured")
	}
	if !ae.IsEmpty() {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: fmt.Sprintf("sync service is not ready: %s", ae.Error().Error()),
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s *Service) Config() config.SyncServiceConfig {
	return s.config
}

func NewSyncService(config config.SyncServiceConfig, trust TrustStore, rules RuleStore, valueSets ValueSetStore,
	c clock.Clock) (*Service, error) {
	if c == nil {
		c = clock.New()
	}
	if config.Interval <= 0 {
		config.Interval = defaultInterval
	}
	service := Service{
		config:     config,
		trust:      trust,
		rules:      rules,
		valueSets:  valueSets,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport), Timeout: config.RequestTimeout},
		clock:      c,
	}
	if !service.Status().IsReady() {
		return nil, errors.New(service.Status().Message)
	}
	return &service, nil
}

// Sync downloads every configured document and replaces the matching store. Documents are
// fetched in the order trust list, value sets, rules, countries; the first failure stops the
// sync and leaves the remaining stores as they were.
func (s *Service) Sync(ctx context.Context) (*SyncResponse, error) {
	s.runs.Lock()
	defer s.runs.Unlock()

	response := SyncResponse{ID: uuid.NewString(), StartedAt: s.clock.Now().UTC(), TrustCount: -1, RuleCount: -1, ValueSets: -1, Countries: -1}
	logger := logrus.WithField("sync", response.ID)
	logger.Info("syncing trust material")

	if url := s.config.TrustListURL; url != "" {
		var request trust.ReplaceTrustEntriesRequest
		if err := s.fetch(ctx, url, &request); err != nil {
			return nil, sdkutil.LoggingErrorMsg(err, "could not fetch trust list")
		}
		if err := s.trust.ReplaceTrustEntries(ctx, request); err != nil {
			return nil, err
		}
		response.TrustCount = len(request.Entries)
	}
	if url := s.config.ValueSetsURL; url != "" {
		var request valueset.ReplaceValueSetsRequest
		if err := s.fetch(ctx, url, &request); err != nil {
			return nil, sdkutil.LoggingErrorMsg(err, "could not fetch value sets")
		}
		if err := s.valueSets.ReplaceValueSets(ctx, request); err != nil {
			return nil, err
		}
		response.ValueSets = len(request.ValueSets)
	}
	if url := s.config.RulesURL; url != "" {
		var request rule.ReplaceRulesRequest
		if err := s.fetch(ctx, url, &request); err != nil {
			return nil, sdkutil.LoggingErrorMsg(err, "could not fetch rules")
		}
		if err := s.rules.ReplaceRules(ctx, request); err != nil {
			return nil, err
		}
		response.RuleCount = len(request.Rules)
	}
	if url := s.config.CountriesURL; url != "" {
		var request rule.ReplaceCountriesRequest
		if err := s.fetch(ctx, url, &request); err != nil {
			return nil, sdkutil.LoggingErrorMsg(err, "could not fetch countries")
		}
		if err := s.rules.ReplaceCountries(ctx, request); err != nil {
			return nil, err
		}
		response.Countries = len(request.Countries)
	}

	logger.WithFields(logrus.Fields{
		"trustEntries": response.TrustCount,
		"valueSets":    response.ValueSets,
		"rules":        response.RuleCount,
		"countries":    response.Countries,
	}).Info("synced trust material")
	return &response, nil
}

// fetch GETs a JSON document into out. Network failures and server errors are retried with
// exponential backoff until MaxElapsedTime; client errors and undecodable documents are not.
func (s *Service) fetch(ctx context.Context, url string, out any) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = s.config.MaxElapsedTime

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(errors.Wrapf(err, "building request for %s", url))
		}
		req.Header.Set("Accept", "application/json")
		resp, err := s.HTTPClient.Do(req)
		if err != nil {
			return errors.Wrapf(err, "getting %s", url)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
		if err != nil {
			return errors.Wrapf(err, "reading %s", url)
		}
		if !util.Is2xxResponse(resp.StatusCode) {
			err = errors.Errorf("getting %s: status %d: %s", url, resp.StatusCode, util.SanitizeLog(string(body)))
			if util.Is4xxResponse(resp.StatusCode) {
				return backoff.Permanent(err)
			}
			return err
		}
		if err = json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(errors.Wrapf(err, "decoding %s", url))
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		logrus.WithError(err).Warnf("fetch failed, retrying in %s", next)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(expBackoff, ctx), notify)
}

// Start syncs once and then every Interval until ctx is done or Stop is called. Failed syncs
// are logged and retried on the next tick.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	ticker := s.clock.Ticker(s.config.Interval)
	go func(done chan struct{}) {
		defer close(done)
		defer ticker.Stop()
		s.runLogged(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runLogged(ctx)
			}
		}
	}(s.done)
	logrus.Infof("started periodic sync every %s", s.config.Interval)
}

// Stop stops the periodic sync and waits for a running sync to finish
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	logrus.Info("stopped periodic sync")
}

func (s *Service) runLogged(ctx context.Context) {
	if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
		logrus.WithError(err).Error("periodic sync failed")
	}
}
