package valueset

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/storage"
)

type snapshot struct {
	valueSets []ValueSet
	byID      map[string]ValueSet
	codes     map[string][]string
}

func newSnapshot(valueSets []ValueSet) *snapshot {
	sort.Slice(valueSets, func(i, j int) bool { return valueSets[i].ID < valueSets[j].ID })
	byID := make(map[string]ValueSet, len(valueSets))
	codes := make(map[string][]string, len(valueSets))
	for _, v := range valueSets {
		byID[v.ID] = v
		codes[v.ID] = v.Codes()
	}
	return &snapshot{valueSets: valueSets, byID: byID, codes: codes}
}

type Service struct {
	storage *Storage
	config  config.ValueSetServiceConfig

	writes  sync.Mutex
	current atomic.Pointer[snapshot]
}

func (s *Service) Type() framework.Type {
	return framework.ValueSet
}

func (s *Service) Status() framework.Status {
	ae := sdkutil.NewAppendError()
	if s.storage == nil {
		ae.AppendString("no storage configured")
	}
	if s.current.Load() == nil {
		ae.AppendString("value sets not loaded")
	}
	if !ae.IsEmpty() {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: fmt.Sprintf("value set service is not ready: %s", ae.Error().Error()),
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s *Service) Config() config.ValueSetServiceConfig {
	return s.config
}

func NewValueSetService(config config.ValueSetServiceConfig, s storage.ServiceStorage) (*Service, error) {
	valueSetStorage, err := NewValueSetStorage(s)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate storage for the value set service")
	}
	service := Service{
		storage: valueSetStorage,
		config:  config,
	}
	if err = service.Refresh(context.Background()); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not load value sets")
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
	valueSets, err := s.storage.ListValueSets(ctx)
	if err != nil {
		return err
	}
	s.current.Store(newSnapshot(valueSets))
	return nil
}

func (s *Service) ReplaceValueSets(ctx context.Context, request ReplaceValueSetsRequest) error {
	logrus.Debugf("replacing value sets with %d value sets", len(request.ValueSets))

	if !request.IsValid() {
		return sdkutil.LoggingNewErrorf("invalid replace value sets request: %d value sets", len(request.ValueSets))
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	if err := s.storage.ReplaceValueSets(ctx, request.ValueSets); err != nil {
		return sdkutil.LoggingErrorMsg(err, "could not replace value sets")
	}
	if err := s.refresh(ctx); err != nil {
		return sdkutil.LoggingErrorMsg(err, "could not refresh value sets")
	}
	return nil
}

func (s *Service) ListValueSets(_ context.Context) (*ListValueSetsResponse, error) {
	logrus.Debug("listing value sets")
	snap := s.current.Load()
	return &ListValueSetsResponse{ValueSets: append([]ValueSet{}, snap.valueSets...)}, nil
}

func (s *Service) GetValueSet(_ context.Context, request GetValueSetRequest) (*GetValueSetResponse, error) {
	logrus.Debugf("getting value set: %s", request.ID)
	valueSet, ok := s.current.Load().byID[request.ID]
	if !ok {
		return nil, sdkutil.LoggingNewErrorf("value set not found with id: %s", request.ID)
	}
	return &GetValueSetResponse{ValueSet: valueSet}, nil
}

// GetValueSetCodes maps every value set id to its sorted member codes. The map is shared with the
// snapshot and must not be modified.
func (s *Service) GetValueSetCodes() map[string][]string {
	snap := s.current.Load()
	if snap == nil {
		return map[string][]string{}
	}
	return snap.codes
}
