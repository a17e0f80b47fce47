package trust

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
	"github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/storage"
)

// snapshot is an immutable view of the trust list. Verifications read the current one while
// writers build a replacement and swap it in whole.
type snapshot struct {
	entries []StoredTrustEntry
	byKID   map[string][]keyaccess.TrustEntry
}

func newSnapshot(entries []StoredTrustEntry) *snapshot {
	byKID := make(map[string][]keyaccess.TrustEntry)
	for _, e := range entries {
		byKID[e.Entry.KID] = append(byKID[e.Entry.KID], e.Entry)
	}
	return &snapshot{entries: entries, byKID: byKID}
}

func (s *snapshot) nextSequence() int64 {
	if len(s.entries) == 0 {
		return 0
	}
	return s.entries[len(s.entries)-1].Sequence + 1
}

type Service struct {
	storage *Storage
	config  config.TrustServiceConfig

	// writes serializes snapshot rebuilds
	writes  sync.Mutex
	current atomic.Pointer[snapshot]
}

func (s *Service) Type() framework.Type {
	return framework.Trust
}

func (s *Service) Status() framework.Status {
	ae := sdkutil.NewAppendError()
	if s.storage == nil {
		ae.AppendString("no storage configured")
	}
	if s.current.Load() == nil {
		ae.AppendString("trust list not loaded")
	}
	if !ae.IsEmpty() {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: fmt.Sprintf("trust service is not ready: %s", ae.Error().Error()),
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s *Service) Config() config.TrustServiceConfig {
	return s.config
}

func NewTrustService(config config.TrustServiceConfig, s storage.ServiceStorage) (*Service, error) {
	trustStorage, err := NewTrustStorage(s)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate storage for the trust service")
	}
	service := Service{
		storage: trustStorage,
		config:  config,
	}
	if err = service.Refresh(context.Background()); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not load trust list")
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
	entries, err := s.storage.ListTrustEntries(ctx)
	if err != nil {
		return err
	}
	s.current.Store(newSnapshot(entries))
	return nil
}

// GetCertificatesBy returns the entries for a base64 kid in trust list order. The slice is shared
// with the snapshot and must not be modified.
func (s *Service) GetCertificatesBy(kid string) []keyaccess.TrustEntry {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.byKID[kid]
}

// StoreTrustEntries appends entries to the trust list. Entries without an ID are given one and
// entries whose ID is already present are overwritten in place.
func (s *Service) StoreTrustEntries(ctx context.Context, request StoreTrustEntriesRequest) (*StoreTrustEntriesResponse, error) {
	logrus.Debugf("storing %d trust entries", len(request.Entries))

	if !request.IsValid() {
		return nil, sdkutil.LoggingNewErrorf("invalid store trust entries request: %d entries", len(request.Entries))
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	snap := s.current.Load()
	existing := make(map[string]int64, len(snap.entries))
	for _, e := range snap.entries {
		existing[e.Entry.ID] = e.Sequence
	}
	next := snap.nextSequence()
	stored := make([]StoredTrustEntry, 0, len(request.Entries))
	entries := make([]keyaccess.TrustEntry, 0, len(request.Entries))
	for _, entry := range request.Entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		seq, ok := existing[entry.ID]
		if !ok {
			seq = next
			next++
			existing[entry.ID] = seq
		}
		stored = append(stored, StoredTrustEntry{Sequence: seq, Entry: entry})
		entries = append(entries, entry)
	}
	if err := s.storage.StoreTrustEntries(ctx, stored); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not store trust entries")
	}
	if err := s.refresh(ctx); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not refresh trust list")
	}
	return &StoreTrustEntriesResponse{Entries: entries}, nil
}

// ReplaceTrustEntries swaps the whole trust list for the given entries, in their order
func (s *Service) ReplaceTrustEntries(ctx context.Context, request ReplaceTrustEntriesRequest) error {
	logrus.Debugf("replacing trust list with %d entries", len(request.Entries))

	if !request.IsValid() {
		return sdkutil.LoggingNewErrorf("invalid replace trust entries request: %d entries", len(request.Entries))
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	stored := make([]StoredTrustEntry, 0, len(request.Entries))
	for i, entry := range request.Entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		stored = append(stored, StoredTrustEntry{Sequence: int64(i), Entry: entry})
	}
	if err := s.storage.ReplaceTrustEntries(ctx, stored); err != nil {
		return sdkutil.LoggingErrorMsg(err, "could not replace trust entries")
	}
	if err := s.refresh(ctx); err != nil {
		return sdkutil.LoggingErrorMsg(err, "could not refresh trust list")
	}
	return nil
}

func (s *Service) GetTrustEntry(ctx context.Context, request GetTrustEntryRequest) (*GetTrustEntryResponse, error) {
	logrus.Debugf("getting trust entry: %s", request.ID)

	stored, err := s.storage.GetTrustEntry(ctx, request.ID)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "error getting trust entry: %s", request.ID)
	}
	return &GetTrustEntryResponse{Entry: stored.Entry}, nil
}

// ListTrustEntries lists the trust list from the current snapshot
func (s *Service) ListTrustEntries(_ context.Context, request ListTrustEntriesRequest) (*ListTrustEntriesResponse, error) {
	logrus.Debug("listing trust entries")

	if request.KID != "" {
		entries := s.GetCertificatesBy(request.KID)
		return &ListTrustEntriesResponse{Entries: append([]keyaccess.TrustEntry{}, entries...)}, nil
	}
	snap := s.current.Load()
	entries := make([]keyaccess.TrustEntry, 0, len(snap.entries))
	for _, e := range snap.entries {
		entries = append(entries, e.Entry)
	}
	return &ListTrustEntriesResponse{Entries: entries}, nil
}

func (s *Service) DeleteTrustEntry(ctx context.Context, request DeleteTrustEntryRequest) error {
	logrus.Debugf("deleting trust entry: %s", request.ID)

	s.writes.Lock()
	defer s.writes.Unlock()

	if _, err := s.storage.GetTrustEntry(ctx, request.ID); err != nil {
		return sdkutil.LoggingErrorMsgf(err, "could not delete trust entry: %s", request.ID)
	}
	if err := s.storage.DeleteTrustEntry(ctx, request.ID); err != nil {
		return err
	}
	if err := s.refresh(ctx); err != nil {
		return sdkutil.LoggingErrorMsg(err, "could not refresh trust list")
	}
	return nil
}
