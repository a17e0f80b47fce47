package trust

import (
	"context"
	"sort"

	"github.com/TBD54566975/ssi-sdk/util"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
	"github.com/tbd54566975/dcc-verifier/pkg/storage"
)

const (
	namespace = "trust"
)

// StoredTrustEntry is a trust entry and its position in the trust list
type StoredTrustEntry struct {
	Sequence int64                `json:"sequence"`
	Entry    keyaccess.TrustEntry `json:"entry"`
}

type Storage struct {
	db storage.ServiceStorage
}

func NewTrustStorage(db storage.ServiceStorage) (*Storage, error) {
	if db == nil {
		return nil, errors.New("db reference is nil")
	}
	return &Storage{db: db}, nil
}

func encodeTrustEntries(entries []StoredTrustEntry) ([]string, [][]byte, error) {
	keys := make([]string, 0, len(entries))
	values := make([][]byte, 0, len(entries))
	for _, entry := range entries {
		id := entry.Entry.ID
		if id == "" {
			return nil, nil, util.LoggingNewError("could not store trust entry without an ID")
		}
		entryBytes, err := json.Marshal(entry)
		if err != nil {
			return nil, nil, util.LoggingErrorMsgf(err, "could not store trust entry: %s", id)
		}
		keys = append(keys, id)
		values = append(values, entryBytes)
	}
	return keys, values, nil
}

func (ts *Storage) StoreTrustEntries(ctx context.Context, entries []StoredTrustEntry) error {
	keys, values, err := encodeTrustEntries(entries)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	namespaces := make([]string, len(keys))
	for i := range namespaces {
		namespaces[i] = namespace
	}
	return ts.db.WriteMany(ctx, namespaces, keys, values)
}

// ReplaceTrustEntries swaps the stored trust list in one storage transaction
func (ts *Storage) ReplaceTrustEntries(ctx context.Context, entries []StoredTrustEntry) error {
	keys, values, err := encodeTrustEntries(entries)
	if err != nil {
		return err
	}
	if err = ts.db.ReplaceNamespace(ctx, namespace, keys, values); err != nil {
		return util.LoggingErrorMsg(err, "could not replace trust entries")
	}
	return nil
}
func (ts *Storage) GetTrustEntry(ctx context.Context, id string) (*StoredTrustEntry, error) {
	entryBytes, err := ts.db.Read(ctx, namespace, id)
	if err != nil {
		return nil, util.LoggingErrorMsgf(err, "could not get trust entry: %s", id)
	}
	if len(entryBytes) == 0 {
		return nil, util.LoggingNewErrorf("trust entry not found with id: %s", id)
	}
	var stored StoredTrustEntry
	if err = json.Unmarshal(entryBytes, &stored); err != nil {
		return nil, util.LoggingErrorMsgf(err, "could not unmarshal stored trust entry: %s", id)
	}
	return &stored, nil
}

// ListTrustEntries returns every stored entry in trust list order. Entries that cannot be
// decoded are logged and left out.
func (ts *Storage) ListTrustEntries(ctx context.Context) ([]StoredTrustEntry, error) {
	gotEntries, err := ts.db.ReadAll(ctx, namespace)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "could not list trust entries")
	}
	stored := make([]StoredTrustEntry, 0, len(gotEntries))
	for id, entryBytes := range gotEntries {
		var next StoredTrustEntry
		if err = json.Unmarshal(entryBytes, &next); err != nil {
			logrus.WithError(err).Errorf("could not unmarshal stored trust entry: %s", id)
			continue
		}
		stored = append(stored, next)
	}
	sort.SliceStable(stored, func(i, j int) bool {
		if stored[i].Sequence == stored[j].Sequence {
			return stored[i].Entry.ID < stored[j].Entry.ID
		}
		return stored[i].Sequence < stored[j].Sequence
	})
	return stored, nil
}

func (ts *Storage) DeleteTrustEntry(ctx context.Context, id string) error {
	if err := ts.db.Delete(ctx, namespace, id); err != nil {
		return util.LoggingErrorMsgf(err, "could not delete trust entry: %s", id)
	}
	return nil
}
