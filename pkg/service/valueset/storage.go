package valueset

import (
	"context"

	"github.com/TBD54566975/ssi-sdk/util"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/pkg/storage"
)

const (
	namespace = "valueset"
)

type Storage struct {
	db storage.ServiceStorage
}

func NewValueSetStorage(db storage.ServiceStorage) (*Storage, error) {
	if db == nil {
		return nil, errors.New("db reference is nil")
	}
	return &Storage{db: db}, nil
}

// ReplaceValueSets swaps every stored value set for the given ones in one storage transaction
func (vs *Storage) ReplaceValueSets(ctx context.Context, valueSets []ValueSet) error {
	keys := make([]string, 0, len(valueSets))
	values := make([][]byte, 0, len(valueSets))
	for _, valueSet := range valueSets {
		valueSetBytes, err := json.Marshal(valueSet)
		if err != nil {
			return util.LoggingErrorMsgf(err, "could not store value set: %s", valueSet.ID)
		}
		keys = append(keys, valueSet.ID)
		values = append(values, valueSetBytes)
	}
	if err := vs.db.ReplaceNamespace(ctx, namespace, keys, values); err != nil {
		return util.LoggingErrorMsg(err, "could not replace value sets")
	}
	return nil
}

func (vs *Storage) ListValueSets(ctx context.Context) ([]ValueSet, error) {
	gotValueSets, err := vs.db.ReadAll(ctx, namespace)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "could not list value sets")
	}
	valueSets := make([]ValueSet, 0, len(gotValueSets))
	for id, valueSetBytes := range gotValueSets {
		var next ValueSet
		if err = json.Unmarshal(valueSetBytes, &next); err != nil {
			logrus.WithError(err).Errorf("could not unmarshal stored value set: %s", id)
			continue
		}
		valueSets = append(valueSets, next)
	}
	return valueSets, nil
}
