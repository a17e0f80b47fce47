package rule

import (
	"context"

	"github.com/TBD54566975/ssi-sdk/util"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
	"github.com/tbd54566975/dcc-verifier/pkg/storage"
)

const (
	namespace        = "rule"
	countryNamespace = "country"
)

type Storage struct {
	db storage.ServiceStorage
}

func NewRuleStorage(db storage.ServiceStorage) (*Storage, error) {
	if db == nil {
		return nil, errors.New("db reference is nil")
	}
	return &Storage{db: db}, nil
}

func ruleKey(rule certlogic.Rule) string {
	return storage.Join(rule.CountryCode, rule.Identifier, rule.Version)
}

// ReplaceRules swaps every stored rule for the given ones in one storage transaction
func (rs *Storage) ReplaceRules(ctx context.Context, rules []certlogic.Rule) error {
	keys := make([]string, 0, len(rules))
	values := make([][]byte, 0, len(rules))
	for _, rule := range rules {
		ruleBytes, err := json.Marshal(rule)
		if err != nil {
			return util.LoggingErrorMsgf(err, "could not store rule: %s", rule.Identifier)
		}
		keys = append(keys, ruleKey(rule))
		values = append(values, ruleBytes)
	}
	if err := rs.db.ReplaceNamespace(ctx, namespace, keys, values); err != nil {
		return util.LoggingErrorMsg(err, "could not replace rules")
	}
	return nil
}

// ListRules returns every stored rule in no particular order
func (rs *Storage) ListRules(ctx context.Context) ([]certlogic.Rule, error) {
	gotRules, err := rs.db.ReadAll(ctx, namespace)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "could not list rules")
	}
	rules := make([]certlogic.Rule, 0, len(gotRules))
	for key, ruleBytes := range gotRules {
		var next certlogic.Rule
		if err = json.Unmarshal(ruleBytes, &next); err != nil {
			logrus.WithError(err).Errorf("could not unmarshal stored rule: %s", key)
			continue
		}
		rules = append(rules, next)
	}
	return rules, nil
}

func (rs *Storage) ReplaceCountries(ctx context.Context, countries []string) error {
	values := make([][]byte, 0, len(countries))
	for _, country := range countries {
		values = append(values, []byte(country))
	}
	if err := rs.db.ReplaceNamespace(ctx, countryNamespace, countries, values); err != nil {
		return util.LoggingErrorMsg(err, "could not replace countries")
	}
	return nil
}

func (rs *Storage) ListCountries(ctx context.Context) ([]string, error) {
	countries, err := rs.db.ReadAllKeys(ctx, countryNamespace)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "could not list countries")
	}
	return countries, nil
}
