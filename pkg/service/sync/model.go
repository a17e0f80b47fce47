package sync

import (
	"context"
	"time"

	"github.com/tbd54566975/dcc-verifier/pkg/service/rule"
	"github.com/tbd54566975/dcc-verifier/pkg/service/trust"
	"github.com/tbd54566975/dcc-verifier/pkg/service/valueset"
)

// TrustStore receives the downloaded trust list
type TrustStore interface {
	ReplaceTrustEntries(ctx context.Context, request trust.ReplaceTrustEntriesRequest) error
}

// RuleStore receives the downloaded rules and countries
type RuleStore interface {
	ReplaceRules(ctx context.Context, request rule.ReplaceRulesRequest) error
	ReplaceCountries(ctx context.Context, request rule.ReplaceCountriesRequest) error
}

// ValueSetStore receives the downloaded value sets
type ValueSetStore interface {
	ReplaceValueSets(ctx context.Context, request valueset.ReplaceValueSetsRequest) error
}

// SyncResponse counts what one sync replaced. A document that was not configured counts -1.
type SyncResponse struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	TrustCount int       `json:"trustEntries"`
	RuleCount  int       `json:"rules"`
	ValueSets  int       `json:"valueSets"`
	Countries  int       `json:"countries"`
}
