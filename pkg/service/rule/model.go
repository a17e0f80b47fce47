package rule

import (
	"github.com/TBD54566975/ssi-sdk/util"

	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
)

type ReplaceRulesRequest struct {
	Rules []certlogic.Rule `json:"rules" validate:"dive"`
}

func (r ReplaceRulesRequest) IsValid() bool {
	return util.IsValidStruct(r) == nil
}

type ListRulesRequest struct {
	// CountryCode filters the list to the rules of one country when set
	CountryCode string `json:"countryCode,omitempty"`
}

type ListRulesResponse struct {
	Rules []certlogic.Rule `json:"rules"`
}

type ReplaceCountriesRequest struct {
	Countries []string `json:"countries" validate:"dive,required"`
}

func (r ReplaceCountriesRequest) IsValid() bool {
	return util.IsValidStruct(r) == nil
}

type ListCountriesResponse struct {
	Countries []string `json:"countries"`
}
