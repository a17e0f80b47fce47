package valueset

import (
	"sort"

	"github.com/TBD54566975/ssi-sdk/util"
)

// ValueSet is a named vocabulary rules check membership against
type ValueSet struct {
	ID     string                   `json:"valueSetId" validate:"required"`
	Date   string                   `json:"valueSetDate,omitempty"`
	Values map[string]ValueSetEntry `json:"valueSetValues"`
}

type ValueSetEntry struct {
	Display string `json:"display"`
	Lang    string `json:"lang,omitempty"`
	Active  bool   `json:"active"`
	Version string `json:"version,omitempty"`
	System  string `json:"system,omitempty"`
}

// Codes returns the member codes of the set, sorted
func (v ValueSet) Codes() []string {
	codes := make([]string, 0, len(v.Values))
	for code := range v.Values {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

type ReplaceValueSetsRequest struct {
	ValueSets []ValueSet `json:"valueSets" validate:"dive"`
}

func (r ReplaceValueSetsRequest) IsValid() bool {
	return util.IsValidStruct(r) == nil
}

type ListValueSetsResponse struct {
	ValueSets []ValueSet `json:"valueSets"`
}

type GetValueSetRequest struct {
	ID string `json:"id" validate:"required"`
}

type GetValueSetResponse struct {
	ValueSet ValueSet `json:"valueSet"`
}
