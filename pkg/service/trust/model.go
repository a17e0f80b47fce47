package trust

import (
	"github.com/TBD54566975/ssi-sdk/util"

	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
)

type StoreTrustEntriesRequest struct {
	Entries []keyaccess.TrustEntry `json:"entries" validate:"required,dive"`
}

func (r StoreTrustEntriesRequest) IsValid() bool {
	return util.IsValidStruct(r) == nil && entriesCarryKeys(r.Entries)
}

type StoreTrustEntriesResponse struct {
	Entries []keyaccess.TrustEntry `json:"entries"`
}

// ReplaceTrustEntriesRequest replaces the whole trust list. An empty list clears it.
type ReplaceTrustEntriesRequest struct {
	Entries []keyaccess.TrustEntry `json:"entries" validate:"dive"`
}

func (r ReplaceTrustEntriesRequest) IsValid() bool {
	return util.IsValidStruct(r) == nil && entriesCarryKeys(r.Entries)
}

type GetTrustEntryRequest struct {
	ID string `json:"id" validate:"required"`
}

type GetTrustEntryResponse struct {
	Entry keyaccess.TrustEntry `json:"entry"`
}

type ListTrustEntriesRequest struct {
	// KID filters the list to one key identifier when set
	KID string `json:"kid,omitempty"`
}

type ListTrustEntriesResponse struct {
	Entries []keyaccess.TrustEntry `json:"entries"`
}

type DeleteTrustEntryRequest struct {
	ID string `json:"id" validate:"required"`
}

func entriesCarryKeys(entries []keyaccess.TrustEntry) bool {
	for _, e := range entries {
		if e.IsEmpty() {
			return false
		}
	}
	return true
}
