package hcert

import "strings"

// HC1Prefix is the context identifier of a version 1 health certificate
const HC1Prefix = "HC1:"

// StripPrefix removes the context prefix. Input without it passes through unchanged so the
// later stages can still report on it.
func StripPrefix(input string, result DecodeResult) (string, DecodeResult) {
	if !strings.HasPrefix(input, HC1Prefix) {
		return input, result.withError("missing context prefix")
	}
	result.ContextPrefix = HC1Prefix
	result.PrefixValid = true
	return strings.TrimPrefix(input, HC1Prefix), result
}
