package hcert

import (
	_ "embed"

	"github.com/TBD54566975/ssi-sdk/util"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/dcc.schema.json
var dccSchemaJSON string

// dccSchema is compiled once; the embedded schema only references its own $defs
var dccSchema = jsonschema.MustCompileString("dcc.schema.json", dccSchemaJSON)

// ValidateSchema is the schema stage of the chain. It validates the JSON form of the
// certificate inside the CWT and only records the outcome: the chain always continues.
func ValidateSchema(input []byte, result DecodeResult) DecodeResult {
	if err := validateAgainstSchema(input); err != nil {
		return result.withError(err.Error())
	}
	result.SchemaValid = true
	return result
}

func validateAgainstSchema(input []byte) error {
	_, rawCert, err := decodeClaims(input)
	if err != nil {
		return err
	}
	certJSON, err := payloadJSON(rawCert)
	if err != nil {
		return err
	}
	cert, err := util.ToJSONInterface(string(certJSON))
	if err != nil {
		return errors.Wrap(err, "schema: certificate is not valid json")
	}
	if err = dccSchema.Validate(cert); err != nil {
		return errors.Wrap(err, "schema: certificate does not match the dcc schema")
	}
	return nil
}
