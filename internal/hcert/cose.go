package hcert

import (
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/veraison/go-cose"
)

// cbor tag 18 marks a COSE_Sign1 message
const coseSign1Tag = 0xD2

// CoseData is the parsed signed container
type CoseData struct {
	// Raw is the COSE_Sign1 message as scanned, the input of signature verification
	Raw []byte
	// Payload is the CBOR encoded CWT
	Payload []byte
	KID     []byte
}

// Base64KID is the standard base64 form of the key identifier trust lists are keyed by
func (c CoseData) Base64KID() string {
	return base64.StdEncoding.EncodeToString(c.KID)
}

// DecodeCOSE is the structural stage of the chain. It fails when the message cannot be parsed
// or carries no key identifier, since such a payload cannot be trust checked.
func DecodeCOSE(input []byte, result DecodeResult) (*CoseData, DecodeResult) {
	msg, err := ParseSign1(input)
	if err != nil {
		return nil, result.withError(err.Error())
	}
	kid := KeyID(msg)
	if len(kid) == 0 {
		return nil, result.withError("cose: no key identifier in headers")
	}
	result.CoseDecoded = true
	return &CoseData{Raw: input, Payload: msg.Payload, KID: kid}, result
}

// ParseSign1 parses a tagged or untagged COSE_Sign1 message
func ParseSign1(data []byte) (*cose.Sign1Message, error) {
	if len(data) == 0 {
		return nil, errors.New("cose: empty message")
	}
	if data[0] == coseSign1Tag {
		var msg cose.Sign1Message
		if err := msg.UnmarshalCBOR(data); err != nil {
			return nil, errors.Wrap(err, "cose: parsing tagged sign1 message")
		}
		return &msg, nil
	}
	var untagged cose.UntaggedSign1Message
	if err := untagged.UnmarshalCBOR(data); err != nil {
		return nil, errors.Wrap(err, "cose: parsing sign1 message")
	}
	return (*cose.Sign1Message)(&untagged), nil
}

// KeyID reads the key identifier from the protected header, then the unprotected one
func KeyID(msg *cose.Sign1Message) []byte {
	if kid, ok := headerBytes(msg.Headers.Protected[cose.HeaderLabelKeyID]); ok {
		return kid
	}
	if kid, ok := headerBytes(msg.Headers.Unprotected[cose.HeaderLabelKeyID]); ok {
		return kid
	}
	return nil
}

func headerBytes(v any) ([]byte, bool) {
	b, ok := v.([]byte)
	if !ok || len(b) == 0 {
		return nil, false
	}
	return b, true
}
