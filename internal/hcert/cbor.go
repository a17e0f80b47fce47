package hcert

import (
	"math"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// cwtClaims are the CWT claims of a health certificate
type cwtClaims struct {
	Issuer         string                    `cbor:"1,keyasint,omitempty"`
	ExpirationTime cbor.RawMessage           `cbor:"4,keyasint,omitempty"`
	IssuedAt       cbor.RawMessage           `cbor:"6,keyasint,omitempty"`
	HCert          map[int64]cbor.RawMessage `cbor:"-260,keyasint,omitempty"`
}

// hcertV1Key is the key of the v1 certificate inside the hcert claim
const hcertV1Key = 1

var payloadDecMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// DecodeCBOR is the structured decode stage of the chain
func DecodeCBOR(input []byte, result DecodeResult) (*GreenCertificateData, DecodeResult) {
	data, err := decodeGreenCertificateData(input)
	if err != nil {
		return nil, result.withError(err.Error())
	}
	result.CborDecoded = true
	return data, result
}

func decodeGreenCertificateData(input []byte) (*GreenCertificateData, error) {
	claims, rawCert, err := decodeClaims(input)
	if err != nil {
		return nil, err
	}

	var cert GreenCertificate
	if err = cbor.Unmarshal(rawCert, &cert); err != nil {
		return nil, errors.Wrap(err, "cbor: decoding certificate")
	}
	hcertJSON, err := payloadJSON(rawCert)
	if err != nil {
		return nil, err
	}

	data := GreenCertificateData{
		IssuingCountry: claims.Issuer,
		Certificate:    cert,
		HCertJSON:      string(hcertJSON),
	}
	if data.ExpirationTime, err = numericDate(claims.ExpirationTime); err != nil {
		return nil, errors.Wrap(err, "cbor: decoding exp claim")
	}
	if data.IssuedAt, err = numericDate(claims.IssuedAt); err != nil {
		return nil, errors.Wrap(err, "cbor: decoding iat claim")
	}
	return &data, nil
}

// decodeClaims returns the CWT claims and the raw v1 certificate they carry
func decodeClaims(input []byte) (*cwtClaims, cbor.RawMessage, error) {
	var claims cwtClaims
	if err := cbor.Unmarshal(input, &claims); err != nil {
		return nil, nil, errors.Wrap(err, "cbor: decoding cwt claims")
	}
	rawCert, ok := claims.HCert[hcertV1Key]
	if !ok || len(rawCert) == 0 {
		return nil, nil, errors.New("cbor: no health certificate claim")
	}
	return &claims, rawCert, nil
}

// payloadJSON converts the CBOR certificate into its JSON form
func payloadJSON(rawCert cbor.RawMessage) ([]byte, error) {
	var payload map[string]any
	if err := payloadDecMode.Unmarshal(rawCert, &payload); err != nil {
		return nil, errors.Wrap(err, "cbor: decoding certificate payload")
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "cbor: encoding certificate payload as json")
	}
	return out, nil
}

// numericDate decodes a CWT NumericDate, which may be an integer or a float
func numericDate(raw cbor.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, nil
	}
	var v any
	if err := cbor.Unmarshal(raw, &v); err != nil {
		return time.Time{}, err
	}
	switch n := v.(type) {
	case uint64:
		if n > math.MaxInt64 {
			return time.Time{}, errors.Errorf("numeric date out of range: %d", n)
		}
		return time.Unix(int64(n), 0).UTC(), nil
	case int64:
		return time.Unix(n, 0).UTC(), nil
	case float64:
		sec, frac := math.Modf(n)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	default:
		return time.Time{}, errors.Errorf("unsupported numeric date type %T", v)
	}
}

// EncodeClaims builds the CBOR CWT of a certificate, the inverse of DecodeCBOR
func EncodeClaims(issuer string, issuedAt, expiresAt time.Time, cert any) ([]byte, error) {
	certBytes, err := cbor.Marshal(cert)
	if err != nil {
		return nil, errors.Wrap(err, "cbor: encoding certificate")
	}
	iat, err := cbor.Marshal(issuedAt.Unix())
	if err != nil {
		return nil, err
	}
	exp, err := cbor.Marshal(expiresAt.Unix())
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(cwtClaims{
		Issuer:         issuer,
		IssuedAt:       iat,
		ExpirationTime: exp,
		HCert:          map[int64]cbor.RawMessage{hcertV1Key: certBytes},
	})
}
