package keyaccess

import (
	"crypto"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/veraison/go-cose"

	"github.com/tbd54566975/dcc-verifier/internal/hcert"
)

var supportedAlgorithms = map[cose.Algorithm]bool{
	cose.AlgorithmES256:   true,
	cose.AlgorithmES384:   true,
	cose.AlgorithmES512:   true,
	cose.AlgorithmPS256:   true,
	cose.AlgorithmPS384:   true,
	cose.AlgorithmPS512:   true,
	cose.AlgorithmEd25519: true,
}

// VerifyCOSE reports whether the COSE_Sign1 message was signed by the entry's key for a
// certificate of the given type. Malformed entries and messages never verify.
func VerifyCOSE(coseBytes []byte, entry TrustEntry, certType hcert.CertificateType) bool {
	if err := verifyCOSE(coseBytes, entry, certType); err != nil {
		logrus.WithError(err).WithField("kid", entry.KID).Debug("trust entry did not verify")
		return false
	}
	return true
}

func verifyCOSE(coseBytes []byte, entry TrustEntry, certType hcert.CertificateType) error {
	msg, err := hcert.ParseSign1(coseBytes)
	if err != nil {
		return err
	}
	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil {
		return errors.Wrap(err, "reading signature algorithm")
	}
	if !supportedAlgorithms[alg] {
		return errors.Errorf("unsupported signature algorithm: %s", alg)
	}

	var pubKey crypto.PublicKey
	if len(entry.RawData) > 0 {
		cert, err := entry.Certificate()
		if err != nil {
			return err
		}
		if !allowsType(cert, certType) {
			return errors.Errorf("certificate may not sign %s certificates", certType)
		}
		pubKey = cert.PublicKey
	} else if pubKey, err = PublicKey(entry); err != nil {
		return err
	}

	verifier, err := cose.NewVerifier(alg, pubKey)
	if err != nil {
		return errors.Wrapf(err, "creating %s verifier", alg)
	}
	if err = msg.Verify(nil, verifier); err != nil {
		return errors.Wrap(err, "verifying signature")
	}
	return nil
}
