package piv

import (
	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/apdu"
)

// Algorithm identifies a PIV key algorithm byte (spec.md §4.8).
type Algorithm byte

const (
	AlgorithmRSA1024 Algorithm = 0x05
	AlgorithmRSA2048 Algorithm = 0x07
	AlgorithmECCP256 Algorithm = 0x11
	AlgorithmECCP384 Algorithm = 0x14
)

// PinPolicy and TouchPolicy are expressed as BER-TLV elements (tags
// 0xAA/0xAB) inside the GENERATE ASYMMETRIC KEY PAIR command data
// (spec.md §4.8: "PIN and touch policies are expressed via BER-TLV in
// the command data").
type PinPolicy byte

const (
	PinPolicyDefault PinPolicy = 0x00
	PinPolicyNever   PinPolicy = 0x01
	PinPolicyOnce    PinPolicy = 0x02
	PinPolicyAlways  PinPolicy = 0x03
)

type TouchPolicy byte

const (
	TouchPolicyDefault TouchPolicy = 0x00
	TouchPolicyNever   TouchPolicy = 0x01
	TouchPolicyAlways  TouchPolicy = 0x02
	TouchPolicyCached  TouchPolicy = 0x03
)

// GeneratedKey is the decoded public key material from a successful
// GENERATE ASYMMETRIC KEY PAIR response (tag 0x7F49 "public key").
type GeneratedKey struct {
	Algorithm Algorithm
	// RSA fields
	Modulus  []byte
	Exponent []byte
	// EC fields
	ECPoint []byte
}

// GenerateKey issues GENERATE ASYMMETRIC KEY PAIR for slot with the
// given algorithm and policies (spec.md §4.8, §6 pivGenerateKey).
func GenerateKey(card apdu.Card, slotID byte, alg Algorithm, pinPolicy PinPolicy, touchPolicy TouchPolicy) (GeneratedKey, error) {
	params := encodeTLV(0x80, []byte{byte(alg)})
	if pinPolicy != PinPolicyDefault {
		params = append(params, encodeTLV(0xAA, []byte{byte(pinPolicy)})...)
	}
	if touchPolicy != TouchPolicyDefault {
		params = append(params, encodeTLV(0xAB, []byte{byte(touchPolicy)})...)
	}
	cmdData := encodeTLV(0xAC, params)

	log := apdu.NewLog()
	resp, sw, err := apdu.TransmitLogged(log, card, "GENERATE ASYMMETRIC KEY PAIR", 0x00, insGenerateAsymmetric, 0x00, slotID, cmdData, 0x00, "generate key pair")
	if err != nil {
		return GeneratedKey{}, err
	}
	if !apdu.SWOK(sw) {
		return GeneratedKey{}, &apdu.StatusError{Cmd: insGenerateAsymmetric, SW: sw}
	}
	return parseGeneratedKey(alg, resp)
}

// parseGeneratedKey unwraps the 0x7F49 "public key" constructed tag,
// which parseTLVs cannot address directly since it only reads
// single-byte tags.
func parseGeneratedKey(alg Algorithm, resp []byte) (GeneratedKey, error) {
	if len(resp) < 2 || resp[0] != 0x7F || resp[1] != 0x49 {
		return GeneratedKey{}, agenterr.New(agenterr.CodeFormatError, "GENERATE response missing 0x7F49 public key tag")
	}
	length, n, err := decodeLength(resp[2:])
	if err != nil {
		return GeneratedKey{}, err
	}
	body := resp[2+n:]
	if len(body) < length {
		return GeneratedKey{}, agenterr.New(agenterr.CodeFormatError, "GENERATE response public key body truncated")
	}
	elements, err := parseTLVs(body[:length])
	if err != nil {
		return GeneratedKey{}, err
	}
	key := GeneratedKey{Algorithm: alg}
	switch alg {
	case AlgorithmRSA1024, AlgorithmRSA2048:
		modulus, _ := findTag(elements, 0x81)
		exponent, _ := findTag(elements, 0x82)
		key.Modulus = modulus
		key.Exponent = exponent
	case AlgorithmECCP256, AlgorithmECCP384:
		point, _ := findTag(elements, 0x86)
		key.ECPoint = point
	}
	return key, nil
}

// ImportCertificate writes a raw DER certificate into the named slot's
// certificate data object via PUT DATA (spec.md §6 pivImportCertificate).
func ImportCertificate(card apdu.Card, slotID byte, der []byte) error {
	objTag, ok := certificateObjectTag(slotID)
	if !ok {
		return agenterr.New(agenterr.CodeInvalidParams, "no certificate object for slot 0x%02X", slotID)
	}
	certTLV := encodeTLV(0x70, der)
	certTLV = append(certTLV, encodeTLV(0x71, []byte{0x00})...) // cert-info: not compressed
	certTLV = append(certTLV, encodeTLV(0xFE, nil)...)          // LRC placeholder

	cmdData := append(encodeTLV(0x5C, encodeObjectTag(objTag)), encodeTLV(0x53, certTLV)...)
	log := apdu.NewLog()
	_, sw, err := apdu.TransmitLogged(log, card, "PUT DATA", 0x00, 0xDB, 0x3F, 0xFF, cmdData, 0x00, "import certificate")
	if err != nil {
		return err
	}
	if !apdu.SWOK(sw) {
		return &apdu.StatusError{Cmd: 0xDB, SW: sw}
	}
	return nil
}

// ReadCertificate returns the raw DER certificate for a single slot, or
// nil if the slot is empty (spec.md §6 pivReadCertificate).
func ReadCertificate(card apdu.Card, slotID byte) ([]byte, error) {
	objTag, ok := certificateObjectTag(slotID)
	if !ok {
		return nil, agenterr.New(agenterr.CodeInvalidParams, "no certificate object for slot 0x%02X", slotID)
	}
	log := apdu.NewLog()
	obj, err := getData(log, card, "read certificate", objTag)
	if err != nil {
		if isFileNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return extractCertificate(obj), nil
}

// DeleteCertificate clears a slot's certificate object by writing an
// empty PUT DATA payload (spec.md §6 pivDeleteCertificate).
func DeleteCertificate(card apdu.Card, slotID byte) error {
	objTag, ok := certificateObjectTag(slotID)
	if !ok {
		return agenterr.New(agenterr.CodeInvalidParams, "no certificate object for slot 0x%02X", slotID)
	}
	cmdData := append(encodeTLV(0x5C, encodeObjectTag(objTag)), encodeTLV(0x53, nil)...)
	log := apdu.NewLog()
	_, sw, err := apdu.TransmitLogged(log, card, "PUT DATA", 0x00, 0xDB, 0x3F, 0xFF, cmdData, 0x00, "delete certificate")
	if err != nil {
		return err
	}
	if !apdu.SWOK(sw) {
		return &apdu.StatusError{Cmd: 0xDB, SW: sw}
	}
	return nil
}
