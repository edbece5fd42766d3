package openpgp

import (
	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/apdu"
)

// KeySlot identifies which OpenPGP key role a GENERATE/import/export
// operation targets, via its Control Reference Template tag (spec.md
// §4.9).
type KeySlot byte

const (
	KeySlotSignature     KeySlot = 0xB6
	KeySlotDecryption    KeySlot = 0xB8
	KeySlotAuthentication KeySlot = 0xA4
)

const insGenerateAsymmetric byte = 0x47

// P1 values for GENERATE ASYMMETRIC KEY PAIR: 0x80 generates a new key
// pair, 0x81 reads back the public key of a previously generated (or
// imported) key.
const (
	genGenerate byte = 0x80
	genReadOnly byte = 0x81
)

// PublicKey is the decoded public key material from a GENERATE/export
// response (tag 0x7F49, same shape as PIV's).
type PublicKey struct {
	Modulus  []byte
	Exponent []byte
	ECPoint  []byte
}

// GenerateKey issues GENERATE ASYMMETRIC KEY PAIR (P1=0x80) for slot,
// generating a new on-card key pair and returning its public half. No
// RPC command calls it: openpgpImportKey only imports key material.
func GenerateKey(card apdu.Card, slot KeySlot) (PublicKey, error) {
	crt := encodeTLV(byte(slot), nil)
	log := apdu.NewLog()
	resp, sw, err := apdu.TransmitLogged(log, card, "GENERATE ASYMMETRIC KEY PAIR", 0x00, insGenerateAsymmetric, genGenerate, 0x00, crt, 0x00, "generate key pair")
	if err != nil {
		return PublicKey{}, err
	}
	if !apdu.SWOK(sw) {
		return PublicKey{}, &apdu.StatusError{Cmd: insGenerateAsymmetric, SW: sw}
	}
	return parsePublicKey(resp)
}

// ExportPublicKey reads back the public key of an existing slot without
// generating a new key pair (spec.md §6 openpgpExportPublicKey).
func ExportPublicKey(card apdu.Card, slot KeySlot) (PublicKey, error) {
	crt := encodeTLV(byte(slot), nil)
	log := apdu.NewLog()
	resp, sw, err := apdu.TransmitLogged(log, card, "GENERATE ASYMMETRIC KEY PAIR", 0x00, insGenerateAsymmetric, genReadOnly, 0x00, crt, 0x00, "read public key")
	if err != nil {
		return PublicKey{}, err
	}
	if !apdu.SWOK(sw) {
		return PublicKey{}, &apdu.StatusError{Cmd: insGenerateAsymmetric, SW: sw}
	}
	return parsePublicKey(resp)
}

func parsePublicKey(resp []byte) (PublicKey, error) {
	if len(resp) < 2 || resp[0] != 0x7F || resp[1] != 0x49 {
		return PublicKey{}, agenterr.New(agenterr.CodeFormatError, "GENERATE response missing 0x7F49 public key tag")
	}
	length, n, err := decodeLength(resp[2:])
	if err != nil {
		return PublicKey{}, err
	}
	body := resp[2+n:]
	if len(body) < length {
		return PublicKey{}, agenterr.New(agenterr.CodeFormatError, "GENERATE response public key body truncated")
	}
	elements, err := parseTLVs(body[:length])
	if err != nil {
		return PublicKey{}, err
	}
	var key PublicKey
	if modulus, ok := findTag(elements, 0x81); ok {
		key.Modulus = modulus
	}
	if exponent, ok := findTag(elements, 0x82); ok {
		key.Exponent = exponent
	}
	if point, ok := findTag(elements, 0x86); ok {
		key.ECPoint = point
	}
	return key, nil
}

// ImportKey writes externally-generated private key material into slot
// via PUT DATA with the extended header list tag (0x4D), the standard
// OpenPGP "key import" data object (spec.md §6 openpgpImportKey).
// keyTemplate is the caller-assembled Cardholder Private Key Template
// (tag 0x7F48 plus its companion key data), passed through unexamined:
// building one is a key-format concern outside what this transport-layer
// engine owns.
func ImportKey(card apdu.Card, slot KeySlot, keyTemplate []byte) error {
	extendedHeader := append(encodeTLV(byte(slot), nil), keyTemplate...)
	cmdData := encodeTLV(0x4D, extendedHeader)
	log := apdu.NewLog()
	_, sw, err := apdu.TransmitLogged(log, card, "PUT DATA", 0x00, 0xDB, 0x3F, 0xFF, cmdData, 0x00, "import private key")
	if err != nil {
		return err
	}
	if !apdu.SWOK(sw) {
		return &apdu.StatusError{Cmd: 0xDB, SW: sw}
	}
	return nil
}
