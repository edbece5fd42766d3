package ctap2

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"

	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fxamacker/cbor/v2"
)

// PIN protocol v1 subcommands of authenticatorClientPIN (spec.md §4.6).
const (
	subGetRetries       = 0x01
	subGetKeyAgreement  = 0x02
	subSetPIN           = 0x03
	subChangePIN        = 0x04
	subGetPinToken      = 0x05
)

const pinProtocolV1 = 1

// minPinBytes is the zero-padded minimum length required by the
// authenticator for setPin/changePin (spec.md §4.6).
const minPinBytes = 64

// coseKey is the subset of a COSE_Key map this agent needs: an EC2
// (kty=2) P-256 (crv=1) public key.
type coseKey struct {
	Kty int    `cbor:"1,keyasint"`
	Alg int    `cbor:"3,keyasint,omitempty"`
	Crv int    `cbor:"-1,keyasint"`
	X   []byte `cbor:"-2,keyasint"`
	Y   []byte `cbor:"-3,keyasint"`
}

const (
	coseKtyEC2  = 2
	coseCrvP256 = 1
)

// clientPINRequest mirrors the authenticatorClientPIN parameter map
// (spec.md §4.6).
type clientPINRequest struct {
	PinProtocol  int      `cbor:"1,keyasint"`
	SubCommand   int      `cbor:"2,keyasint"`
	KeyAgreement *coseKey `cbor:"3,keyasint,omitempty"`
	PinAuth      []byte   `cbor:"4,keyasint,omitempty"`
	NewPinEnc    []byte   `cbor:"5,keyasint,omitempty"`
	PinHashEnc   []byte   `cbor:"6,keyasint,omitempty"`
}

type clientPINResponse struct {
	KeyAgreement *coseKey `cbor:"1,keyasint,omitempty"`
	PinToken     []byte   `cbor:"2,keyasint,omitempty"`
	Retries      int      `cbor:"3,keyasint,omitempty"`
}

// PinSession holds the ephemeral platform key pair and derived shared
// secret for one PIN protocol v1 negotiation (spec.md §3 "CTAP2 PIN
// session"). It is never persisted: each RPC handler that needs one
// negotiates a new session and drops it when the request returns.
type PinSession struct {
	platformKey  *ecdh.PrivateKey
	sharedSecret [32]byte
}

// NegotiatePin fetches the authenticator's key-agreement public key,
// generates a fresh platform key pair, and derives the shared secret
// (spec.md §4.6: "shared secret = SHA-256 of the X coordinate of
// ECDH").
func (d *Device) NegotiatePin() (*PinSession, error) {
	params, err := cbor.Marshal(clientPINRequest{PinProtocol: pinProtocolV1, SubCommand: subGetKeyAgreement})
	if err != nil {
		return nil, err
	}
	body, err := d.Call(CmdClientPIN, params, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	var resp clientPINResponse
	if err := cbor.Unmarshal(body, &resp); err != nil {
		return nil, &StatusError{Status: StatusInvalidCBOR}
	}
	if resp.KeyAgreement == nil {
		return nil, &StatusError{Status: StatusMissingParameter}
	}

	authPub, err := decodeCOSEPublicKey(*resp.KeyAgreement)
	if err != nil {
		return nil, err
	}

	platformKey, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.CodeIOError, err, "failed to generate platform key pair")
	}

	sharedX, err := platformKey.ECDH(authPub)
	if err != nil {
		return nil, &StatusError{Status: StatusInvalidParameter}
	}

	return &PinSession{
		platformKey:  platformKey,
		sharedSecret: sha256.Sum256(sharedX),
	}, nil
}

func decodeCOSEPublicKey(key coseKey) (*ecdh.PublicKey, error) {
	if key.Kty != coseKtyEC2 || key.Crv != coseCrvP256 {
		return nil, &StatusError{Status: StatusInvalidParameter}
	}
	point := make([]byte, 0, 65)
	point = append(point, 0x04) // uncompressed point marker
	point = append(point, key.X...)
	point = append(point, key.Y...)
	pub, err := ecdh.P256().NewPublicKey(point)
	if err != nil {
		return nil, &StatusError{Status: StatusInvalidParameter}
	}
	return pub, nil
}

// platformCOSEKey encodes the platform's own ephemeral public key as
// the COSE_Key the authenticator expects in the keyAgreement parameter.
func (s *PinSession) platformCOSEKey() coseKey {
	raw := s.platformKey.PublicKey().Bytes() // uncompressed: 0x04 || X || Y
	coords := raw[1:]
	half := len(coords) / 2
	return coseKey{
		Kty: coseKtyEC2,
		Crv: coseCrvP256,
		X:   append([]byte{}, coords[:half]...),
		Y:   append([]byte{}, coords[half:]...),
	}
}

// encrypt performs AES-256-CBC with a zero IV over plaintext, which
// must already be a multiple of the block size (spec.md §4.6).
func (s *PinSession) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.sharedSecret[:])
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

// decrypt reverses encrypt.
func (s *PinSession) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.sharedSecret[:])
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

// tokenSession wraps a decrypted pinUvAuthToken so credentialManagement
// can reuse PinSession.pinAuth, which for pinUvAuthParam computations is
// keyed by the token itself rather than the key-agreement shared secret.
func tokenSession(pinToken []byte) *PinSession {
	var s PinSession
	copy(s.sharedSecret[:], pinToken)
	return &s
}

// pinAuth computes HMAC-SHA-256 over data, truncated to 16 bytes, keyed
// by the shared secret (spec.md §4.6 "pinAuth").
func (s *PinSession) pinAuth(data []byte) []byte {
	mac := hmac.New(sha256.New, s.sharedSecret[:])
	mac.Write(data)
	return mac.Sum(nil)[:16]
}

// padPin zero-pads pin (UTF-8 bytes) to a multiple of 16, at least
// minLen bytes (spec.md §4.6).
func padPin(pin string, minLen int) []byte {
	raw := []byte(pin)
	target := minLen
	for target < len(raw) {
		target += 16
	}
	out := make([]byte, target)
	copy(out, raw)
	return out
}

// GetRetries returns the remaining PIN attempt counter.
func (d *Device) GetRetries() (int, error) {
	params, err := cbor.Marshal(clientPINRequest{PinProtocol: pinProtocolV1, SubCommand: subGetRetries})
	if err != nil {
		return 0, err
	}
	body, err := d.Call(CmdClientPIN, params, DefaultTimeout)
	if err != nil {
		return 0, err
	}
	var resp clientPINResponse
	if err := cbor.Unmarshal(body, &resp); err != nil {
		return 0, &StatusError{Status: StatusInvalidCBOR}
	}
	return resp.Retries, nil
}

// SetPin sets the PIN for the first time. It reads authenticatorGetInfo
// first and fails with PIN_ALREADY_SET if options.clientPin is already
// true, so the agent never silently overwrites a PIN (spec.md §4.6).
func (d *Device) SetPin(session *PinSession, newPin string) error {
	info, err := d.GetInfo()
	if err != nil {
		return err
	}
	if info.ClientPinSet() {
		return agenterr.New(agenterr.CodePinAlreadySet, "a PIN is already set on this authenticator")
	}
	padded := padPin(newPin, minPinBytes)
	newPinEnc, err := session.encrypt(padded)
	if err != nil {
		return err
	}
	auth := session.pinAuth(newPinEnc)

	platformKey := session.platformCOSEKey()
	params, err := cbor.Marshal(clientPINRequest{
		PinProtocol:  pinProtocolV1,
		SubCommand:   subSetPIN,
		KeyAgreement: &platformKey,
		NewPinEnc:    newPinEnc,
		PinAuth:      auth,
	})
	if err != nil {
		return err
	}
	_, err = d.Call(CmdClientPIN, params, DefaultTimeout)
	return err
}

// ChangePin changes an existing PIN. A wrong currentPin surfaces
// PIN_INVALID via the authenticator's status byte; the authenticator
// itself decrements its retry counter (spec.md §4.6).
func (d *Device) ChangePin(session *PinSession, currentPin, newPin string) error {
	currentHash := sha256.Sum256([]byte(currentPin))
	pinHashEnc, err := session.encrypt(currentHash[:16])
	if err != nil {
		return err
	}
	newPadded := padPin(newPin, minPinBytes)
	newPinEnc, err := session.encrypt(newPadded)
	if err != nil {
		return err
	}
	authInput := append(append([]byte{}, newPinEnc...), pinHashEnc...)
	auth := session.pinAuth(authInput)

	platformKey := session.platformCOSEKey()
	params, err := cbor.Marshal(clientPINRequest{
		PinProtocol:  pinProtocolV1,
		SubCommand:   subChangePIN,
		KeyAgreement: &platformKey,
		NewPinEnc:    newPinEnc,
		PinHashEnc:   pinHashEnc,
		PinAuth:      auth,
	})
	if err != nil {
		return err
	}
	_, err = d.Call(CmdClientPIN, params, DefaultTimeout)
	return err
}

// GetPinToken exchanges a PIN for a pinUvAuthToken, required before any
// PIN-authenticated command such as credential enumeration.
func (d *Device) GetPinToken(session *PinSession, pin string) ([]byte, error) {
	pinHash := sha256.Sum256([]byte(pin))
	pinHashEnc, err := session.encrypt(pinHash[:16])
	if err != nil {
		return nil, err
	}
	platformKey := session.platformCOSEKey()
	params, err := cbor.Marshal(clientPINRequest{
		PinProtocol:  pinProtocolV1,
		SubCommand:   subGetPinToken,
		KeyAgreement: &platformKey,
		PinHashEnc:   pinHashEnc,
	})
	if err != nil {
		return nil, err
	}
	body, err := d.Call(CmdClientPIN, params, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	var resp clientPINResponse
	if err := cbor.Unmarshal(body, &resp); err != nil {
		return nil, &StatusError{Status: StatusInvalidCBOR}
	}
	return session.decrypt(resp.PinToken)
}
