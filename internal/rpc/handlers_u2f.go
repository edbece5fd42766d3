package rpc

import (
	"encoding/hex"
	"encoding/json"

	"github.com/fthsdk/skagent/internal/hidio"
	"github.com/fthsdk/skagent/internal/u2f"
)

func u2fDevice(d *Dispatcher) (*u2f.Device, error) {
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}
	dev := handle.HID()
	if dev == nil {
		return nil, &deviceTypeMismatchError{want: "Hid"}
	}
	ch, err := hidio.InitChannel(dev, u2f.PresenceRetryBudget)
	if err != nil {
		return nil, err
	}
	return u2f.NewDevice(ch), nil
}

// decodeHash32 decodes a hex-encoded 32-byte SHA-256 digest. The
// browser computes the challenge and application parameter hashes
// itself (native messaging never sees the raw origin string); this
// agent only ever carries the already-hashed bytes.
func decodeHash32(field, hexValue string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(hexValue)
	if err != nil || len(raw) != 32 {
		return out, invalidParamsError(field + " must be a 32-byte hex-encoded hash")
	}
	copy(out[:], raw)
	return out, nil
}

func handleU2FVersion(d *Dispatcher, params json.RawMessage) (any, error) {
	dev, err := u2fDevice(d)
	if err != nil {
		return nil, err
	}
	version, err := dev.Version()
	if err != nil {
		return nil, err
	}
	return map[string]any{"version": version}, nil
}

type u2fRegisterParams struct {
	ChallengeHash string `json:"challengeHash"`
	AppIDHash     string `json:"appIdHash"`
}

func handleU2FRegister(d *Dispatcher, params json.RawMessage) (any, error) {
	var p u2fRegisterParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	challenge, err := decodeHash32("challengeHash", p.ChallengeHash)
	if err != nil {
		return nil, err
	}
	appID, err := decodeHash32("appIdHash", p.AppIDHash)
	if err != nil {
		return nil, err
	}
	dev, err := u2fDevice(d)
	if err != nil {
		return nil, err
	}
	reg, err := dev.Register(challenge, appID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"publicKey":       ByteSlice(reg.PublicKey),
		"keyHandle":       ByteSlice(reg.KeyHandle),
		"attestationCert": ByteSlice(reg.AttestationCert),
		"signature":       ByteSlice(reg.Signature),
	}, nil
}

type u2fAuthenticateParams struct {
	ChallengeHash string    `json:"challengeHash"`
	AppIDHash     string    `json:"appIdHash"`
	KeyHandle     ByteSlice `json:"keyHandle"`
	CheckOnly     bool      `json:"checkOnly"`
}

func handleU2FAuthenticate(d *Dispatcher, params json.RawMessage) (any, error) {
	var p u2fAuthenticateParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	challenge, err := decodeHash32("challengeHash", p.ChallengeHash)
	if err != nil {
		return nil, err
	}
	appID, err := decodeHash32("appIdHash", p.AppIDHash)
	if err != nil {
		return nil, err
	}
	dev, err := u2fDevice(d)
	if err != nil {
		return nil, err
	}
	ctrl := byte(0x03) // enforce-user-presence-and-sign
	if p.CheckOnly {
		ctrl = 0x07 // check-only: verify key handle, never prompt
	}
	resp, err := dev.Authenticate(challenge, appID, []byte(p.KeyHandle), ctrl)
	if err != nil {
		return nil, err
	}
	return map[string]any{"signature": ByteSlice(resp)}, nil
}
