package rpc

import (
	"encoding/hex"
	"encoding/json"

	"github.com/fthsdk/skagent/internal/ctap2"
	"github.com/fthsdk/skagent/internal/hidio"
)

// fido2Device opens a fresh CTAPHID channel on the currently open HID
// handle and wraps it for the CTAP2 commands of one request. A new
// channel per request keeps one request's framing failure from
// corrupting the next.
func fido2Device(d *Dispatcher) (*ctap2.Device, error) {
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}
	dev := handle.HID()
	if dev == nil {
		return nil, &deviceTypeMismatchError{want: "Hid"}
	}
	ch, err := hidio.InitChannel(dev, ctap2.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	return ctap2.NewDevice(ch), nil
}

func handleFido2GetInfo(d *Dispatcher, params json.RawMessage) (any, error) {
	dev, err := fido2Device(d)
	if err != nil {
		return nil, err
	}
	return dev.GetInfo()
}

type fido2SetPinParams struct {
	NewPin string `json:"newPin"`
}

func handleFido2SetPin(d *Dispatcher, params json.RawMessage) (any, error) {
	var p fido2SetPinParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	dev, err := fido2Device(d)
	if err != nil {
		return nil, err
	}
	session, err := dev.NegotiatePin()
	if err != nil {
		return nil, err
	}
	if err := dev.SetPin(session, p.NewPin); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

type fido2ChangePinParams struct {
	CurrentPin string `json:"currentPin"`
	NewPin     string `json:"newPin"`
}

func handleFido2ChangePin(d *Dispatcher, params json.RawMessage) (any, error) {
	var p fido2ChangePinParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	dev, err := fido2Device(d)
	if err != nil {
		return nil, err
	}
	session, err := dev.NegotiatePin()
	if err != nil {
		return nil, err
	}
	if err := dev.ChangePin(session, p.CurrentPin, p.NewPin); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func handleFido2GetPinRetries(d *Dispatcher, params json.RawMessage) (any, error) {
	dev, err := fido2Device(d)
	if err != nil {
		return nil, err
	}
	retries, err := dev.GetRetries()
	if err != nil {
		return nil, err
	}
	return map[string]any{"retries": retries}, nil
}

type fido2PinParams struct {
	Pin string `json:"pin"`
}

// credentialRecord is the flattened {rpId, credentialId, userName} shape
// returned to the browser, one per resident credential across every
// enumerated relying party.
type credentialRecord struct {
	RPID          string `json:"rpId"`
	CredentialID  string `json:"credentialId"`
	UserName      string `json:"userName,omitempty"`
}

func handleFido2ListCredentials(d *Dispatcher, params json.RawMessage) (any, error) {
	var p fido2PinParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	dev, err := fido2Device(d)
	if err != nil {
		return nil, err
	}
	session, err := dev.NegotiatePin()
	if err != nil {
		return nil, err
	}
	token, err := dev.GetPinToken(session, p.Pin)
	if err != nil {
		return nil, err
	}
	rps, err := dev.EnumerateRPs(token, nil)
	if err != nil {
		return nil, err
	}
	out := []credentialRecord{}
	for _, rp := range rps {
		creds, err := dev.EnumerateCredentials(token, rp.RPIDHash)
		if err != nil {
			return nil, err
		}
		for _, c := range creds {
			out = append(out, credentialRecord{
				RPID:         rp.ID,
				CredentialID: hex.EncodeToString(c.CredentialID),
				UserName:     c.UserName,
			})
		}
	}
	return map[string]any{"credentials": out}, nil
}

type fido2DeleteCredentialParams struct {
	Pin          string `json:"pin"`
	CredentialID string `json:"credentialId"`
}

func handleFido2DeleteCredential(d *Dispatcher, params json.RawMessage) (any, error) {
	var p fido2DeleteCredentialParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	credID, decErr := hex.DecodeString(p.CredentialID)
	if decErr != nil {
		return nil, invalidParamsError("credentialId must be hex-encoded")
	}
	dev, err := fido2Device(d)
	if err != nil {
		return nil, err
	}
	session, err := dev.NegotiatePin()
	if err != nil {
		return nil, err
	}
	token, err := dev.GetPinToken(session, p.Pin)
	if err != nil {
		return nil, err
	}
	if err := dev.DeleteCredential(token, credID); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func handleFido2ResetDevice(d *Dispatcher, params json.RawMessage) (any, error) {
	dev, err := fido2Device(d)
	if err != nil {
		return nil, err
	}
	if err := dev.Reset(); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}
