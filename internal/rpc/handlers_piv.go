package rpc

import (
	"encoding/json"

	"github.com/fthsdk/skagent/internal/piv"
	"github.com/fthsdk/skagent/internal/registry"
)

func pivCard(d *Dispatcher) (*registry.Handle, error) {
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}
	if handle.Card() == nil {
		return nil, &deviceTypeMismatchError{want: "Ccid"}
	}
	return handle, nil
}

func handlePivGetData(d *Dispatcher, params json.RawMessage) (any, error) {
	handle, err := pivCard(d)
	if err != nil {
		return nil, err
	}
	return piv.GetData(handle.Card())
}

type pivVerifyPinParams struct {
	Pin string `json:"pin"`
}

func handlePivVerifyPin(d *Dispatcher, params json.RawMessage) (any, error) {
	var p pivVerifyPinParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := pivCard(d)
	if err != nil {
		return nil, err
	}
	if err := piv.VerifyPIN(handle.Card(), p.Pin); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

type pivChangePinParams struct {
	CurrentPin string `json:"currentPin"`
	NewPin     string `json:"newPin"`
}

func handlePivChangePin(d *Dispatcher, params json.RawMessage) (any, error) {
	var p pivChangePinParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := pivCard(d)
	if err != nil {
		return nil, err
	}
	if err := piv.ChangePIN(handle.Card(), p.CurrentPin, p.NewPin); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

type pivChangePukParams struct {
	CurrentPuk string `json:"currentPuk"`
	NewPuk     string `json:"newPuk"`
}

func handlePivChangePuk(d *Dispatcher, params json.RawMessage) (any, error) {
	var p pivChangePukParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := pivCard(d)
	if err != nil {
		return nil, err
	}
	if err := piv.ChangePUK(handle.Card(), p.CurrentPuk, p.NewPuk); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

type pivGenerateKeyParams struct {
	Slot        int    `json:"slot"`
	Algorithm   int    `json:"algorithm"`
	PinPolicy   int    `json:"pinPolicy"`
	TouchPolicy int    `json:"touchPolicy"`
}

func handlePivGenerateKey(d *Dispatcher, params json.RawMessage) (any, error) {
	var p pivGenerateKeyParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Slot < 0 || p.Slot > 0xFF {
		return nil, invalidParamsError("slot must be a valid PIV slot id byte")
	}
	handle, err := pivCard(d)
	if err != nil {
		return nil, err
	}
	key, err := piv.GenerateKey(handle.Card(), byte(p.Slot),
		piv.Algorithm(p.Algorithm), piv.PinPolicy(p.PinPolicy), piv.TouchPolicy(p.TouchPolicy))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"modulus":  ByteSlice(key.Modulus),
		"exponent": ByteSlice(key.Exponent),
		"ecPoint":  ByteSlice(key.ECPoint),
	}, nil
}

type pivSlotParams struct {
	Slot int `json:"slot"`
}

type pivImportCertificateParams struct {
	Slot        int       `json:"slot"`
	Certificate ByteSlice `json:"certificate"`
}

func handlePivImportCertificate(d *Dispatcher, params json.RawMessage) (any, error) {
	var p pivImportCertificateParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Slot < 0 || p.Slot > 0xFF {
		return nil, invalidParamsError("slot must be a valid PIV slot id byte")
	}
	handle, err := pivCard(d)
	if err != nil {
		return nil, err
	}
	if err := piv.ImportCertificate(handle.Card(), byte(p.Slot), []byte(p.Certificate)); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func handlePivReadCertificate(d *Dispatcher, params json.RawMessage) (any, error) {
	var p pivSlotParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Slot < 0 || p.Slot > 0xFF {
		return nil, invalidParamsError("slot must be a valid PIV slot id byte")
	}
	handle, err := pivCard(d)
	if err != nil {
		return nil, err
	}
	der, err := piv.ReadCertificate(handle.Card(), byte(p.Slot))
	if err != nil {
		return nil, err
	}
	return map[string]any{"certificate": ByteSlice(der)}, nil
}

func handlePivDeleteCertificate(d *Dispatcher, params json.RawMessage) (any, error) {
	var p pivSlotParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Slot < 0 || p.Slot > 0xFF {
		return nil, invalidParamsError("slot must be a valid PIV slot id byte")
	}
	handle, err := pivCard(d)
	if err != nil {
		return nil, err
	}
	if err := piv.DeleteCertificate(handle.Card(), byte(p.Slot)); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}
