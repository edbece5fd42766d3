package rpc

import (
	"encoding/json"

	"github.com/fthsdk/skagent/internal/openpgp"
	"github.com/fthsdk/skagent/internal/registry"
)

func openpgpCard(d *Dispatcher) (*registry.Handle, error) {
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}
	if handle.Card() == nil {
		return nil, &deviceTypeMismatchError{want: "Ccid"}
	}
	return handle, nil
}

func keySlotByName(name string) (openpgp.KeySlot, error) {
	switch name {
	case "signature":
		return openpgp.KeySlotSignature, nil
	case "decryption":
		return openpgp.KeySlotDecryption, nil
	case "authentication":
		return openpgp.KeySlotAuthentication, nil
	default:
		return 0, invalidParamsError("slot must be one of signature, decryption, authentication")
	}
}

func handleOpenpgpSelect(d *Dispatcher, params json.RawMessage) (any, error) {
	handle, err := openpgpCard(d)
	if err != nil {
		return nil, err
	}
	if err := openpgp.Select(nil, handle.Card()); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func handleOpenpgpReadData(d *Dispatcher, params json.RawMessage) (any, error) {
	handle, err := openpgpCard(d)
	if err != nil {
		return nil, err
	}
	return openpgp.ReadData(handle.Card())
}

type openpgpChangePinParams struct {
	CurrentPin string `json:"currentPin"`
	NewPin     string `json:"newPin"`
}

func handleOpenpgpChangePin(d *Dispatcher, params json.RawMessage) (any, error) {
	var p openpgpChangePinParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := openpgpCard(d)
	if err != nil {
		return nil, err
	}
	if err := openpgp.ChangePIN(handle.Card(), p.CurrentPin, p.NewPin); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func handleOpenpgpChangeAdminPin(d *Dispatcher, params json.RawMessage) (any, error) {
	var p openpgpChangePinParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := openpgpCard(d)
	if err != nil {
		return nil, err
	}
	if err := openpgp.ChangeAdminPIN(handle.Card(), p.CurrentPin, p.NewPin); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

type openpgpImportKeyParams struct {
	Slot        string    `json:"slot"`
	KeyTemplate ByteSlice `json:"keyTemplate"`
}

func handleOpenpgpImportKey(d *Dispatcher, params json.RawMessage) (any, error) {
	var p openpgpImportKeyParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	slot, err := keySlotByName(p.Slot)
	if err != nil {
		return nil, err
	}
	handle, err := openpgpCard(d)
	if err != nil {
		return nil, err
	}
	if err := openpgp.ImportKey(handle.Card(), slot, []byte(p.KeyTemplate)); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

type openpgpSlotParams struct {
	Slot string `json:"slot"`
}

func handleOpenpgpExportPublicKey(d *Dispatcher, params json.RawMessage) (any, error) {
	var p openpgpSlotParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	slot, err := keySlotByName(p.Slot)
	if err != nil {
		return nil, err
	}
	handle, err := openpgpCard(d)
	if err != nil {
		return nil, err
	}
	key, err := openpgp.ExportPublicKey(handle.Card(), slot)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"modulus":  ByteSlice(key.Modulus),
		"exponent": ByteSlice(key.Exponent),
		"ecPoint":  ByteSlice(key.ECPoint),
	}, nil
}
