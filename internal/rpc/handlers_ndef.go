package rpc

import (
	"encoding/json"

	"github.com/fthsdk/skagent/internal/ndef"
	"github.com/fthsdk/skagent/internal/registry"
)

func ndefCard(d *Dispatcher) (*registry.Handle, error) {
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}
	if handle.Card() == nil {
		return nil, &deviceTypeMismatchError{want: "Ccid"}
	}
	return handle, nil
}

func handleNdefRead(d *Dispatcher, params json.RawMessage) (any, error) {
	handle, err := ndefCard(d)
	if err != nil {
		return nil, err
	}
	message, err := ndef.Read(handle.Card())
	if err != nil {
		return nil, err
	}
	return map[string]any{"message": ByteSlice(message)}, nil
}

type ndefWriteParams struct {
	Message ByteSlice `json:"message"`
}

func handleNdefWrite(d *Dispatcher, params json.RawMessage) (any, error) {
	var p ndefWriteParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := ndefCard(d)
	if err != nil {
		return nil, err
	}
	if err := ndef.Write(handle.Card(), []byte(p.Message)); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func handleNdefFormat(d *Dispatcher, params json.RawMessage) (any, error) {
	handle, err := ndefCard(d)
	if err != nil {
		return nil, err
	}
	if err := ndef.Format(handle.Card()); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}
