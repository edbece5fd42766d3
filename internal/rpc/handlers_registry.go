package rpc

import (
	"encoding/json"
	"time"

	"github.com/fthsdk/skagent/internal/agenterr"
)

func handleListDevices(d *Dispatcher, params json.RawMessage) (any, error) {
	descs, err := d.Registry.ListDevices()
	if err != nil {
		return nil, err
	}
	return map[string]any{"devices": descs}, nil
}

type deviceIDParams struct {
	DeviceID string `json:"deviceId"`
}

func handleOpenDevice(d *Dispatcher, params json.RawMessage) (any, error) {
	var p deviceIDParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := d.Registry.OpenDevice(p.DeviceID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "device": handle.Descriptor}, nil
}

// handleCloseDevice closes whatever device is currently open. The
// request carries a deviceId for symmetry with openDevice, but the
// registry holds at most one handle at a time so closing never needs
// to disambiguate by id.
func handleCloseDevice(d *Dispatcher, params json.RawMessage) (any, error) {
	if err := d.Registry.CloseDevice(); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

type sendHidParams struct {
	DeviceID string    `json:"deviceId"`
	Data     ByteSlice `json:"data"`
}

func handleSendHid(d *Dispatcher, params json.RawMessage) (any, error) {
	var p sendHidParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}
	dev := handle.HID()
	if dev == nil {
		return nil, &deviceTypeMismatchError{want: "Hid"}
	}
	n, err := dev.SendReport([]byte(p.Data))
	if err != nil {
		return nil, err
	}
	return map[string]any{"bytesWritten": n}, nil
}

type receiveHidParams struct {
	DeviceID  string `json:"deviceId"`
	TimeoutMS int    `json:"timeout"`
}

func handleReceiveHid(d *Dispatcher, params json.RawMessage) (any, error) {
	var p receiveHidParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}
	dev := handle.HID()
	if dev == nil {
		return nil, &deviceTypeMismatchError{want: "Hid"}
	}
	timeout := time.Duration(p.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	data, err := dev.ReceiveReport(timeout)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": ByteSlice(data)}, nil
}

type transmitApduParams struct {
	DeviceID string    `json:"deviceId"`
	APDU     ByteSlice `json:"apdu"`
}

// handleTransmitApdu is the raw passthrough behind spec.md §4.4: it
// sends exactly the caller-supplied command APDU and returns exactly
// what the card returned, with no 61XX/6CXX interpretation — that
// chaining only happens inside the protocol engines that build their
// own command APDUs.
func handleTransmitApdu(d *Dispatcher, params json.RawMessage) (any, error) {
	var p transmitApduParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}
	conn := handle.Card()
	if conn == nil {
		return nil, &deviceTypeMismatchError{want: "Ccid"}
	}
	resp, err := conn.Transmit([]byte(p.APDU))
	if err != nil {
		return nil, err
	}
	return map[string]any{"response": ByteSlice(resp)}, nil
}

// deviceTypeMismatchError reports that the currently open handle's
// transport doesn't match what the requested command needs (spec.md §7
// "DEVICE_TYPE_MISMATCH").
type deviceTypeMismatchError struct{ want string }

func (e *deviceTypeMismatchError) Error() string {
	return "rpc: open device is not a " + e.want + " transport"
}
func (e *deviceTypeMismatchError) RPCCode() agenterr.Code {
	return agenterr.CodeDeviceTypeMismatch
}
func (e *deviceTypeMismatchError) RPCMessage() string {
	return "the open device does not support this operation"
}
