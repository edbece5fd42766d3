package rpc

import (
	"encoding/json"

	"github.com/fthsdk/skagent/internal/hidio"
	"github.com/fthsdk/skagent/internal/otp"
)

func otpDevice(d *Dispatcher) (*hidio.Device, error) {
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}
	dev := handle.HID()
	if dev == nil {
		return nil, &deviceTypeMismatchError{want: "Hid"}
	}
	return dev, nil
}

type otpSlotParams struct {
	Slot int `json:"slot"`
}

func otpSlot(n int) (otp.Slot, error) {
	switch n {
	case 1:
		return otp.Slot1, nil
	case 2:
		return otp.Slot2, nil
	default:
		return 0, invalidParamsError("slot must be 1 or 2")
	}
}

func handleOtpReadSlot(d *Dispatcher, params json.RawMessage) (any, error) {
	var p otpSlotParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	slot, err := otpSlot(p.Slot)
	if err != nil {
		return nil, err
	}
	dev, err := otpDevice(d)
	if err != nil {
		return nil, err
	}
	configured, err := otp.ReadSlot(dev, slot, otp.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	return map[string]any{"configured": configured}, nil
}

type otpWriteSlotParams struct {
	Slot       int    `json:"slot"`
	SeedFormat string `json:"seedFormat"`
	Seed       string `json:"seed"`
}

func handleOtpWriteSlot(d *Dispatcher, params json.RawMessage) (any, error) {
	var p otpWriteSlotParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	slot, err := otpSlot(p.Slot)
	if err != nil {
		return nil, err
	}
	secret, err := otp.NormalizeSeed(otp.SeedFormat(p.SeedFormat), p.Seed)
	if err != nil {
		return nil, err
	}
	dev, err := otpDevice(d)
	if err != nil {
		return nil, err
	}
	if err := otp.WriteSlot(dev, slot, secret, otp.DefaultTimeout); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func handleOtpDeleteSlot(d *Dispatcher, params json.RawMessage) (any, error) {
	var p otpSlotParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	slot, err := otpSlot(p.Slot)
	if err != nil {
		return nil, err
	}
	dev, err := otpDevice(d)
	if err != nil {
		return nil, err
	}
	if err := otp.DeleteSlot(dev, slot, otp.DefaultTimeout); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func handleOtpSwapSlots(d *Dispatcher, params json.RawMessage) (any, error) {
	dev, err := otpDevice(d)
	if err != nil {
		return nil, err
	}
	if err := otp.SwapSlots(dev, otp.DefaultTimeout); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

type otpGenerateSeedParams struct {
	Length int `json:"length"`
}

func handleOtpGenerateSeed(d *Dispatcher, params json.RawMessage) (any, error) {
	var p otpGenerateSeedParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	length := p.Length
	if length <= 0 {
		length = 20
	}
	seed, err := otp.GenerateSeed(length)
	if err != nil {
		return nil, err
	}
	return map[string]any{"seed": seed}, nil
}
