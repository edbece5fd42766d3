package rpc

import (
	"encoding/json"

	"github.com/fthsdk/skagent/internal/detect"
	"github.com/fthsdk/skagent/internal/registry"
)

func handleDetectProtocols(d *Dispatcher, params json.RawMessage) (any, error) {
	handle, err := d.Registry.Current()
	if err != nil {
		return nil, err
	}

	var caps detect.Capabilities
	switch handle.Descriptor.Transport {
	case registry.Hid:
		caps = detect.DetectHID(handle.HID())
	case registry.Ccid:
		caps = detect.DetectCCID(handle.Card())
	default:
		return nil, &deviceTypeMismatchError{want: "Hid or Ccid"}
	}
	return map[string]any{"protocols": caps}, nil
}
