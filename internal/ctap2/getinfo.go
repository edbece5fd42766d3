package ctap2

import "github.com/fxamacker/cbor/v2"

// Info is the decoded response of authenticatorGetInfo (spec.md §4.6).
// Field numbers follow the CTAP2 response map member indices; fxamacker
// cbor's "keyasint" struct tag matches a CBOR integer-keyed map without
// hand-rolled decoding.
type Info struct {
	Versions       []string        `cbor:"1,keyasint"`
	Extensions     []string        `cbor:"2,keyasint,omitempty"`
	AAGUID         []byte          `cbor:"3,keyasint"`
	Options        map[string]bool `cbor:"4,keyasint,omitempty"`
	MaxMsgSize     uint64          `cbor:"5,keyasint,omitempty"`
	PinProtocols   []uint64        `cbor:"6,keyasint,omitempty"`
}

// ClientPinSet reports whether the authenticator has a PIN configured,
// the "options.clientPin" member defined by the CTAP2 spec.
func (i Info) ClientPinSet() bool {
	v, ok := i.Options["clientPin"]
	return ok && v
}

// GetInfo issues authenticatorGetInfo (command 0x04, no parameters).
func (d *Device) GetInfo() (Info, error) {
	body, err := d.Call(CmdGetInfo, nil, DefaultTimeout)
	if err != nil {
		return Info{}, err
	}
	var info Info
	if err := cbor.Unmarshal(body, &info); err != nil {
		return Info{}, &StatusError{Status: StatusInvalidCBOR}
	}
	return info, nil
}
