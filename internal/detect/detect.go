// Package detect implements the protocol detection engine (spec.md
// §4.5): for an already-open device, probe each protocol with the
// minimum distinguishing command and report a capability set. Grounded
// on the teacher's pkg/ntag424/diag.go SELECT-then-classify pattern,
// generalized to HID and CCID probes.
package detect

import (
	"bytes"
	"time"

	"github.com/fthsdk/skagent/internal/apdu"
	"github.com/fthsdk/skagent/internal/hidio"
	"github.com/fthsdk/skagent/internal/ndef"
	"github.com/fthsdk/skagent/internal/openpgp"
	"github.com/fthsdk/skagent/internal/otp"
	"github.com/fthsdk/skagent/internal/piv"
)

// Budget bounds every individual probe (spec.md §4.5: "Each probe is
// bounded by 3s; a timeout is treated as not supported").
const Budget = 3 * time.Second

// Capabilities is the six-flag capability set (spec.md §3).
type Capabilities struct {
	FIDO2   bool `json:"fido2"`
	U2F     bool `json:"u2f"`
	PIV     bool `json:"piv"`
	OpenPGP bool `json:"openpgp"`
	OTP     bool `json:"otp"`
	NDEF    bool `json:"ndef"`
}

var (
	u2fVersionAPDU = []byte{0x00, 0x03, 0x00, 0x00, 0x00}
	wantU2FVersion = []byte("U2F_V2")

	// authenticatorGetInfo (CTAP2 0x04) with no payload.
	ctap2GetInfo = byte(0x04)
)

// DetectHID probes FIDO2, U2F, and OTP over an open HID handle. Each
// probe allocates its own CTAPHID channel so a failure in one protocol
// cannot corrupt another's framing state.
func DetectHID(dev hidio.Reporter) Capabilities {
	var caps Capabilities
	caps.FIDO2 = probeFIDO2(dev)
	caps.U2F = probeU2F(dev)
	caps.OTP = probeOTP(dev)
	return caps
}

// DetectCCID probes PIV, OpenPGP, and NDEF over an open PC/SC card.
func DetectCCID(card apdu.Card) Capabilities {
	var caps Capabilities
	caps.PIV = selectOK(card, piv.AID)
	caps.OpenPGP = selectOK(card, openpgp.AID)
	caps.NDEF = selectOK(card, ndef.AID)
	return caps
}

func probeFIDO2(dev hidio.Reporter) bool {
	ch, err := hidio.InitChannel(dev, Budget)
	if err != nil {
		return false
	}
	resp, err := ch.Transact(hidio.CmdCbor, []byte{ctap2GetInfo}, Budget)
	if err != nil {
		return false
	}
	// A well-formed CTAP2 success response starts with status 0x00
	// followed by a CBOR map (major type 5, initial byte 0xA0-0xB7 or
	// 0xB8/0xB9/0xBA/0xBB for larger maps).
	if len(resp) < 2 || resp[0] != 0x00 {
		return false
	}
	major := resp[1] >> 5
	return major == 5
}

func probeU2F(dev hidio.Reporter) bool {
	ch, err := hidio.InitChannel(dev, Budget)
	if err != nil {
		return false
	}
	resp, err := ch.Transact(hidio.CmdMsg, u2fVersionAPDU, Budget)
	if err != nil {
		return false
	}
	if len(resp) < 2 {
		return false
	}
	sw := uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1])
	if sw != apdu.SWSuccess {
		return false
	}
	return bytes.Equal(resp[:len(resp)-2], wantU2FVersion)
}

func probeOTP(dev hidio.Reporter) bool {
	return otp.Probe(dev, Budget)
}

func selectOK(card apdu.Card, aid []byte) bool {
	_, sw, err := apdu.TransmitChained(card, 0x00, 0xA4, 0x04, 0x00, aid, 0x00)
	if err != nil {
		return false
	}
	return apdu.SWOK(sw)
}
