// Package ctap2 implements the CTAP2 CBOR command/response engine
// (spec.md §4.6): authenticatorGetInfo, clientPIN, credentialManagement,
// and reset, layered on an already-open CTAPHID channel. Command and
// status byte constants are grounded on the retrieved
// inabajunmr-ht/pkg/ctap2 sketch; the CBOR codec and PIN protocol
// arithmetic are this package's own, since that sketch left both as
// TODOs.
package ctap2

import (
	"time"

	"github.com/fthsdk/skagent/internal/hidio"
)

// Command is an authenticator command byte (spec.md §4.6).
type Command byte

const (
	CmdMakeCredential        Command = 0x01
	CmdGetAssertion          Command = 0x02
	CmdGetInfo               Command = 0x04
	CmdClientPIN             Command = 0x06
	CmdReset                 Command = 0x07
	CmdGetNextAssertion      Command = 0x08
	CmdBioEnrollment         Command = 0x09
	CmdCredentialManagement  Command = 0x0A
)

// Status is the first byte of every CTAP2 response (0x00 = success).
type Status byte

const (
	StatusSuccess Status = 0x00

	StatusInvalidCommand   Status = 0x01
	StatusInvalidParameter Status = 0x02
	StatusInvalidLength    Status = 0x03
	StatusInvalidSeq       Status = 0x04
	StatusTimeout          Status = 0x05
	StatusChannelBusy      Status = 0x06
	StatusLockRequired     Status = 0x0A
	StatusInvalidChannel   Status = 0x0B

	StatusCBORUnexpectedType Status = 0x11
	StatusInvalidCBOR        Status = 0x12
	StatusMissingParameter   Status = 0x14
	StatusLimitExceeded      Status = 0x15
	StatusProcessing         Status = 0x21
	StatusInvalidCredential  Status = 0x22
	StatusOperationDenied    Status = 0x27
	StatusKeyStoreFull       Status = 0x28
	StatusNoCredentials      Status = 0x2E
	StatusUserActionTimeout  Status = 0x2F
	StatusNotAllowed         Status = 0x30
	StatusPinInvalid         Status = 0x31
	StatusPinBlocked         Status = 0x32
	StatusPinAuthInvalid     Status = 0x33
	StatusPinAuthBlocked     Status = 0x34
	StatusPinNotSet          Status = 0x35
	StatusPinRequired        Status = 0x36
	StatusPinPolicyViolation Status = 0x37
	StatusPinTokenExpired    Status = 0x38
	StatusRequestTooLarge    Status = 0x39
	StatusUpRequired         Status = 0x3B
)

// DefaultTimeout bounds one authenticator round trip.
const DefaultTimeout = 5 * time.Second

// Device issues CTAP2 commands over an allocated CTAPHID channel.
// Ordering is enforced by the caller holding the registry's single
// open handle: one outstanding command per channel (spec.md §4.6).
type Device struct {
	ch *hidio.Channel
}

// NewDevice wraps an allocated CTAPHID channel for CTAP2 use.
func NewDevice(ch *hidio.Channel) *Device {
	return &Device{ch: ch}
}

// Call sends one CTAP2 command with an already-CBOR-encoded parameter
// map (or nil for commands with no parameters) and returns the raw
// CBOR response body with the leading status byte stripped. A non-zero
// status byte is translated to a *StatusError.
func (d *Device) Call(cmd Command, cborParams []byte, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	req := make([]byte, 0, 1+len(cborParams))
	req = append(req, byte(cmd))
	req = append(req, cborParams...)

	resp, err := d.ch.Transact(hidio.CmdCbor, req, timeout)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, &StatusError{Status: StatusInvalidLength}
	}
	status := Status(resp[0])
	if status != StatusSuccess {
		return nil, &StatusError{Status: status}
	}
	return resp[1:], nil
}
