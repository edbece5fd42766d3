package apdu

import (
	"fmt"

	"github.com/fthsdk/skagent/internal/agenterr"
)

// ISO 7816 status words relevant to transport-level handling (spec.md §4.4).
const (
	SWSuccess      uint16 = 0x9000
	SWMoreDataMask uint16 = 0x6100 // 61XX: GET RESPONSE, Le = XX
	SWWrongLeMask  uint16 = 0x6C00 // 6CXX: retransmit with Le = XX
	InsGetResponse byte   = 0xC0
)

// ErrTimeout is returned by apdu-layer waits that exceed their deadline.
var ErrTimeout error = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string         { return "apdu: operation timed out" }
func (timeoutError) RPCCode() agenterr.Code { return agenterr.CodeTimeout }
func (timeoutError) RPCMessage() string     { return "smart card did not respond in time" }

// StatusError wraps a non-success status word from a named command
// (spec.md §7 "APDU_ERROR (carries SW1SW2)").
type StatusError struct {
	Cmd byte
	SW  uint16
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apdu: command 0x%02X failed with SW=0x%04X", e.Cmd, e.SW)
}

func (e *StatusError) RPCCode() agenterr.Code { return agenterr.CodeAPDUError }

func (e *StatusError) RPCMessage() string {
	return fmt.Sprintf("card command 0x%02X returned status 0x%04X", e.Cmd, e.SW)
}
