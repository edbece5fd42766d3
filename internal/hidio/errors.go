package hidio

import (
	"fmt"

	"github.com/fthsdk/skagent/internal/agenterr"
)

// timeoutError implements agenterr.Coder so the dispatcher maps a failed
// report read to the wire code TIMEOUT (spec.md §7) without hidio
// importing the rpc layer.
type timeoutError struct{}

func (timeoutError) Error() string             { return "hidio: report read timed out" }
func (timeoutError) RPCCode() agenterr.Code     { return agenterr.CodeTimeout }
func (timeoutError) RPCMessage() string         { return "device did not respond in time" }

// ErrTimeout is returned by ReceiveReport and higher layers when a read
// does not complete before its deadline.
var ErrTimeout error = timeoutError{}

// CTAPHIDError carries the error byte from a CTAPHID ERROR frame
// (spec.md §4.3, §7).
type CTAPHIDError struct {
	Code byte
}

func (e *CTAPHIDError) Error() string {
	return fmt.Sprintf("ctaphid: device returned error frame 0x%02X", e.Code)
}

func (e *CTAPHIDError) RPCCode() agenterr.Code { return agenterr.CodeCTAPHIDError }

func (e *CTAPHIDError) RPCMessage() string {
	return fmt.Sprintf("authenticator returned CTAPHID error 0x%02X", e.Code)
}
