package u2f

import (
	"fmt"

	"github.com/fthsdk/skagent/internal/agenterr"
)

// StatusError wraps a non-success U2F status word (spec.md §7
// "CTAP1_ERROR (carries SW1SW2)").
type StatusError struct {
	SW uint16
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("u2f: device returned status 0x%04X", e.SW)
}

func (e *StatusError) RPCCode() agenterr.Code {
	if e.SW == swConditionsNotSat {
		return agenterr.CodeUserPresenceReq
	}
	return agenterr.CodeCTAP1Error
}

func (e *StatusError) RPCMessage() string {
	if e.SW == swConditionsNotSat {
		return "user presence was not confirmed in time"
	}
	return fmt.Sprintf("device returned status 0x%04X", e.SW)
}
