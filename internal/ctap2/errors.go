package ctap2

import (
	"fmt"

	"github.com/fthsdk/skagent/internal/agenterr"
)

// StatusError wraps a non-success CTAP2 status byte (spec.md §7
// CTAP2_ERROR), further classified into the PIN/user-action codes
// where the status byte has a direct, unambiguous meaning.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ctap2: authenticator returned status 0x%02X", byte(e.Status))
}

func (e *StatusError) RPCCode() agenterr.Code {
	switch e.Status {
	case StatusPinInvalid, StatusPinAuthInvalid:
		return agenterr.CodePinInvalid
	case StatusPinBlocked, StatusPinAuthBlocked:
		return agenterr.CodePinBlocked
	case StatusPinPolicyViolation:
		return agenterr.CodePinTooShort
	case StatusUserActionTimeout:
		return agenterr.CodeUserActionTimeout
	case StatusUpRequired, StatusOperationDenied:
		return agenterr.CodeUserPresenceReq
	default:
		return agenterr.CodeCTAP2Error
	}
}

func (e *StatusError) RPCMessage() string {
	switch e.Status {
	case StatusPinInvalid, StatusPinAuthInvalid:
		return "the PIN is incorrect"
	case StatusPinBlocked, StatusPinAuthBlocked:
		return "the PIN is blocked after too many incorrect attempts"
	case StatusPinPolicyViolation:
		return "the PIN does not meet the authenticator's policy"
	case StatusUserActionTimeout:
		return "the user did not act in time"
	case StatusUpRequired:
		return "user presence is required for this operation"
	case StatusPinNotSet:
		return "no PIN has been set on this authenticator"
	default:
		return fmt.Sprintf("authenticator error 0x%02X", byte(e.Status))
	}
}
