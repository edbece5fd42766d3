// Package agenterr defines the dispatcher-level error taxonomy (spec §7).
//
// Individual layers (apdu, hidio, ctap2, u2f, piv, ...) define their own
// typed errors and implement Coder so the dispatcher can map any error
// back to a stable wire code without those packages importing agenterr.
package agenterr

import "fmt"

// Code is one of the wire-visible error codes from spec.md §7.
type Code string

const (
	CodeUnknownCommand     Code = "UNKNOWN_COMMAND"
	CodeInvalidParams      Code = "INVALID_PARAMS"
	CodeInvalidRequest     Code = "INVALID_REQUEST"
	CodeNotFound           Code = "NOT_FOUND"
	CodeBusy               Code = "BUSY"
	CodeNotOpen            Code = "NOT_OPEN"
	CodeAlreadyOpen        Code = "ALREADY_OPEN"
	CodeTimeout            Code = "TIMEOUT"
	CodeIOError            Code = "IO_ERROR"
	CodeDeviceTypeMismatch Code = "DEVICE_TYPE_MISMATCH"
	CodeCTAPHIDError       Code = "CTAPHID_ERROR"
	CodeCTAP2Error         Code = "CTAP2_ERROR"
	CodeCTAP1Error         Code = "CTAP1_ERROR"
	CodeAPDUError          Code = "APDU_ERROR"
	CodePinInvalid         Code = "PIN_INVALID"
	CodePinBlocked         Code = "PIN_BLOCKED"
	CodePinTooShort        Code = "PIN_TOO_SHORT"
	CodePinAlreadySet      Code = "PIN_ALREADY_SET"
	CodeUserActionTimeout  Code = "USER_ACTION_TIMEOUT"
	CodeUserPresenceReq    Code = "USER_PRESENCE_REQUIRED"
	CodeFormatError        Code = "FORMAT_ERROR"
)

// Coder is implemented by typed errors in other packages so the dispatcher
// can translate them into a wire {code, message} pair without a circular
// import. Message must never include secret material (PIN, PUK, seed bytes).
type Coder interface {
	error
	RPCCode() Code
	RPCMessage() string
}

// Error is a plain Coder used directly by the rpc/registry/framing layers.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) RPCCode() Code      { return e.Code }
func (e *Error) RPCMessage() string { return e.Message }
