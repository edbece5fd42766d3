package rpc

import "github.com/fthsdk/skagent/internal/agenterr"

// invalidParamsError builds an INVALID_PARAMS error for param values
// that decode fine as JSON but fail a handler's own validation (a hex
// string that isn't hex, a slot id out of range, and so on).
func invalidParamsError(message string) error {
	return agenterr.New(agenterr.CodeInvalidParams, message)
}
