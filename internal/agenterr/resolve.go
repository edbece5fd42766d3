package agenterr

import "errors"

// Resolve maps any error into a wire {code, message} pair. If err (or
// something in its chain) implements Coder, that mapping is used
// verbatim; otherwise the error collapses to IO_ERROR with err's own
// message, which is never allowed to carry secret material because
// callers that handle secrets always return a Coder.
func Resolve(err error) (Code, string) {
	if err == nil {
		return "", ""
	}
	var c Coder
	if errors.As(err, &c) {
		return c.RPCCode(), c.RPCMessage()
	}
	return CodeIOError, err.Error()
}
