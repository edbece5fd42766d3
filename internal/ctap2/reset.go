package ctap2

import (
	"errors"
	"time"

	"github.com/fthsdk/skagent/internal/hidio"
)

// resetWindow is the window after power-on within which
// authenticatorReset must be invoked (spec.md §4.6: "must complete
// within 10 seconds of power-on").
const resetWindow = 10 * time.Second

// Reset issues authenticatorReset (command 0x07, no parameters). It
// requires user presence within resetWindow: if the transport itself
// times out waiting for user action, that is reported as
// USER_ACTION_TIMEOUT; a status byte the authenticator returns for any
// other reason (e.g. called outside the power-on window, which CTAP2
// has no way to distinguish from other refusals) stays NOT_ALLOWED /
// CTAP2_ERROR (spec.md §4.6).
func (d *Device) Reset() error {
	_, err := d.Call(CmdReset, nil, resetWindow)
	if err == nil {
		return nil
	}
	if errors.Is(err, hidio.ErrTimeout) {
		return &StatusError{Status: StatusUserActionTimeout}
	}
	return err
}
