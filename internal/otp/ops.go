package otp

import (
	"time"

	"github.com/fthsdk/skagent/internal/agenterr"
)

// Probe sends a status frame to the broadcast slot and reports whether
// the device answered at all (spec.md §4.5: "support ⇔ a non-empty
// response on the vendor channel").
func Probe(dev rawReporter, timeout time.Duration) bool {
	resp, err := transact(dev, opStatus, 0, nil, timeout)
	return err == nil && len(resp) > 0
}

// ReadSlot requests the configuration summary for a slot and reports
// only whether the slot is configured; the secret bytes carried in the
// read response are not returned to the caller.
func ReadSlot(dev rawReporter, slot Slot, timeout time.Duration) (configured bool, err error) {
	resp, err := transact(dev, opRead, slot, nil, timeout)
	if err != nil {
		return false, err
	}
	return resp[payloadOffset] != 0, nil
}

// WriteSlot programs a slot with the given raw secret bytes (already
// normalized by NormalizeSeed). The previous contents, if any, are
// overwritten unconditionally; callers that need swap semantics read
// both slots first.
func WriteSlot(dev rawReporter, slot Slot, secret []byte, timeout time.Duration) error {
	if len(secret) == 0 || len(secret) > payloadLen-1 {
		return &formatError{reason: "secret length out of range for a single slot frame"}
	}
	payload := make([]byte, payloadLen)
	payload[0] = byte(len(secret))
	copy(payload[1:], secret)
	_, err := transact(dev, opWrite, slot, payload, timeout)
	return err
}

// DeleteSlot clears a slot's configuration.
func DeleteSlot(dev rawReporter, slot Slot, timeout time.Duration) error {
	_, err := transact(dev, opDelete, slot, nil, timeout)
	return err
}

// SwapSlots exchanges the contents of slot 1 and slot 2. The vendor
// protocol offers no atomic swap primitive, so this is implemented as
// read-then-write with a best-effort restore if the second write fails
// (spec.md §9 open question 2, resolved as read-then-write, matching
// the source's behavior).
func SwapSlots(dev rawReporter, timeout time.Duration) error {
	readRaw := func(slot Slot) ([]byte, error) {
		resp, err := transact(dev, opRead, slot, nil, timeout)
		if err != nil {
			return nil, err
		}
		n := int(resp[payloadOffset])
		if n < 0 || n > payloadLen-1 {
			return nil, &formatError{reason: "slot reported an invalid secret length"}
		}
		return append([]byte{}, resp[payloadOffset+1:payloadOffset+1+n]...), nil
	}

	s1, err := readRaw(Slot1)
	if err != nil {
		return err
	}
	s2, err := readRaw(Slot2)
	if err != nil {
		return err
	}

	if err := writeRaw(dev, Slot1, s2, timeout); err != nil {
		return err
	}
	if err := writeRaw(dev, Slot2, s1, timeout); err != nil {
		// Best-effort restore of slot 1 so a failed swap does not leave
		// both slots holding the same secret.
		restoreErr := writeRaw(dev, Slot1, s1, timeout)
		return &swapFailedError{writeErr: err, restored: restoreErr == nil}
	}
	return nil
}

func writeRaw(dev rawReporter, slot Slot, secret []byte, timeout time.Duration) error {
	if len(secret) == 0 {
		return DeleteSlot(dev, slot, timeout)
	}
	return WriteSlot(dev, slot, secret, timeout)
}

// swapFailedError reports that the second write of a SwapSlots
// exchange failed. The taxonomy has no dedicated swap-failure code, so
// this surfaces as CodeIOError with a message stating whether the
// best-effort restore of slot 1 succeeded, rather than leaking the raw
// transport error from the second write.
type swapFailedError struct {
	writeErr error
	restored bool
}

func (e *swapFailedError) Error() string          { return "otp: swap failed: " + e.writeErr.Error() }
func (e *swapFailedError) RPCCode() agenterr.Code { return agenterr.CodeIOError }
func (e *swapFailedError) RPCMessage() string {
	if e.restored {
		return "slot swap failed on the second write; slot 1 was restored to its original contents"
	}
	return "slot swap failed on the second write and the restore of slot 1 also failed; slots may be inconsistent"
}

type formatError struct{ reason string }

func (e *formatError) Error() string          { return "otp: " + e.reason }
func (e *formatError) RPCCode() agenterr.Code { return agenterr.CodeFormatError }
func (e *formatError) RPCMessage() string     { return e.reason }
