package piv

import (
	"fmt"

	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/apdu"
)

// PIV VERIFY/CHANGE REFERENCE DATA/RESET RETRY COUNTER reference
// qualifiers (spec.md §4.8).
const (
	refPIN byte = 0x80
	refPUK byte = 0x81
)

const (
	insVerify            byte = 0x20
	insChangeReference   byte = 0x24
	insResetRetryCounter byte = 0x2C
	insGenerateAsymmetric byte = 0x47
)

// padReference right-pads a PIN/PUK to the fixed 8-byte PIV reference
// data field with 0xFF filler bytes after the value.
func padReference(value string) ([]byte, error) {
	if len(value) > 8 {
		return nil, agenterr.New(agenterr.CodeInvalidParams, "PIV PIN/PUK must be at most 8 characters")
	}
	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = 0xFF
	}
	copy(buf, value)
	return buf, nil
}

// RetriesError reports a 63CX VERIFY/unblock failure along with the
// number of attempts remaining (spec.md §4.8: "No lockout policy is
// enforced by the agent; the retry counter is surfaced to the UI").
type RetriesError struct {
	Retries int
}

func (e *RetriesError) Error() string {
	return fmt.Sprintf("piv: verification failed, %d attempts remaining", e.Retries)
}

func (e *RetriesError) RPCCode() agenterr.Code { return agenterr.CodePinInvalid }

func (e *RetriesError) RPCMessage() string {
	return fmt.Sprintf("incorrect PIN/PUK, %d attempts remaining", e.Retries)
}

func verifyReference(card apdu.Card, ref byte, value string) error {
	data, err := padReference(value)
	if err != nil {
		return err
	}
	log := apdu.NewLog()
	_, sw, err := apdu.TransmitLogged(log, card, "VERIFY", 0x00, insVerify, 0x00, ref, data, 0x00, "verify PIN/PUK")
	if err != nil {
		return err
	}
	return classifyVerifyStatus(sw)
}

func classifyVerifyStatus(sw uint16) error {
	if apdu.SWOK(sw) {
		return nil
	}
	if sw&0xFFF0 == 0x63C0 {
		return &RetriesError{Retries: int(sw & 0x000F)}
	}
	return &apdu.StatusError{Cmd: insVerify, SW: sw}
}

// VerifyPIN issues VERIFY with P2=0x80 (spec.md §4.8).
func VerifyPIN(card apdu.Card, pin string) error {
	return verifyReference(card, refPIN, pin)
}

// VerifyPUK issues VERIFY with P2=0x81.
func VerifyPUK(card apdu.Card, puk string) error {
	return verifyReference(card, refPUK, puk)
}

// changeReference issues CHANGE REFERENCE DATA for the given qualifier:
// command data is the old value followed immediately by the new value,
// each padded to 8 bytes.
func changeReference(card apdu.Card, ref byte, oldValue, newValue string) error {
	oldPadded, err := padReference(oldValue)
	if err != nil {
		return err
	}
	newPadded, err := padReference(newValue)
	if err != nil {
		return err
	}
	data := append(append([]byte{}, oldPadded...), newPadded...)
	log := apdu.NewLog()
	_, sw, err := apdu.TransmitLogged(log, card, "CHANGE REFERENCE DATA", 0x00, insChangeReference, 0x00, ref, data, 0x00, "change PIN/PUK")
	if err != nil {
		return err
	}
	return classifyVerifyStatus(sw)
}

// ChangePIN changes the card PIN (spec.md §6 pivChangePin).
func ChangePIN(card apdu.Card, currentPIN, newPIN string) error {
	return changeReference(card, refPIN, currentPIN, newPIN)
}

// ChangePUK changes the card PUK (spec.md §6 pivChangePuk).
func ChangePUK(card apdu.Card, currentPUK, newPUK string) error {
	return changeReference(card, refPUK, currentPUK, newPUK)
}

// UnblockPIN issues RESET RETRY COUNTER with the PUK and a new PIN,
// clearing the PIN's retry counter (spec.md §4.8 "RESET RETRY COUNTER
// for PUK-unblock").
func UnblockPIN(card apdu.Card, puk, newPIN string) error {
	pukPadded, err := padReference(puk)
	if err != nil {
		return err
	}
	pinPadded, err := padReference(newPIN)
	if err != nil {
		return err
	}
	data := append(append([]byte{}, pukPadded...), pinPadded...)
	log := apdu.NewLog()
	_, sw, err := apdu.TransmitLogged(log, card, "RESET RETRY COUNTER", 0x00, insResetRetryCounter, 0x00, refPIN, data, 0x00, "unblock PIN with PUK")
	if err != nil {
		return err
	}
	return classifyVerifyStatus(sw)
}
