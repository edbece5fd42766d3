package openpgp

import (
	"fmt"

	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/apdu"
)

// VERIFY/CHANGE REFERENCE DATA qualifiers (spec.md §4.9: "VERIFY PW1/PW3
// with count in 63CX").
const (
	refPW1 byte = 0x81
	refPW3 byte = 0x83
)

const (
	insVerify          byte = 0x20
	insChangeReference byte = 0x24
)

// RetriesError reports a 63CX VERIFY failure with the remaining attempt
// count, mirroring internal/piv's RetriesError.
type RetriesError struct {
	Retries int
}

func (e *RetriesError) Error() string {
	return fmt.Sprintf("openpgp: verification failed, %d attempts remaining", e.Retries)
}

func (e *RetriesError) RPCCode() agenterr.Code { return agenterr.CodePinInvalid }

func (e *RetriesError) RPCMessage() string {
	return fmt.Sprintf("incorrect PIN, %d attempts remaining", e.Retries)
}

func classifyVerifyStatus(sw uint16, cmd byte) error {
	if apdu.SWOK(sw) {
		return nil
	}
	if sw&0xFFF0 == 0x63C0 {
		return &RetriesError{Retries: int(sw & 0x000F)}
	}
	return &apdu.StatusError{Cmd: cmd, SW: sw}
}

func verifyReference(card apdu.Card, ref byte, pin string) error {
	log := apdu.NewLog()
	_, sw, err := apdu.TransmitLogged(log, card, "VERIFY", 0x00, insVerify, 0x00, ref, []byte(pin), 0x00, "verify PW1/PW3")
	if err != nil {
		return err
	}
	return classifyVerifyStatus(sw, insVerify)
}

// VerifyPW1 verifies the user PIN (PW1).
func VerifyPW1(card apdu.Card, pin string) error {
	return verifyReference(card, refPW1, pin)
}

// VerifyPW3 verifies the admin PIN (PW3).
func VerifyPW3(card apdu.Card, pin string) error {
	return verifyReference(card, refPW3, pin)
}

func changeReference(card apdu.Card, ref byte, oldPIN, newPIN string) error {
	data := append([]byte(oldPIN), []byte(newPIN)...)
	log := apdu.NewLog()
	_, sw, err := apdu.TransmitLogged(log, card, "CHANGE REFERENCE DATA", 0x00, insChangeReference, 0x00, ref, data, 0x00, "change PW1/PW3")
	if err != nil {
		return err
	}
	return classifyVerifyStatus(sw, insChangeReference)
}

// ChangePIN changes the user PIN (PW1) (spec.md §6 openpgpChangePin).
func ChangePIN(card apdu.Card, oldPIN, newPIN string) error {
	return changeReference(card, refPW1, oldPIN, newPIN)
}

// ChangeAdminPIN changes the admin PIN (PW3) (spec.md §6
// openpgpChangeAdminPin).
func ChangeAdminPIN(card apdu.Card, oldPIN, newPIN string) error {
	return changeReference(card, refPW3, oldPIN, newPIN)
}
