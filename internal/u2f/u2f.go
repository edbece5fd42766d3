// Package u2f implements the CTAP1/U2F engine (spec.md §4.7):
// U2F_VERSION/REGISTER/AUTHENTICATE APDUs carried over CTAPHID MSG,
// with the bounded user-presence retry loop on 6985. APDU layout is
// grounded on the retrieved teleport u2f_register.go snippet's
// raw-message-format comments (registration response: reserved byte,
// 65-byte uncompressed pubkey, key handle, attestation cert,
// signature); the retry loop is this agent's own, since that snippet
// assumes libu2ftoken already performed it.
package u2f

import (
	"time"

	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/hidio"
)

// U2F instruction bytes (ISO-7816 INS carried inside the CTAPHID MSG
// command).
const (
	insRegister     byte = 0x01
	insAuthenticate byte = 0x02
	insVersion      byte = 0x03
)

const (
	swSuccess           uint16 = 0x9000
	swConditionsNotSat  uint16 = 0x6985 // user presence required, try again
)

// PresenceRetryBudget bounds the total time spent retrying on 6985
// (spec.md §4.7: "up to 30s total").
const PresenceRetryBudget = 30 * time.Second

const presenceRetryInterval = 200 * time.Millisecond

// Device issues CTAP1/U2F APDUs over an allocated CTAPHID channel.
type Device struct {
	ch *hidio.Channel
}

// NewDevice wraps an allocated CTAPHID channel for U2F use.
func NewDevice(ch *hidio.Channel) *Device {
	return &Device{ch: ch}
}

// Version issues U2F_VERSION and returns the decoded ASCII version
// string (spec.md §4.5 scenario S3: "00 03 00 00 00" / "U2F_V2").
func (d *Device) Version() (string, error) {
	apdu := []byte{0x00, insVersion, 0x00, 0x00, 0x00}
	resp, err := d.ch.Transact(hidio.CmdMsg, apdu, 2*time.Second)
	if err != nil {
		return "", err
	}
	data, sw, err := splitStatus(resp)
	if err != nil {
		return "", err
	}
	if sw != swSuccess {
		return "", &StatusError{SW: sw}
	}
	return string(data), nil
}

// Register issues U2F_REGISTER with the given challenge and
// application parameter hashes, retrying on 6985 until the user
// touches the device or PresenceRetryBudget elapses.
func (d *Device) Register(challengeHash, appIDHash [32]byte) (*RegistrationResponse, error) {
	data := append(append([]byte{}, challengeHash[:]...), appIDHash[:]...)
	apdu := buildAPDU(insRegister, 0x00, 0x00, data)
	resp, err := d.transactWithPresenceRetry(apdu)
	if err != nil {
		return nil, err
	}
	return parseRegistrationResponse(resp)
}

// Authenticate issues U2F_AUTHENTICATE for a previously registered key
// handle, retrying on 6985 like Register.
func (d *Device) Authenticate(challengeHash, appIDHash [32]byte, keyHandle []byte, ctrl byte) ([]byte, error) {
	data := make([]byte, 0, 64+len(keyHandle)+1)
	data = append(data, challengeHash[:]...)
	data = append(data, appIDHash[:]...)
	data = append(data, byte(len(keyHandle)))
	data = append(data, keyHandle...)
	apdu := buildAPDU(insAuthenticate, ctrl, 0x00, data)
	return d.transactWithPresenceRetry(apdu)
}

func (d *Device) transactWithPresenceRetry(apdu []byte) ([]byte, error) {
	deadline := time.Now().Add(PresenceRetryBudget)
	for {
		resp, err := d.ch.Transact(hidio.CmdMsg, apdu, 2*time.Second)
		if err != nil {
			return nil, err
		}
		data, sw, err := splitStatus(resp)
		if err != nil {
			return nil, err
		}
		switch sw {
		case swSuccess:
			return data, nil
		case swConditionsNotSat:
			if time.Now().After(deadline) {
				return nil, &StatusError{SW: sw}
			}
			time.Sleep(presenceRetryInterval)
			continue
		default:
			return nil, &StatusError{SW: sw}
		}
	}
}

func buildAPDU(ins, p1, p2 byte, data []byte) []byte {
	apdu := make([]byte, 0, 5+len(data)+1)
	apdu = append(apdu, 0x00, ins, p1, p2)
	if len(data) > 0 {
		apdu = append(apdu, byte(len(data)))
		apdu = append(apdu, data...)
	}
	apdu = append(apdu, 0x00)
	return apdu
}

func splitStatus(resp []byte) (data []byte, sw uint16, err error) {
	if len(resp) < 2 {
		return nil, 0, agenterr.New(agenterr.CodeIOError, "short U2F response (%d bytes)", len(resp))
	}
	sw = uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1])
	return resp[:len(resp)-2], sw, nil
}
