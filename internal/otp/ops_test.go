package otp

import (
	"bytes"
	"testing"
	"time"

	"github.com/fthsdk/skagent/internal/agenterr"
)

// fakeDevice answers whatever responder is installed for the most
// recently sent frame's opcode.
type fakeDevice struct {
	lastSent  []byte
	responder func(sent []byte) []byte
}

func (f *fakeDevice) SendReport(data []byte) (int, error) {
	f.lastSent = append([]byte{}, data...)
	return len(data), nil
}

func (f *fakeDevice) ReceiveReport(timeout time.Duration) ([]byte, error) {
	return f.responder(f.lastSent), nil
}

func echoStatusResponder(sent []byte) []byte {
	resp := make([]byte, 64)
	copy(resp, sent)
	resp[payloadOffset] = 1
	crc := crc16(resp[:crcOffset])
	resp[crcOffset] = byte(crc >> 8)
	resp[crcOffset+1] = byte(crc)
	return resp
}

func TestProbeReturnsTrueOnNonEmptyResponse(t *testing.T) {
	dev := &fakeDevice{responder: echoStatusResponder}
	if !Probe(dev, time.Second) {
		t.Fatal("expected Probe to report supported")
	}
}

func TestTransactRejectsCorruptedCRC(t *testing.T) {
	dev := &fakeDevice{responder: func(sent []byte) []byte {
		resp := make([]byte, 64)
		resp[crcOffset] = 0xFF
		resp[crcOffset+1] = 0xFF
		return resp
	}}
	_, err := transact(dev, opStatus, 0, nil, time.Second)
	if err == nil {
		t.Fatal("expected CRC validation error")
	}
}

func TestReadSlotReportsConfigured(t *testing.T) {
	dev := &fakeDevice{responder: echoStatusResponder}
	configured, err := ReadSlot(dev, Slot1, time.Second)
	if err != nil {
		t.Fatalf("ReadSlot: %v", err)
	}
	if !configured {
		t.Fatal("expected slot to be reported configured")
	}
}

func TestSwapSlotsExchangesSecrets(t *testing.T) {
	secrets := map[Slot][]byte{
		Slot1: {0xAA, 0xBB, 0xCC},
		Slot2: {0x11, 0x22},
	}
	dev := &fakeDevice{}
	dev.responder = func(sent []byte) []byte {
		op := sent[0]
		slot := Slot(sent[1])
		resp := make([]byte, 64)
		switch op {
		case opRead:
			s := secrets[slot]
			resp[payloadOffset] = byte(len(s))
			copy(resp[payloadOffset+1:], s)
		case opWrite:
			n := int(sent[payloadOffset])
			secrets[slot] = append([]byte{}, sent[payloadOffset+1:payloadOffset+1+n]...)
		case opDelete:
			secrets[slot] = nil
		}
		crc := crc16(resp[:crcOffset])
		resp[crcOffset] = byte(crc >> 8)
		resp[crcOffset+1] = byte(crc)
		return resp
	}

	if err := SwapSlots(dev, time.Second); err != nil {
		t.Fatalf("SwapSlots: %v", err)
	}
	if !bytes.Equal(secrets[Slot1], []byte{0x11, 0x22}) {
		t.Fatalf("slot1 = %x, want 11 22", secrets[Slot1])
	}
	if !bytes.Equal(secrets[Slot2], []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("slot2 = %x, want AA BB CC", secrets[Slot2])
	}
}

func TestSwapSlotsSurfacesStableCodeWhenSecondWriteFails(t *testing.T) {
	secrets := map[Slot][]byte{
		Slot1: {0xAA, 0xBB, 0xCC},
		Slot2: {0x11, 0x22},
	}
	dev := &fakeDevice{}
	dev.responder = func(sent []byte) []byte {
		op := sent[0]
		slot := Slot(sent[1])
		resp := make([]byte, 64)
		switch op {
		case opRead:
			s := secrets[slot]
			resp[payloadOffset] = byte(len(s))
			copy(resp[payloadOffset+1:], s)
		case opWrite:
			n := int(sent[payloadOffset])
			secrets[slot] = append([]byte{}, sent[payloadOffset+1:payloadOffset+1+n]...)
			if slot == Slot2 {
				// Simulate the device ack for the second write arriving
				// corrupted; slot 1 has already been overwritten by the
				// first write and must be restored.
				return []byte{0xFF, 0xFF, 0xFF, 0xFF}
			}
		case opDelete:
			secrets[slot] = nil
		}
		crc := crc16(resp[:crcOffset])
		resp[crcOffset] = byte(crc >> 8)
		resp[crcOffset+1] = byte(crc)
		return resp
	}

	err := SwapSlots(dev, time.Second)
	if err == nil {
		t.Fatal("expected an error when the second write fails")
	}
	swapErr, ok := err.(*swapFailedError)
	if !ok {
		t.Fatalf("expected *swapFailedError, got %T: %v", err, err)
	}
	if swapErr.RPCCode() != agenterr.CodeIOError {
		t.Fatalf("code = %s, want %s", swapErr.RPCCode(), agenterr.CodeIOError)
	}
	if !bytes.Equal(secrets[Slot1], []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("expected slot1 restored to AA BB CC, got %x", secrets[Slot1])
	}
}
