package detect

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/fthsdk/skagent/internal/hidio"
)

// fakeHID answers InitChannel's INIT allocation with a fixed channel id,
// then dispatches any command on that channel to a scripted responder.
type fakeHID struct {
	channelID uint32
	queue     [][]byte
	respond   func(cmd byte, payload []byte) (hidio.Command, []byte)
}

func (f *fakeHID) SendReport(data []byte) (int, error) {
	report := make([]byte, hidio.ReportSize)
	copy(report, data)

	cmd := report[4]
	if cmd == byte(hidio.CmdInit) {
		nonce := report[7:15]
		r := make([]byte, hidio.ReportSize)
		binary.LittleEndian.PutUint32(r[0:4], hidio.BroadcastChannel)
		r[4] = byte(hidio.CmdInit)
		binary.BigEndian.PutUint16(r[5:7], 17)
		copy(r[7:15], nonce)
		binary.LittleEndian.PutUint32(r[15:19], f.channelID)
		f.queue = append(f.queue, r)
		return len(report), nil
	}

	payload := report[7:]
	length := binary.BigEndian.Uint16(report[5:7])
	if int(length) < len(payload) {
		payload = payload[:length]
	}
	respCmd, respPayload := f.respond(cmd, payload)
	pushResponse(f.channelID, respCmd, respPayload, &f.queue)
	return len(report), nil
}

func (f *fakeHID) ReceiveReport(timeout time.Duration) ([]byte, error) {
	if len(f.queue) == 0 {
		return nil, hidio.ErrTimeout
	}
	r := f.queue[0]
	f.queue = f.queue[1:]
	return r, nil
}

func pushResponse(channelID uint32, cmd hidio.Command, payload []byte, queue *[][]byte) {
	r := make([]byte, hidio.ReportSize)
	binary.LittleEndian.PutUint32(r[0:4], channelID)
	r[4] = byte(cmd)
	binary.BigEndian.PutUint16(r[5:7], uint16(len(payload)))
	copy(r[7:], payload)
	*queue = append(*queue, r)
}

func TestProbeFIDO2DetectsWellFormedMap(t *testing.T) {
	dev := &fakeHID{channelID: 0x11223344, respond: func(cmd byte, payload []byte) (hidio.Command, []byte) {
		// status 0x00 followed by an empty CBOR map (0xA0).
		return hidio.CmdCbor, []byte{0x00, 0xA0}
	}}
	if !probeFIDO2(dev) {
		t.Fatal("expected FIDO2 detected")
	}
}

func TestProbeFIDO2FalseOnCTAP2Error(t *testing.T) {
	dev := &fakeHID{channelID: 0x11223344, respond: func(cmd byte, payload []byte) (hidio.Command, []byte) {
		return hidio.CmdCbor, []byte{0x01} // CTAP1_ERR_INVALID_COMMAND
	}}
	if probeFIDO2(dev) {
		t.Fatal("expected FIDO2 not detected on error status")
	}
}

func TestProbeU2FDetectsVersionString(t *testing.T) {
	dev := &fakeHID{channelID: 0x55667788, respond: func(cmd byte, payload []byte) (hidio.Command, []byte) {
		return hidio.CmdMsg, append([]byte("U2F_V2"), 0x90, 0x00)
	}}
	if !probeU2F(dev) {
		t.Fatal("expected U2F detected")
	}
}

func TestProbeU2FFalseOnNonSuccessStatus(t *testing.T) {
	dev := &fakeHID{channelID: 0x55667788, respond: func(cmd byte, payload []byte) (hidio.Command, []byte) {
		return hidio.CmdMsg, []byte{0x6D, 0x00}
	}}
	if probeU2F(dev) {
		t.Fatal("expected U2F not detected on non-success status")
	}
}
