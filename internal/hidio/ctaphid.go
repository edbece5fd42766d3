package hidio

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// Command is a CTAPHID command byte (high bit always set, spec.md §4.3).
type Command byte

const (
	CmdMsg       Command = 0x83
	CmdCbor      Command = 0x90
	CmdInit      Command = 0x86
	CmdPing      Command = 0x81
	CmdCancel    Command = 0x91
	CmdError     Command = 0xBF
	CmdKeepalive Command = 0xBB
	CmdWink      Command = 0x88
	CmdLock      Command = 0x84
)

// BroadcastChannel is the well-known channel used to send INIT (spec.md §4.3).
const BroadcastChannel uint32 = 0xFFFFFFFF

// MaxMessageSize is the negotiated max message size this agent reassembles
// up to. CTAPHID does not let the platform request a larger size, so this
// is the protocol's conventional default rather than something negotiated
// per connection.
const MaxMessageSize = 7609

const (
	initPacketHeaderLen = 7  // channel(4) + cmd(1) + len(2)
	initPacketPayload   = ReportSize - initPacketHeaderLen
	contPacketHeaderLen = 5 // channel(4) + seq(1)
	contPacketPayload   = ReportSize - contPacketHeaderLen
)

// Reporter is the narrow transport surface CTAPHID framing needs. *Device
// implements it against real hardware; tests substitute a fake that
// scripts report bytes without any HID/USB dependency.
type Reporter interface {
	SendReport(data []byte) (int, error)
	ReceiveReport(timeout time.Duration) ([]byte, error)
}

// Channel is an allocated CTAPHID channel bound to one open HID handle
// (spec.md §3 "CTAPHID channel").
type Channel struct {
	dev Reporter
	ID  uint32
}

// InitChannel performs CTAPHID INIT on the broadcast channel and returns
// a freshly allocated channel. Re-INIT (calling this again on the same
// device) clears any stale channel state by construction: each call
// allocates a new channel id and callers simply stop using the old one.
func InitChannel(dev Reporter, timeout time.Duration) (*Channel, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("hidio: generate INIT nonce: %w", err)
	}
	if err := sendMessage(dev, BroadcastChannel, CmdInit, nonce); err != nil {
		return nil, err
	}
	resp, gotCmd, err := receiveMessage(dev, BroadcastChannel, timeout)
	if err != nil {
		return nil, err
	}
	if gotCmd != CmdInit {
		return nil, fmt.Errorf("hidio: INIT got unexpected command 0x%02X", byte(gotCmd))
	}
	if len(resp) < 17 {
		return nil, fmt.Errorf("hidio: INIT response too short (%d bytes)", len(resp))
	}
	if !bytes.Equal(resp[:8], nonce) {
		return nil, fmt.Errorf("hidio: INIT nonce mismatch")
	}
	channelID := binary.LittleEndian.Uint32(resp[8:12])
	return &Channel{dev: dev, ID: channelID}, nil
}

// Transact sends one CTAPHID message on the channel and returns the
// payload of the matching response, per spec.md §4.3: KEEPALIVE frames
// are consumed silently, ERROR frames abort with the embedded code.
func (c *Channel) Transact(cmd Command, payload []byte, timeout time.Duration) ([]byte, error) {
	if err := sendMessage(c.dev, c.ID, cmd, payload); err != nil {
		return nil, err
	}
	resp, gotCmd, err := receiveMessage(c.dev, c.ID, timeout)
	if err != nil {
		return nil, err
	}
	if gotCmd != cmd {
		return nil, fmt.Errorf("hidio: expected response command 0x%02X, got 0x%02X", byte(cmd), byte(gotCmd))
	}
	return resp, nil
}

func sendMessage(dev Reporter, channelID uint32, cmd Command, payload []byte) error {
	if len(payload) > MaxMessageSize {
		return fmt.Errorf("hidio: message of %d bytes exceeds max %d", len(payload), MaxMessageSize)
	}
	remaining := payload
	first := remaining
	if len(first) > initPacketPayload {
		first = first[:initPacketPayload]
	}
	pkt := make([]byte, ReportSize)
	binary.LittleEndian.PutUint32(pkt[0:4], channelID)
	pkt[4] = byte(cmd)
	binary.BigEndian.PutUint16(pkt[5:7], uint16(len(payload)))
	copy(pkt[7:], first)
	if _, err := dev.SendReport(pkt); err != nil {
		return err
	}
	remaining = remaining[len(first):]

	seq := byte(0)
	for len(remaining) > 0 {
		chunk := remaining
		if len(chunk) > contPacketPayload {
			chunk = chunk[:contPacketPayload]
		}
		pkt = make([]byte, ReportSize)
		binary.LittleEndian.PutUint32(pkt[0:4], channelID)
		pkt[4] = seq & 0x7F
		copy(pkt[5:], chunk)
		if _, err := dev.SendReport(pkt); err != nil {
			return err
		}
		remaining = remaining[len(chunk):]
		seq++
	}
	return nil
}

// receiveMessage reassembles one CTAPHID message addressed to channelID,
// silently consuming KEEPALIVE frames and honoring the overall timeout
// budget across however many individual report reads reassembly needs
// (spec.md §4.3: each report read defaults to 5s; the end-to-end budget
// is the caller's timeout parameter).
func receiveMessage(dev Reporter, channelID uint32, timeout time.Duration) ([]byte, Command, error) {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	deadline := time.Now().Add(timeout)

	var cmd Command
	var declaredLen int
	var buf bytes.Buffer
	expectSeq := byte(0)
	started := false

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, 0, ErrTimeout
		}
		readTimeout := DefaultReadTimeout
		if remaining < readTimeout {
			readTimeout = remaining
		}
		report, err := dev.ReceiveReport(readTimeout)
		if err != nil {
			return nil, 0, err
		}
		if len(report) < 5 {
			continue
		}
		gotChannel := binary.LittleEndian.Uint32(report[0:4])
		if gotChannel != channelID {
			continue // not ours; ignore
		}

		isInit := (report[4] & 0x80) != 0
		if isInit {
			c := Command(report[4])
			if c == CmdKeepalive {
				continue
			}
			if c == CmdError {
				errByte := byte(0)
				if len(report) > 7 {
					errByte = report[7]
				}
				return nil, 0, &CTAPHIDError{Code: errByte}
			}
			if started {
				// A fresh init packet while reassembling aborts the old message.
				buf.Reset()
			}
			cmd = c
			declaredLen = int(binary.BigEndian.Uint16(report[5:7]))
			started = true
			payload := report[7:]
			if len(payload) > declaredLen {
				payload = payload[:declaredLen]
			}
			buf.Write(payload)
			expectSeq = 0
		} else {
			if !started {
				continue
			}
			seq := report[4] & 0x7F
			if seq != expectSeq {
				return nil, 0, fmt.Errorf("hidio: continuation out of sequence: want %d got %d", expectSeq, seq)
			}
			expectSeq++
			need := declaredLen - buf.Len()
			payload := report[5:]
			if len(payload) > need {
				payload = payload[:need]
			}
			buf.Write(payload)
		}

		if started && buf.Len() >= declaredLen {
			return buf.Bytes()[:declaredLen], cmd, nil
		}
	}
}
