package ndef

import (
	"bytes"
	"testing"
)

// scriptedCard answers Transmit calls by matching the command APDU's
// INS/P1/P2 against a small table, mirroring the apdu package's own
// scripted-card test fakes.
type scriptedCard struct {
	selectAID   []byte
	cc          []byte
	ndefMessage []byte
	written     []byte
}

func (c *scriptedCard) Transmit(apduBytes []byte) ([]byte, error) {
	ins := apduBytes[1]
	p1 := apduBytes[2]
	p2 := apduBytes[3]

	switch {
	case ins == 0xA4 && p1 == 0x04:
		// SELECT by AID
		aid := apduBytes[5 : 5+int(apduBytes[4])]
		if bytes.Equal(aid, []byte{0xD2, 0x76, 0x00, 0x00, 0x85, 0x01, 0x01}) {
			return []byte{0x90, 0x00}, nil
		}
		return []byte{0x6A, 0x82}, nil

	case ins == 0xA4 && p1 == 0x00 && p2 == 0x0C:
		// SELECT FILE by id
		return []byte{0x90, 0x00}, nil

	case ins == 0xB0:
		offset := int(p1)<<8 | int(p2)
		le := int(apduBytes[len(apduBytes)-1])
		return c.readFileRegion(offset, le)

	case ins == 0xD6:
		offset := int(p1)<<8 | int(p2)
		lc := int(apduBytes[4])
		data := apduBytes[5 : 5+lc]
		c.written = append(c.written, make([]byte, 0)...)
		if len(c.written) < offset+len(data) {
			grown := make([]byte, offset+len(data))
			copy(grown, c.written)
			c.written = grown
		}
		copy(c.written[offset:], data)
		return []byte{0x90, 0x00}, nil
	}
	return []byte{0x6D, 0x00}, nil
}

// readFileRegion serves reads against whichever "file" is currently in
// scope: the test always selects the CC file first, then the NDEF file,
// so a single combined buffer (cc followed by a constructed NLEN+message)
// is enough for these fakes.
func (c *scriptedCard) readFileRegion(offset, le int) ([]byte, error) {
	if offset == 0 && le == 0x0F {
		return append(append([]byte{}, c.cc...), 0x90, 0x00), nil
	}
	full := make([]byte, 0, 2+len(c.ndefMessage))
	full = append(full, byte(len(c.ndefMessage)>>8), byte(len(c.ndefMessage)))
	full = append(full, c.ndefMessage...)
	if offset >= len(full) {
		return []byte{0x90, 0x00}, nil
	}
	end := offset + le
	if end > len(full) {
		end = len(full)
	}
	return append(append([]byte{}, full[offset:end]...), 0x90, 0x00), nil
}

func defaultCC() []byte {
	cc := make([]byte, 15)
	cc[7] = 0x04
	cc[8] = 0x06
	cc[9] = 0xE1
	cc[10] = 0x04
	return cc
}

func TestReadReturnsNDEFMessageBytes(t *testing.T) {
	card := &scriptedCard{cc: defaultCC(), ndefMessage: []byte("hello ndef")}
	msg, err := Read(card)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(msg) != "hello ndef" {
		t.Fatalf("got %q, want %q", msg, "hello ndef")
	}
}

func TestReadEmptyMessageWhenNLENZero(t *testing.T) {
	card := &scriptedCard{cc: defaultCC(), ndefMessage: nil}
	msg, err := Read(card)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(msg) != 0 {
		t.Fatalf("expected empty message, got %d bytes", len(msg))
	}
}

func TestSelectFailsOnWrongAID(t *testing.T) {
	card := &scriptedCard{}
	backup := AID
	AID = []byte{0xDE, 0xAD}
	defer func() { AID = backup }()
	if err := Select(card); err == nil {
		t.Fatal("expected error selecting mismatched AID")
	}
}
