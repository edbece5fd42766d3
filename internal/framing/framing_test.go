package framing

import (
	"bytes"
	"io"
	"reflect"
	"testing"
)

type echoObj struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Nested []int  `json:"nested"`
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := echoObj{ID: 7, Name: "pong", Nested: []int{1, 2, 3}}
	if err := WriteFrame(&buf, in); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	var out echoObj
	if err := ReadFrame(&buf, &out); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !reflect.DeepEqual(out, echoObj{ID: 7, Name: "pong", Nested: []int{1, 2, 3}}) {
		t.Fatalf("round trip mismatch: got %+v", out)
	}
}

func TestReadFrameEOFBetweenFrames(t *testing.T) {
	var buf bytes.Buffer
	var out echoObj
	if err := ReadFrame(&buf, &out); err != io.EOF {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	lenBuf := []byte{0, 0, 0, 0}
	// Declare a length just over MaxFrameLen.
	big := uint32(MaxFrameLen + 1)
	lenBuf[0] = byte(big)
	lenBuf[1] = byte(big >> 8)
	lenBuf[2] = byte(big >> 16)
	lenBuf[3] = byte(big >> 24)
	buf.Write(lenBuf)
	var out echoObj
	if err := ReadFrame(&buf, &out); err != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestReadFrameZeroLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0})
	var out echoObj
	if err := ReadFrame(&buf, &out); err != ErrEmptyFrame {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
}
