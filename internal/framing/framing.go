// Package framing implements the browser native-messaging wire format
// (spec.md §4.1, §6): a 4-byte little-endian length prefix followed by
// that many bytes of UTF-8 JSON, symmetric for reads and writes.
package framing

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameLen is the largest payload this agent will decode. Exceeding it
// is a fatal framing error (spec.md §4.1, §6): the caller must report it
// once and exit non-zero.
const MaxFrameLen = 1 << 20 // 1 MiB

// ErrFrameTooLarge is returned when a declared length exceeds MaxFrameLen.
var ErrFrameTooLarge = errors.New("framing: frame exceeds maximum length")

// ErrEmptyFrame is returned when a declared length is zero, which spec.md
// §6 disallows (1 <= L <= 1048576).
var ErrEmptyFrame = errors.New("framing: zero-length frame")

// ReadFrame reads one length-prefixed JSON frame and decodes it into v.
// It returns io.EOF unchanged when the stream ends cleanly between frames.
func ReadFrame(r io.Reader, v any) error {
	raw, err := ReadRawFrame(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("framing: decode payload: %w", err)
	}
	return nil
}

// ReadRawFrame reads one length-prefixed frame and returns its raw JSON
// bytes without decoding them.
func ReadRawFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("framing: truncated length prefix: %w", err)
		}
		return nil, err
	}
	l := binary.LittleEndian.Uint32(lenBuf[:])
	if l == 0 {
		return nil, ErrEmptyFrame
	}
	if l > MaxFrameLen {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, l)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("framing: truncated payload: %w", err)
	}
	return payload, nil
}

// WriteFrame encodes v as JSON and writes it as one length-prefixed frame.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("framing: encode payload: %w", err)
	}
	return WriteRawFrame(w, payload)
}

// WriteRawFrame writes pre-encoded JSON bytes as one length-prefixed frame.
func WriteRawFrame(w io.Writer, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyFrame
	}
	if len(payload) > MaxFrameLen {
		return ErrFrameTooLarge
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
