// Package ndef implements the NDEF engine (spec.md §4.9): type-4 tag
// SELECT plus binary read/update with length-prefixed NDEF message
// parsing. Directly adapted from the teacher's pkg/ntag424/io.go
// (SelectNDEFApp/SelectFile/WriteNDEFData) and read.go's ReadNDEF
// (CC-file-driven file id discovery, NLEN header, chunked reads),
// generalized from the NTAG424-specific AID/file-id defaults to the
// spec's own NDEF application AID.
package ndef

import (
	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/apdu"
)

// Well-known type-4 tag identifiers (spec.md §4.5, §4.9).
var (
	AID            = []byte{0xD2, 0x76, 0x00, 0x00, 0x85, 0x01, 0x01}
	defaultCCFile  uint16 = 0xE103
	defaultNDEFFile uint16 = 0xE104
)

const maxChunk = 0xFF

// Select chooses the NDEF application by AID (spec.md §4.5 NDEF probe).
func Select(card apdu.Card) error {
	_, sw, err := apdu.TransmitChained(card, 0x00, 0xA4, 0x04, 0x00, AID, 0x00)
	if err != nil {
		return err
	}
	if !apdu.SWOK(sw) {
		return &apdu.StatusError{Cmd: 0xA4, SW: sw}
	}
	return nil
}

// selectFile selects a file by its 16-bit id (ISO 7816 SELECT FILE, P1=0x00 P2=0x0C).
func selectFile(card apdu.Card, fileID uint16) error {
	_, sw, err := apdu.TransmitChained(card, 0x00, 0xA4, 0x00, 0x0C, []byte{byte(fileID >> 8), byte(fileID)}, 0x00)
	if err != nil {
		return err
	}
	if !apdu.SWOK(sw) {
		return &apdu.StatusError{Cmd: 0xA4, SW: sw}
	}
	return nil
}

// readBinary issues ISO 7816 READ BINARY (INS 0xB0) at offset, retrying
// once with the corrected Le on a 6CXX response.
func readBinary(card apdu.Card, offset uint16, le byte) ([]byte, error) {
	data, sw, err := apdu.TransmitChained(card, 0x00, 0xB0, byte(offset>>8), byte(offset), nil, le)
	if err != nil {
		return nil, err
	}
	if !apdu.SWOK(sw) {
		return nil, &apdu.StatusError{Cmd: 0xB0, SW: sw}
	}
	return data, nil
}

// updateBinary issues ISO 7816 UPDATE BINARY (INS 0xD6) at offset.
func updateBinary(card apdu.Card, offset uint16, chunk []byte) error {
	_, sw, err := apdu.TransmitChained(card, 0x00, 0xD6, byte(offset>>8), byte(offset), chunk, 0x00)
	if err != nil {
		return err
	}
	if !apdu.SWOK(sw) {
		return &apdu.StatusError{Cmd: 0xD6, SW: sw}
	}
	return nil
}

// Read selects the NDEF application, discovers the NDEF file id from
// the capability container, and returns the complete NDEF message
// (NLEN header stripped).
func Read(card apdu.Card) ([]byte, error) {
	if err := Select(card); err != nil {
		return nil, err
	}
	if err := selectFile(card, defaultCCFile); err != nil {
		return nil, err
	}
	cc, err := readBinary(card, 0x0000, 0x0F)
	if err != nil {
		return nil, err
	}
	if len(cc) < 15 {
		return nil, agenterr.New(agenterr.CodeFormatError, "capability container too short (%d bytes)", len(cc))
	}

	ndefFileID := defaultNDEFFile
	if cc[7] == 0x04 && cc[8] >= 6 {
		ndefFileID = uint16(cc[9])<<8 | uint16(cc[10])
	}

	if err := selectFile(card, ndefFileID); err != nil {
		return nil, err
	}

	nlenBytes, err := readBinary(card, 0x0000, 0x02)
	if err != nil {
		return nil, err
	}
	if len(nlenBytes) < 2 {
		return nil, agenterr.New(agenterr.CodeFormatError, "NLEN header read too short")
	}
	nlen := int(nlenBytes[0])<<8 | int(nlenBytes[1])
	if nlen == 0 {
		return []byte{}, nil
	}

	msg := make([]byte, 0, nlen)
	offset := 2
	remaining := nlen
	for remaining > 0 {
		chunk := remaining
		if chunk > maxChunk {
			chunk = maxChunk
		}
		part, err := readBinary(card, uint16(offset), byte(chunk))
		if err != nil {
			return nil, err
		}
		if len(part) == 0 {
			break
		}
		msg = append(msg, part...)
		offset += len(part)
		remaining -= len(part)
	}
	return msg, nil
}

// Write selects the NDEF file (assuming the application is already
// selected, mirroring the teacher's WriteNDEFWithAuth shape) and
// writes the NLEN header followed by the message, in 255-byte chunks.
func Write(card apdu.Card, message []byte) error {
	if err := selectFile(card, defaultNDEFFile); err != nil {
		return err
	}
	header := []byte{byte(len(message) >> 8), byte(len(message))}
	if err := writeChunked(card, 0, header); err != nil {
		return err
	}
	return writeChunked(card, 2, message)
}

// Format selects the NDEF application and writes an empty NDEF message
// (NLEN=0), clearing any prior content (spec.md §6 ndefFormat).
func Format(card apdu.Card) error {
	if err := Select(card); err != nil {
		return err
	}
	if err := selectFile(card, defaultNDEFFile); err != nil {
		return err
	}
	return writeChunked(card, 0, []byte{0x00, 0x00})
}

func writeChunked(card apdu.Card, offset int, data []byte) error {
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunk {
			chunk = chunk[:maxChunk]
		}
		if err := updateBinary(card, uint16(offset), chunk); err != nil {
			return err
		}
		offset += len(chunk)
		data = data[len(chunk):]
	}
	return nil
}
