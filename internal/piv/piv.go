// Package piv implements the PIV engine (spec.md §4.8): SELECT, GET DATA
// composite reads, PIN/PUK VERIFY/CHANGE/unblock, and key generation,
// with every exchange recorded to a per-request activity log.
//
// Grounded in pkg/ntag424/read.go's SELECT-then-sequence-of-GET-calls
// composite-read shape (ReadNDEF's CC-file/NDEF-file/NLEN flow) and
// pkg/ntag424/errors.go's status-word classification, generalized from
// NTAG/DESFire words to the PIV 61XX/6CXX/63CX family.
package piv

import (
	"fmt"

	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/apdu"
)

// AID is the PIV application identifier (spec.md §4.5, §4.8).
var AID = []byte{0xA0, 0x00, 0x00, 0x03, 0x08}

// GET DATA object tags (spec.md §3, §4.8).
const (
	tagCHUID     = 0x5FC102
	tagDiscovery = 0x7E
)

// Slot describes one PIV key reference (spec.md §3 "PIV slot record").
type Slot struct {
	ID    byte
	Label string
}

// Slots is the fixed set of PIV key references this engine enumerates,
// in the order the UI renders them.
var Slots = buildSlots()

func buildSlots() []Slot {
	slots := []Slot{
		{ID: 0x9A, Label: "PIV Authentication"},
		{ID: 0x9C, Label: "Digital Signature"},
		{ID: 0x9D, Label: "Key Management"},
		{ID: 0x9E, Label: "Card Authentication"},
	}
	for id := byte(0x82); id <= 0x95; id++ {
		slots = append(slots, Slot{ID: id, Label: fmt.Sprintf("Retired Key Management %d", id-0x81)})
	}
	slots = append(slots, Slot{ID: 0xF9, Label: "Attestation"})
	return slots
}

// certificateObjectTag returns the GET DATA object tag (3-byte BER-TLV
// tag per PIV's data model) for a given key slot's certificate.
func certificateObjectTag(slotID byte) (uint32, bool) {
	switch slotID {
	case 0x9A:
		return 0x5FC105, true
	case 0x9C:
		return 0x5FC10A, true
	case 0x9D:
		return 0x5FC10B, true
	case 0x9E:
		return 0x5FC101, true
	case 0xF9:
		return 0x5FC10D, true
	}
	if slotID >= 0x82 && slotID <= 0x95 {
		return 0x5FC10C + uint32(slotID-0x82), true
	}
	return 0, false
}

// Select chooses the PIV application (spec.md §4.5 scenario S4).
func Select(log *apdu.Log, card apdu.Card) error {
	_, sw, err := apdu.TransmitLogged(log, card, "SELECT", 0x00, 0xA4, 0x04, 0x00, AID, 0x00, "select PIV application")
	if err != nil {
		return err
	}
	if !apdu.SWOK(sw) {
		return &apdu.StatusError{Cmd: 0xA4, SW: sw}
	}
	return nil
}

// getData issues GET DATA for a 1-, 2-, or 3-byte BER-TLV object tag,
// wrapped in the mandatory 0x5C tag-list data object per PIV's data
// model, and returns the object's 0x53-tagged payload.
func getData(log *apdu.Log, card apdu.Card, description string, objectTag uint32) ([]byte, error) {
	tagBytes := encodeObjectTag(objectTag)
	cmdData := encodeTLV(0x5C, tagBytes)
	resp, sw, err := apdu.TransmitLogged(log, card, "GET DATA", 0x00, 0xCB, 0x3F, 0xFF, cmdData, 0x00, description)
	if err != nil {
		return nil, err
	}
	if !apdu.SWOK(sw) {
		return nil, &apdu.StatusError{Cmd: 0xCB, SW: sw}
	}
	elements, err := parseTLVs(resp)
	if err != nil {
		return nil, err
	}
	value, ok := findTag(elements, 0x53)
	if !ok {
		return nil, agenterr.New(agenterr.CodeFormatError, "GET DATA response missing tag 0x53")
	}
	return value, nil
}

func encodeObjectTag(tag uint32) []byte {
	switch {
	case tag <= 0xFF:
		return []byte{byte(tag)}
	case tag <= 0xFFFF:
		return []byte{byte(tag >> 8), byte(tag)}
	default:
		return []byte{byte(tag >> 16), byte(tag >> 8), byte(tag)}
	}
}

// SlotRecord is the data-model record returned per slot (spec.md §3).
type SlotRecord struct {
	ID        byte   `json:"id"`
	Label     string `json:"label"`
	Present   bool   `json:"present"`
	RawCert   []byte `json:"rawCertificate,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Issuer    string `json:"issuer,omitempty"`
	Serial    string `json:"serial,omitempty"`
	NotBefore string `json:"notBefore,omitempty"`
	NotAfter  string `json:"notAfter,omitempty"`
}

// Data is the composite result of pivGetData (spec.md §4.8, §6).
type Data struct {
	CHUID     []byte       `json:"chuid,omitempty"`
	Discovery []byte       `json:"discovery,omitempty"`
	Slots     []SlotRecord `json:"slots"`
	Log       []apdu.LogEntry `json:"log"`
}

// GetData runs the full composite read: SELECT, CHUID, discovery, then
// every known slot's certificate object, classifying each present/empty
// (spec.md §4.8's flow and §3's PIV slot record).
func GetData(card apdu.Card) (Data, error) {
	log := apdu.NewLog()
	if err := Select(log, card); err != nil {
		return Data{}, err
	}

	chuid, err := getData(log, card, "read CHUID", tagCHUID)
	if err != nil {
		if !isFileNotFound(err) {
			return Data{}, err
		}
		chuid = nil
	}

	discovery, err := getData(log, card, "read discovery object", tagDiscovery)
	if err != nil {
		if !isFileNotFound(err) {
			return Data{}, err
		}
		discovery = nil
	}

	records := make([]SlotRecord, 0, len(Slots))
	for _, slot := range Slots {
		rec := SlotRecord{ID: slot.ID, Label: slot.Label}
		objTag, ok := certificateObjectTag(slot.ID)
		if !ok {
			records = append(records, rec)
			continue
		}
		certObj, err := getData(log, card, fmt.Sprintf("read certificate slot 0x%02X", slot.ID), objTag)
		if err != nil {
			if isFileNotFound(err) {
				records = append(records, rec)
				continue
			}
			return Data{}, err
		}
		rec.Present = true
		rec.RawCert = extractCertificate(certObj)
		describeCertificate(&rec)
		records = append(records, rec)
	}

	return Data{CHUID: chuid, Discovery: discovery, Slots: records, Log: log.Entries()}, nil
}

func isFileNotFound(err error) bool {
	se, ok := err.(*apdu.StatusError)
	return ok && se.SW == 0x6A82
}

// extractCertificate pulls the 0x70-tagged certificate buffer out of a
// PIV certificate data object (which wraps the DER certificate alongside
// a 0x71 cert-info byte and 0xFE LRC placeholder).
func extractCertificate(obj []byte) []byte {
	elements, err := parseTLVs(obj)
	if err != nil {
		return nil
	}
	if cert, ok := findTag(elements, 0x70); ok {
		return cert
	}
	return nil
}
