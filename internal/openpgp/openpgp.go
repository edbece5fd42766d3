// Package openpgp implements the OpenPGP card engine (spec.md §4.9):
// SELECT, Application-Related Data/URL reads, PW1/PW3 VERIFY/CHANGE, and
// asymmetric key generation/export.
//
// Grounded in the same SELECT/GET DATA/VERIFY idiom used for PIV
// (pkg/ntag424/read.go's composite-read shape, pkg/ntag424/errors.go's
// status-word classification), reusing internal/apdu's transport and a
// BER-TLV helper of its own (internal/piv's tlv.go pattern, duplicated
// locally).
package openpgp

import (
	"github.com/fthsdk/skagent/internal/apdu"
)

// AID is the OpenPGP application identifier (spec.md §4.5, §4.9).
var AID = []byte{0xD2, 0x76, 0x00, 0x01, 0x24, 0x01}

// GET DATA object tags (spec.md §4.9).
const (
	tagApplicationRelatedData = 0x6E
	tagURL                    = 0x5F50
)

// Select chooses the OpenPGP application (spec.md §4.5 OpenPGP probe,
// §6 openpgpSelect).
func Select(log *apdu.Log, card apdu.Card) error {
	_, sw, err := apdu.TransmitLogged(log, card, "SELECT", 0x00, 0xA4, 0x04, 0x00, AID, 0x00, "select OpenPGP application")
	if err != nil {
		return err
	}
	if !apdu.SWOK(sw) {
		return &apdu.StatusError{Cmd: 0xA4, SW: sw}
	}
	return nil
}

func getData(log *apdu.Log, card apdu.Card, description string, objectTag uint16) ([]byte, error) {
	p1, p2 := byte(objectTag>>8), byte(objectTag)
	resp, sw, err := apdu.TransmitLogged(log, card, "GET DATA", 0x00, 0xCA, p1, p2, nil, 0x00, description)
	if err != nil {
		return nil, err
	}
	if !apdu.SWOK(sw) {
		return nil, &apdu.StatusError{Cmd: 0xCA, SW: sw}
	}
	return resp, nil
}

// Data is the composite result of openpgpReadData (spec.md §6).
type Data struct {
	ApplicationRelatedData []byte          `json:"applicationRelatedData,omitempty"`
	URL                    string          `json:"url,omitempty"`
	Log                    []apdu.LogEntry `json:"log"`
}

// ReadData selects the application and reads the Application-Related
// Data object (tag 6E) and the cardholder URL object (tag 5F50), per
// spec.md §4.9.
func ReadData(card apdu.Card) (Data, error) {
	log := apdu.NewLog()
	if err := Select(log, card); err != nil {
		return Data{}, err
	}
	ard, err := getData(log, card, "read Application-Related Data", tagApplicationRelatedData)
	if err != nil {
		return Data{}, err
	}
	urlRaw, err := getData(log, card, "read cardholder URL", tagURL)
	if err != nil {
		if !isFileNotFound(err) {
			return Data{}, err
		}
		urlRaw = nil
	}
	return Data{ApplicationRelatedData: ard, URL: string(urlRaw), Log: log.Entries()}, nil
}

func isFileNotFound(err error) bool {
	se, ok := err.(*apdu.StatusError)
	return ok && se.SW == 0x6A88
}

// PutData writes a cardholder attribute data object by tag (spec.md
// §4.9 "PUT DATA for cardholder attributes").
func PutData(card apdu.Card, objectTag uint16, value []byte) error {
	p1, p2 := byte(objectTag>>8), byte(objectTag)
	log := apdu.NewLog()
	_, sw, err := apdu.TransmitLogged(log, card, "PUT DATA", 0x00, 0xDA, p1, p2, value, 0x00, "write cardholder attribute")
	if err != nil {
		return err
	}
	if !apdu.SWOK(sw) {
		return &apdu.StatusError{Cmd: 0xDA, SW: sw}
	}
	return nil
}
