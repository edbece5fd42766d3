package piv

import (
	"bytes"
	"testing"

	"github.com/fthsdk/skagent/internal/apdu"
)

type scriptedCard struct {
	responses [][]byte
	calls     [][]byte
}

func (s *scriptedCard) Transmit(apduBytes []byte) ([]byte, error) {
	s.calls = append(s.calls, append([]byte{}, apduBytes...))
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func sw(data []byte, status uint16) []byte {
	return append(append([]byte{}, data...), byte(status>>8), byte(status))
}

func TestSelectSucceeds(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{sw(nil, 0x9000)}}
	log := apdu.NewLog()
	if err := Select(log, card); err != nil {
		t.Fatalf("Select: %v", err)
	}
}

func TestGetDataReturnsTag53Value(t *testing.T) {
	obj := encodeTLV(0x53, []byte("chuid-bytes"))
	responses := [][]byte{
		sw(nil, 0x9000), // SELECT
		sw(obj, 0x9000), // GET DATA CHUID
		sw(nil, 0x6A82), // discovery: not found
	}
	for range Slots {
		responses = append(responses, sw(nil, 0x6A82))
	}
	card := &scriptedCard{responses: responses}
	data, err := GetData(card)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if string(data.CHUID) != "chuid-bytes" {
		t.Fatalf("got CHUID %q", data.CHUID)
	}
}

func TestGetDataClassifiesSlotsPresentAndEmpty(t *testing.T) {
	chuidObj := encodeTLV(0x53, []byte("chuid"))
	discoveryObj := encodeTLV(0x53, []byte("disc"))
	certObj := encodeTLV(0x53, encodeTLV(0x70, []byte{0xDE, 0xAD, 0xBE, 0xEF}))

	responses := [][]byte{
		sw(nil, 0x9000),          // SELECT
		sw(chuidObj, 0x9000),     // CHUID
		sw(discoveryObj, 0x9000), // discovery
	}
	// One present slot (first), the rest not-found.
	for i, slot := range Slots {
		if i == 0 {
			responses = append(responses, sw(certObj, 0x9000))
		} else {
			_ = slot
			responses = append(responses, sw(nil, 0x6A82))
		}
	}
	card := &scriptedCard{responses: responses}
	data, err := GetData(card)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if !data.Slots[0].Present {
		t.Fatal("expected first slot present")
	}
	if !bytes.Equal(data.Slots[0].RawCert, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("got raw cert %x", data.Slots[0].RawCert)
	}
	for i, rec := range data.Slots {
		if i == 0 {
			continue
		}
		if rec.Present {
			t.Fatalf("slot %d expected absent", i)
		}
	}
	if len(data.Log) == 0 {
		t.Fatal("expected non-empty activity log")
	}
}

