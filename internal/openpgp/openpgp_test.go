package openpgp

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

func TestReadDataReturnsApplicationRelatedDataAndURL(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		sw(nil, 0x9000),              // SELECT
		sw([]byte{0x6E, 0x00}, 0x9000), // Application-Related Data
		sw([]byte("https://example.com/openpgp"), 0x9000), // URL
	}}
	data, err := ReadData(card)
	if err != nil {
		t.Fatalf("ReadData: %v", err)
	}
	if data.URL != "https://example.com/openpgp" {
		t.Fatalf("got URL %q", data.URL)
	}
	if !bytes.Equal(data.ApplicationRelatedData, []byte{0x6E, 0x00}) {
		t.Fatalf("got ARD %x", data.ApplicationRelatedData)
	}
	if len(data.Log) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(data.Log))
	}
}

func TestReadDataToleratesMissingURL(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		sw(nil, 0x9000),
		sw([]byte{0x6E, 0x00}, 0x9000),
		sw(nil, 0x6A88),
	}}
	data, err := ReadData(card)
	if err != nil {
		t.Fatalf("ReadData: %v", err)
	}
	if data.URL != "" {
		t.Fatalf("expected empty URL, got %q", data.URL)
	}
}
