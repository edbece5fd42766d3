package apdu

import (
	"bytes"
	"testing"
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

func sw(data []byte, sw uint16) []byte {
	return append(append([]byte{}, data...), byte(sw>>8), byte(sw))
}

func TestTransmitSplitsStatusWord(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{sw([]byte{0xDE, 0xAD}, SWSuccess)}}
	data, gotSW, err := Transmit(card, []byte{0x00, 0xA4, 0x04, 0x00})
	if err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if gotSW != SWSuccess || !bytes.Equal(data, []byte{0xDE, 0xAD}) {
		t.Fatalf("got data=%x sw=%04X", data, gotSW)
	}
}

func TestTransmitChainedFollowsMoreData(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		sw([]byte{0x01, 0x02}, 0x6105),
		sw([]byte{0x03, 0x04, 0x05}, SWSuccess),
	}}
	data, gotSW, err := TransmitChained(card, 0x00, 0xA4, 0x04, 0x00, nil, 0x00)
	if err != nil {
		t.Fatalf("TransmitChained: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	if !bytes.Equal(data, want) || gotSW != SWSuccess {
		t.Fatalf("got data=%x sw=%04X, want %x", data, gotSW, want)
	}
	if len(card.calls) != 2 {
		t.Fatalf("expected 2 transmits, got %d", len(card.calls))
	}
	getResp := card.calls[1]
	if getResp[1] != InsGetResponse || getResp[len(getResp)-1] != 0x05 {
		t.Fatalf("expected GET RESPONSE with Le=5, got % x", getResp)
	}
}

func TestTransmitChainedRetriesWrongLe(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		sw(nil, 0x6C07),
		sw([]byte{1, 2, 3, 4, 5, 6, 7}, SWSuccess),
	}}
	data, gotSW, err := TransmitChained(card, 0x00, 0xB0, 0x00, 0x00, nil, 0x00)
	if err != nil {
		t.Fatalf("TransmitChained: %v", err)
	}
	if gotSW != SWSuccess || len(data) != 7 {
		t.Fatalf("got data=%x sw=%04X", data, gotSW)
	}
	retry := card.calls[1]
	if retry[len(retry)-1] != 0x07 {
		t.Fatalf("expected retry Le=7, got % x", retry)
	}
}

func TestTransmitChainedPassesThroughOtherStatus(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{sw(nil, 0x6A82)}}
	_, gotSW, err := TransmitChained(card, 0x00, 0xA4, 0x04, 0x00, []byte{0x01}, 0x00)
	if err != nil {
		t.Fatalf("TransmitChained: %v", err)
	}
	if gotSW != 0x6A82 {
		t.Fatalf("expected SW 6A82 passed through, got %04X", gotSW)
	}
}
