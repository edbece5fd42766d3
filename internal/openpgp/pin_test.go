package openpgp

import "testing"

func TestVerifyPW1Succeeds(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{sw(nil, 0x9000)}}
	if err := VerifyPW1(card, "123456"); err != nil {
		t.Fatalf("VerifyPW1: %v", err)
	}
}

func TestVerifyPW3ReportsRetriesOn63CX(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{sw(nil, 0x63C2)}}
	err := VerifyPW3(card, "wrongpin")
	re, ok := err.(*RetriesError)
	if !ok {
		t.Fatalf("expected *RetriesError, got %T: %v", err, err)
	}
	if re.Retries != 2 {
		t.Fatalf("got retries=%d, want 2", re.Retries)
	}
}

func TestChangePINSendsOldThenNewConcatenated(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{sw(nil, 0x9000)}}
	if err := ChangePIN(card, "123456", "87654321"); err != nil {
		t.Fatalf("ChangePIN: %v", err)
	}
	apduBytes := card.calls[0]
	lc := int(apduBytes[4])
	data := apduBytes[5 : 5+lc]
	if string(data) != "12345687654321" {
		t.Fatalf("got data %q", data)
	}
}

func TestVerifyPW1UsesReferenceQualifier0x81(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{sw(nil, 0x9000)}}
	_ = VerifyPW1(card, "123456")
	if card.calls[0][3] != refPW1 {
		t.Fatalf("expected P2=0x81, got 0x%02X", card.calls[0][3])
	}
}
