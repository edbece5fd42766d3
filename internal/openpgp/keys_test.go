package openpgp

import (
	"bytes"
	"testing"
)

func TestGenerateKeyParsesECPublicPoint(t *testing.T) {
	point := append([]byte{0x04}, bytes.Repeat([]byte{0x11}, 64)...)
	inner := encodeTLV(0x86, point)
	body := append([]byte{0x7F, 0x49}, encodeLength(len(inner))...)
	body = append(body, inner...)

	card := &scriptedCard{responses: [][]byte{sw(body, 0x9000)}}
	key, err := GenerateKey(card, KeySlotAuthentication)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if !bytes.Equal(key.ECPoint, point) {
		t.Fatalf("got EC point %x", key.ECPoint)
	}
	apduBytes := card.calls[0]
	if apduBytes[2] != genGenerate {
		t.Fatalf("expected P1=0x80 (generate), got 0x%02X", apduBytes[2])
	}
}

func TestExportPublicKeyUsesReadOnlyP1(t *testing.T) {
	inner := encodeTLV(0x81, []byte{0x01, 0x02})
	body := append([]byte{0x7F, 0x49}, encodeLength(len(inner))...)
	body = append(body, inner...)
	card := &scriptedCard{responses: [][]byte{sw(body, 0x9000)}}
	if _, err := ExportPublicKey(card, KeySlotSignature); err != nil {
		t.Fatalf("ExportPublicKey: %v", err)
	}
	if card.calls[0][2] != genReadOnly {
		t.Fatalf("expected P1=0x81 (read-only), got 0x%02X", card.calls[0][2])
	}
}

func TestImportKeyWrapsTemplateInExtendedHeaderList(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{sw(nil, 0x9000)}}
	template := []byte{0x7F, 0x48, 0x00}
	if err := ImportKey(card, KeySlotDecryption, template); err != nil {
		t.Fatalf("ImportKey: %v", err)
	}
	apduBytes := card.calls[0]
	if apduBytes[1] != 0xDB {
		t.Fatalf("expected PUT DATA (0xDB), got ins=0x%02X", apduBytes[1])
	}
}
