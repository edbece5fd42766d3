package piv

import (
	"bytes"
	"testing"
)

func TestGenerateKeyParsesECPublicPoint(t *testing.T) {
	point := append([]byte{0x04}, bytes.Repeat([]byte{0xAB}, 64)...)
	inner := encodeTLV(0x86, point)
	body := append([]byte{0x7F, 0x49}, encodeLength(len(inner))...)
	body = append(body, inner...)

	card := &scriptedCard{responses: [][]byte{sw(body, 0x9000)}}
	key, err := GenerateKey(card, 0x9A, AlgorithmECCP256, PinPolicyDefault, TouchPolicyDefault)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if !bytes.Equal(key.ECPoint, point) {
		t.Fatalf("got EC point %x", key.ECPoint)
	}
}

func TestGenerateKeyParsesRSAModulusAndExponent(t *testing.T) {
	modulus := bytes.Repeat([]byte{0x01}, 128)
	exponent := []byte{0x01, 0x00, 0x01}
	inner := append(encodeTLV(0x81, modulus), encodeTLV(0x82, exponent)...)
	body := append([]byte{0x7F, 0x49}, encodeLength(len(inner))...)
	body = append(body, inner...)

	card := &scriptedCard{responses: [][]byte{sw(body, 0x9000)}}
	key, err := GenerateKey(card, 0x9C, AlgorithmRSA2048, PinPolicyOnce, TouchPolicyAlways)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if !bytes.Equal(key.Modulus, modulus) || !bytes.Equal(key.Exponent, exponent) {
		t.Fatalf("got modulus=%x exponent=%x", key.Modulus, key.Exponent)
	}
}

func TestImportThenReadCertificateRoundTrips(t *testing.T) {
	der := []byte{0x30, 0x03, 0x01, 0x02, 0x03}
	card := &scriptedCard{responses: [][]byte{sw(nil, 0x9000)}}
	if err := ImportCertificate(card, 0x9A, der); err != nil {
		t.Fatalf("ImportCertificate: %v", err)
	}

	readCard := &scriptedCard{responses: [][]byte{
		sw(encodeTLV(0x53, encodeTLV(0x70, der)), 0x9000),
	}}
	got, err := ReadCertificate(readCard, 0x9A)
	if err != nil {
		t.Fatalf("ReadCertificate: %v", err)
	}
	if !bytes.Equal(got, der) {
		t.Fatalf("got %x, want %x", got, der)
	}
}

func TestReadCertificateReturnsNilWhenSlotEmpty(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{sw(nil, 0x6A82)}}
	got, err := ReadCertificate(card, 0x9D)
	if err != nil {
		t.Fatalf("ReadCertificate: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for empty slot, got %x", got)
	}
}

func TestUnknownSlotRejectedForKeyOperations(t *testing.T) {
	card := &scriptedCard{}
	if err := ImportCertificate(card, 0x00, nil); err == nil {
		t.Fatal("expected error for unknown slot id")
	}
}
