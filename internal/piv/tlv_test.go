package piv

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeTLVRoundTrip(t *testing.T) {
	encoded := encodeTLV(0x53, []byte("hello"))
	elements, err := parseTLVs(encoded)
	if err != nil {
		t.Fatalf("parseTLVs: %v", err)
	}
	value, ok := findTag(elements, 0x53)
	if !ok {
		t.Fatal("expected tag 0x53 present")
	}
	if string(value) != "hello" {
		t.Fatalf("got %q, want %q", value, "hello")
	}
}

func TestEncodeLengthLongForm(t *testing.T) {
	value := bytes.Repeat([]byte{0xAA}, 300)
	encoded := encodeTLV(0x70, value)
	elements, err := parseTLVs(encoded)
	if err != nil {
		t.Fatalf("parseTLVs: %v", err)
	}
	got, ok := findTag(elements, 0x70)
	if !ok || len(got) != 300 {
		t.Fatalf("expected 300-byte value, got %d bytes (ok=%v)", len(got), ok)
	}
}

func TestParseTLVsRejectsTruncatedLength(t *testing.T) {
	if _, err := parseTLVs([]byte{0x53, 0x05, 0x01, 0x02}); err == nil {
		t.Fatal("expected error for truncated TLV value")
	}
}

func TestDecodeLengthShortForm(t *testing.T) {
	n, consumed, err := decodeLength([]byte{0x7F})
	if err != nil {
		t.Fatalf("decodeLength: %v", err)
	}
	if n != 0x7F || consumed != 1 {
		t.Fatalf("got n=%d consumed=%d", n, consumed)
	}
}
