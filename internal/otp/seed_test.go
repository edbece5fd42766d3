package otp

import (
	"bytes"
	"testing"
)

func TestNormalizeSeedRoundTripsBase32(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	canon := CanonicalBase32(raw)

	got, err := NormalizeSeed(FormatBase32, canon)
	if err != nil {
		t.Fatalf("NormalizeSeed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("got %x, want %x", got, raw)
	}
	if CanonicalBase32(got) != canon {
		t.Fatalf("re-encoding did not reproduce canonical form")
	}
}

func TestNormalizeSeedHex(t *testing.T) {
	got, err := NormalizeSeed(FormatHex, "deadbeef")
	if err != nil {
		t.Fatalf("NormalizeSeed: %v", err)
	}
	if !bytes.Equal(got, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("got %x", got)
	}
}

func TestNormalizeSeedBase64(t *testing.T) {
	got, err := NormalizeSeed(FormatBase64, "AQIDBA==")
	if err != nil {
		t.Fatalf("NormalizeSeed: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("got %x", got)
	}
}

func TestNormalizeSeedCSV(t *testing.T) {
	canon := CanonicalBase32([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	got, err := NormalizeSeed(FormatCSV, canon+",1,TOTP")
	if err != nil {
		t.Fatalf("NormalizeSeed: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03, 0x04, 0x05}) {
		t.Fatalf("got %x", got)
	}
}

func TestNormalizeSeedCSVIgnoresOnlyTrailingColumns(t *testing.T) {
	canon := CanonicalBase32([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	got, err := NormalizeSeed(FormatCSV, canon)
	if err != nil {
		t.Fatalf("NormalizeSeed: %v", err)
	}
	if !bytes.Equal(got, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("got %x", got)
	}
}

func TestNormalizeSeedInvalidHex(t *testing.T) {
	if _, err := NormalizeSeed(FormatHex, "not-hex"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
}

func TestGenerateSeedLengthAndDecodability(t *testing.T) {
	encoded, err := GenerateSeed(20)
	if err != nil {
		t.Fatalf("GenerateSeed: %v", err)
	}
	if len(encoded) != 32 {
		t.Fatalf("expected 32-char base32 string, got %d chars: %s", len(encoded), encoded)
	}
	raw, err := NormalizeSeed(FormatBase32, encoded)
	if err != nil {
		t.Fatalf("NormalizeSeed: %v", err)
	}
	if len(raw) != 20 {
		t.Fatalf("expected 20 decoded bytes, got %d", len(raw))
	}
}

func TestGenerateSeedRejectsInvalidLength(t *testing.T) {
	if _, err := GenerateSeed(0); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := GenerateSeed(65); err == nil {
		t.Fatal("expected error for over-max length")
	}
}
