package piv

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

func TestDescribeCertificatePopulatesFieldsFromValidDER(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(42),
		Subject:      pkix.Name{CommonName: "test-slot"},
		NotBefore:    time.Unix(0, 0).UTC(),
		NotAfter:     time.Unix(0, 0).UTC().AddDate(10, 0, 0),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}

	rec := &SlotRecord{RawCert: der}
	describeCertificate(rec)
	if rec.Subject == "" || rec.Serial != "42" {
		t.Fatalf("got subject=%q serial=%q", rec.Subject, rec.Serial)
	}
}

func TestDescribeCertificateLeavesFieldsEmptyOnGarbage(t *testing.T) {
	rec := &SlotRecord{RawCert: []byte{0x01, 0x02, 0x03}}
	describeCertificate(rec)
	if rec.Subject != "" {
		t.Fatalf("expected empty subject for unparseable cert, got %q", rec.Subject)
	}
}
