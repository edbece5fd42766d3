package piv

import "crypto/x509"

// describeCertificate populates rec's subject/issuer/serial/validity
// fields from its raw DER certificate, if parseable. A certificate that
// fails to parse just leaves those fields empty; RawCert/Present still
// reflect what the card returned (spec.md §3: "optional raw certificate
// bytes and parsed subject/issuer/serial/validity").
//
// crypto/x509 is used directly rather than ported from the corpus: no
// retrieved example carries a third-party X.509 reader, and the
// standard library's parser is what every corpus repo that touches
// certificates (including the teleport snippets) reaches for (see
// DESIGN.md).
func describeCertificate(rec *SlotRecord) {
	if len(rec.RawCert) == 0 {
		return
	}
	cert, err := x509.ParseCertificate(rec.RawCert)
	if err != nil {
		return
	}
	rec.Subject = cert.Subject.String()
	rec.Issuer = cert.Issuer.String()
	rec.Serial = cert.SerialNumber.String()
	rec.NotBefore = cert.NotBefore.Format("2006-01-02T15:04:05Z07:00")
	rec.NotAfter = cert.NotAfter.Format("2006-01-02T15:04:05Z07:00")
}
