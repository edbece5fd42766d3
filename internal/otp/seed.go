package otp

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/fthsdk/skagent/internal/agenterr"
)

// SeedFormat names one of the accepted input encodings for a seed
// (spec.md §4.9).
type SeedFormat string

const (
	FormatBase32 SeedFormat = "base32"
	FormatHex    SeedFormat = "hex"
	FormatBase64 SeedFormat = "base64"
	FormatText   SeedFormat = "text"
	FormatCSV    SeedFormat = "csv"
)

var base32Enc = base32.StdEncoding.WithPadding(base32.NoPadding)

// NormalizeSeed decodes a seed given in any of the accepted formats
// into its raw bytes (spec.md §8 property 8: decode then re-encode in
// Base32 must produce the canonical Base32 form).
func NormalizeSeed(format SeedFormat, value string) ([]byte, error) {
	switch format {
	case FormatBase32:
		raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(strings.TrimRight(value, "=")))
		if err != nil {
			return nil, &formatError{reason: "invalid base32 seed"}
		}
		return raw, nil
	case FormatHex:
		raw, err := hex.DecodeString(strings.TrimSpace(value))
		if err != nil {
			return nil, &formatError{reason: "invalid hex seed"}
		}
		return raw, nil
	case FormatBase64:
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			raw, err = base64.RawStdEncoding.DecodeString(value)
			if err != nil {
				return nil, &formatError{reason: "invalid base64 seed"}
			}
		}
		return raw, nil
	case FormatText:
		return []byte(value), nil
	case FormatCSV:
		return decodeCSV(value)
	default:
		return nil, &formatError{reason: "unrecognized seed format"}
	}
}

// decodeCSV treats the first column of a comma-separated row as a
// Base32-encoded seed (spec.md §4.9); any remaining columns are other
// tools' bookkeeping fields (slot number, OATH type, and so on) and are
// ignored here.
func decodeCSV(value string) ([]byte, error) {
	first := value
	if i := strings.IndexByte(value, ','); i >= 0 {
		first = value[:i]
	}
	first = strings.TrimSpace(first)
	if first == "" {
		return nil, &formatError{reason: "empty CSV seed"}
	}
	raw, err := base32Enc.DecodeString(strings.ToUpper(strings.TrimRight(first, "=")))
	if err != nil {
		return nil, &formatError{reason: "invalid CSV seed column"}
	}
	return raw, nil
}

// CanonicalBase32 re-encodes raw seed bytes into the canonical
// unpadded, upper-case Base32 form used throughout the agent's wire
// protocol.
func CanonicalBase32(raw []byte) string {
	return base32Enc.EncodeToString(raw)
}

// GenerateSeed produces a cryptographically random seed of the
// requested byte length and returns its canonical Base32 encoding
// (spec.md §6 otpGenerateSeed, §8 scenario S6).
func GenerateSeed(length int) (string, error) {
	if length <= 0 || length > 64 {
		return "", &formatError{reason: "seed length out of range"}
	}
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", agenterr.Wrap(agenterr.CodeIOError, err, "failed to read random bytes")
	}
	return CanonicalBase32(raw), nil
}
