package u2f

import "github.com/fthsdk/skagent/internal/agenterr"

const uncompressedPointMarker = 0x04
const pubKeyLen = 65
const minRegistrationLen = 1 + pubKeyLen + 1 + 1 // reserved + pubkey + keyHandleLen + at least the cert

// RegistrationResponse is the decoded body of a successful
// U2F_REGISTER response (FIDO U2F raw message format: reserved byte,
// 65-byte uncompressed public key, key handle, attestation
// certificate, signature — grounded on the teleport snippet's
// parseU2FRegistrationResponse comments).
type RegistrationResponse struct {
	PublicKey       []byte // uncompressed SEC1 point, 65 bytes
	KeyHandle       []byte
	AttestationCert []byte
	Signature       []byte
}

func parseRegistrationResponse(resp []byte) (*RegistrationResponse, error) {
	if len(resp) < minRegistrationLen {
		return nil, agenterr.New(agenterr.CodeFormatError, "U2F registration response too short (%d bytes)", len(resp))
	}
	buf := resp
	if buf[0] != 0x05 {
		return nil, agenterr.New(agenterr.CodeFormatError, "invalid U2F registration reserved byte 0x%02X", buf[0])
	}
	buf = buf[1:]

	pubKey := buf[:pubKeyLen]
	if pubKey[0] != uncompressedPointMarker {
		return nil, agenterr.New(agenterr.CodeFormatError, "U2F public key not in uncompressed point form")
	}
	buf = buf[pubKeyLen:]

	khLen := int(buf[0])
	buf = buf[1:]
	if len(buf) < khLen {
		return nil, agenterr.New(agenterr.CodeFormatError, "U2F key handle length exceeds response")
	}
	keyHandle := buf[:khLen]
	buf = buf[khLen:]

	// The attestation certificate is a DER X.509 structure of unknown
	// length followed immediately by the ECDSA signature; X.509's
	// own length prefix (inside the SEQUENCE header) is used to find
	// the split, same as a minimal DER reader would for any nested
	// SEQUENCE.
	certLen, err := derSequenceLen(buf)
	if err != nil {
		return nil, err
	}
	if len(buf) < certLen {
		return nil, agenterr.New(agenterr.CodeFormatError, "U2F attestation certificate length exceeds response")
	}
	cert := buf[:certLen]
	sig := buf[certLen:]

	return &RegistrationResponse{
		PublicKey:       append([]byte{}, pubKey...),
		KeyHandle:       append([]byte{}, keyHandle...),
		AttestationCert: append([]byte{}, cert...),
		Signature:       append([]byte{}, sig...),
	}, nil
}

// derSequenceLen returns the total encoded length (header + content) of
// the DER SEQUENCE starting at buf[0], per the standard BER/DER length
// encoding (short form for lengths < 128, long form otherwise).
func derSequenceLen(buf []byte) (int, error) {
	if len(buf) < 2 || buf[0] != 0x30 {
		return 0, agenterr.New(agenterr.CodeFormatError, "attestation certificate does not start with a DER SEQUENCE tag")
	}
	lenByte := buf[1]
	if lenByte&0x80 == 0 {
		return 2 + int(lenByte), nil
	}
	numLenBytes := int(lenByte & 0x7F)
	if numLenBytes == 0 || numLenBytes > 4 || len(buf) < 2+numLenBytes {
		return 0, agenterr.New(agenterr.CodeFormatError, "invalid DER SEQUENCE length encoding")
	}
	length := 0
	for i := 0; i < numLenBytes; i++ {
		length = length<<8 | int(buf[2+i])
	}
	return 2 + numLenBytes + length, nil
}
