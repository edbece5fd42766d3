package apdu

import "fmt"

// Transmit sends an APDU and splits the response into its data body and
// two-byte status word, exactly as pkg/ntag424/card.go's Transmit does.
// This is the raw operation behind the transmitApdu command (spec.md
// §4.4): it never interprets 61XX/6CXX itself.
func Transmit(card Card, apduBytes []byte) (data []byte, sw uint16, err error) {
	resp, err := card.Transmit(apduBytes)
	if err != nil {
		return nil, 0, err
	}
	if len(resp) < 2 {
		return nil, 0, fmt.Errorf("apdu: short response (%d bytes)", len(resp))
	}
	sw = uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1])
	return resp[:len(resp)-2], sw, nil
}

// SWOK reports whether sw is the ISO 7816 success word.
func SWOK(sw uint16) bool {
	return sw == SWSuccess
}

// TransmitChained sends one command APDU and transparently follows the
// 61XX/6CXX status-word families (spec.md §4.4):
//   - 61XX: issue GET RESPONSE with Le=XX and append the data.
//   - 6CXX: retransmit the same command with the corrected Le.
// It returns once a status word outside those two families is seen.
func TransmitChained(card Card, cla, ins, p1, p2 byte, data []byte, le byte) ([]byte, uint16, error) {
	apduBytes := buildAPDU(cla, ins, p1, p2, data, le)
	full := make([]byte, 0, 64)

	for {
		body, sw, err := Transmit(card, apduBytes)
		if err != nil {
			return nil, 0, err
		}
		full = append(full, body...)

		switch {
		case sw&0xFF00 == SWMoreDataMask:
			getResp := buildAPDU(0x00, InsGetResponse, 0x00, 0x00, nil, byte(sw&0x00FF))
			apduBytes = getResp
			continue
		case sw&0xFF00 == SWWrongLeMask:
			correctLe := byte(sw & 0x00FF)
			apduBytes = buildAPDU(cla, ins, p1, p2, data, correctLe)
			full = full[:0]
			continue
		default:
			return full, sw, nil
		}
	}
}

func buildAPDU(cla, ins, p1, p2 byte, data []byte, le byte) []byte {
	apduBytes := make([]byte, 0, 6+len(data))
	apduBytes = append(apduBytes, cla, ins, p1, p2)
	if len(data) > 0 {
		apduBytes = append(apduBytes, byte(len(data)))
		apduBytes = append(apduBytes, data...)
	}
	apduBytes = append(apduBytes, le)
	return apduBytes
}
