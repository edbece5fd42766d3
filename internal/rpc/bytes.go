package rpc

import (
	"encoding/json"
	"fmt"
)

// ByteSlice marshals as a plain JSON array of numbers (spec.md §6's
// `uint8[]`), not encoding/json's default base64-string treatment of
// []byte — the wire format here is an explicit numeric array, matching
// how the browser side constructs a Uint8Array.
type ByteSlice []byte

func (b ByteSlice) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

func (b *ByteSlice) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("rpc: decode uint8[]: %w", err)
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 0xFF {
			return fmt.Errorf("rpc: uint8[] value %d out of byte range", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}
