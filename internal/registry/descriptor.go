// Package registry implements the device registry (spec.md §4.2): device
// enumeration, the process-lifetime single open-handle invariant, and
// shutdown cleanup. Grounded on pkg/ntag424/pcsc.go's Connect/Close
// lifecycle, generalized to cover both HID and PC/SC transports and to
// hold the "at most one open handle" invariant in the type itself
// (spec.md §9, "Global connection manager" redesign flag) rather than by
// caller convention.
package registry

// TransportKind distinguishes the two physical transports (spec.md §3).
type TransportKind string

const (
	Hid  TransportKind = "Hid"
	Ccid TransportKind = "Ccid"
)

// Descriptor is the stable, process-lifetime identity of one enumerated
// device (spec.md §3 "Device descriptor"). It is produced fresh on every
// ListDevices call and never retained by the registry.
type Descriptor struct {
	ID           string        `json:"id"`
	Transport    TransportKind `json:"device_type"`
	VendorID     uint16        `json:"vendor_id"`
	ProductID    uint16        `json:"product_id"`
	Manufacturer string        `json:"manufacturer,omitempty"`
	Product      string        `json:"product,omitempty"`
	Serial       string        `json:"serial,omitempty"`

	// path is the opaque platform handle used internally to (re)open the
	// device; it is not re-derived from the descriptor by callers.
	path string
}
