// Package hidio implements the HID transport (spec.md §4.3): 64-byte
// report read/write with timeouts over github.com/karalabe/hid, plus the
// CTAPHID packet-framing layer used by CTAP2, CTAP1/U2F, and the vendor
// OTP commands.
//
// Grounded on the teacher's explicit-timeout, single-attempt-read
// discipline (pkg/ntag424/pcsc.go) generalized from PC/SC to HID, and on
// the channel/packet layout described in the CTAPHID authenticator-side
// implementation at other_examples/*virtual_fido-ctap_hid.go, adapted
// here to the platform (client) side.
package hidio

import (
	"fmt"
	"time"

	"github.com/karalabe/hid"
)

// ReportSize is the fixed HID report length CTAPHID devices use.
const ReportSize = 64

// DefaultReadTimeout is the default single-report read timeout (spec.md §4.3).
const DefaultReadTimeout = 5 * time.Second

// Info mirrors the subset of hid.DeviceInfo the registry needs to build a
// device descriptor, decoupling callers from the karalabe/hid type.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Manufacturer string
	Product      string
	raw          hid.DeviceInfo
}

// Enumerate lists HID devices for the given vendor id (0 means any).
func Enumerate(vendorID uint16) ([]Info, error) {
	infos, err := hid.Enumerate(vendorID, 0)
	if err != nil {
		return nil, fmt.Errorf("hidio: enumerate: %w", err)
	}
	out := make([]Info, 0, len(infos))
	for _, i := range infos {
		out = append(out, Info{
			Path:         i.Path,
			VendorID:     i.VendorID,
			ProductID:    i.ProductID,
			Serial:       i.Serial,
			Manufacturer: i.Manufacturer,
			Product:      i.Product,
			raw:          i,
		})
	}
	return out, nil
}

// Device is an opened HID handle bound to one physical interface.
type Device struct {
	dev  *hid.Device
	info Info
}

// Open opens the device described by info.
func Open(info Info) (*Device, error) {
	dev, err := info.raw.Open()
	if err != nil {
		return nil, fmt.Errorf("hidio: open %s: %w", info.Path, err)
	}
	return &Device{dev: dev, info: info}, nil
}

// Close releases the underlying OS handle.
func (d *Device) Close() error {
	if d == nil || d.dev == nil {
		return nil
	}
	return d.dev.Close()
}

// SendReport pads data to ReportSize with zeros and writes a single
// report (spec.md §4.3). Data longer than ReportSize is rejected.
func (d *Device) SendReport(data []byte) (int, error) {
	if len(data) > ReportSize {
		return 0, fmt.Errorf("hidio: report payload %d exceeds %d bytes", len(data), ReportSize)
	}
	report := make([]byte, ReportSize)
	copy(report, data)
	n, err := d.dev.Write(report)
	if err != nil {
		return 0, fmt.Errorf("hidio: write report: %w", err)
	}
	return n, nil
}

// ReceiveReport reads a single report or returns ErrTimeout after timeout.
// karalabe/hid's Read blocks natively with no cancellable context, so the
// call runs in a goroutine and the caller races it against a timer; on
// timeout the goroutine is abandoned (the device has at most one open
// handle, so this cannot leak unbounded work).
func (d *Device) ReceiveReport(timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	type result struct {
		buf []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, ReportSize)
		n, err := d.dev.Read(buf)
		if err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{buf: buf[:n]}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("hidio: read report: %w", r.err)
		}
		return r.buf, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}
