package registry

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/apdu"
	"github.com/fthsdk/skagent/internal/devicecfg"
	"github.com/fthsdk/skagent/internal/hidio"
)

// Handle is an opened device: a live HID device or PC/SC connection plus
// the descriptor it was opened from.
type Handle struct {
	Descriptor Descriptor

	hidDev *hidio.Device
	conn   *apdu.Connection
}

// HID returns the underlying HID device, or nil if this handle is a
// PC/SC connection.
func (h *Handle) HID() *hidio.Device { return h.hidDev }

// Card returns the underlying APDU connection, or nil if this handle is
// a HID device.
func (h *Handle) Card() *apdu.Connection { return h.conn }

// Registry enumerates devices across both transports and enforces the
// single open-handle invariant (spec.md §4.2, §8 property 1): at most
// one device may be open at a time for the life of the process. This
// mirrors pkg/ntag424/pcsc.go's one-card-at-a-time Connect/Close
// lifecycle, generalized across HID and PC/SC and made explicit in the
// type rather than left to the caller.
type Registry struct {
	pcsc *apdu.Context

	mu   sync.Mutex
	open *Handle
}

// New builds a registry over an already-established PC/SC context. The
// HID subsystem requires no persistent context handle (karalabe/hid
// opens/enumerates directly), so only pcsc is held here.
func New(pcsc *apdu.Context) *Registry {
	return &Registry{pcsc: pcsc}
}

// ListDevices enumerates every HID device with devicecfg.VendorID
// (products missing from the manifest included) plus every PC/SC
// reader, whether or not a card is present. Ids are positions in the
// sorted enumeration (HID by path hash, readers by name), so they stay
// the same across calls while the set of attached devices is unchanged
// (spec.md §8 property 2).
func (r *Registry) ListDevices() ([]Descriptor, error) {
	var hidOut []Descriptor
	hidInfos, err := hidio.Enumerate(devicecfg.VendorID)
	if err != nil {
		return nil, fmt.Errorf("registry: enumerate hid: %w", err)
	}
	for _, info := range hidInfos {
		hidOut = append(hidOut, Descriptor{
			Transport:    Hid,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Manufacturer: info.Manufacturer,
			Product:      firstNonEmpty(info.Product, devicecfg.NameFor(info.ProductID)),
			Serial:       info.Serial,
			path:         info.Path,
		})
	}
	sort.Slice(hidOut, func(i, j int) bool { return pathHash(hidOut[i].path) < pathHash(hidOut[j].path) })
	for i := range hidOut {
		hidOut[i].ID = fmt.Sprintf("hid_%d", i+1)
	}

	var ccidOut []Descriptor
	readers, err := r.pcsc.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("registry: list readers: %w", err)
	}
	for _, rd := range readers {
		ccidOut = append(ccidOut, Descriptor{
			Transport: Ccid,
			Product:   rd.Name,
			path:      rd.Name,
		})
	}
	sort.Slice(ccidOut, func(i, j int) bool { return ccidOut[i].path < ccidOut[j].path })
	for i := range ccidOut {
		ccidOut[i].ID = fmt.Sprintf("ccid_%d", i+1)
	}

	return append(hidOut, ccidOut...), nil
}

// OpenDevice opens the device named by id, enforcing the single
// open-handle invariant: a second OpenDevice while a different handle is
// open fails with CodeBusy (spec.md §8 property 1). Re-opening the id
// that is already open is idempotent and returns the existing handle
// (spec.md §4.2) rather than failing busy against itself.
func (r *Registry) OpenDevice(id string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.open != nil {
		if r.open.Descriptor.ID == id {
			return r.open, nil
		}
		return nil, &busyError{}
	}

	descs, err := r.ListDevices()
	if err != nil {
		return nil, err
	}
	var found *Descriptor
	for i := range descs {
		if descs[i].ID == id {
			found = &descs[i]
			break
		}
	}
	if found == nil {
		return nil, &notFoundError{id: id}
	}

	handle := &Handle{Descriptor: *found}
	switch found.Transport {
	case Hid:
		infos, err := hidio.Enumerate(devicecfg.VendorID)
		if err != nil {
			return nil, fmt.Errorf("registry: re-enumerate hid: %w", err)
		}
		var target *hidio.Info
		for i := range infos {
			if infos[i].Path == found.path {
				target = &infos[i]
				break
			}
		}
		if target == nil {
			return nil, &notFoundError{id: id}
		}
		dev, err := hidio.Open(*target)
		if err != nil {
			return nil, err
		}
		handle.hidDev = dev
	case Ccid:
		conn, err := r.pcsc.Connect(found.path)
		if err != nil {
			return nil, err
		}
		handle.conn = conn
	default:
		return nil, fmt.Errorf("registry: unknown transport %q", found.Transport)
	}

	r.open = handle
	return handle, nil
}

// Current returns the currently open handle, or a notOpenError if
// nothing is open (spec.md §7 "NOT_OPEN").
func (r *Registry) Current() (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open == nil {
		return nil, &notOpenError{}
	}
	return r.open, nil
}

// CloseDevice closes the currently open handle. Closing when nothing is
// open reports NOT_OPEN without altering state (spec.md §8 property 3:
// "closeDevice(id) on a closed id returns NOT_OPEN and does not alter
// state").
func (r *Registry) CloseDevice() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.open == nil {
		return &notOpenError{}
	}
	var err error
	if r.open.hidDev != nil {
		err = r.open.hidDev.Close()
	} else if r.open.conn != nil {
		err = r.open.conn.Close()
	}
	r.open = nil
	return err
}

// Shutdown closes any open handle and releases the PC/SC context
// (spec.md §5 shutdown sequence).
func (r *Registry) Shutdown() error {
	closeErr := r.CloseDevice()
	if _, ok := closeErr.(*notOpenError); ok {
		closeErr = nil
	}
	relErr := r.pcsc.Release()
	if closeErr != nil {
		return closeErr
	}
	return relErr
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// pathHash gives a deterministic sort key for a device's opaque platform
// path, so repeated ListDevices calls within one process agree on
// enumeration order (and therefore on the hid_N/ccid_N ids assigned from
// it) without retaining any enumeration state between calls.
func pathHash(path string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	return h.Sum64()
}

type busyError struct{}

func (busyError) Error() string          { return "registry: a device is already open" }
func (busyError) RPCCode() agenterr.Code { return agenterr.CodeBusy }
func (busyError) RPCMessage() string {
	return "another device is already open; close it before opening a new one"
}

type notFoundError struct{ id string }

func (e *notFoundError) Error() string          { return fmt.Sprintf("registry: no such device %q", e.id) }
func (e *notFoundError) RPCCode() agenterr.Code { return agenterr.CodeNotFound }
func (e *notFoundError) RPCMessage() string     { return fmt.Sprintf("no device with id %q", e.id) }

type notOpenError struct{}

func (notOpenError) Error() string          { return "registry: no device is open" }
func (notOpenError) RPCCode() agenterr.Code { return agenterr.CodeNotOpen }
func (notOpenError) RPCMessage() string     { return "no device is currently open" }
