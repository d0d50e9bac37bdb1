package main

import (
	"fmt"
	"io"

	"github.com/dro/amli-go/acpi/aml"
)

// stubHost is a minimal aml.Host that logs every callback instead of
// touching real hardware, for exercising the interpreter standalone.
// Grounded on the Host contract in acpi/aml/host.go; region/memory reads
// always report failure rather than fabricating data, so a definition
// block that genuinely needs working I/O fails loudly instead of silently
// returning zeroes.
type stubHost struct {
	w       io.Writer
	nextMap aml.HostHandle
}

func newStubHost(w io.Writer) *stubHost {
	return &stubHost{w: w, nextMap: 1}
}

func (h *stubHost) logf(format string, args ...interface{}) {
	if h.w == nil {
		return
	}
	fmt.Fprintf(h.w, "[host] "+format+"\n", args...)
}

func (h *stubHost) PortRead(port uint16, width uint8) (uint64, bool) {
	h.logf("PortRead port=0x%x width=%d (unsupported)", port, width)
	return 0, false
}

func (h *stubHost) PortWrite(port uint16, width uint8, value uint64) bool {
	h.logf("PortWrite port=0x%x width=%d value=0x%x (unsupported)", port, width, value)
	return false
}

func (h *stubHost) MemoryMap(phys uint64, length uint64) (aml.HostHandle, bool) {
	h.logf("MemoryMap phys=0x%x length=%d (unsupported)", phys, length)
	return 0, false
}

func (h *stubHost) MemoryUnmap(handle aml.HostHandle, length uint64) {
	h.logf("MemoryUnmap handle=%d length=%d", handle, length)
}

func (h *stubHost) MemoryRead(handle aml.HostHandle, offset uint64, width uint8) (uint64, bool) {
	h.logf("MemoryRead handle=%d offset=0x%x width=%d (unsupported)", handle, offset, width)
	return 0, false
}

func (h *stubHost) MemoryWrite(handle aml.HostHandle, offset uint64, width uint8, value uint64) bool {
	h.logf("MemoryWrite handle=%d offset=0x%x width=%d value=0x%x (unsupported)", handle, offset, width, value)
	return false
}

func (h *stubHost) PCIConfigRead(segment, bus, device, function uint16, offset uint32, width uint8) (uint64, bool) {
	h.logf("PCIConfigRead %04x:%02x:%02x.%x off=0x%x width=%d (unsupported)", segment, bus, device, function, offset, width)
	return 0, false
}

func (h *stubHost) PCIConfigWrite(segment, bus, device, function uint16, offset uint32, width uint8, value uint64) bool {
	h.logf("PCIConfigWrite %04x:%02x:%02x.%x off=0x%x width=%d value=0x%x (unsupported)", segment, bus, device, function, offset, width, value)
	return false
}

func (h *stubHost) GenericRegionRead(space aml.RegionSpace, offset uint64, accessAttrib aml.AccessAttrib, in []byte, out []byte) (int, bool) {
	h.logf("GenericRegionRead space=%d offset=0x%x (unsupported)", space, offset)
	return 0, false
}

func (h *stubHost) GenericRegionWrite(space aml.RegionSpace, offset uint64, accessAttrib aml.AccessAttrib, in []byte) (int, bool) {
	h.logf("GenericRegionWrite space=%d offset=0x%x (unsupported)", space, offset)
	return 0, false
}

func (h *stubHost) MutexCreate(syncLevel uint8) aml.HostHandle {
	handle := h.nextMap
	h.nextMap++
	h.logf("MutexCreate syncLevel=%d -> handle=%d", syncLevel, handle)
	return handle
}

func (h *stubHost) MutexDestroy(handle aml.HostHandle) {
	h.logf("MutexDestroy handle=%d", handle)
}

func (h *stubHost) MutexAcquire(handle aml.HostHandle, timeoutMs uint16) bool {
	h.logf("MutexAcquire handle=%d timeoutMs=%d", handle, timeoutMs)
	return false
}

func (h *stubHost) MutexRelease(handle aml.HostHandle) {
	h.logf("MutexRelease handle=%d", handle)
}

func (h *stubHost) EventCreate() aml.HostHandle {
	handle := h.nextMap
	h.nextMap++
	return handle
}

func (h *stubHost) EventDestroy(handle aml.HostHandle) {
	h.logf("EventDestroy handle=%d", handle)
}

func (h *stubHost) EventSignal(handle aml.HostHandle) {
	h.logf("EventSignal handle=%d", handle)
}

func (h *stubHost) EventReset(handle aml.HostHandle) {
	h.logf("EventReset handle=%d", handle)
}

func (h *stubHost) EventWait(handle aml.HostHandle, timeoutMs uint16) bool {
	h.logf("EventWait handle=%d timeoutMs=%d", handle, timeoutMs)
	return false
}

func (h *stubHost) MonotonicTimer100ns() uint64 {
	return 0
}

func (h *stubHost) Sleep(ms uint64) {
	h.logf("Sleep %dms", ms)
}

func (h *stubHost) Stall(us uint64) {
	h.logf("Stall %dus", us)
}

func (h *stubHost) Notify(absPath string, code uint64) {
	h.logf("Notify %s code=0x%x", absPath, code)
}

func (h *stubHost) OnDeviceInitialized(absPath string, sta uint32) {
	h.logf("device %s _STA=0x%x", absPath, sta)
}

func (h *stubHost) SearchACPITable(signature, oemID, oemTableID string) ([]byte, bool) {
	h.logf("SearchACPITable sig=%s oemID=%s oemTableID=%s (not found)", signature, oemID, oemTableID)
	return nil, false
}
