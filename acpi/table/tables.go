// Package table describes the wire layout of the ACPI system description
// tables that a host hands to the AML interpreter. The struct shapes are
// carried over from the ACPI specification itself (they are not
// implementation texture); ParseHeader reads one off a byte blob using
// encoding/binary instead of overlaying memory with unsafe, since this
// interpreter is hosted rather than freestanding.
package table

import (
	"encoding/binary"
)

// HeaderLength is the size in bytes of the common SDT header that prefixes
// every ACPI table, including DSDT/SSDT definition blocks.
const HeaderLength = 36

// Resolver is implemented by hosts that can look up an ACPI table by its
// four-character signature (e.g. "DSDT", "SSDT", "FACP").
type Resolver interface {
	LookupTable(signature string) []byte
}

// SDTHeader defines the common header for all ACPI-related tables.
type SDTHeader struct {
	Signature [4]byte
	Length    uint32

	// Revision selects the interpreter's integer width when this header
	// belongs to a DSDT/SSDT: 32-bit for Revision < 2, 64-bit otherwise.
	Revision uint8
	Checksum uint8

	OEMID       [6]byte
	OEMTableID  [8]byte
	OEMRevision uint32

	CreatorID       uint32
	CreatorRevision uint32
}

// ParseHeader decodes the common SDT header from the front of blob. It
// returns false if blob is too short to contain one.
func ParseHeader(blob []byte) (SDTHeader, bool) {
	var h SDTHeader
	if len(blob) < HeaderLength {
		return h, false
	}
	copy(h.Signature[:], blob[0:4])
	h.Length = binary.LittleEndian.Uint32(blob[4:8])
	h.Revision = blob[8]
	h.Checksum = blob[9]
	copy(h.OEMID[:], blob[10:16])
	copy(h.OEMTableID[:], blob[16:24])
	h.OEMRevision = binary.LittleEndian.Uint32(blob[24:28])
	h.CreatorID = binary.LittleEndian.Uint32(blob[28:32])
	h.CreatorRevision = binary.LittleEndian.Uint32(blob[32:36])
	return h, true
}

// Checksum returns true if the byte-sum of blob (truncated to Length, or the
// full slice if Length is out of range) is zero mod 256, as required by the
// ACPI spec for every system description table.
func Checksum(blob []byte) bool {
	n := len(blob)
	if n >= 8 {
		if l := int(binary.LittleEndian.Uint32(blob[4:8])); l <= n {
			n = l
		}
	}
	var sum uint8
	for i := 0; i < n; i++ {
		sum += blob[i]
	}
	return sum == 0
}

// AddressSpace identifies the location where a GenericAddress's registers
// reside.
type AddressSpace uint8

// The list of supported address space types, as used by FADT-style fixed
// register blocks (distinct from, but numerically aligned with, AML
// OperationRegion space types — see aml.RegionSpace).
const (
	AddressSpaceSysMemory AddressSpace = iota
	AddressSpaceSysIO
	AddressSpacePCI
	AddressSpaceEmbController
	AddressSpaceSMBus
	AddressSpaceFuncFixedHW AddressSpace = 0x7f
)

// GenericAddress specifies a register range located in a particular address
// space.
type GenericAddress struct {
	Space      AddressSpace
	BitWidth   uint8
	BitOffset  uint8
	AccessSize uint8
	Address    uint64
}
