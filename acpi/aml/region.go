package aml

// regionAccessWidth maps a field's declared AccessType to the byte width of
// a single host-facing access (spec.md 4.5.1 "Access width"). AccessAny and
// AccessBuffer both fall back to byte granularity, the narrowest width that
// is always legal regardless of the region's natural alignment.
func regionAccessWidth(a AccessType) uint8 {
	switch a {
	case AccessWord:
		return 2
	case AccessDWord:
		return 4
	case AccessQWord:
		return 8
	}
	return 1
}

func leBytes(v uint64, width uint8) []byte {
	out := make([]byte, width)
	for i := uint8(0); i < width; i++ {
		out[i] = byte(v >> (8 * i))
	}
	return out
}

func leValue(b []byte, width uint8) uint64 {
	var v uint64
	for i := uint8(0); i < width && int(i) < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// decodePCIRegionAddr splits an OperationRegion's PCI_Config address into
// the device/function pair ACPI packs into it (device in bits 16-31,
// function in bits 0-15); segment/bus come from the owning device's _SEG
// and _BBN and are expected to already be folded into the Host
// implementation's own addressing, per the Host.PCIConfigRead contract
// (spec.md 4.5.1).
func decodePCIRegionAddr(packed uint64) (seg, bus, dev, fn uint16) {
	dev = uint16((packed >> 16) & 0xffff)
	fn = uint16(packed & 0xffff)
	return 0, 0, dev, fn
}

// readRegionChunk reads one access-width-sized chunk at byteOffset from a
// region's backing address space (spec.md 4.5.1). byteOffset is relative to
// the region's own base (region.offset), not an absolute host address.
func (s *State) readRegionChunk(region *regionPayload, byteOffset uint64, width uint8, attrib AccessAttrib) ([]byte, *Error) {
	switch region.space {
	case SpaceSystemIO:
		v, ok := s.host.PortRead(uint16(region.offset+byteOffset), width)
		if !ok {
			return nil, errHostFailure
		}
		return leBytes(v, width), nil
	case SpaceSystemMemory:
		if !region.isMapped {
			h, ok := s.host.MemoryMap(region.offset, region.length)
			if !ok {
				return nil, errHostFailure
			}
			region.mapped = h
			region.isMapped = true
		}
		v, ok := s.host.MemoryRead(region.mapped, byteOffset, width)
		if !ok {
			return nil, errHostFailure
		}
		return leBytes(v, width), nil
	case SpacePCIConfig:
		seg, bus, dev, fn := decodePCIRegionAddr(region.offset)
		v, ok := s.host.PCIConfigRead(seg, bus, dev, fn, uint32(byteOffset), width)
		if !ok {
			return nil, errHostFailure
		}
		return leBytes(v, width), nil
	}
	buf := make([]byte, width)
	n, ok := s.host.GenericRegionRead(region.space, region.offset+byteOffset, attrib, nil, buf)
	if !ok {
		return nil, errHostFailure
	}
	return buf[:n], nil
}

func (s *State) writeRegionChunk(region *regionPayload, byteOffset uint64, width uint8, data []byte, attrib AccessAttrib) *Error {
	v := leValue(data, width)
	switch region.space {
	case SpaceSystemIO:
		if !s.host.PortWrite(uint16(region.offset+byteOffset), width, v) {
			return errHostFailure
		}
		return nil
	case SpaceSystemMemory:
		if !region.isMapped {
			h, ok := s.host.MemoryMap(region.offset, region.length)
			if !ok {
				return errHostFailure
			}
			region.mapped = h
			region.isMapped = true
		}
		if !s.host.MemoryWrite(region.mapped, byteOffset, width, v) {
			return errHostFailure
		}
		return nil
	case SpacePCIConfig:
		seg, bus, dev, fn := decodePCIRegionAddr(region.offset)
		if !s.host.PCIConfigWrite(seg, bus, dev, fn, uint32(byteOffset), width, v) {
			return errHostFailure
		}
		return nil
	}
	if _, ok := s.host.GenericRegionWrite(region.space, region.offset+byteOffset, attrib, data); !ok {
		return errHostFailure
	}
	return nil
}

// readRegionPacket implements the BufferAcc whole-packet read path
// (spec.md 4.5.1/4.5.6): the handler receives a single buffer sized for the
// full transaction (status byte + length byte + payload) in one call,
// bypassing the chunked access-width loop plain fields use.
func (s *State) readRegionPacket(region *regionPayload, byteOffset, payloadBytes uint64, attrib AccessAttrib) ([]byte, *Error) {
	buf := make([]byte, 2+payloadBytes)
	n, ok := s.host.GenericRegionRead(region.space, region.offset+byteOffset, attrib, nil, buf)
	if !ok {
		return nil, errHostFailure
	}
	if uint64(n) < uint64(len(buf)) {
		return buf[:n], nil
	}
	return buf, nil
}

// writeRegionPacket implements the BufferAcc whole-packet write path
// (spec.md 4.5.1/4.5.6), sending the length-prefixed payload in one
// GenericRegionWrite call instead of looping over access-width chunks.
func (s *State) writeRegionPacket(region *regionPayload, byteOffset uint64, attrib AccessAttrib, payload []byte) *Error {
	packet := make([]byte, 2+len(payload))
	packet[1] = byte(len(payload))
	copy(packet[2:], payload)
	if _, ok := s.host.GenericRegionWrite(region.space, region.offset+byteOffset, attrib, packet); !ok {
		return errHostFailure
	}
	return nil
}

// readFieldBits reads bitLen bits starting at bitOffset from region,
// chunked at the field's access width and bit-extracted via CopyBits
// (spec.md 4.5.2).
func (s *State) readFieldBits(region *Object, bitOffset, bitLen uint64, access AccessType, attrib AccessAttrib) ([]byte, *Error) {
	rp := region.payload.(*regionPayload)
	width := regionAccessWidth(access)
	widthBits := uint64(width) * 8
	chunkStart := (bitOffset / widthBits) * widthBits
	chunkEnd := ((bitOffset + bitLen + widthBits - 1) / widthBits) * widthBits

	raw := make([]byte, (chunkEnd-chunkStart)/8)
	for off := chunkStart; off < chunkEnd; off += widthBits {
		chunk, err := s.readRegionChunk(rp, off/8, width, attrib)
		if err != nil {
			return nil, err
		}
		copy(raw[(off-chunkStart)/8:], chunk)
	}

	out := make([]byte, (bitLen+7)/8)
	CopyBits(out, 0, raw, bitOffset-chunkStart, bitLen)
	return out, nil
}

// writeFieldBits writes bitLen bits of data at bitOffset into region,
// applying update to the untouched bits of any chunk the write only
// partially covers (spec.md 4.5.2).
func (s *State) writeFieldBits(region *Object, bitOffset, bitLen uint64, access AccessType, update UpdateRule, attrib AccessAttrib, data []byte) *Error {
	rp := region.payload.(*regionPayload)
	width := regionAccessWidth(access)
	widthBits := uint64(width) * 8
	chunkStart := (bitOffset / widthBits) * widthBits
	chunkEnd := ((bitOffset + bitLen + widthBits - 1) / widthBits) * widthBits
	nChunkBytes := int((chunkEnd - chunkStart) / 8)

	raw := make([]byte, nChunkBytes)
	switch update {
	case UpdateWriteAsOnes:
		for i := range raw {
			raw[i] = 0xff
		}
	case UpdateWriteAsZeros:
		// raw is already zero-filled.
	default:
		existing, err := s.readFieldBits(region, chunkStart, chunkEnd-chunkStart, access, attrib)
		if err != nil {
			return err
		}
		copy(raw, existing)
	}

	CopyBits(raw, bitOffset-chunkStart, data, 0, bitLen)

	for off := chunkStart; off < chunkEnd; off += widthBits {
		start := (off - chunkStart) / 8
		if err := s.writeRegionChunk(rp, off/8, width, raw[start:start+uint64(width)], attrib); err != nil {
			return err
		}
	}
	return nil
}
