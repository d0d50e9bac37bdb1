package aml

// fieldAccessState threads the running AccessType/attrib/connection and bit
// cursor through a FieldList, updated by AccessField/ConnectField/
// ExtendedAccessField control entries and consumed by each NamedField
// (spec.md 4.5.2).
type fieldAccessState struct {
	access       AccessType
	accessAttrib byte
	connection   []byte
	bitOffset    uint64
}

const (
	fieldTagReserved = 0x00
	fieldTagAccess   = 0x01
	fieldTagConnect  = 0x02
	fieldTagExtAcc   = 0x03
)

// walkFieldList parses a FieldList in [d.pos, end), invoking create for
// every NamedField entry with the access state active at that point and the
// entry's own bit width, then advancing the running bit cursor past it
// (spec.md 4.5.2).
func (s *State) walkFieldList(d *decoder, end uint32, fas *fieldAccessState, create func(name string, cur fieldAccessState, bitLen uint64) *Error) *Error {
	for d.pos < end {
		tag, err := d.readByte()
		if err != nil {
			return err
		}
		switch tag {
		case fieldTagReserved:
			bits, err := d.decodeVLE()
			if err != nil {
				return err
			}
			fas.bitOffset += uint64(bits)
		case fieldTagAccess:
			at, err := d.readByte()
			if err != nil {
				return err
			}
			attrib, err := d.readByte()
			if err != nil {
				return err
			}
			fas.access = AccessType(at)
			fas.accessAttrib = attrib
		case fieldTagConnect:
			b, err := d.peekByte()
			if err != nil {
				return err
			}
			if isNameStringStart(b) {
				name, err := d.nameString()
				if err != nil {
					return err
				}
				node := s.ns.search(&s.scope, name)
				if node != nil && node.Object != nil {
					fas.connection = node.Object.Value.AsBytes()
				}
			} else {
				buf, err := s.evalBuffer(d, passFull)
				if err != nil {
					return err
				}
				fas.connection = buf.AsBytes()
			}
		case fieldTagExtAcc:
			at, err := d.readByte()
			if err != nil {
				return err
			}
			if _, err := d.readByte(); err != nil { // ExtendedAccessAttrib
				return err
			}
			alen, err := d.readByte()
			if err != nil {
				return err
			}
			fas.access = AccessType(at)
			fas.accessAttrib = alen
		default:
			d.pos--
			seg, err := d.nameSeg()
			if err != nil {
				return err
			}
			bits, err := d.decodeVLE()
			if err != nil {
				return err
			}
			if err := create(seg, *fas, uint64(bits)); err != nil {
				return err
			}
			fas.bitOffset += uint64(bits)
		}
	}
	return nil
}

// declareFieldUnit creates (or reuses, on the full pass re-visit) a field
// unit node at the current scope, sharing the create-node/rollback
// bookkeeping every other named object definition uses.
func (s *State) declareFieldUnit(segName string, objType ObjType, payload *fieldPayload) (*NamespaceNode, *Error) {
	abs, err := s.ns.resolveAbsolute(&s.scope, segName)
	if err != nil {
		return nil, err
	}
	existed := s.ns.lookupAbs(abs) != nil
	n, err := s.ns.createNode(abs, 0, s.scope.current())
	if err != nil {
		return nil, err
	}
	if !existed {
		s.scope.noteCreated(abs)
		s.snap.record(func() { s.ns.deleteNode(n) })
	}
	if n.Object == nil {
		n.Object = newObject(objType)
		n.Object.Node = n
		n.Object.payload = payload
		s.snap.record(func() { n.Object.unref() })
	}
	n.IsEvaluated = true
	return n, nil
}

func decodeFieldFlags(b byte) (AccessType, LockRule, UpdateRule) {
	access := AccessType(b & 0x0f)
	lock := LockRule((b >> 4) & 0x1)
	update := UpdateRule((b >> 5) & 0x3)
	return access, lock, update
}

// evalField implements DefField (spec.md 4.5.2): a plain region-backed
// field group.
func (s *State) evalField(d *decoder, pass evalPass) *Error {
	end, err := d.pkgLength()
	if err != nil {
		return err
	}
	regionName, err := d.nameString()
	if err != nil {
		return err
	}
	flags, err := d.readByte()
	if err != nil {
		return err
	}
	access, lock, update := decodeFieldFlags(flags)

	regionNode := s.ns.search(&s.scope, regionName)
	if regionNode == nil || regionNode.Object == nil {
		d.pos = end
		return nil
	}
	region := regionNode.Object

	fas := &fieldAccessState{access: access}
	err = s.walkFieldList(d, end, fas, func(segName string, cur fieldAccessState, bitLen uint64) *Error {
		_, ferr := s.declareFieldUnit(segName, ObjField, &fieldPayload{
			region: region, bitOffset: cur.bitOffset, bitLength: bitLen,
			access: cur.access, accessAttrib: cur.accessAttrib, update: update, lock: lock,
			connection: cur.connection,
		})
		return ferr
	})
	d.pos = end
	return err
}

// evalIndexField implements DefIndexField (spec.md 4.5.2): each unit is
// read/written by first selecting a byte offset through an Index register,
// then accessing a Data register.
func (s *State) evalIndexField(d *decoder, pass evalPass) *Error {
	end, err := d.pkgLength()
	if err != nil {
		return err
	}
	idxName, err := d.nameString()
	if err != nil {
		return err
	}
	dataName, err := d.nameString()
	if err != nil {
		return err
	}
	flags, err := d.readByte()
	if err != nil {
		return err
	}
	access, lock, update := decodeFieldFlags(flags)

	idxNode := s.ns.search(&s.scope, idxName)
	dataNode := s.ns.search(&s.scope, dataName)
	if idxNode == nil || idxNode.Object == nil || dataNode == nil || dataNode.Object == nil {
		d.pos = end
		return nil
	}

	fas := &fieldAccessState{access: access}
	err = s.walkFieldList(d, end, fas, func(segName string, cur fieldAccessState, bitLen uint64) *Error {
		_, ferr := s.declareFieldUnit(segName, ObjIndexField, &fieldPayload{
			indexFieldUnit: idxNode.Object.ref(), dataFieldUnit: dataNode.Object.ref(),
			bitOffset: cur.bitOffset, bitLength: bitLen,
			access: cur.access, accessAttrib: cur.accessAttrib, update: update, lock: lock,
		})
		return ferr
	})
	d.pos = end
	return err
}

// evalBankField implements DefBankField (spec.md 4.5.2): selects a bank via
// a bank-select register before every access to the underlying region.
func (s *State) evalBankField(d *decoder, pass evalPass) *Error {
	end, err := d.pkgLength()
	if err != nil {
		return err
	}
	regionName, err := d.nameString()
	if err != nil {
		return err
	}
	bankName, err := d.nameString()
	if err != nil {
		return err
	}
	bankValue, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}
	flags, err := d.readByte()
	if err != nil {
		return err
	}
	access, lock, update := decodeFieldFlags(flags)

	regionNode := s.ns.search(&s.scope, regionName)
	bankNode := s.ns.search(&s.scope, bankName)
	if regionNode == nil || regionNode.Object == nil || bankNode == nil || bankNode.Object == nil {
		d.pos = end
		return nil
	}

	fas := &fieldAccessState{access: access}
	err = s.walkFieldList(d, end, fas, func(segName string, cur fieldAccessState, bitLen uint64) *Error {
		_, ferr := s.declareFieldUnit(segName, ObjBankField, &fieldPayload{
			region: regionNode.Object, bankFieldUnit: bankNode.Object.ref(), bankValue: bankValue,
			bitOffset: cur.bitOffset, bitLength: bitLen,
			access: cur.access, accessAttrib: cur.accessAttrib, update: update, lock: lock,
		})
		return ferr
	})
	d.pos = end
	return err
}

// evalCreateFixedField implements the five fixed-width CreateXField
// opcodes (spec.md 4.5.4): a buffer field of a width implied by the opcode
// itself rather than an explicit NumBits operand.
func (s *State) evalCreateFixedField(d *decoder, pass evalPass, op opcode) *Error {
	srcBuf, err := s.evalTerm(d, pass)
	if err != nil {
		return err
	}
	idx, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}

	var bitOffset, bitLength uint64
	switch op {
	case opCreateBitField:
		bitOffset, bitLength = idx, 1
	case opCreateByteField:
		bitOffset, bitLength = idx*8, 8
	case opCreateWordField:
		bitOffset, bitLength = idx*8, 16
	case opCreateDWordField:
		bitOffset, bitLength = idx*8, 32
	case opCreateQWordField:
		bitOffset, bitLength = idx*8, 64
	}

	if n.Object == nil {
		n.Object = newObject(ObjBufferField)
		n.Object.Node = n
		n.Object.payload = &fieldPayload{access: AccessByte, update: UpdatePreserve}
		s.snap.record(func() { n.Object.unref() })
	}
	if pass == passFull {
		fp := n.Object.payload.(*fieldPayload)
		releaseData(&fp.bufferSource)
		fp.bufferSource = dupData(srcBuf)
		fp.bitOffset = bitOffset
		fp.bitLength = bitLength
	}
	n.IsEvaluated = true
	return nil
}

// evalCreateField implements the generic CreateField opcode (spec.md
// 4.5.4): a buffer field with an explicit bit index and bit length.
func (s *State) evalCreateField(d *decoder, pass evalPass) *Error {
	srcBuf, err := s.evalTerm(d, pass)
	if err != nil {
		return err
	}
	bitIdx, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}
	numBits, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}

	if n.Object == nil {
		n.Object = newObject(ObjBufferField)
		n.Object.Node = n
		n.Object.payload = &fieldPayload{access: AccessByte, update: UpdatePreserve}
		s.snap.record(func() { n.Object.unref() })
	}
	if pass == passFull {
		fp := n.Object.payload.(*fieldPayload)
		releaseData(&fp.bufferSource)
		fp.bufferSource = dupData(srcBuf)
		fp.bitOffset = bitIdx
		fp.bitLength = numBits
	}
	n.IsEvaluated = true
	return nil
}

// readField dispatches a FieldUnit read by the field's concrete kind
// (spec.md 4.5), wrapping the whole operation in the ACPI global lock when
// the field declares LockGlobal.
func (s *State) readField(obj *Object) (Data, *Error) {
	fp := obj.payload.(*fieldPayload)

	if fp.lock == LockGlobal {
		s.host.MutexAcquire(globalLockHandle, 0xffff)
		defer s.host.MutexRelease(globalLockHandle)
	}

	var raw []byte
	var err *Error
	switch obj.Type {
	case ObjBufferField:
		raw, err = s.readBufferFieldBits(fp)
	case ObjIndexField:
		raw, err = s.readIndexFieldBits(fp)
	case ObjBankField:
		if err := s.selectBank(fp); err != nil {
			return Data{}, err
		}
		raw, err = s.readFieldUnit(fp)
	default:
		raw, err = s.readFieldUnit(fp)
	}
	if err != nil {
		return Data{}, err
	}
	return fieldResultData(raw, fp.bitLength, s.intWidth), nil
}

// readFieldUnit reads a plain/bank field-unit's region, routing BufferAcc
// fields through the whole-packet path instead of the chunked access-width
// loop (spec.md 4.5.1/4.5.6).
func (s *State) readFieldUnit(fp *fieldPayload) ([]byte, *Error) {
	rp := fp.region.payload.(*regionPayload)
	if fp.access == AccessBuffer {
		return s.readRegionPacket(rp, fp.bitOffset/8, (fp.bitLength+7)/8, AccessAttrib(fp.accessAttrib))
	}
	return s.readFieldBits(fp.region, fp.bitOffset, fp.bitLength, fp.access, AccessAttrib(fp.accessAttrib))
}

// writeFieldUnit is readFieldUnit's write-side counterpart.
func (s *State) writeFieldUnit(fp *fieldPayload, raw []byte) *Error {
	if fp.access == AccessBuffer {
		rp := fp.region.payload.(*regionPayload)
		return s.writeRegionPacket(rp, fp.bitOffset/8, AccessAttrib(fp.accessAttrib), raw)
	}
	return s.writeFieldBits(fp.region, fp.bitOffset, fp.bitLength, fp.access, fp.update, AccessAttrib(fp.accessAttrib), raw)
}

// fieldResultData implements spec.md 4.5.2's result-shape rule: a field no
// wider than the active integer width reads back as an Integer; a wider one
// reads back as a Buffer.
func fieldResultData(raw []byte, bitLen uint64, width IntegerWidth) Data {
	if bitLen <= uint64(width) {
		var v uint64
		for i, b := range raw {
			if i >= 8 {
				break
			}
			v |= uint64(b) << (8 * uint(i))
		}
		return IntData(v)
	}
	return BufferData(raw)
}

// writeField dispatches a FieldUnit write by the field's concrete kind.
func (s *State) writeField(obj *Object, v Data) *Error {
	fp := obj.payload.(*fieldPayload)

	iv, convErr := s.convToInteger(v)
	var raw []byte
	if convErr == nil {
		raw = leBytes(iv, 8)
	} else {
		bv, err := s.convToBuffer(v)
		if err != nil {
			return convErr
		}
		raw = bv.AsBytes()
	}
	need := int((fp.bitLength + 7) / 8)
	if len(raw) < need {
		padded := make([]byte, need)
		copy(padded, raw)
		raw = padded
	} else if len(raw) > need {
		raw = raw[:need]
	}

	if fp.lock == LockGlobal {
		s.host.MutexAcquire(globalLockHandle, 0xffff)
		defer s.host.MutexRelease(globalLockHandle)
	}

	switch obj.Type {
	case ObjBufferField:
		return s.writeBufferFieldBits(fp, raw)
	case ObjIndexField:
		return s.writeIndexFieldBits(fp, raw)
	case ObjBankField:
		if err := s.selectBank(fp); err != nil {
			return err
		}
		return s.writeFieldUnit(fp, raw)
	default:
		return s.writeFieldUnit(fp, raw)
	}
}

func (s *State) readIndexFieldBits(fp *fieldPayload) ([]byte, *Error) {
	ifp := fp.indexFieldUnit.payload.(*fieldPayload)
	dfp := fp.dataFieldUnit.payload.(*fieldPayload)
	idxByte := fp.bitOffset / 8
	if err := s.writeFieldBits(ifp.region, ifp.bitOffset, ifp.bitLength, ifp.access, ifp.update, 0, leBytes(idxByte, 8)); err != nil {
		return nil, err
	}
	return s.readFieldBits(dfp.region, fp.bitOffset%8, fp.bitLength, dfp.access, 0)
}

func (s *State) writeIndexFieldBits(fp *fieldPayload, raw []byte) *Error {
	ifp := fp.indexFieldUnit.payload.(*fieldPayload)
	dfp := fp.dataFieldUnit.payload.(*fieldPayload)
	idxByte := fp.bitOffset / 8
	if err := s.writeFieldBits(ifp.region, ifp.bitOffset, ifp.bitLength, ifp.access, ifp.update, 0, leBytes(idxByte, 8)); err != nil {
		return err
	}
	return s.writeFieldBits(dfp.region, fp.bitOffset%8, fp.bitLength, dfp.access, dfp.update, 0, raw)
}

func (s *State) selectBank(fp *fieldPayload) *Error {
	bfp := fp.bankFieldUnit.payload.(*fieldPayload)
	return s.writeFieldBits(bfp.region, bfp.bitOffset, bfp.bitLength, bfp.access, bfp.update, 0, leBytes(fp.bankValue, 8))
}

func (s *State) readBufferFieldBits(fp *fieldPayload) ([]byte, *Error) {
	src := fp.bufferSource.AsBytes()
	out := make([]byte, (fp.bitLength+7)/8)
	CopyBits(out, 0, src, fp.bitOffset, fp.bitLength)
	return out, nil
}

func (s *State) writeBufferFieldBits(fp *fieldPayload, raw []byte) *Error {
	dst := fp.bufferSource.AsBytes()
	need := (fp.bitOffset + fp.bitLength + 7) / 8
	if uint64(len(dst)) < need {
		return errFieldBitOverflow
	}
	CopyBits(dst, fp.bitOffset, raw, 0, fp.bitLength)
	return nil
}
