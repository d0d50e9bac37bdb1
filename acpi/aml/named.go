package aml

// evalNamedObject dispatches a NamespaceModifierObj or NamedObj definition
// to its specific parser (spec.md 4.9, 4.10). Field-group opcodes (Field/
// IndexField/BankField) and the CreateXField family live in field.go since
// they share field-list/bit-layout machinery; everything else is here.
func (s *State) evalNamedObject(d *decoder, pass evalPass, op opcode) *Error {
	switch op {
	case opAlias:
		return s.evalAlias(d, pass)
	case opName:
		return s.evalName(d, pass)
	case opScope:
		return s.evalScopeOp(d, pass)
	case opMethod:
		return s.evalMethod(d, pass)
	case opExternal:
		return s.evalExternal(d, pass)
	case opMutex:
		return s.evalMutex(d, pass)
	case opEvent:
		return s.evalEvent(d, pass)
	case opOpRegion:
		return s.evalOpRegion(d, pass)
	case opDataRegion:
		return s.evalDataRegion(d, pass)
	case opDevice:
		return s.evalDevice(d, pass)
	case opProcessor:
		return s.evalProcessor(d, pass)
	case opPowerRes:
		return s.evalPowerResource(d, pass)
	case opThermalZone:
		return s.evalThermalZone(d, pass)
	case opField:
		return s.evalField(d, pass)
	case opIndexField:
		return s.evalIndexField(d, pass)
	case opBankField:
		return s.evalBankField(d, pass)
	case opCreateDWordField, opCreateWordField, opCreateByteField, opCreateBitField, opCreateQWordField:
		return s.evalCreateFixedField(d, pass, op)
	case opCreateField:
		return s.evalCreateField(d, pass)
	}
	return errInvalidOpcode
}

// declareNode reads a NameString and creates its namespace node under the
// current scope, tolerating a re-visit of a node already created as a
// pre-parsed skeleton by an earlier pass (spec.md 4.3 "Create node").
// Bookkeeping (scope.noteCreated, the rollback closure) only happens the
// first time the node is actually created, so revisiting it on the full
// pass after the namespace pass already created it does not double-record.
func (s *State) declareNode(d *decoder, flags ScopeFlags) (*NamespaceNode, *Error) {
	name, err := d.nameString()
	if err != nil {
		return nil, err
	}
	abs, err := s.ns.resolveAbsolute(&s.scope, name)
	if err != nil {
		return nil, err
	}
	if s.scope.currentFlags()&ScopeTemporary != 0 {
		flags |= ScopeTemporary
	}
	existed := s.ns.lookupAbs(abs) != nil
	n, err := s.ns.createNode(abs, flags, s.scope.current())
	if err != nil {
		return nil, err
	}
	if !existed {
		n.IsPreParsed = true
		s.scope.noteCreated(abs)
		s.snap.record(func() { s.ns.deleteNode(n) })
	}
	return n, nil
}

// evalAlias implements DefAlias: AliasOp SourceName AliasName (spec.md 4.9).
func (s *State) evalAlias(d *decoder, pass evalPass) *Error {
	sourceName, err := d.nameString()
	if err != nil {
		return err
	}
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}
	if n.Object == nil {
		sourceAbs, serr := s.ns.resolveAbsolute(&s.scope, sourceName)
		if serr != nil {
			return serr
		}
		n.Object = newObject(ObjAlias)
		n.Object.Node = n
		n.Object.payload = &aliasPayload{target: sourceAbs}
		s.snap.record(func() { n.Object.unref() })
	}
	n.IsEvaluated = true
	return nil
}

// resolveAliasTarget follows an Alias node to whatever node it ultimately
// points at, so callers can treat an alias transparently (spec.md 4.9).
func (s *State) resolveAliasTarget(n *NamespaceNode) *NamespaceNode {
	seen := 0
	for n != nil && n.Object != nil && n.Object.Type == ObjAlias && seen < 16 {
		target := n.Object.payload.(*aliasPayload).target
		n = s.ns.lookupAbs(target)
		seen++
	}
	return n
}

// evalName implements DefName: NameOp NameString DataRefObject (spec.md
// 4.9). The value is always fully decoded (so the cursor advances
// correctly on both passes) but only committed to the object during the
// full pass, since it may reference names the namespace pass hasn't
// reached yet.
func (s *State) evalName(d *decoder, pass evalPass) *Error {
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}
	if n.Object == nil {
		n.Object = newObject(ObjName)
		n.Object.Node = n
		s.snap.record(func() { n.Object.unref() })
	}
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return err
	}
	if pass == passFull {
		old := n.Object.Value
		releaseData(&old)
		n.Object.Value = v
	} else {
		releaseData(&v)
	}
	n.IsEvaluated = true
	return nil
}

// evalScopeOp implements DefScope: ScopeOp PkgLength NameString TermList,
// reopening an already-existing node as the current scope rather than
// creating a new one (spec.md 4.9 "Scope").
func (s *State) evalScopeOp(d *decoder, pass evalPass) *Error {
	end, err := d.pkgLength()
	if err != nil {
		return err
	}
	name, err := d.nameString()
	if err != nil {
		return err
	}
	abs, err := s.ns.resolveAbsolute(&s.scope, name)
	if err != nil {
		return err
	}
	n := s.ns.lookupAbs(abs)
	if n == nil {
		return errNotAScope
	}

	body := d.sub(d.pos, end)
	s.scope.push(abs, 0)
	err = s.evalTermList(body, pass)
	s.scope.pop(s.ns)
	d.pos = end
	return err
}

// evalMethod implements DefMethod (spec.md 4.9, 4.11): only the code span
// and flags are captured here; the body is never parsed by either pass
// ahead of an actual Invoke, matching how a real ACPI namespace load never
// descends into control method bodies.
func (s *State) evalMethod(d *decoder, pass evalPass) *Error {
	end, err := d.pkgLength()
	if err != nil {
		return err
	}
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}
	flags, err := d.readByte()
	if err != nil {
		return err
	}

	if n.Object == nil {
		n.Object = newObject(ObjMethod)
		n.Object.Node = n
		n.Object.payload = &methodPayload{
			argCount:   flags & 0x7,
			serialized: flags&0x8 != 0,
			syncLevel:  (flags >> 4) & 0xf,
			codeTable:  s.curTableName(),
			codeStart:  d.pos,
			codeEnd:    end,
		}
		s.snap.record(func() { n.Object.unref() })
	}
	d.pos = end
	n.IsEvaluated = true
	return nil
}

// evalExternal implements DefExternal: a forward-declaration hint with no
// runtime effect of its own (spec.md 4.9 "External").
func (s *State) evalExternal(d *decoder, pass evalPass) *Error {
	if _, err := d.nameString(); err != nil {
		return err
	}
	if _, err := d.readByte(); err != nil { // ObjectType
		return err
	}
	if _, err := d.readByte(); err != nil { // ArgumentCount
		return err
	}
	return nil
}

// evalMutex implements DefMutex: MutexOp NameString SyncFlags (spec.md 4.9,
// 5 "Mutex objects"). The host-backed handle is only created on the full
// pass, since the namespace pass must not cause host-visible side effects.
func (s *State) evalMutex(d *decoder, pass evalPass) *Error {
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}
	flags, err := d.readByte()
	if err != nil {
		return err
	}
	if n.Object == nil {
		n.Object = newObject(ObjMutex)
		n.Object.Node = n
		n.Object.payload = &mutexPayload{syncLevel: flags & 0xf}
		s.snap.record(func() { n.Object.unref() })
	}
	if pass == passFull {
		mp := n.Object.payload.(*mutexPayload)
		if mp.handle == 0 && n.Object.Node.AbsoluteName != "\\_GL" {
			mp.handle = s.host.MutexCreate(mp.syncLevel)
		}
	}
	n.IsEvaluated = true
	return nil
}

// evalEvent implements DefEvent: EventOp NameString (spec.md 4.9, 5 "Event
// objects").
func (s *State) evalEvent(d *decoder, pass evalPass) *Error {
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}
	if n.Object == nil {
		n.Object = newObject(ObjEvent)
		n.Object.Node = n
		n.Object.payload = &eventPayload{}
		s.snap.record(func() { n.Object.unref() })
	}
	if pass == passFull {
		ep := n.Object.payload.(*eventPayload)
		if ep.handle == 0 {
			ep.handle = s.host.EventCreate()
		}
	}
	n.IsEvaluated = true
	return nil
}

// evalOpRegion implements DefOpRegion (spec.md 4.9, 4.5.1): the region's
// bounds are only resolved (and its _REG broadcast considered) during the
// full pass.
func (s *State) evalOpRegion(d *decoder, pass evalPass) *Error {
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}
	spaceByte, err := d.readByte()
	if err != nil {
		return err
	}
	offset, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}
	length, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}

	if n.Object == nil {
		n.Object = newObject(ObjOperationRegion)
		n.Object.Node = n
		n.Object.payload = &regionPayload{space: RegionSpace(spaceByte)}
		s.snap.record(func() { n.Object.unref() })
	}
	if pass == passFull {
		rp := n.Object.payload.(*regionPayload)
		rp.offset = offset
		rp.length = length
		s.maybeBroadcastReg(n.Object)
	}
	n.IsEvaluated = true
	return nil
}

// evalDataRegion implements DefDataRegion: a region backed by an already
// loaded table's bytes rather than host address space (spec.md 4.9).
func (s *State) evalDataRegion(d *decoder, pass evalPass) *Error {
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}
	sig, err := s.evalTerm(d, pass)
	if err != nil {
		return err
	}
	oemID, err := s.evalTerm(d, pass)
	if err != nil {
		return err
	}
	oemTableID, err := s.evalTerm(d, pass)
	if err != nil {
		return err
	}

	if n.Object == nil {
		n.Object = newObject(ObjDataRegion)
		n.Object.Node = n
		n.Object.payload = &dataRegionPayload{}
		s.snap.record(func() { n.Object.unref() })
	}
	if pass == passFull {
		bytes, ok := s.host.SearchACPITable(sig.String(), oemID.String(), oemTableID.String())
		if !ok {
			return errHostFailure
		}
		n.Object.payload.(*dataRegionPayload).bytes = bytes
	}
	n.IsEvaluated = true
	return nil
}

// evalContainer implements the shared shape of Device/Processor/
// PowerResource/ThermalZone: Op PkgLength NameString [fixed fields]
// TermList, opening a persistent (non-Temporary, non-Boundary) namespace
// scope around the body and recursing into it on both passes (spec.md 4.9).
func (s *State) evalContainer(d *decoder, pass evalPass, objType ObjType, readFixed func(*decoder) (interface{}, *Error)) *Error {
	end, err := d.pkgLength()
	if err != nil {
		return err
	}
	n, err := s.declareNode(d, 0)
	if err != nil {
		return err
	}

	var payload interface{}
	if readFixed != nil {
		payload, err = readFixed(d)
		if err != nil {
			return err
		}
	} else {
		switch objType {
		case ObjDevice:
			payload = &devicePayload{}
		case ObjThermalZone:
			payload = &thermalZonePayload{}
		}
	}

	if n.Object == nil {
		n.Object = newObject(objType)
		n.Object.Node = n
		n.Object.payload = payload
		s.snap.record(func() { n.Object.unref() })
	} else if payload != nil {
		n.Object.payload = payload
	}

	body := d.sub(d.pos, end)
	s.scope.push(n.AbsoluteName, 0)
	err = s.evalTermList(body, pass)
	s.scope.pop(s.ns)
	d.pos = end
	n.IsEvaluated = true
	return err
}

func (s *State) evalDevice(d *decoder, pass evalPass) *Error {
	return s.evalContainer(d, pass, ObjDevice, nil)
}

func (s *State) evalThermalZone(d *decoder, pass evalPass) *Error {
	return s.evalContainer(d, pass, ObjThermalZone, nil)
}

func (s *State) evalProcessor(d *decoder, pass evalPass) *Error {
	return s.evalContainer(d, pass, ObjProcessor, func(d *decoder) (interface{}, *Error) {
		procID, err := d.readByte()
		if err != nil {
			return nil, err
		}
		pblkAddr, err := d.readDWord()
		if err != nil {
			return nil, err
		}
		pblkLen, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return &processorPayload{procID: procID, pblkAddr: pblkAddr, pblkLength: pblkLen}, nil
	})
}

func (s *State) evalPowerResource(d *decoder, pass evalPass) *Error {
	return s.evalContainer(d, pass, ObjPowerResource, func(d *decoder) (interface{}, *Error) {
		level, err := d.readByte()
		if err != nil {
			return nil, err
		}
		order, err := d.readWord()
		if err != nil {
			return nil, err
		}
		return &powerResourcePayload{systemLevel: level, resourceOrd: order}, nil
	})
}
