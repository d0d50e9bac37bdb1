package aml

// evalMiscOpcode dispatches the synchronization, table-load, and
// BCD-conversion ExpressionOpcodes that don't fit the arithmetic/logic/
// reference groups (spec.md 4.7 "Miscellaneous operators", 4.9 "Mutex and
// Event synchronization", 4.13 "Dynamic table load").
func (s *State) evalMiscOpcode(d *decoder, pass evalPass, op opcode) (Data, *Error) {
	switch op {
	case opTimer:
		return s.evalTimer(pass)
	case opAcquire:
		return s.evalAcquire(d, pass)
	case opWait:
		return s.evalWait(d, pass)
	case opLoad:
		return s.evalLoad(d, pass)
	case opLoadTable:
		return s.evalLoadTable(d, pass)
	case opFromBCD:
		return s.convertExpr(d, pass, func(v Data) (Data, *Error) {
			n, err := s.convToInteger(v)
			if err != nil {
				return Data{}, err
			}
			bv, berr := bcdToBinary(n)
			if berr != nil {
				return Data{}, berr
			}
			return IntData(bv), nil
		})
	case opToBCD:
		return s.convertExpr(d, pass, func(v Data) (Data, *Error) {
			n, err := s.convToInteger(v)
			if err != nil {
				return Data{}, err
			}
			bv, berr := binaryToBCD(n)
			if berr != nil {
				return Data{}, berr
			}
			return IntData(bv), nil
		})
	}
	return Data{}, errInvalidOpcode
}

func (s *State) evalTimer(pass evalPass) (Data, *Error) {
	if pass == passNamespace {
		return Data{}, nil
	}
	return IntData(s.host.MonotonicTimer100ns()), nil
}

// evalAcquire implements DefAcquire: AcquireOp SuperName Timeout, where
// Timeout is a literal WordData (spec.md 4.9 "Mutex objects"), not an
// evaluated operand. Result is the Boolean "timed out" flag; a successful
// acquire is recorded on the current frame so it is released exactly once
// when the frame pops, even if the body never reaches a matching Release.
func (s *State) evalAcquire(d *decoder, pass evalPass) (Data, *Error) {
	obj, err := s.resolveMutexOrEventOperand(d, pass)
	if err != nil {
		return Data{}, err
	}
	timeout, err := d.readWord()
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace || obj == nil {
		return Data{}, nil
	}
	if obj.Type != ObjMutex {
		return Data{}, errWrongType
	}
	mp := obj.payload.(*mutexPayload)
	timedOut := s.host.MutexAcquire(mp.handle, timeout)
	if !timedOut {
		s.curFrame.recordAcquire(obj)
	}
	return s.boolData(timedOut), nil
}

// evalWait implements DefWait: WaitOp SuperName Operand, where Operand (the
// timeout) is an evaluated Integer TermArg, unlike Acquire's literal
// WordData (spec.md 4.9 "Event objects").
func (s *State) evalWait(d *decoder, pass evalPass) (Data, *Error) {
	obj, err := s.resolveMutexOrEventOperand(d, pass)
	if err != nil {
		return Data{}, err
	}
	timeout, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace || obj == nil {
		return Data{}, nil
	}
	if obj.Type != ObjEvent {
		return Data{}, errWrongType
	}
	ep := obj.payload.(*eventPayload)
	timedOut := s.host.EventWait(ep.handle, uint16(timeout))
	return s.boolData(timedOut), nil
}

// evalLoad implements DefLoad: LoadOp NameString Target (spec.md 4.13
// "Dynamic table load"). NameString names an already-resolvable object
// (commonly a Field or OperationRegion) whose current Buffer value holds a
// complete definition-block image; loading extends the live namespace in
// place. Target receives Ones, the same Integer the expression returns; no
// DDBHandle object is created.
func (s *State) evalLoad(d *decoder, pass evalPass) (Data, *Error) {
	name, err := d.nameString()
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		return Data{}, s.evalTargetStore(d, pass, Data{})
	}

	node := s.ns.search(&s.scope, name)
	if node != nil {
		node = s.resolveAliasTarget(node)
	}
	if node == nil || node.Object == nil {
		return Data{}, errNameNotFound
	}
	v, rerr := s.readNamedValue(node.Object)
	if rerr != nil {
		return Data{}, rerr
	}
	buf, cerr := s.convToBuffer(v)
	releaseData(&v)
	if cerr != nil {
		return Data{}, cerr
	}
	defer releaseData(&buf)

	tableName := node.AbsoluteName
	if err := s.LoadDefinitionBlock(tableName, buf.AsBytes()); err != nil {
		return Data{}, err
	}
	ones := IntData(signExtend(0xFFFFFFFF, s.intWidth))
	if err := s.evalTargetStore(d, pass, dupData(ones)); err != nil {
		return Data{}, err
	}
	return ones, nil
}

// evalLoadTable implements DefLoadTable: LoadTableOp TermArg(Signature)
// TermArg(OEMID) TermArg(OEMTableID) TermArg(RootPath) TermArg(ParameterPath)
// TermArg(ParameterData) (spec.md 4.13). RootPath/ParameterPath/ParameterData
// are consumed (so the cursor advances correctly) but this host contract has
// no facility for injecting parameters into the loaded table, so they are
// otherwise unused. Result is always Ones, whether or not the table was
// found (spec.md 4.7, 8 scenario 6).
func (s *State) evalLoadTable(d *decoder, pass evalPass) (Data, *Error) {
	sig, err := s.evalTermAsString(d, pass)
	if err != nil {
		return Data{}, err
	}
	oemID, err := s.evalTermAsString(d, pass)
	if err != nil {
		return Data{}, err
	}
	oemTableID, err := s.evalTermAsString(d, pass)
	if err != nil {
		return Data{}, err
	}
	if _, err := s.evalTerm(d, pass); err != nil { // RootPath
		return Data{}, err
	}
	if _, err := s.evalTerm(d, pass); err != nil { // ParameterPath
		return Data{}, err
	}
	if _, err := s.evalTerm(d, pass); err != nil { // ParameterData
		return Data{}, err
	}
	if pass == passNamespace {
		return Data{}, nil
	}

	ones := IntData(signExtend(0xFFFFFFFF, s.intWidth))
	blob, ok := s.host.SearchACPITable(sig, oemID, oemTableID)
	if !ok {
		return ones, nil
	}
	tableName := sig + "@" + oemTableID
	if err := s.LoadDefinitionBlock(tableName, blob); err != nil {
		return Data{}, err
	}
	return ones, nil
}

func (s *State) evalTermAsString(d *decoder, pass evalPass) (string, *Error) {
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return "", err
	}
	if pass == passNamespace {
		releaseData(&v)
		return "", nil
	}
	sd, cerr := s.convToString(v, false, false)
	releaseData(&v)
	if cerr != nil {
		return "", cerr
	}
	return sd.String(), nil
}
