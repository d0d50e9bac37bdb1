package aml

// evalStatement handles a StatementOpcode whose opcode byte has already
// been consumed from d (spec.md 4.8). handled reports whether op was one
// of these at all; the caller falls back to expression evaluation when it
// is not.
func (s *State) evalStatement(d *decoder, pass evalPass, op opcode) (bool, *Error) {
	switch op {
	case opIf:
		return true, s.evalIf(d, pass)
	case opElse:
		// Only reachable if a preceding If did not consume its own Else;
		// evalIf always does, so a bare Else here is malformed input.
		return true, errInvalidOpcode
	case opWhile:
		return true, s.evalWhile(d, pass)
	case opReturn:
		return true, s.evalReturnStmt(d, pass)
	case opBreak:
		return true, s.evalBreak(pass)
	case opContinue:
		return true, s.evalContinue(pass)
	case opNoop:
		return true, nil
	case opBreakPoint:
		return true, nil
	case opFatal:
		return true, s.evalFatal(d, pass)
	case opNotify:
		return true, s.evalNotify(d, pass)
	case opSleep:
		return true, s.evalSleep(d, pass)
	case opStall:
		return true, s.evalStall(d, pass)
	case opRelease:
		return true, s.evalRelease(d, pass)
	case opReset:
		return true, s.evalReset(d, pass)
	case opSignal:
		return true, s.evalSignal(d, pass)
	case opUnload:
		return true, s.evalUnload(d, pass)
	}
	return false, nil
}

// evalIf implements DefIfElse: IfOp PkgLength Predicate TermList
// [ElseOp PkgLength TermList] (spec.md 4.8 "If/Else"). The predicate is
// only evaluated on the full pass (namespace pass visits both branches
// unconditionally so every named object inside either is discoverable).
func (s *State) evalIf(d *decoder, pass evalPass) *Error {
	end, err := d.pkgLength()
	if err != nil {
		return err
	}

	var predicate uint64
	if pass == passFull {
		predicate, err = s.evalTermAsInteger(d, pass)
	} else {
		_, err = s.evalTermAsInteger(d, pass)
	}
	if err != nil {
		return err
	}

	thenBody := d.sub(d.pos, end)
	d.pos = end

	var elseBody *decoder
	if !d.eof() {
		if b, perr := d.peekByte(); perr == nil && b == byte(opElse) {
			d.pos++
			elseEnd, eerr := d.pkgLength()
			if eerr != nil {
				return eerr
			}
			elseBody = d.sub(d.pos, elseEnd)
			d.pos = elseEnd
		}
	}

	if pass == passNamespace {
		if err := s.evalTermList(thenBody, pass); err != nil {
			return err
		}
		if elseBody != nil {
			return s.evalTermList(elseBody, pass)
		}
		return nil
	}

	if predicate != 0 {
		return s.evalTermList(thenBody, pass)
	}
	if elseBody != nil {
		return s.evalTermList(elseBody, pass)
	}
	return nil
}

// evalWhile implements DefWhile: WhileOp PkgLength Predicate TermList
// (spec.md 4.8 "While"), bounded by Config.MaxLoopIterations as a watchdog
// against a runaway predicate.
func (s *State) evalWhile(d *decoder, pass evalPass) *Error {
	end, err := d.pkgLength()
	if err != nil {
		return err
	}
	predicateStart := d.pos

	if pass == passNamespace {
		if _, err := s.evalTermAsInteger(d, pass); err != nil {
			return err
		}
		body := d.sub(d.pos, end)
		d.pos = end
		return s.evalTermList(body, pass)
	}

	s.whileLoopLevel++
	defer func() { s.whileLoopLevel-- }()

	iterations := 0
	for {
		d.pos = predicateStart
		predicate, err := s.evalTermAsInteger(d, pass)
		if err != nil {
			return err
		}
		bodyStart := d.pos
		if predicate == 0 {
			break
		}

		body := d.sub(bodyStart, end)
		if err := s.evalTermList(body, pass); err != nil {
			return err
		}

		if s.pending == ctrlFlowBreak {
			s.pending = ctrlFlowNone
			break
		}
		if s.pending == ctrlFlowContinue {
			s.pending = ctrlFlowNone
		}
		if s.pending == ctrlFlowReturn {
			break
		}

		iterations++
		if s.config.MaxLoopIterations > 0 && iterations > s.config.MaxLoopIterations {
			return errMaxLoopIterations
		}
	}
	d.pos = end
	return nil
}

func (s *State) evalReturnStmt(d *decoder, pass evalPass) *Error {
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return err
	}
	if pass == passFull {
		if s.curFrame == nil {
			releaseData(&v)
			return errReturnOutsideMethod
		}
		releaseData(&s.lastReturnValue)
		s.lastReturnValue = v
		s.pending = ctrlFlowReturn
	} else {
		releaseData(&v)
	}
	return nil
}

func (s *State) evalBreak(pass evalPass) *Error {
	if pass == passFull {
		if s.whileLoopLevel == 0 {
			return errBreakContinueOutsideLoop
		}
		s.pending = ctrlFlowBreak
	}
	return nil
}

func (s *State) evalContinue(pass evalPass) *Error {
	if pass == passFull {
		if s.whileLoopLevel == 0 {
			return errBreakContinueOutsideLoop
		}
		s.pending = ctrlFlowContinue
	}
	return nil
}

func (s *State) evalFatal(d *decoder, pass evalPass) *Error {
	fatalType, err := d.readByte()
	if err != nil {
		return err
	}
	fatalCode, err := d.readDWord()
	if err != nil {
		return err
	}
	fatalArg, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}
	if pass == passNamespace {
		return nil
	}
	s.debugf("AML Fatal: type=0x%x code=0x%x arg=0x%x\n", fatalType, fatalCode, fatalArg)
	return errFatal
}

func (s *State) evalNotify(d *decoder, pass evalPass) *Error {
	target, err := s.evalTerm(d, pass)
	if err != nil {
		return err
	}
	code, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}
	if pass == passNamespace {
		return nil
	}
	if target.Tag == TagReference && target.obj != nil && target.obj.Node != nil {
		s.host.Notify(target.obj.Node.AbsoluteName, code)
	}
	return nil
}

func (s *State) evalSleep(d *decoder, pass evalPass) *Error {
	ms, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}
	if pass == passFull {
		s.host.Sleep(ms)
	}
	return nil
}

func (s *State) evalStall(d *decoder, pass evalPass) *Error {
	us, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return err
	}
	if pass == passFull {
		s.host.Stall(us)
	}
	return nil
}

// resolveMutexOrEventOperand evaluates a SuperName TermArg expected to reference a
// Mutex or Event object, used by Acquire/Release/Signal/Reset/Wait.
func (s *State) resolveMutexOrEventOperand(d *decoder, pass evalPass) (*Object, *Error) {
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return nil, err
	}
	if pass == passNamespace {
		return nil, nil
	}
	if v.Tag != TagReference || v.obj == nil {
		return nil, errWrongType
	}
	return v.obj, nil
}

func (s *State) evalRelease(d *decoder, pass evalPass) *Error {
	obj, err := s.resolveMutexOrEventOperand(d, pass)
	if err != nil {
		return err
	}
	if pass == passNamespace || obj == nil {
		return nil
	}
	if obj.Type != ObjMutex {
		return errWrongType
	}
	if s.curFrame != nil {
		s.curFrame.recordRelease(obj)
	}
	s.host.MutexRelease(obj.payload.(*mutexPayload).handle)
	return nil
}

func (s *State) evalReset(d *decoder, pass evalPass) *Error {
	obj, err := s.resolveMutexOrEventOperand(d, pass)
	if err != nil {
		return err
	}
	if pass == passNamespace || obj == nil {
		return nil
	}
	if obj.Type != ObjEvent {
		return errWrongType
	}
	s.host.EventReset(obj.payload.(*eventPayload).handle)
	return nil
}

func (s *State) evalSignal(d *decoder, pass evalPass) *Error {
	obj, err := s.resolveMutexOrEventOperand(d, pass)
	if err != nil {
		return err
	}
	if pass == passNamespace || obj == nil {
		return nil
	}
	if obj.Type != ObjEvent {
		return errWrongType
	}
	s.host.EventSignal(obj.payload.(*eventPayload).handle)
	return nil
}

func (s *State) evalUnload(d *decoder, pass evalPass) *Error {
	_, err := s.evalTerm(d, pass)
	return err
}
