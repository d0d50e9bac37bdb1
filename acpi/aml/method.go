package aml

const (
	maxLocalArgs  = 8
	maxMethodArgs = 7
)

// mutexScopeRecord tracks how many times a single mutex has been acquired
// within the owning method frame, so the frame can release exactly that
// many times on pop regardless of what the method body itself did
// (spec.md 3.5, 4.11 step 8, 5 "Mutex objects").
type mutexScopeRecord struct {
	mutex *Object
	count int
}

// methodFrame is one entry in the method scope stack (spec.md 3.5).
type methodFrame struct {
	args   [maxMethodArgs]*Object
	locals [maxLocalArgs]*Object

	mutexes []mutexScopeRecord

	returnValue Data
	parent      *methodFrame
}

func newMethodFrame(parent *methodFrame) *methodFrame {
	f := &methodFrame{parent: parent}
	for i := range f.args {
		o := newObject(ObjName)
		o.Super = SuperArg
		f.args[i] = o
	}
	for i := range f.locals {
		o := newObject(ObjName)
		o.Super = SuperLocal
		f.locals[i] = o
	}
	return f
}

// release drops every Arg/Local object and, per the recorded mutex chain,
// releases each touched mutex exactly `count` times (spec.md 4.11 step 8).
func (f *methodFrame) release(s *State) {
	for _, m := range f.mutexes {
		for i := 0; i < m.count; i++ {
			s.host.MutexRelease(m.mutex.payload.(*mutexPayload).handle)
		}
	}
	for _, a := range f.args {
		releaseData(&a.Value)
	}
	for _, l := range f.locals {
		releaseData(&l.Value)
	}
	releaseData(&f.returnValue)
}

func (f *methodFrame) recordAcquire(mutex *Object) {
	for i := range f.mutexes {
		if f.mutexes[i].mutex == mutex {
			f.mutexes[i].count++
			return
		}
	}
	f.mutexes = append(f.mutexes, mutexScopeRecord{mutex: mutex, count: 1})
}

// recordRelease lowers the matching mutex's recorded acquire count on an
// explicit Release, so release on frame pop doesn't release it again for a
// count the method body already gave back itself.
func (f *methodFrame) recordRelease(mutex *Object) {
	for i := range f.mutexes {
		if f.mutexes[i].mutex == mutex {
			if f.mutexes[i].count > 0 {
				f.mutexes[i].count--
			}
			return
		}
	}
}

// Invoke runs method (a *Object of type ObjMethod) with the given argument
// values, implementing spec.md 4.11 end to end: push a frame, deep-copy
// args in, evaluate the body under a Temporary namespace scope and a
// snapshot level, roll back on failure / commit on success, propagate the
// return value, and pop the frame releasing locals/args/mutex chains.
func (s *State) Invoke(method *Object, args []Data) (Data, *Error) {
	if method.Type != ObjMethod {
		return Data{}, errWrongType
	}
	mp := method.payload.(*methodPayload)

	mf := newMethodFrame(s.curFrame)
	for i := 0; i < len(args) && i < int(mp.argCount) && i < maxMethodArgs; i++ {
		mf.args[i].Value = dupData(args[i])
	}

	prevFrame := s.curFrame
	s.curFrame = mf

	s.snap.begin()
	methodAbs := ""
	if method.Node != nil {
		methodAbs = method.Node.AbsoluteName
	}
	s.scope.push(methodAbs, ScopeTemporary|ScopeBoundary)

	var evalErr *Error
	if mp.native != nil {
		mf.returnValue, evalErr = mp.native(s, args)
	} else {
		d := newDecoder(s.tableBytes(mp.codeTable))
		d.pos = mp.codeStart
		d.end = mp.codeEnd
		evalErr = s.evalTermList(d, passFull)
		if evalErr == nil && s.pending == ctrlFlowReturn {
			mf.returnValue = s.lastReturnValue
		}
		if evalErr == nil && s.pending != ctrlFlowReturn && s.pending != ctrlFlowNone {
			evalErr = errBreakContinueOutsideLoop
		}
		s.pending = ctrlFlowNone
	}

	s.scope.pop(s.ns)
	if evalErr != nil {
		s.snap.rollback()
	} else {
		s.snap.commit()
	}

	ret := mf.returnValue
	mf.returnValue = Data{}
	mf.release(s)
	s.curFrame = prevFrame

	if evalErr != nil {
		return Data{}, evalErr.withFrame(frame{table: mp.codeTable, method: methodAbs})
	}
	return ret, nil
}

// curFrame/lastReturnValue (State fields) and tableBytes (a State method)
// support Invoke and the evaluator; all three are declared in state.go.
