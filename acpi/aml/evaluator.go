package aml

import "github.com/dro/amli-go/acpi/table"

// evalPass distinguishes the namespace pre-pass from the full evaluation
// pass (spec.md 9 "Two-pass evaluation").
//
// Simplification (documented per the task's Open-Question rule): named,
// non-scoped object definitions (Name/Alias/Mutex/Event/OpRegion/Field/
// BankField/IndexField/CreateXField/External) share one handler across both
// passes: the node is created on the first visit and reused on the second,
// and only steps that need evaluated operands or host handles are limited
// to the full pass. The scoped containers (Method/Device/Scope/Processor/
// PowerRes/ThermalZone) and the If/Else/While wrappers get pass-specific
// treatment (Method captures its body span without executing it; If/Else
// visit both branches; predicates are not evaluated during the namespace
// pass). This still satisfies spec.md 8's forward-reference scenario,
// since the only case that matters there — calling a method defined later
// in the same table — is handled by Method never executing at definition
// time regardless of pass.
type evalPass uint8

const (
	passNamespace evalPass = iota
	passFull
)

// LoadDefinitionBlock parses header+body from blob, derives the integer
// width from the header's revision byte if this is the first (DSDT) table
// loaded, registers the body bytes under name for later method re-entry,
// and runs the namespace pass followed by the full pass over the body
// (spec.md 2 "Control flow").
func (s *State) LoadDefinitionBlock(name string, blob []byte) *Error {
	hdr, ok := table.ParseHeader(blob)
	if !ok {
		return errTruncated
	}
	if len(s.tableNames) == 0 {
		s.intWidth = Width32
		if hdr.Revision >= 2 {
			s.intWidth = Width64
		}
	}

	s.registerTableBytes(name, blob)
	s.tableNames = append(s.tableNames, name)
	s.loadingTable = name

	body := newDecoder(blob)
	body.pos = table.HeaderLength
	body.end = uint32(len(blob))

	s.scope.push("\\", 0)
	defer s.scope.pop(s.ns)

	before := make(map[*NamespaceNode]bool, len(s.ns.nodes))
	for _, n := range s.ns.nodes {
		before[n] = true
	}
	nsPass := body.sub(body.pos, body.end)
	if err := s.evalTermList(nsPass, passNamespace); err != nil {
		return err
	}
	// Nodes created by the namespace pass are skeletons the full pass reuses.
	for _, n := range s.ns.nodes {
		if !before[n] {
			n.IsPreParsed, n.IsEvaluated = true, false
		}
	}

	if s.loadComplete {
		// Dynamic load after initial load completed (Load() opcode):
		// extend the tree in place rather than waiting for a full rebuild.
		for abs, n := range s.ns.nodes {
			_ = abs
			if n.Parent == nil && n.AbsoluteName != "\\" {
				s.ns.linkNode(n)
			}
		}
	}

	fullPass := body.sub(table.HeaderLength, body.end)
	return s.evalTermList(fullPass, passFull)
}

// MarkLoadComplete builds the hierarchical namespace tree (one-shot) and,
// if configured, invokes the root-level _INI methods unconditionally
// before the regular _STA-gated walk (spec.md 4.3, 4.13).
func (s *State) MarkLoadComplete() *Error {
	s.ns.buildTree()
	s.loadComplete = true
	if s.config.RunRootInitOnLoadComplete {
		for _, p := range []string{"\\_INI", "\\_SB_._INI"} {
			if n := s.ns.lookupAbs(p); n != nil && n.Object != nil && n.Object.Type == ObjMethod {
				_, _ = s.Invoke(n.Object, nil)
			}
		}
	}
	return s.WalkDeviceTree()
}

// evalTermList evaluates (or, during the namespace pass, partially skips)
// every term in d's window in order, stopping at d.end. It is the
// recursive core shared by table bodies, method bodies, and every scoped
// or bounded body (If/Else/While/Device/...).
func (s *State) evalTermList(d *decoder, pass evalPass) *Error {
	for !d.eof() {
		if s.pending != ctrlFlowNone {
			return nil
		}

		start := d.pos
		b, err := d.peekByte()
		if err != nil {
			return err
		}

		if isNameStringStart(b) {
			if _, err := s.evalNameStringTerm(d, pass); err != nil {
				return err
			}
			continue
		}

		op, err := d.decodeOpcode()
		if err != nil {
			return err
		}

		if isNamedOpcode(op) {
			if err := s.evalNamedObject(d, pass, op); err != nil {
				return err
			}
			continue
		}

		if handled, err := s.evalStatement(d, pass, op); handled {
			if err != nil {
				return err
			}
			continue
		}

		// A standalone expression used as a statement; evaluate (full
		// pass) or structurally consume it (namespace pass) and discard
		// the result. The opcode byte is already consumed above.
		if _, err := s.evalTermOp(d, pass, op); err != nil {
			return err
		}

		if d.pos == start {
			// Safety valve: no progress made, avoid an infinite loop on a
			// malformed/unsupported opcode.
			return errInvalidOpcode
		}
	}
	return nil
}

func isNameStringStart(b byte) bool {
	return b == '\\' || b == '^' || b == nullNameByte || b == dualNamePrefixByte ||
		b == multiNamePrefixByte || isLeadNameChar(b)
}

// evalNameStringTerm handles a bare NameString appearing at term position:
// either a method invocation (if it resolves to a Method object, consuming
// exactly argCount further TermArgs) or a plain value read of a Name
// object (legal, if unusual, as a no-op statement).
func (s *State) evalNameStringTerm(d *decoder, pass evalPass) (Data, *Error) {
	name, err := d.nameString()
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		return Data{}, nil
	}

	node := s.ns.search(&s.scope, name)
	if node != nil {
		node = s.resolveAliasTarget(node)
	}
	if node == nil || node.Object == nil {
		return Data{}, errNameNotFound
	}

	if node.Object.Type == ObjMethod {
		mp := node.Object.payload.(*methodPayload)
		args := make([]Data, 0, mp.argCount)
		for i := uint8(0); i < mp.argCount; i++ {
			v, err := s.evalTerm(d, pass)
			if err != nil {
				return Data{}, err
			}
			args = append(args, v)
		}
		return s.Invoke(node.Object, args)
	}

	return s.readNamedValue(node.Object)
}

// readNamedValue implements the Arg/Local auto-dereference rule (spec.md
// 4.11): reading an Arg holding a Reference dereferences to the target;
// everything else (Local, plain Name, Field) is read as-is (field reads
// go through the field dispatcher).
func (s *State) readNamedValue(obj *Object) (Data, *Error) {
	switch obj.Type {
	case ObjField, ObjBankField, ObjIndexField, ObjBufferField:
		return s.readField(obj)
	case ObjDevice, ObjProcessor, ObjThermalZone, ObjPowerResource, ObjScope, ObjMutex, ObjEvent, ObjOperationRegion:
		return ReferenceData(obj), nil
	}
	if obj.Super == SuperArg && obj.Value.Tag == TagReference {
		return dupData(s.derefReference(obj.Value)), nil
	}
	return dupData(obj.Value), nil
}

// derefReference follows a Reference Data value to the referenced
// object's current value, recursing through chained references.
func (s *State) derefReference(d Data) Data {
	if d.Tag != TagReference || d.obj == nil {
		return d
	}
	v, err := s.readNamedValue(d.obj)
	if err != nil {
		return Data{}
	}
	return v
}

// evalTerm evaluates a single TermArg: a computational-data literal, a
// Local/Arg/Debug reference, a NameString, or an expression opcode. During
// the namespace pass this still decodes the same shape (so the cursor
// advances correctly) but named-object side effects are limited to
// structural skeleton creation and predicates are not evaluated.
func (s *State) evalTerm(d *decoder, pass evalPass) (Data, *Error) {
	b, err := d.peekByte()
	if err != nil {
		return Data{}, err
	}
	if isNameStringStart(b) && b != nullNameByte {
		return s.evalNameStringTerm(d, pass)
	}

	op, err := d.decodeOpcode()
	if err != nil {
		return Data{}, err
	}
	return s.evalTermOp(d, pass, op)
}

// evalTermOp evaluates a TermArg whose opcode has already been consumed
// from d (used both by evalTerm and by evalTermList's standalone-expression
// fallback, which must consume the opcode itself to tell a named object or
// statement opcode apart from an expression one).
func (s *State) evalTermOp(d *decoder, pass evalPass, op opcode) (Data, *Error) {
	switch op {
	case opZero:
		return IntData(0), nil
	case opOne:
		return IntData(1), nil
	case opOnes:
		return IntData(signExtend(0xFFFFFFFF, s.intWidth)), nil
	case opRevision:
		return IntData(2), nil
	case opBytePrefix:
		v, err := d.readByte()
		return IntData(uint64(v)), err
	case opWordPrefix:
		v, err := d.readWord()
		return IntData(uint64(v)), err
	case opDwordPrefix:
		v, err := d.readDWord()
		return IntData(uint64(v)), err
	case opQwordPrefix:
		v, err := d.readQWord()
		return IntData(v), err
	case opStringPrefix:
		start := d.pos
		for !d.eof() && d.data[d.pos] != 0 {
			d.pos++
		}
		if d.eof() {
			return Data{}, errTruncated
		}
		s := string(d.data[start:d.pos])
		d.pos++ // consume NUL
		return StringData(s), nil
	case opLocal0, opLocal1, opLocal2, opLocal3, opLocal4, opLocal5, opLocal6, opLocal7:
		idx := int(op - opLocal0)
		if pass == passNamespace {
			return Data{}, nil
		}
		return dupData(s.curFrame.locals[idx].Value), nil
	case opArg0, opArg1, opArg2, opArg3, opArg4, opArg5, opArg6:
		idx := int(op - opArg0)
		if pass == passNamespace {
			return Data{}, nil
		}
		return s.readNamedValue(s.curFrame.args[idx])
	case opDebug:
		return DebugData(), nil
	case opBuffer:
		return s.evalBuffer(d, pass)
	case opPackage:
		return s.evalPackage(d, pass, false)
	case opVarPackage:
		return s.evalPackage(d, pass, true)
	}

	return s.evalExpressionOpcode(d, pass, op)
}

// evalTermAsInteger evaluates operand and implicitly converts it to an
// integer (spec.md 4.7 "Operand evaluation pattern").
func (s *State) evalTermAsInteger(d *decoder, pass evalPass) (uint64, *Error) {
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return 0, err
	}
	if pass == passNamespace {
		return 0, nil
	}
	return s.convToInteger(v)
}

