package aml

// evalRefOpcode dispatches the reference, type-inspection, and conversion
// ExpressionOpcodes (spec.md 4.7 "Reference and conversion operators").
func (s *State) evalRefOpcode(d *decoder, pass evalPass, op opcode) (Data, *Error) {
	switch op {
	case opRefOf:
		return s.evalRefOf(d, pass)
	case opCondRefOf:
		return s.evalCondRefOf(d, pass)
	case opDerefOf:
		return s.evalDerefOf(d, pass)
	case opIndex:
		return s.evalIndexOp(d, pass)
	case opSizeOf:
		return s.evalSizeOf(d, pass)
	case opObjectType:
		return s.evalObjectType(d, pass)
	case opMid:
		return s.evalMid(d, pass)
	case opConcat:
		return s.evalConcat(d, pass)
	case opConcatRes:
		return s.evalConcatRes(d, pass)
	case opMatch:
		return s.evalMatch(d, pass)
	case opStore:
		return s.evalStoreOp(d, pass)
	case opCopyObject:
		return s.evalCopyObject(d, pass)
	case opToBuffer:
		return s.convertExpr(d, pass, func(v Data) (Data, *Error) { return s.convToBuffer(v) })
	case opToDecimalString:
		return s.convertExpr(d, pass, func(v Data) (Data, *Error) { return s.convToString(v, false, true) })
	case opToHexString:
		return s.convertExpr(d, pass, func(v Data) (Data, *Error) { return s.convToString(v, true, false) })
	case opToInteger:
		return s.convertExpr(d, pass, func(v Data) (Data, *Error) {
			n, err := s.convToInteger(v)
			if err != nil {
				return Data{}, err
			}
			return IntData(n), nil
		})
	case opToString:
		return s.evalToString(d, pass)
	}
	return Data{}, errInvalidOpcode
}

// resolveSuperNameRef reads a SuperName operand and resolves it to a
// Reference/FieldUnit/PackageElement Data without reading through to the
// target's current value (spec.md 4.7 "RefOf"/"ObjectType"). ok is false
// when the name could not be found (only meaningful to CondRefOf, which
// tolerates that; every other caller should treat it as errNameNotFound).
func (s *State) resolveSuperNameRef(d *decoder, pass evalPass) (Data, bool, *Error) {
	b, err := d.peekByte()
	if err != nil {
		return Data{}, false, err
	}
	if isNameStringStart(b) && b != nullNameByte {
		name, nerr := d.nameString()
		if nerr != nil {
			return Data{}, false, nerr
		}
		if pass != passFull {
			return Data{}, false, nil
		}
		node := s.ns.search(&s.scope, name)
		if node != nil {
			node = s.resolveAliasTarget(node)
		}
		if node == nil || node.Object == nil {
			return Data{}, false, nil
		}
		return ReferenceData(node.Object), true, nil
	}

	op, err := d.decodeOpcode()
	if err != nil {
		return Data{}, false, err
	}
	switch op {
	case opLocal0, opLocal1, opLocal2, opLocal3, opLocal4, opLocal5, opLocal6, opLocal7:
		idx := int(op - opLocal0)
		if pass != passFull {
			return Data{}, false, nil
		}
		return ReferenceData(s.curFrame.locals[idx]), true, nil
	case opArg0, opArg1, opArg2, opArg3, opArg4, opArg5, opArg6:
		idx := int(op - opArg0)
		if pass != passFull {
			return Data{}, false, nil
		}
		return ReferenceData(s.curFrame.args[idx]), true, nil
	}

	v, verr := s.evalTermOp(d, pass, op)
	if verr != nil {
		return Data{}, false, verr
	}
	if pass != passFull {
		return Data{}, false, nil
	}
	switch v.Tag {
	case TagReference, TagFieldUnit, TagPackageElement:
		return v, true, nil
	}
	releaseData(&v)
	return Data{}, false, errWrongType
}

func (s *State) evalRefOf(d *decoder, pass evalPass) (Data, *Error) {
	ref, ok, err := s.resolveSuperNameRef(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass != passFull {
		return Data{}, nil
	}
	if !ok {
		return Data{}, errNameNotFound
	}
	return ref, nil
}

func (s *State) evalCondRefOf(d *decoder, pass evalPass) (Data, *Error) {
	ref, ok, err := s.resolveSuperNameRef(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		return Data{}, s.evalTargetStore(d, pass, Data{})
	}
	if !ok {
		if err := s.evalTargetStore(d, pass, Data{}); err != nil {
			return Data{}, err
		}
		return s.boolData(false), nil
	}
	if err := s.evalTargetStore(d, pass, ref); err != nil {
		return Data{}, err
	}
	return s.boolData(true), nil
}

// evalDerefOf implements DefDerefOf (spec.md 4.7 "DerefOf"): the operand is
// a plain TermArg (not a SuperName) that must evaluate to a Reference,
// FieldUnit, PackageElement, or a String naming an object path.
func (s *State) evalDerefOf(d *decoder, pass evalPass) (Data, *Error) {
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		return Data{}, nil
	}
	defer releaseData(&v)
	switch v.Tag {
	case TagReference:
		return s.derefReference(v), nil
	case TagFieldUnit:
		return s.readField(v.obj)
	case TagPackageElement:
		return v.pkgElem.get()
	case TagString:
		name := v.String()
		node := s.ns.search(&s.scope, name)
		if node != nil {
			node = s.resolveAliasTarget(node)
		}
		if node == nil || node.Object == nil {
			return Data{}, errNameNotFound
		}
		return s.readNamedValue(node.Object)
	}
	return Data{}, errWrongType
}

// evalIndexOp implements DefIndex (spec.md 4.7 "Index"): indexes into a
// Package, Buffer, or String, producing a PackageElement reference usable
// both as this expression's value and as a later Store target.
func (s *State) evalIndexOp(d *decoder, pass evalPass) (Data, *Error) {
	obj, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	idx, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		releaseData(&obj)
		return Data{}, err
	}
	if pass == passNamespace {
		releaseData(&obj)
		return Data{}, s.evalTargetStore(d, pass, Data{})
	}

	var result Data
	switch obj.Tag {
	case TagPackage:
		if idx >= uint64(len(obj.pkg.elements)) {
			releaseData(&obj)
			return Data{}, errIndexOutOfBounds
		}
		result = Data{Tag: TagPackageElement, pkgElem: packageElement{pkg: obj.pkg.ref(), index: idx}}
	case TagBuffer, TagString:
		if idx >= uint64(obj.buf.size) {
			releaseData(&obj)
			return Data{}, errIndexOutOfBounds
		}
		result = Data{Tag: TagPackageElement, pkgElem: packageElement{buf: obj.buf.ref(), index: idx}}
	default:
		releaseData(&obj)
		return Data{}, errWrongType
	}
	releaseData(&obj)

	if err := s.evalTargetStore(d, pass, dupData(result)); err != nil {
		releaseData(&result)
		return Data{}, err
	}
	return result, nil
}

func (s *State) evalSizeOf(d *decoder, pass evalPass) (Data, *Error) {
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		return Data{}, nil
	}
	defer releaseData(&v)
	return s.sizeOfValue(v)
}

func (s *State) sizeOfValue(v Data) (Data, *Error) {
	switch v.Tag {
	case TagInteger:
		if s.intWidth == Width64 {
			return IntData(8), nil
		}
		return IntData(4), nil
	case TagString, TagBuffer, TagPackage:
		return IntData(uint64(v.Len())), nil
	case TagFieldUnit:
		fv, ferr := s.readField(v.obj)
		if ferr != nil {
			return Data{}, ferr
		}
		defer releaseData(&fv)
		return s.sizeOfValue(fv)
	}
	return Data{}, errWrongType
}

// evalObjectType implements DefObjectType (spec.md 4.7 "ObjectType"),
// returning the ACPI object-type code without reading through to a Name
// object's stored value (unlike SizeOf, it must see the *slot's* type).
func (s *State) evalObjectType(d *decoder, pass evalPass) (Data, *Error) {
	ref, ok, err := s.resolveSuperNameRef(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass != passFull {
		return Data{}, nil
	}
	if !ok {
		return Data{}, errNameNotFound
	}
	code, terr := s.objectTypeCode(ref)
	releaseData(&ref)
	if terr != nil {
		return Data{}, terr
	}
	return IntData(code), nil
}

func (s *State) objectTypeCode(ref Data) (uint64, *Error) {
	switch ref.Tag {
	case TagReference:
		obj := ref.obj
		switch obj.Type {
		case ObjMethod:
			return 8, nil
		case ObjDevice:
			return 6, nil
		case ObjMutex:
			return 9, nil
		case ObjEvent:
			return 7, nil
		case ObjOperationRegion:
			return 10, nil
		case ObjPowerResource:
			return 11, nil
		case ObjProcessor:
			return 12, nil
		case ObjThermalZone:
			return 13, nil
		case ObjField, ObjBankField, ObjIndexField:
			return 5, nil
		case ObjBufferField:
			return 14, nil
		case ObjName:
			switch obj.Value.Tag {
			case TagInteger:
				return 1, nil
			case TagString:
				return 2, nil
			case TagBuffer:
				return 3, nil
			case TagPackage:
				return 4, nil
			}
			return 0, nil
		}
		return 0, nil
	case TagFieldUnit:
		if ref.obj.Type == ObjBufferField {
			return 14, nil
		}
		return 5, nil
	case TagPackageElement:
		v, err := ref.pkgElem.get()
		if err != nil {
			return 0, err
		}
		switch v.Tag {
		case TagInteger:
			return 1, nil
		case TagString:
			return 2, nil
		case TagBuffer:
			return 3, nil
		case TagPackage:
			return 4, nil
		}
		return 0, nil
	}
	return 0, errWrongType
}

// evalMid implements DefMid (spec.md 4.7 "Mid"): a String/Buffer substring
// extraction bounded to the source's actual length.
func (s *State) evalMid(d *decoder, pass evalPass) (Data, *Error) {
	src, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	idx, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		releaseData(&src)
		return Data{}, err
	}
	length, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		releaseData(&src)
		return Data{}, err
	}
	if pass == passNamespace {
		releaseData(&src)
		return Data{}, s.evalTargetStore(d, pass, Data{})
	}
	defer releaseData(&src)

	isString := src.Tag == TagString
	var raw []byte
	if isString || src.Tag == TagBuffer {
		raw = src.AsBytes()
	} else {
		bd, cerr := s.convToBuffer(src)
		if cerr != nil {
			return Data{}, cerr
		}
		raw = bd.AsBytes()
	}
	if idx > uint64(len(raw)) {
		idx = uint64(len(raw))
	}
	end := idx + length
	if end > uint64(len(raw)) {
		end = uint64(len(raw))
	}
	out := append([]byte{}, raw[idx:end]...)

	var result Data
	if isString {
		result = StringData(string(out))
	} else {
		result = BufferData(out)
	}
	if err := s.evalTargetStore(d, pass, dupData(result)); err != nil {
		releaseData(&result)
		return Data{}, err
	}
	return result, nil
}

// evalConcat implements DefConcat (spec.md 4.7 "Concat"): the first
// operand's type decides the result type and how the second is converted.
func (s *State) evalConcat(d *decoder, pass evalPass) (Data, *Error) {
	a, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	b, err := s.evalTerm(d, pass)
	if err != nil {
		releaseData(&a)
		return Data{}, err
	}
	if pass == passNamespace {
		releaseData(&a)
		releaseData(&b)
		return Data{}, s.evalTargetStore(d, pass, Data{})
	}
	result, cerr := s.concatData(a, b)
	releaseData(&a)
	releaseData(&b)
	if cerr != nil {
		return Data{}, cerr
	}
	if err := s.evalTargetStore(d, pass, dupData(result)); err != nil {
		releaseData(&result)
		return Data{}, err
	}
	return result, nil
}

func (s *State) concatData(a, b Data) (Data, *Error) {
	switch a.Tag {
	case TagString:
		bd, err := s.convToString(b, false, false)
		if err != nil {
			return Data{}, err
		}
		return StringData(a.String() + bd.String()), nil
	case TagBuffer:
		bd, err := s.convToBuffer(b)
		if err != nil {
			return Data{}, err
		}
		out := append(append([]byte{}, a.AsBytes()...), bd.AsBytes()...)
		return BufferData(out), nil
	default:
		ab, err := s.convToBuffer(a)
		if err != nil {
			return Data{}, err
		}
		bb, err := s.convToBuffer(b)
		if err != nil {
			return Data{}, err
		}
		out := append(append([]byte{}, ab.AsBytes()...), bb.AsBytes()...)
		return BufferData(out), nil
	}
}

// evalConcatRes implements DefConcatRes (spec.md 4.7 "ConcatRes"): joins two
// resource-template buffers, dropping each operand's own End Tag and
// appending a single fresh one (checksum left as 0, the common convention
// among implementations that do not validate it).
func (s *State) evalConcatRes(d *decoder, pass evalPass) (Data, *Error) {
	a, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	b, err := s.evalTerm(d, pass)
	if err != nil {
		releaseData(&a)
		return Data{}, err
	}
	if pass == passNamespace {
		releaseData(&a)
		releaseData(&b)
		return Data{}, s.evalTargetStore(d, pass, Data{})
	}
	ab, aerr := s.convToBuffer(a)
	releaseData(&a)
	if aerr != nil {
		releaseData(&b)
		return Data{}, aerr
	}
	bb, berr := s.convToBuffer(b)
	releaseData(&b)
	if berr != nil {
		return Data{}, berr
	}
	out := append(trimResourceEndTag(ab.AsBytes()), trimResourceEndTag(bb.AsBytes())...)
	out = append(out, 0x79, 0x00)
	result := BufferData(out)
	if err := s.evalTargetStore(d, pass, dupData(result)); err != nil {
		releaseData(&result)
		return Data{}, err
	}
	return result, nil
}

func trimResourceEndTag(b []byte) []byte {
	if len(b) >= 2 && b[len(b)-2] == 0x79 {
		return append([]byte{}, b[:len(b)-2]...)
	}
	return append([]byte{}, b...)
}

const (
	matchTR = 0
	matchEQ = 1
	matchLE = 2
	matchLT = 3
	matchGE = 4
	matchGT = 5
)

func (s *State) matchTest(elem Data, matchOp uint64, operand Data) (bool, *Error) {
	if matchOp == matchTR {
		return true, nil
	}
	cmp, err := s.compareData(elem, operand)
	if err != nil {
		return false, err
	}
	switch matchOp {
	case matchEQ:
		return cmp == 0, nil
	case matchLE:
		return cmp <= 0, nil
	case matchLT:
		return cmp < 0, nil
	case matchGE:
		return cmp >= 0, nil
	case matchGT:
		return cmp > 0, nil
	}
	return false, errWrongType
}

// evalMatch implements DefMatch (spec.md 4.7 "Match"): scans a Package from
// StartIndex for the first element satisfying both match conditions.
func (s *State) evalMatch(d *decoder, pass evalPass) (Data, *Error) {
	pkgv, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	op1, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		releaseData(&pkgv)
		return Data{}, err
	}
	operand1, err := s.evalTerm(d, pass)
	if err != nil {
		releaseData(&pkgv)
		return Data{}, err
	}
	op2, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		releaseData(&pkgv)
		releaseData(&operand1)
		return Data{}, err
	}
	operand2, err := s.evalTerm(d, pass)
	if err != nil {
		releaseData(&pkgv)
		releaseData(&operand1)
		return Data{}, err
	}
	start, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		releaseData(&pkgv)
		releaseData(&operand1)
		releaseData(&operand2)
		return Data{}, err
	}
	if pass == passNamespace {
		releaseData(&pkgv)
		releaseData(&operand1)
		releaseData(&operand2)
		return Data{}, nil
	}
	defer releaseData(&pkgv)
	defer releaseData(&operand1)
	defer releaseData(&operand2)
	if pkgv.Tag != TagPackage {
		return Data{}, errWrongType
	}
	for i := start; i < uint64(len(pkgv.pkg.elements)); i++ {
		elem := pkgv.pkg.elements[i]
		ok1, merr := s.matchTest(elem, op1, operand1)
		if merr != nil {
			return Data{}, merr
		}
		if !ok1 {
			continue
		}
		ok2, merr := s.matchTest(elem, op2, operand2)
		if merr != nil {
			return Data{}, merr
		}
		if ok2 {
			return IntData(i), nil
		}
	}
	return IntData(signExtend(0xFFFFFFFF, s.intWidth)), nil
}

// evalStoreOp implements DefStore explicitly (the common case runs through
// evalTargetStore when another opcode carries an optional Target, but plain
// Store(Src, Dst) is itself an ExpressionOpcode whose own result is the
// stored value).
func (s *State) evalStoreOp(d *decoder, pass evalPass) (Data, *Error) {
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		return Data{}, s.storeIntoSuperName(d, pass, v)
	}
	result := dupData(v)
	if err := s.storeIntoSuperName(d, pass, v); err != nil {
		releaseData(&result)
		return Data{}, err
	}
	return result, nil
}

// evalCopyObject implements DefCopyObject (spec.md 4.7 "CopyObject"): store
// into a SimpleName (NameString/Local/Arg only) with no implicit conversion.
func (s *State) evalCopyObject(d *decoder, pass evalPass) (Data, *Error) {
	src, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		releaseData(&src)
		return Data{}, s.storeCopyTarget(d, pass, Data{})
	}
	result := dupData(src)
	if err := s.storeCopyTarget(d, pass, src); err != nil {
		releaseData(&result)
		return Data{}, err
	}
	return result, nil
}

func (s *State) storeCopyTarget(d *decoder, pass evalPass, v Data) *Error {
	b, err := d.peekByte()
	if err != nil {
		return err
	}
	if isNameStringStart(b) && b != nullNameByte {
		name, nerr := d.nameString()
		if nerr != nil {
			return nerr
		}
		if pass != passFull {
			releaseData(&v)
			return nil
		}
		node := s.ns.search(&s.scope, name)
		if node != nil {
			node = s.resolveAliasTarget(node)
		}
		if node == nil || node.Object == nil {
			releaseData(&v)
			return errNameNotFound
		}
		return s.copyObjectInto(&node.Object.Value, v)
	}
	op, operr := d.decodeOpcode()
	if operr != nil {
		return operr
	}
	switch op {
	case opLocal0, opLocal1, opLocal2, opLocal3, opLocal4, opLocal5, opLocal6, opLocal7:
		idx := int(op - opLocal0)
		if pass != passFull {
			releaseData(&v)
			return nil
		}
		return s.copyObjectInto(&s.curFrame.locals[idx].Value, v)
	case opArg0, opArg1, opArg2, opArg3, opArg4, opArg5, opArg6:
		idx := int(op - opArg0)
		if pass != passFull {
			releaseData(&v)
			return nil
		}
		return s.copyObjectInto(&s.curFrame.args[idx].Value, v)
	}
	releaseData(&v)
	return errWrongType
}

func (s *State) convertExpr(d *decoder, pass evalPass, fn func(Data) (Data, *Error)) (Data, *Error) {
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		releaseData(&v)
		return Data{}, s.evalTargetStore(d, pass, Data{})
	}
	out, cerr := fn(v)
	releaseData(&v)
	if cerr != nil {
		return Data{}, cerr
	}
	if err := s.evalTargetStore(d, pass, dupData(out)); err != nil {
		releaseData(&out)
		return Data{}, err
	}
	return out, nil
}

// evalToString implements DefToString (spec.md 4.7 "ToString"): a Buffer is
// read up to its first NUL (or the given length, whichever is shorter).
func (s *State) evalToString(d *decoder, pass evalPass) (Data, *Error) {
	v, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	length, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		releaseData(&v)
		return Data{}, err
	}
	if pass == passNamespace {
		releaseData(&v)
		return Data{}, s.evalTargetStore(d, pass, Data{})
	}
	raw := v.AsBytes()
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	releaseData(&v)
	ones := signExtend(0xFFFFFFFF, s.intWidth)
	if length != ones && uint64(n) > length {
		n = int(length)
	}
	out := StringData(string(raw[:n]))
	if err := s.evalTargetStore(d, pass, dupData(out)); err != nil {
		releaseData(&out)
		return Data{}, err
	}
	return out, nil
}
