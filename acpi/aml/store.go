package aml

import "fmt"

// evalTargetStore reads a Target operand (NullName or SuperName) following
// an expression's own operands and, on the full pass, stores v into it
// (spec.md 4.7 "Target operand"). NullName discards the result, matching
// the common `Add(A, B, X)` vs. `Add(A, B)` forms where the target is
// optional.
func (s *State) evalTargetStore(d *decoder, pass evalPass, v Data) *Error {
	b, err := d.peekByte()
	if err != nil {
		return err
	}
	if b == nullNameByte {
		d.pos++
		if pass == passFull {
			releaseData(&v)
		}
		return nil
	}
	return s.storeIntoSuperName(d, pass, v)
}

// storeIntoSuperName reads a SuperName operand and stores v into whatever
// it resolves to (spec.md 4.7 "Store"). The operand is always fully
// consumed even during the namespace pass, where no store actually occurs.
func (s *State) storeIntoSuperName(d *decoder, pass evalPass, v Data) *Error {
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
		return s.storeIntoObject(node.Object, v)
	}

	op, err := d.decodeOpcode()
	if err != nil {
		return err
	}

	switch op {
	case opLocal0, opLocal1, opLocal2, opLocal3, opLocal4, opLocal5, opLocal6, opLocal7:
		idx := int(op - opLocal0)
		if pass != passFull {
			releaseData(&v)
			return nil
		}
		s.replaceSlot(&s.curFrame.locals[idx].Value, v)
		return nil
	case opArg0, opArg1, opArg2, opArg3, opArg4, opArg5, opArg6:
		idx := int(op - opArg0)
		if pass != passFull {
			releaseData(&v)
			return nil
		}
		slot := &s.curFrame.args[idx].Value
		if slot.Tag == TagReference && slot.obj != nil {
			return s.storeIntoObject(slot.obj, v)
		}
		s.replaceSlot(slot, v)
		return nil
	case opDebug:
		if pass == passFull {
			s.debugf("[Debug] %s\n", debugRender(v))
			releaseData(&v)
		}
		return nil
	}

	// Exotic SuperName forms: the target is itself an ExpressionOpcode
	// (commonly Index() or DerefOf()) that yields a Reference or
	// PackageElement to store through.
	target, terr := s.evalTermOp(d, pass, op)
	if terr != nil {
		releaseData(&v)
		return terr
	}
	if pass != passFull {
		releaseData(&v)
		return nil
	}
	return s.storeIntoResolvedTarget(target, v)
}

// replaceSlot unconditionally overwrites dst with src, with no implicit
// conversion to dst's prior tag: spec.md 4.11 "writing to a Local always
// replaces the slot" (and an Arg not currently holding a Reference follows
// the same rule).
func (s *State) replaceSlot(dst *Data, src Data) {
	old := *dst
	releaseData(&old)
	*dst = dupData(src)
}

// storeIntoObject stores v into obj's current slot, honoring FieldUnit
// write semantics for field-backed objects (spec.md 4.5, 4.7).
func (s *State) storeIntoObject(obj *Object, v Data) *Error {
	switch obj.Type {
	case ObjField, ObjBankField, ObjIndexField, ObjBufferField:
		err := s.writeField(obj, v)
		releaseData(&v)
		return err
	}
	return s.implicitStore(&obj.Value, v)
}

func (s *State) storeIntoResolvedTarget(target, v Data) *Error {
	switch target.Tag {
	case TagReference:
		return s.storeIntoObject(target.obj, v)
	case TagFieldUnit:
		err := s.writeField(target.obj, v)
		releaseData(&v)
		return err
	case TagPackageElement:
		err := target.pkgElem.set(s, v)
		releaseData(&v)
		return err
	}
	releaseData(&v)
	return errWrongType
}

// debugRender renders v for the Debug object sink (spec.md 4.1 Glossary
// "Debug object"); this interpreter has no console of its own, so the
// rendering is plain text handed to State.debugf.
func debugRender(v Data) string {
	switch v.Tag {
	case TagInteger:
		return fmt.Sprintf("0x%x", v.Integer)
	case TagString:
		return v.String()
	case TagBuffer:
		return fmt.Sprintf("Buffer(len=%d)", v.Len())
	case TagPackage:
		return fmt.Sprintf("Package(len=%d)", v.Len())
	case TagReference:
		if v.obj != nil && v.obj.Node != nil {
			return "Reference(" + v.obj.Node.AbsoluteName + ")"
		}
		return "Reference"
	}
	return v.Tag.String()
}
