package aml

import "fmt"

// convToInteger implicitly converts v to an Integer following the table in
// spec.md 4.6. Explicit conversions (ToInteger) call this too but then
// store the result with CopyObject semantics instead of another implicit
// conversion.
func (s *State) convToInteger(v Data) (uint64, *Error) {
	switch v.Tag {
	case TagInteger:
		return v.Integer, nil
	case TagString:
		return parseAMLInteger(v.String())
	case TagBuffer:
		raw := v.AsBytes()
		if len(raw) == 0 {
			return 0, errEmptyBufferConv
		}
		n := len(raw)
		if n > 8 {
			n = 8
		}
		var out uint64
		for i := n - 1; i >= 0; i-- {
			out = out<<8 | uint64(raw[i])
		}
		return out, nil
	case TagFieldUnit:
		fv, err := s.readField(v.obj)
		if err != nil {
			return 0, err
		}
		return s.convToInteger(fv)
	case TagPackageElement:
		fv, err := v.pkgElem.get()
		if err != nil {
			return 0, err
		}
		return s.convToInteger(fv)
	case TagReference:
		fv, err := s.readNamedValue(v.obj)
		if err != nil {
			return 0, err
		}
		return s.convToInteger(fv)
	}
	return 0, errWrongType
}

// parseAMLInteger implements spec.md 4.6's String->Integer rule: implicit
// conversion treats the string as hex with no required prefix; an empty
// string is forbidden.
func parseAMLInteger(str string) (uint64, *Error) {
	if str == "" {
		return 0, errEmptyStringConv
	}
	var v uint64
	i := 0
	for ; i < len(str); i++ {
		c := str[i]
		var digit uint64
		switch {
		case c >= '0' && c <= '9':
			digit = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			digit = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			digit = uint64(c-'A') + 10
		default:
			if i == 0 {
				return 0, errEmptyStringConv
			}
			return v, nil
		}
		v = v*16 + digit
	}
	return v, nil
}

// convToBuffer implicitly converts v to a Buffer (spec.md 4.6).
func (s *State) convToBuffer(v Data) (Data, *Error) {
	switch v.Tag {
	case TagBuffer:
		return v, nil
	case TagInteger:
		width := 4
		if s.intWidth == Width64 {
			width = 8
		}
		raw := make([]byte, width)
		n := v.Integer
		for i := 0; i < width; i++ {
			raw[i] = byte(n)
			n >>= 8
		}
		return BufferData(raw), nil
	case TagString:
		raw := append([]byte(v.String()), 0)
		return BufferData(raw), nil
	case TagFieldUnit:
		fv, err := s.readField(v.obj)
		if err != nil {
			return Data{}, err
		}
		return s.convToBuffer(fv)
	}
	return Data{}, errWrongType
}

// convToString implicitly converts v to a String (spec.md 4.6). explicitHex
// selects ToHexString-style rendering for buffers; explicitDecimal selects
// ToDecimalString-style.
func (s *State) convToString(v Data, explicitHex, explicitDecimal bool) (Data, *Error) {
	switch v.Tag {
	case TagString:
		return v, nil
	case TagInteger:
		width := 8
		if s.intWidth == Width64 {
			width = 16
		}
		return StringData(fmt.Sprintf("%0*x", width, v.Integer)), nil
	case TagBuffer:
		raw := v.AsBytes()
		// Open Question (spec.md 9): this implementation joins subtype
		// components with ", " (comma-space), per DESIGN.md.
		out := ""
		for i, b := range raw {
			if i > 0 {
				out += ", "
			}
			if explicitDecimal {
				out += fmt.Sprintf("%d", b)
			} else {
				out += fmt.Sprintf("0x%02x", b)
			}
		}
		_ = explicitHex
		return StringData(out), nil
	case TagFieldUnit:
		fv, err := s.readField(v.obj)
		if err != nil {
			return Data{}, err
		}
		return s.convToString(fv, explicitHex, explicitDecimal)
	}
	return Data{}, errWrongType
}

// implicitStore stores src into dst (an existing Data slot owner) applying
// the implicit conversion table of spec.md 4.6, keyed by dst's *current*
// tag (a Name object's prior value dictates the target shape, per ACPI
// store semantics) — if dst has never been assigned (TagNone), src is
// stored as-is (CopyObject-like) since there is no target shape yet.
func (s *State) implicitStore(dst *Data, src Data) *Error {
	targetTag := dst.Tag
	if targetTag == TagNone {
		old := *dst
		releaseData(&old)
		*dst = dupData(src)
		return nil
	}

	var converted Data
	var err *Error
	switch targetTag {
	case TagInteger:
		var iv uint64
		iv, err = s.convToInteger(src)
		converted = IntData(maskToWidth(iv, s.intWidth))
	case TagString:
		converted, err = s.convToString(src, false, false)
	case TagBuffer:
		converted, err = s.convToBuffer(src)
	case TagPackage:
		if src.Tag != TagPackage {
			return errWrongType
		}
		converted, err = s.deepCopyPackage(src)
	default:
		converted, err = src, nil
		converted = dupData(converted)
	}
	if err != nil {
		return err
	}
	old := *dst
	releaseData(&old)
	*dst = converted
	return nil
}

// deepCopyPackage implements spec.md 4.6's Package->Package row: a
// recursive deep copy of every element (spec.md 9's explicit deep-copy
// path, as opposed to dupData's shallow share-by-refcount).
func (s *State) deepCopyPackage(src Data) (Data, *Error) {
	if src.pkg == nil {
		return Data{}, errWrongType
	}
	out := newPackageRef(len(src.pkg.elements))
	for i, e := range src.pkg.elements {
		if e.Tag == TagPackage {
			if e.pkg == src.pkg {
				return Data{}, errSelfReferentialPackage
			}
			cp, err := s.deepCopyPackage(e)
			if err != nil {
				return Data{}, err
			}
			out.elements[i] = cp
		} else {
			out.elements[i] = dupData(e)
		}
	}
	return Data{Tag: TagPackage, pkg: out}, nil
}

// copyObjectInto implements CopyObject semantics (spec.md 4.7): replace
// whatever was at dst with a fresh copy of src, with NO implicit
// conversion, regardless of dst's previous tag.
func (s *State) copyObjectInto(dst *Data, src Data) *Error {
	var fresh Data
	if src.Tag == TagPackage {
		var err *Error
		fresh, err = s.deepCopyPackage(src)
		if err != nil {
			return err
		}
	} else {
		fresh = dupData(src)
	}
	old := *dst
	releaseData(&old)
	*dst = fresh
	return nil
}
