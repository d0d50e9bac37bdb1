package aml

// evalBuffer implements DefBuffer: BufferOp PkgLength BufferSize ByteList
// (spec.md 4.7 "Buffer"). The byte list is copied into a slice of exactly
// BufferSize bytes, zero-padded if the literal ByteList is shorter.
func (s *State) evalBuffer(d *decoder, pass evalPass) (Data, *Error) {
	end, err := d.pkgLength()
	if err != nil {
		return Data{}, err
	}
	size, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return Data{}, err
	}
	raw, err := d.span(d.pos, end)
	if err != nil {
		return Data{}, err
	}
	d.pos = end
	if pass == passNamespace {
		return Data{}, nil
	}
	out := make([]byte, size)
	copy(out, raw)
	return BufferData(out), nil
}

// evalPackage implements DefPackage/DefVarPackage (spec.md 4.7 "Package"):
// a fixed-count or TermArg-counted list of element DataRefObjects.
func (s *State) evalPackage(d *decoder, pass evalPass, isVar bool) (Data, *Error) {
	end, err := d.pkgLength()
	if err != nil {
		return Data{}, err
	}

	var count uint64
	if isVar {
		count, err = s.evalTermAsInteger(d, pass)
	} else {
		var b byte
		b, err = d.readByte()
		count = uint64(b)
	}
	if err != nil {
		return Data{}, err
	}

	var elems []Data
	for d.pos < end {
		v, verr := s.evalTerm(d, pass)
		if verr != nil {
			return Data{}, verr
		}
		elems = append(elems, v)
	}
	d.pos = end

	if pass == passNamespace {
		for _, e := range elems {
			releaseData(&e)
		}
		return Data{}, nil
	}

	pkg := PackageData(int(count))
	for i := range pkg.pkg.elements {
		if i < len(elems) {
			pkg.pkg.elements[i] = elems[i]
		} else {
			pkg.pkg.elements[i] = IntData(0)
		}
	}
	for i := len(pkg.pkg.elements); i < len(elems); i++ {
		releaseData(&elems[i])
	}
	return pkg, nil
}
