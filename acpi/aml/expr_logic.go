package aml

// evalLogicOpcode dispatches the logical/comparison ExpressionOpcodes
// (spec.md 4.7 "Logical operators"). None of these take a Target operand;
// the result is always an immediate Boolean (Ones/Zero) used directly, most
// often as an If/While predicate.
func (s *State) evalLogicOpcode(d *decoder, pass evalPass, op opcode) (Data, *Error) {
	switch op {
	case opLnot:
		a, err := s.evalTermAsInteger(d, pass)
		if err != nil {
			return Data{}, err
		}
		if pass == passNamespace {
			return Data{}, nil
		}
		return s.boolData(a == 0), nil
	case opLand:
		return s.binaryIntLogic(d, pass, func(a, b uint64) bool { return a != 0 && b != 0 })
	case opLor:
		return s.binaryIntLogic(d, pass, func(a, b uint64) bool { return a != 0 || b != 0 })
	case opLEqual:
		return s.compareLogic(d, pass, func(c int) bool { return c == 0 })
	case opLGreater:
		return s.compareLogic(d, pass, func(c int) bool { return c > 0 })
	case opLLess:
		return s.compareLogic(d, pass, func(c int) bool { return c < 0 })
	}
	return Data{}, errInvalidOpcode
}

func (s *State) binaryIntLogic(d *decoder, pass evalPass, judge func(a, b uint64) bool) (Data, *Error) {
	a, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return Data{}, err
	}
	b, err := s.evalTermAsInteger(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		return Data{}, nil
	}
	return s.boolData(judge(a, b)), nil
}

// compareLogic implements DefLEqual/DefLGreater/DefLLess: the first operand's
// type (Integer, String, or Buffer) decides how the second is compared,
// converting it implicitly to match (spec.md 4.7 "Logical comparisons").
func (s *State) compareLogic(d *decoder, pass evalPass, judge func(cmp int) bool) (Data, *Error) {
	a, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	b, err := s.evalTerm(d, pass)
	if err != nil {
		return Data{}, err
	}
	if pass == passNamespace {
		return Data{}, nil
	}
	cmp, cerr := s.compareData(a, b)
	releaseData(&a)
	releaseData(&b)
	if cerr != nil {
		return Data{}, cerr
	}
	return s.boolData(judge(cmp)), nil
}

func (s *State) compareData(a, b Data) (int, *Error) {
	if a.Tag == TagFieldUnit {
		v, err := s.readField(a.obj)
		if err != nil {
			return 0, err
		}
		return s.compareData(v, b)
	}
	switch a.Tag {
	case TagInteger:
		bi, err := s.convToInteger(b)
		if err != nil {
			return 0, err
		}
		return compareUint64(a.Integer, bi), nil
	case TagString:
		bd, err := s.convToString(b, false, false)
		if err != nil {
			return 0, err
		}
		return compareBytes([]byte(a.String()), bd.AsBytes()), nil
	case TagBuffer:
		bd, err := s.convToBuffer(b)
		if err != nil {
			return 0, err
		}
		return compareBytes(a.AsBytes(), bd.AsBytes()), nil
	}
	return 0, errWrongType
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return compareUint64(uint64(len(a)), uint64(len(b)))
}

func (s *State) boolData(v bool) Data {
	if v {
		return IntData(signExtend(0xFFFFFFFF, s.intWidth))
	}
	return IntData(0)
}
