package aml

// registerBuiltinMethods binds the natively-implemented predefined methods
// this interpreter supplies itself, rather than expecting them from the
// loaded tables (spec.md 4.13; SPEC_FULL.md "SUPPLEMENTED FEATURES").
func (s *State) registerBuiltinMethods() {
	n, err := s.ns.createNode("\\_OSI", 0, "\\")
	if err != nil {
		return
	}
	n.Object = newObject(ObjMethod)
	n.Object.Node = n
	n.Object.payload = &methodPayload{argCount: 1, native: builtinOSI}
	n.IsEvaluated = true
	s.ns.linkNode(n)
}

// builtinOSI implements the \_OSI predefined control method (spec.md 4.13;
// grounded on original_source/src/aml_osi.c's AmlOsiQueryNativeMethod):
// takes a single interface-name String and returns the AML boolean for
// whether State.osiSupported claims that interface. Malformed arguments
// report unsupported rather than erroring, matching the original's
// tolerance of buggy callers.
func builtinOSI(s *State, args []Data) (Data, *Error) {
	if len(args) < 1 || args[0].Tag != TagString {
		return IntData(0), nil
	}
	name := args[0].String()
	supported := s.osiSupported[name]
	s.debugf("OSI query: %s (supported: %v)\n", name, supported)
	return s.boolData(supported), nil
}

// maybeBroadcastReg notifies the nearest enclosing _REG method that its
// operation region's address space has become available, exactly once per
// region (spec.md 4.9 "OperationRegion", 4.13 "_REG broadcast"). Only
// address spaces this host has actually registered a handler for trigger
// the broadcast, since an unconnected space (e.g. EmbeddedControl with no
// embedded controller present) has nothing to report.
func (s *State) maybeBroadcastReg(region *Object) {
	rp, ok := region.payload.(*regionPayload)
	if !ok {
		return
	}
	bit := uint32(1) << uint(rp.space&31)
	if region.regBitmap&bit != 0 {
		return
	}
	if !s.regionHandlers[rp.space].enabled {
		return
	}
	region.regBitmap |= bit

	regMethod := s.findRegMethod(region.Node)
	if regMethod == nil {
		return
	}
	_, _ = s.Invoke(regMethod, []Data{IntData(uint64(rp.space)), IntData(1)})
}

// findRegMethod walks up from a region's declaring node looking for a
// sibling _REG method in the nearest enclosing scope.
func (s *State) findRegMethod(n *NamespaceNode) *Object {
	for p := n; p != nil; p = p.Parent {
		if reg := s.ns.lookupAbs(p.AbsoluteName + "._REG"); reg != nil && reg.Object != nil && reg.Object.Type == ObjMethod {
			return reg.Object
		}
	}
	return nil
}

const (
	staPresent     = 0x1
	staFunctioning = 0x8
)

// isLifecycleNode reports whether n's object participates in the
// _STA/_INI walk (spec.md 4.13: "for each device/processor/thermal-zone
// node").
func isLifecycleNode(obj *Object) bool {
	if obj == nil {
		return false
	}
	switch obj.Type {
	case ObjDevice, ObjProcessor, ObjThermalZone:
		return true
	}
	return false
}

// WalkDeviceTree implements the _STA/_INI device-enumeration broadcast
// (spec.md 4.13): for every Device/Processor/ThermalZone in the namespace
// it invokes _STA (defaulting to "present, enabled, functioning, not
// battery" — 0x0F — if the node declares no _STA at all, per the ACPI
// default), reports the result to the host, and invokes _INI once for
// nodes reporting Present & Functioning. A node reporting Functioning
// clear has its entire subtree skipped, per spec.md 4.13.
func (s *State) WalkDeviceTree() *Error {
	return s.walkDeviceSubtree(s.ns.root)
}

func (s *State) walkDeviceSubtree(n *NamespaceNode) *Error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isLifecycleNode(c.Object) {
			sta, err := s.initDevice(c)
			if err != nil {
				return err
			}
			if sta&staFunctioning == 0 {
				continue
			}
		}
		if err := s.walkDeviceSubtree(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) initDevice(n *NamespaceNode) (uint32, *Error) {
	const staDefault = 0x0F
	sta := uint32(staDefault)
	if staNode := s.ns.lookupAbs(n.AbsoluteName + "._STA"); staNode != nil && staNode.Object != nil && staNode.Object.Type == ObjMethod {
		v, err := s.Invoke(staNode.Object, nil)
		if err != nil {
			return 0, err
		}
		raw, cerr := s.convToInteger(v)
		releaseData(&v)
		if cerr != nil {
			return 0, cerr
		}
		sta = uint32(raw)
	}
	s.host.OnDeviceInitialized(n.AbsoluteName, sta)

	if sta&(staPresent|staFunctioning) != staPresent|staFunctioning || n.Object.iniDone {
		return sta, nil
	}
	iniNode := s.ns.lookupAbs(n.AbsoluteName + "._INI")
	if iniNode == nil || iniNode.Object == nil || iniNode.Object.Type != ObjMethod {
		return sta, nil
	}
	n.Object.iniDone = true
	_, err := s.Invoke(iniNode.Object, nil)
	return sta, err
}
