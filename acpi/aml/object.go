package aml

// ObjType identifies the kind of AML object an Object wraps (spec.md 3.3).
type ObjType uint8

const (
	ObjName ObjType = iota
	ObjMethod
	ObjDevice
	ObjMutex
	ObjEvent
	ObjOperationRegion
	ObjField
	ObjBankField
	ObjIndexField
	ObjBufferField
	ObjAlias
	ObjScope
	ObjProcessor
	ObjThermalZone
	ObjPowerResource
	ObjDataRegion
	ObjDebug
)

// SuperType distinguishes regular namespace objects from the Arg/Local/Debug
// sentinels used in method frames (spec.md 3.3).
type SuperType uint8

const (
	SuperRegular SuperType = iota
	SuperArg
	SuperLocal
	SuperDebugSentinel
)

// AccessType enumerates field access widths (spec.md 3.3/4.5.2).
type AccessType uint8

const (
	AccessAny AccessType = iota
	AccessByte
	AccessWord
	AccessDWord
	AccessQWord
	AccessBuffer
)

// UpdateRule selects how untouched bits of a partially-written access-width
// word are initialized (spec.md 4.5.2).
type UpdateRule uint8

const (
	UpdatePreserve UpdateRule = iota
	UpdateWriteAsOnes
	UpdateWriteAsZeros
)

// LockRule selects whether a field operation must hold the global lock.
type LockRule uint8

const (
	LockNone LockRule = iota
	LockGlobal
)

// Object is a tagged, reference-counted record wrapping a named AML value
// (spec.md 3.3). Type-specific state lives in payload, matching the
// teacher's own entity.go pattern of storing type-specific fields in a
// generic args slice inspected via type assertion.
type Object struct {
	Type      ObjType
	Super     SuperType
	refCount  int
	Node      *NamespaceNode // non-owning back-pointer
	regBitmap uint32         // regions already broadcast _REG for (by space type bit)
	iniDone   bool

	Value   Data // for ObjName/Arg/Local: the stored value
	payload interface{}
}

func newObject(t ObjType) *Object {
	return &Object{Type: t, refCount: 1}
}

func (o *Object) ref() *Object {
	if o != nil {
		o.refCount++
	}
	return o
}

// unref releases a reference; at zero it releases payload children (inner
// Data, inner object refs) before the Object itself becomes garbage
// (spec.md 4.2 "Object release").
func (o *Object) unref() {
	if o == nil {
		return
	}
	o.refCount--
	if o.refCount > 0 {
		return
	}
	releaseData(&o.Value)
	switch p := o.payload.(type) {
	case *methodPayload:
		releaseData(&p.returnValue)
	case *fieldPayload:
		if p.bankFieldUnit != nil {
			p.bankFieldUnit.unref()
		}
		if p.indexFieldUnit != nil {
			p.indexFieldUnit.unref()
		}
		if p.dataFieldUnit != nil {
			p.dataFieldUnit.unref()
		}
		if p.bufferSource != (Data{}) {
			releaseData(&p.bufferSource)
		}
	case *aliasPayload:
		// target is a non-owning name reference; nothing to release.
	}
}

// methodPayload carries Method-specific state (spec.md 3.3, 4.9 "Method").
type methodPayload struct {
	argCount     uint8
	serialized   bool
	syncLevel    uint8
	codeTable    string // owning table handle/name, for decoder re-entry
	codeStart    uint32
	codeEnd      uint32
	native       NativeMethod
	returnValue  Data
}

// NativeMethod is a host-supplied function bound to a method node instead
// of an AML code span (spec.md 4.11 step 4, "native method").
type NativeMethod func(s *State, args []Data) (Data, *Error)

// devicePayload, processorPayload, thermalZonePayload, powerResourcePayload
// all share the same shape (a scope plus lifecycle bookkeeping); kept as
// distinct named types for readability at call sites.
type devicePayload struct{}
type processorPayload struct {
	procID     uint8
	pblkAddr   uint32
	pblkLength uint8
}
type thermalZonePayload struct{}
type powerResourcePayload struct {
	systemLevel uint8
	resourceOrd uint16
}
type scopePayload struct{}

// mutexPayload / eventPayload hold the host handle plus, for mutexes, the
// sync level declared at creation.
type mutexPayload struct {
	handle    HostHandle
	syncLevel uint8
}
type eventPayload struct {
	handle HostHandle
}

// regionPayload describes an OperationRegion (spec.md 3.3).
type regionPayload struct {
	space  RegionSpace
	offset uint64
	length uint64
	mapped HostHandle
	isMapped bool
}

// dataRegionPayload backs a DataTableRegion (DataRegion opcode): a named
// region whose bytes are a loaded table rather than host address space.
type dataRegionPayload struct {
	bytes []byte
}

// fieldPayload is shared by plain/bank/index/buffer field objects
// (spec.md 3.3 "Field objects").
type fieldPayload struct {
	region *Object // for plain/bank fields: the owning OperationRegion

	bitOffset  uint64
	bitLength  uint64
	access     AccessType
	accessAttrib byte
	accessByteLen byte
	update     UpdateRule
	lock       LockRule
	connection []byte

	// Bank field extras.
	bankFieldUnit *Object
	bankValue     uint64

	// Index field extras.
	indexFieldUnit *Object
	dataFieldUnit  *Object

	// Buffer field extras: backed directly by a buffer/string Data rather
	// than an operation region.
	bufferSource Data
}

// aliasPayload stores the absolute path an Alias resolves to.
type aliasPayload struct {
	target string
}

// HostHandle is an opaque handle the host returns from create-style
// callbacks (mutex_create, event_create, memory_map); the interpreter
// never interprets its value, only threads it back through later calls.
type HostHandle uintptr
