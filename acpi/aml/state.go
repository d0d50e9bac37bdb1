package aml

import (
	"fmt"
	"io"
)

// ctrlFlow describes how the pending-interruption mechanism is altering
// normal term-list iteration (spec.md 4.8, 9 "Control-flow interruptions").
// Modeled as a field on State rather than as a Go error/panic, per spec.md
// 9's explicit instruction not to use exceptions here.
type ctrlFlow uint8

const (
	ctrlFlowNone ctrlFlow = iota
	ctrlFlowBreak
	ctrlFlowContinue
	ctrlFlowReturn
)

// regionHandlerEntry is one slot of the 256-entry region-space dispatch
// table (spec.md 4.5.1).
type regionHandlerEntry struct {
	enabled         bool
	broadcastPending bool
}

// Config carries interpreter-wide tunables that are not derived from table
// contents (spec.md's ambient "Configuration" concern; see SPEC_FULL.md).
type Config struct {
	// MaxLoopIterations bounds While execution as a watchdog (spec.md 4.8).
	MaxLoopIterations int
	// RunRootInitOnLoadComplete invokes \_INI and \_SB_._INI unconditionally
	// at MarkLoadComplete, before the regular _STA-gated _INI walk
	// (spec.md 4.13).
	RunRootInitOnLoadComplete bool
}

// DefaultConfig returns the configuration the teacher's own VM effectively
// hard-codes (a generous loop watchdog, root _INI enabled).
func DefaultConfig() Config {
	return Config{MaxLoopIterations: 0xFFFFF, RunRootInitOnLoadComplete: true}
}

// State is the single owned, passed-by-mutable-reference interpreter
// instance (spec.md 9 "Global mutable state"): no process-wide singletons.
// Grounded on the teacher's VM struct, generalized from the entity-tree +
// bytecode-VM design to the namespace-node model spec.md specifies.
type State struct {
	w      io.Writer
	host   Host
	config Config

	ns    *Namespace
	scope scopeStack
	snap  snapshotStack

	intWidth IntegerWidth

	regionHandlers [numRegionSpaces]regionHandlerEntry

	loadComplete bool
	tableNames   []string
	loadingTable string

	debugSentinelObj *Object
	whileLoopLevel   int
	pending          ctrlFlow

	osiSupported map[string]bool

	curFrame        *methodFrame
	lastReturnValue Data

	tables map[string][]byte
}

// NewState creates an interpreter state with the default ACPI predefined
// scopes (\_GPE, \_PR_, \_SB_, \_SI_, \_TZ_) and an empty namespace
// otherwise, matching the teacher's NewVM/defaultACPIScopes.
func NewState(w io.Writer, host Host, cfg Config) *State {
	s := &State{
		w:        w,
		host:     host,
		config:   cfg,
		ns:       newNamespace(),
		intWidth: Width32,
		osiSupported: map[string]bool{
			"Windows 2009": true,
			"Windows 2012": true,
			"Windows 2015": true,
			"Windows 2020": true,
		},
	}
	for _, predefined := range []string{"_GPE", "_PR_", "_SB_", "_SI_", "_TZ_"} {
		n, _ := s.ns.createNode("\\"+predefined, 0, "\\")
		n.Object = newObject(ObjScope)
		n.Object.Node = n
		n.Object.payload = &scopePayload{}
		s.ns.linkNode(n)
	}
	s.debugSentinelObj = newObject(ObjDebug)
	s.registerDefaultRegionHandlers()
	s.registerBuiltinMethods()
	return s
}

func (s *State) registerDefaultRegionHandlers() {
	for _, space := range []RegionSpace{SpaceSystemIO, SpaceSystemMemory, SpacePCIConfig} {
		s.regionHandlers[space].enabled = true
	}
}

// IntegerWidth reports the active integer width (spec.md 3.2).
func (s *State) IntegerWidth() IntegerWidth { return s.intWidth }

// Root returns the root namespace node ("\\").
func (s *State) Root() *NamespaceNode { return s.ns.root }

// Lookup resolves an absolute or scope-relative NameString against the
// current scope stack (empty when called outside an evaluation).
func (s *State) Lookup(name string) *NamespaceNode {
	return s.ns.search(&s.scope, name)
}

// tableBytes returns the raw bytes previously registered under name via
// registerTableBytes, or nil if unknown.
func (s *State) tableBytes(name string) []byte {
	return s.tables[name]
}

func (s *State) registerTableBytes(name string, data []byte) {
	if s.tables == nil {
		s.tables = make(map[string][]byte)
	}
	s.tables[name] = data
}

// curTableName reports the name under which the table currently being
// loaded was registered, so Method() can capture a re-enterable code span
// (spec.md 4.9 "Method").
func (s *State) curTableName() string { return s.loadingTable }

func (s *State) debugf(format string, args ...interface{}) {
	if s.w == nil {
		return
	}
	_, _ = fmt.Fprintf(s.w, format, args...)
}
