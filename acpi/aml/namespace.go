package aml

import "strings"

// ScopeFlags is a bitmask attached to a NamespaceNode (spec.md 3.4).
type ScopeFlags uint8

const (
	// ScopeTemporary marks a node bound to a method invocation's lifetime;
	// it is released when the owning scope-stack frame pops.
	ScopeTemporary ScopeFlags = 1 << iota
	// ScopeBoundary prevents relative name lookups from ascending past
	// this node (used for method scopes per the ACPI search rules).
	ScopeBoundary
)

// NamespaceNode is one entry in the flat namespace map, plus its place in
// the hierarchical tree built by the terminal pass (spec.md 3.4).
type NamespaceNode struct {
	AbsoluteName string
	LocalName    string
	Object       *Object
	Flags        ScopeFlags
	IsPreParsed  bool
	IsEvaluated  bool

	Parent      *NamespaceNode
	FirstChild  *NamespaceNode
	NextSibling *NamespaceNode

	createdUnderScope string // absolute path of the scope active at creation, for rollback bookkeeping
}

// Namespace is the flat name -> node map plus the root of the hierarchical
// tree, matching spec.md 3.4.
type Namespace struct {
	nodes map[string]*NamespaceNode
	root  *NamespaceNode
	treeBuilt bool
	treeMaxDepth int
}

func newNamespace() *Namespace {
	root := &NamespaceNode{AbsoluteName: "\\", LocalName: "\\"}
	ns := &Namespace{nodes: map[string]*NamespaceNode{"\\": root}, root: root}
	return ns
}

// lookupAbs returns the node for an already-normalized absolute name.
func (ns *Namespace) lookupAbs(abs string) *NamespaceNode {
	return ns.nodes[abs]
}

// joinAbs appends a relative NameSeg path onto an absolute parent path.
func joinAbs(parent, child string) string {
	if child == "" {
		return parent
	}
	if parent == "\\" {
		return "\\" + child
	}
	return parent + "." + child
}

// createNode creates (or, if it already exists as a pre-parsed skeleton,
// returns) the node at absolute path abs. Fails on collision unless the
// existing node is a pre-parsed skeleton awaiting its full-pass visit
// (spec.md 4.3 "Create node").
func (ns *Namespace) createNode(abs string, flags ScopeFlags, curScopeAbs string) (*NamespaceNode, *Error) {
	if existing, ok := ns.nodes[abs]; ok {
		if existing.IsPreParsed && !existing.IsEvaluated {
			return existing, nil
		}
		return nil, errNameCollision
	}

	local := abs
	if idx := strings.LastIndexByte(abs, '.'); idx >= 0 {
		local = abs[idx+1:]
	} else if abs != "\\" && strings.HasPrefix(abs, "\\") {
		local = abs[1:]
	}

	node := &NamespaceNode{
		AbsoluteName:      abs,
		LocalName:         local,
		Flags:             flags,
		createdUnderScope: curScopeAbs,
	}
	ns.nodes[abs] = node
	return node, nil
}

// deleteNode removes a node from the flat map and unlinks it from the tree,
// releasing the strong reference its Object slot held.
func (ns *Namespace) deleteNode(n *NamespaceNode) {
	if n.Object != nil {
		n.Object.unref()
		n.Object = nil
	}
	delete(ns.nodes, n.AbsoluteName)
	if n.Parent != nil {
		p := n.Parent
		if p.FirstChild == n {
			p.FirstChild = n.NextSibling
		} else {
			for c := p.FirstChild; c != nil; c = c.NextSibling {
				if c.NextSibling == n {
					c.NextSibling = n.NextSibling
					break
				}
			}
		}
	}
}

// buildTree links every node to its parent by stripping one segment off
// its absolute path, computing first-child/next-sibling lists and the
// overall max depth. One-shot after the initial load's namespace pass
// (spec.md 4.3 "Tree build"); subsequent dynamic loads call linkNode
// directly instead of rebuilding from scratch.
func (ns *Namespace) buildTree() {
	for abs, n := range ns.nodes {
		if abs == "\\" {
			continue
		}
		ns.linkNode(n)
	}
	ns.treeBuilt = true
	ns.treeMaxDepth = ns.computeMaxDepth(ns.root, 0)
}

func (ns *Namespace) linkNode(n *NamespaceNode) {
	if n.AbsoluteName == "\\" || n.Parent != nil {
		return
	}
	parentAbs := parentOf(n.AbsoluteName)
	parent := ns.nodes[parentAbs]
	if parent == nil {
		return
	}
	n.Parent = parent
	n.NextSibling = parent.FirstChild
	parent.FirstChild = n
}

func (ns *Namespace) computeMaxDepth(n *NamespaceNode, depth int) int {
	max := depth
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if d := ns.computeMaxDepth(c, depth+1); d > max {
			max = d
		}
	}
	return max
}

// parentOf strips the last NameSeg off an absolute path.
func parentOf(abs string) string {
	if abs == "\\" {
		return "\\"
	}
	idx := strings.LastIndexByte(abs, '.')
	if idx < 0 {
		return "\\"
	}
	return abs[:idx]
}

// scopeStackEntry records one active scope (spec.md 3.4 "Scope stack").
type scopeStackEntry struct {
	abs          string
	flags        ScopeFlags
	createdNodes []string
}

// scopeStack resolves relative names and bounds the lifetime of temporary
// nodes, grounded on the teacher's scope.go push/pop model.
type scopeStack struct {
	entries []scopeStackEntry
}

func (s *scopeStack) current() string {
	if len(s.entries) == 0 {
		return "\\"
	}
	return s.entries[len(s.entries)-1].abs
}

func (s *scopeStack) currentFlags() ScopeFlags {
	if len(s.entries) == 0 {
		return 0
	}
	return s.entries[len(s.entries)-1].flags
}

func (s *scopeStack) push(abs string, flags ScopeFlags) {
	s.entries = append(s.entries, scopeStackEntry{abs: abs, flags: flags})
}

func (s *scopeStack) noteCreated(abs string) {
	if len(s.entries) == 0 {
		return
	}
	top := &s.entries[len(s.entries)-1]
	top.createdNodes = append(top.createdNodes, abs)
}

// pop removes the top scope. If it was Temporary, every node it recorded as
// created that is itself flagged Temporary is released (spec.md 4.3 "Pop
// scope").
func (s *scopeStack) pop(ns *Namespace) {
	if len(s.entries) == 0 {
		return
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	if top.flags&ScopeTemporary == 0 {
		return
	}
	for _, abs := range top.createdNodes {
		if n, ok := ns.nodes[abs]; ok && n.Flags&ScopeTemporary != 0 {
			ns.deleteNode(n)
		}
	}
}

// resolvePrefix splits a NameString into (scope-to-search-from, remaining
// dotted segments), handling the `\`, `^`, and dotted-multi-segment forms
// per spec.md 3.4/4.1. Grounded on the teacher's scopeResolvePath.
func (ns *Namespace) resolvePrefix(ss *scopeStack, expr string) (startAbs string, rest string, ok bool) {
	if expr == "" {
		return "", "", false
	}
	if expr[0] == '\\' {
		return "\\", strings.TrimPrefix(expr[1:], "."), true
	}
	if expr[0] == '^' {
		hats := 0
		for hats < len(expr) && expr[hats] == '^' {
			hats++
		}
		abs := ss.current()
		for i := 0; i < hats; i++ {
			if abs == "\\" {
				return "", "", false
			}
			abs = parentOf(abs)
		}
		return abs, strings.TrimPrefix(expr[hats:], "."), true
	}
	return ss.current(), expr, true
}

// search resolves a NameString to a node using the ACPI lookup rules
// (spec.md 3.4): single-segment relative names ascend the scope stack one
// segment at a time, stopping at a Boundary frame; multi-segment or
// prefixed names resolve their starting scope first and then walk down
// without the ascend-and-retry behavior.
func (ns *Namespace) search(ss *scopeStack, expr string) *NamespaceNode {
	startAbs, rest, ok := ns.resolvePrefix(ss, expr)
	if !ok {
		return nil
	}
	if rest == "" {
		return ns.nodes[startAbs]
	}

	segs := strings.Split(rest, ".")
	isPrefixed := expr[0] == '\\' || expr[0] == '^'
	isMultiSeg := len(segs) > 1

	if !isPrefixed && !isMultiSeg {
		// Single relative NameSeg: ascend one scope at a time.
		abs := startAbs
		for {
			if n, found := ns.nodes[joinAbs(abs, segs[0])]; found {
				return n
			}
			if abs == "\\" {
				return nil
			}
			if n := ns.nodes[abs]; n != nil && n.Flags&ScopeBoundary != 0 {
				return nil
			}
			abs = parentOf(abs)
		}
	}

	abs := startAbs
	for _, seg := range segs {
		abs = joinAbs(abs, seg)
	}
	return ns.nodes[abs]
}

// resolveAbsolute normalizes expr (which may be relative) to an absolute
// name string without requiring the node to already exist; used by
// createNode callers.
func (ns *Namespace) resolveAbsolute(ss *scopeStack, expr string) (string, *Error) {
	startAbs, rest, ok := ns.resolvePrefix(ss, expr)
	if !ok {
		return "", errInvalidNameString
	}
	if rest == "" {
		return startAbs, nil
	}
	return joinAbs(startAbs, rest), nil
}
