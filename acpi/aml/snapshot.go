package aml

// snapshotItem is one undoable action recorded while a snapshot level is
// active: creating a namespace node, taking/releasing a reference, or
// resizing a buffer (spec.md 3.6/4.12). Modeled as a closure rather than a
// literal bump-allocator replay list: Go's GC already reclaims the memory
// a manual arena would bump-allocate, so the only bookkeeping this
// interpreter needs to reproduce is "what effect must be undone", which a
// closure expresses directly. See DESIGN.md for why this departs from the
// C original's literal arena.
type snapshotItem func()

// snapshotStack is a stack of "savepoints" that can be committed or rolled
// back on table-load or method failure (spec.md 3.6).
type snapshotStack struct {
	levels [][]snapshotItem
}

func (s *snapshotStack) begin() {
	s.levels = append(s.levels, nil)
}

func (s *snapshotStack) record(item snapshotItem) {
	if len(s.levels) == 0 {
		return
	}
	top := len(s.levels) - 1
	s.levels[top] = append(s.levels[top], item)
}

// rollback walks the current level's items LIFO, undoing each, then pops
// the level.
func (s *snapshotStack) rollback() {
	if len(s.levels) == 0 {
		return
	}
	top := len(s.levels) - 1
	items := s.levels[top]
	s.levels = s.levels[:top]
	for i := len(items) - 1; i >= 0; i-- {
		items[i]()
	}
}

// commit drops the current level's items without undoing them. If this was
// the outermost level, there is nothing further to reclaim (the GC already
// owns everything the would-be arena held).
func (s *snapshotStack) commit() {
	if len(s.levels) == 0 {
		return
	}
	s.levels = s.levels[:len(s.levels)-1]
}

func (s *snapshotStack) depth() int { return len(s.levels) }
