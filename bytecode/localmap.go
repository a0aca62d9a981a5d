package bytecode

import "github.com/Blunkie/RuneScript/types"

// LocalMap is a per-script table of local slots, partitioned by stack
// domain: int, string, and long locals each have their own index space.
type LocalMap struct {
	slots map[types.Domain]map[string]int
	next  map[types.Domain]int
}

// NewLocalMap creates an empty local map.
func NewLocalMap() *LocalMap {
	return &LocalMap{
		slots: map[types.Domain]map[string]int{
			types.INT:    {},
			types.STRING: {},
			types.LONG:   {},
		},
		next: map[types.Domain]int{},
	}
}

// Declare assigns the next free slot in prim's domain to name, returning
// the assigned slot. Redeclaring an existing name reuses its slot.
func (m *LocalMap) Declare(name string, prim types.Primitive) int {
	d := prim.Domain()
	if slot, ok := m.slots[d][name]; ok {
		return slot
	}
	slot := m.next[d]
	m.slots[d][name] = slot
	m.next[d] = slot + 1
	return slot
}

// Lookup returns the slot assigned to name in domain d.
func (m *LocalMap) Lookup(name string, d types.Domain) (int, bool) {
	slot, ok := m.slots[d][name]
	return slot, ok
}

// Count returns how many slots have been assigned in domain d.
func (m *LocalMap) Count(d types.Domain) int {
	return m.next[d]
}
