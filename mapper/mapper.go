// Package mapper routes CPU bus accesses to one of several non-overlapping
// address ranges, each bound to a memory.Interface. It is the Go analog of
// original_source's emu::memory::MemoryMapper template.
package mapper

import (
	"fmt"
	"sort"

	"github.com/sixtwo-toolchain/sixtwo/clock"
	"github.com/sixtwo-toolchain/sixtwo/memory"
)

// MissPolicy controls what happens when an address falls outside every
// mapped area.
type MissPolicy int

const (
	// Strict raises UnmappedRead/UnmappedWrite on a miss. This is the
	// recommended default (spec's open question on permissive vs strict
	// access is resolved in favor of strict).
	Strict MissPolicy = iota
	// Permissive returns 0 on an unmapped read and silently drops an
	// unmapped write.
	Permissive
)

// area is one mapped range bound to a backing memory.Interface.
type area struct {
	lo, hi uint16 // inclusive
	iface  memory.Interface
}

// Mapper is a MemoryInterface multiplexer over a fixed set of disjoint
// address ranges. Construction is the only place overlap is rejected;
// lookups are a binary search over the areas sorted by low address.
type Mapper struct {
	clock  *clock.Clock
	policy MissPolicy
	areas  []area
}

// New creates a Mapper. clk is ticked once per Load/Store that resolves
// (hit or miss, matching the teacher's original MemoryMapper::Load/Store,
// which calls WaitForNextCycle unconditionally before the lookup).
func New(clk *clock.Clock, policy MissPolicy) *Mapper {
	return &Mapper{clock: clk, policy: policy}
}

// Overlap describes two address ranges that cannot both be mapped.
type Overlap struct {
	A, B [2]uint16 // [lo,hi] pairs
}

func (e Overlap) Error() string {
	return fmt.Sprintf("mapper: overlapping ranges %.4X:%.4X <-> %.4X:%.4X", e.A[0], e.A[1], e.B[0], e.B[1])
}

// InvalidRange is returned when lo > hi.
type InvalidRange struct {
	Lo, Hi uint16
}

func (e InvalidRange) Error() string {
	return fmt.Sprintf("mapper: invalid range %.4X:%.4X", e.Lo, e.Hi)
}

// MapArea binds [lo, hi] (inclusive) to iface. Returns InvalidRange if
// lo > hi, or Overlap if the range intersects an already-mapped area.
func (m *Mapper) MapArea(lo, hi uint16, iface memory.Interface) error {
	if lo > hi {
		return InvalidRange{lo, hi}
	}
	for _, a := range m.areas {
		if lo <= a.hi && a.lo <= hi {
			return Overlap{[2]uint16{a.lo, a.hi}, [2]uint16{lo, hi}}
		}
	}
	m.areas = append(m.areas, area{lo, hi, iface})
	sort.Slice(m.areas, func(i, j int) bool { return m.areas[i].lo < m.areas[j].lo })
	return nil
}

// MapSize binds size bytes starting at offset to iface.
func (m *Mapper) MapSize(offset uint16, size int, iface memory.Interface) error {
	if size <= 0 || int(offset)+size-1 > 0xFFFF {
		return fmt.Errorf("mapper: invalid size %d at offset 0x%.4X", size, offset)
	}
	return m.MapArea(offset, offset+uint16(size-1), iface)
}

// lookup returns the area containing addr via binary search, or (area{}, false).
func (m *Mapper) lookup(addr uint16) (area, bool) {
	n := len(m.areas)
	i := sort.Search(n, func(i int) bool { return m.areas[i].hi >= addr })
	if i < n && m.areas[i].lo <= addr {
		return m.areas[i], true
	}
	return area{}, false
}

// Load implements memory.Interface, ticking the clock exactly once.
func (m *Mapper) Load(addr uint16) (uint8, error) {
	if m.clock != nil {
		m.clock.Tick()
	}
	a, ok := m.lookup(addr)
	if !ok {
		if m.policy == Permissive {
			return 0, nil
		}
		return 0, memory.UnmappedRead{Addr: addr}
	}
	return a.iface.Load(addr - a.lo)
}

// Store implements memory.Interface, ticking the clock exactly once.
func (m *Mapper) Store(addr uint16, val uint8) error {
	if m.clock != nil {
		m.clock.Tick()
	}
	a, ok := m.lookup(addr)
	if !ok {
		if m.policy == Permissive {
			return nil
		}
		return memory.UnmappedWrite{Addr: addr}
	}
	return a.iface.Store(addr-a.lo, val)
}

// DebugRead implements memory.Interface. Never ticks the clock.
func (m *Mapper) DebugRead(addr uint16) (uint8, bool) {
	a, ok := m.lookup(addr)
	if !ok {
		return 0, false
	}
	return a.iface.DebugRead(addr - a.lo)
}

var _ memory.Interface = (*Mapper)(nil)
