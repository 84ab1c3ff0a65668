// Package memory defines the byte-addressable storage contract shared by
// RAM and memory-mapped devices, and the flat RAM implementation of it.
package memory

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sixtwo-toolchain/sixtwo/clock"
)

// UnmappedRead is returned by an implementation that has no byte stored at
// addr and cannot synthesize one.
type UnmappedRead struct {
	Addr uint16
}

func (e UnmappedRead) Error() string {
	return fmt.Sprintf("unmapped read at 0x%.4X", e.Addr)
}

// UnmappedWrite is returned by an implementation that has no storage backing
// addr.
type UnmappedWrite struct {
	Addr uint16
}

func (e UnmappedWrite) Error() string {
	return fmt.Sprintf("unmapped write at 0x%.4X", e.Addr)
}

// ReadOnly is returned when a Store targets an address backed by read-only
// storage (e.g. ROM).
type ReadOnly struct {
	Addr uint16
}

func (e ReadOnly) Error() string {
	return fmt.Sprintf("write to read-only address 0x%.4X", e.Addr)
}

// Interface is the contract the CPU and the memory mapper use to access a
// byte-addressable region: a fallible Load/Store pair for normal bus
// traffic, and a non-observable DebugRead for disassembly/inspection that
// never advances the clock.
type Interface interface {
	// Load returns the byte at addr, ticking the clock if this
	// implementation owns one. Returns UnmappedRead if addr has no backing
	// byte.
	Load(addr uint16) (uint8, error)
	// Store writes val at addr, ticking the clock if this implementation
	// owns one. Returns UnmappedWrite or ReadOnly as appropriate.
	Store(addr uint16, val uint8) error
	// DebugRead returns the byte at addr without side effects: no clock
	// tick, no databus observation. ok is false if addr has no backing
	// byte.
	DebugRead(addr uint16) (val uint8, ok bool)
}

// RAM is the trivial Interface implementation: a flat byte array covering
// [0, len(bytes)) with power-on randomization. When constructed with a
// non-nil clock it ticks that clock on every Load/Store, which is correct
// for a RAM used directly as a CPU's bus; a RAM handed to a MemoryMapper as
// one of its areas should be constructed with a nil clock, since the
// mapper itself owns the single tick per bus access.
type RAM struct {
	bytes []uint8
	clock *clock.Clock
}

// NewRAM allocates a RAM bank of the given size (must fit in the 16-bit
// address space) and powers it on. If clk is non-nil, Load/Store tick it.
func NewRAM(size int, clk *clock.Clock) (*RAM, error) {
	if size <= 0 || size > 1<<16 {
		return nil, fmt.Errorf("invalid RAM size %d: must be in (0, 65536]", size)
	}
	r := &RAM{
		bytes: make([]uint8, size),
		clock: clk,
	}
	r.PowerOn()
	return r, nil
}

// PowerOn fills RAM with random bytes, matching real hardware's
// undefined-at-power-on behavior.
func (r *RAM) PowerOn() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range r.bytes {
		r.bytes[i] = uint8(rnd.Intn(256))
	}
}

// Load implements Interface.
func (r *RAM) Load(addr uint16) (uint8, error) {
	if int(addr) >= len(r.bytes) {
		return 0, UnmappedRead{addr}
	}
	v := r.bytes[addr]
	if r.clock != nil {
		r.clock.Tick()
	}
	return v, nil
}

// Store implements Interface.
func (r *RAM) Store(addr uint16, val uint8) error {
	if int(addr) >= len(r.bytes) {
		return UnmappedWrite{addr}
	}
	r.bytes[addr] = val
	if r.clock != nil {
		r.clock.Tick()
	}
	return nil
}

// DebugRead implements Interface. Never ticks the clock.
func (r *RAM) DebugRead(addr uint16) (uint8, bool) {
	if int(addr) >= len(r.bytes) {
		return 0, false
	}
	return r.bytes[addr], true
}

// Len returns the number of addressable bytes in this RAM bank.
func (r *RAM) Len() int {
	return len(r.bytes)
}
