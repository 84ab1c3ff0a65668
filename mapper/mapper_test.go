package mapper

import (
	"testing"

	"github.com/sixtwo-toolchain/sixtwo/clock"
	"github.com/sixtwo-toolchain/sixtwo/memory"
)

func TestRoutesToCorrectArea(t *testing.T) {
	c := clock.New()
	m := New(c, Strict)
	lowRAM, err := memory.NewRAM(0x8000, nil)
	if err != nil {
		t.Fatalf("NewRAM: %v", err)
	}
	hiRAM, err := memory.NewRAM(0x100, nil)
	if err != nil {
		t.Fatalf("NewRAM: %v", err)
	}
	if err := m.MapArea(0x0000, 0x7FFF, lowRAM); err != nil {
		t.Fatalf("MapArea low: %v", err)
	}
	if err := m.MapArea(0xFF00, 0xFFFF, hiRAM); err != nil {
		t.Fatalf("MapArea hi: %v", err)
	}

	if err := m.Store(0x1234, 0xAB); err != nil {
		t.Fatalf("Store: %v", err)
	}
	v, ok := lowRAM.DebugRead(0x1234)
	if !ok || v != 0xAB {
		t.Fatalf("lowRAM[0x1234] = %v, %v, want 0xAB true", v, ok)
	}

	if err := m.Store(0xFF10, 0xCD); err != nil {
		t.Fatalf("Store hi: %v", err)
	}
	v, ok = hiRAM.DebugRead(0x10)
	if !ok || v != 0xCD {
		t.Fatalf("hiRAM[0x10] = %v, %v, want 0xCD true", v, ok)
	}

	if got := c.CurrentCycle(); got != 2 {
		t.Errorf("clock ticks = %d, want 2", got)
	}
}

func TestStrictMissErrors(t *testing.T) {
	m := New(clock.New(), Strict)
	lowRAM, _ := memory.NewRAM(0x8000, nil)
	if err := m.MapArea(0x0000, 0x7FFF, lowRAM); err != nil {
		t.Fatalf("MapArea: %v", err)
	}
	if err := m.Store(0xC000, 0x01); err == nil {
		t.Fatalf("Store(0xC000) err = nil, want UnmappedWrite")
	} else if _, ok := err.(memory.UnmappedWrite); !ok {
		t.Fatalf("Store(0xC000) err = %T, want UnmappedWrite", err)
	}
	if _, err := m.Load(0xC000); err == nil {
		t.Fatalf("Load(0xC000) err = nil, want UnmappedRead")
	}
}

func TestPermissiveMissIsSilent(t *testing.T) {
	m := New(clock.New(), Permissive)
	if v, err := m.Load(0xC000); err != nil || v != 0 {
		t.Fatalf("Load(0xC000) = %v, %v, want 0, nil", v, err)
	}
	if err := m.Store(0xC000, 0xFF); err != nil {
		t.Fatalf("Store(0xC000) = %v, want nil", err)
	}
}

func TestOverlappingAreasRejected(t *testing.T) {
	m := New(clock.New(), Strict)
	a, _ := memory.NewRAM(0x100, nil)
	b, _ := memory.NewRAM(0x100, nil)
	if err := m.MapArea(0x0000, 0x00FF, a); err != nil {
		t.Fatalf("MapArea a: %v", err)
	}
	err := m.MapArea(0x0080, 0x017F, b)
	if err == nil {
		t.Fatalf("MapArea overlapping b: err = nil, want Overlap")
	}
	if _, ok := err.(Overlap); !ok {
		t.Fatalf("MapArea overlapping b: err = %T, want Overlap", err)
	}
}

func TestInvalidRangeRejected(t *testing.T) {
	m := New(clock.New(), Strict)
	a, _ := memory.NewRAM(0x100, nil)
	if err := m.MapArea(0x0100, 0x0000, a); err == nil {
		t.Fatalf("MapArea backwards range: err = nil, want InvalidRange")
	}
}

func TestDebugReadDoesNotTick(t *testing.T) {
	c := clock.New()
	m := New(c, Strict)
	a, _ := memory.NewRAM(0x100, nil)
	if err := m.MapArea(0x0000, 0x00FF, a); err != nil {
		t.Fatalf("MapArea: %v", err)
	}
	if _, ok := m.DebugRead(0x10); !ok {
		t.Fatalf("DebugRead(0x10) not ok")
	}
	if got := c.CurrentCycle(); got != 0 {
		t.Errorf("clock ticked %d times from DebugRead, want 0", got)
	}
}
