package harness

import (
	"testing"
	"time"

	"github.com/sixtwo-toolchain/sixtwo/clock"
	"github.com/sixtwo-toolchain/sixtwo/cpu"
	"github.com/sixtwo-toolchain/sixtwo/mapper"
	"github.com/sixtwo-toolchain/sixtwo/memory"
)

func newSimulation(t *testing.T, ramSize int) (*Simulation, *memory.RAM) {
	t.Helper()
	clk := clock.New()
	m := mapper.New(clk, mapper.Strict)
	ram, err := memory.NewRAM(ramSize, nil) // the mapper owns the per-access tick
	if err != nil {
		t.Fatalf("new ram: %v", err)
	}
	if err := m.MapSize(0, ramSize, ram); err != nil {
		t.Fatalf("map ram: %v", err)
	}
	iset := cpu.NewInstructionSet(cpu.NMOS6502Emu)
	chip := cpu.New(m, clk, iset)
	return New(clk, m, chip), ram
}

func TestRunHaltsCleanly(t *testing.T) {
	sim, ram := newSimulation(t, 0x10000)
	if err := ram.Store(0xFFFC, 0x00); err != nil {
		t.Fatal(err)
	}
	if err := ram.Store(0xFFFD, 0x06); err != nil {
		t.Fatal(err)
	}
	if err := ram.Store(0x0600, 0xA9); err != nil { // LDA #$2A
		t.Fatal(err)
	}
	if err := ram.Store(0x0601, 0x2A); err != nil {
		t.Fatal(err)
	}
	if err := ram.Store(0x0602, cpu.OpHLTAcc); err != nil {
		t.Fatal(err)
	}

	res, err := sim.Run(time.Second)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Halted {
		t.Fatalf("res.Halted = false, want true")
	}
	if res.HaltCode != 0x2A {
		t.Errorf("HaltCode = 0x%.2X, want 0x2A", res.HaltCode)
	}
}

func TestRunSurfacesUnmappedAccessAsSimulationFailed(t *testing.T) {
	sim, ram := newSimulation(t, 0x200)
	// The reset vector at 0xFFFC lies outside the 0x200-byte RAM, so a second
	// bank mapped over the top page holds it.
	vectors, err := memory.NewRAM(0x100, nil)
	if err != nil {
		t.Fatalf("new vector ram: %v", err)
	}
	if err := sim.Mapper.MapArea(0xFF00, 0xFFFF, vectors); err != nil {
		t.Fatalf("map vectors: %v", err)
	}
	if err := vectors.Store(0xFC, 0x00); err != nil {
		t.Fatal(err)
	}
	if err := vectors.Store(0xFD, 0x01); err != nil {
		t.Fatal(err)
	}
	// LDA $F000 — well outside the 0x200-byte mapped RAM.
	if err := ram.Store(0x0100, 0xAD); err != nil {
		t.Fatal(err)
	}
	if err := ram.Store(0x0101, 0x00); err != nil {
		t.Fatal(err)
	}
	if err := ram.Store(0x0102, 0xF0); err != nil {
		t.Fatal(err)
	}

	_, err = sim.Run(time.Second)
	sf, ok := err.(SimulationFailed)
	if !ok {
		t.Fatalf("err = %v (%T), want SimulationFailed", err, err)
	}
	if _, ok := sf.Unwrap().(memory.UnmappedRead); !ok {
		t.Errorf("wrapped err = %v (%T), want memory.UnmappedRead", sf.Unwrap(), sf.Unwrap())
	}
}

func TestRunTimesOutOnInfiniteLoop(t *testing.T) {
	sim, ram := newSimulation(t, 0x10000)
	if err := ram.Store(0xFFFC, 0x00); err != nil {
		t.Fatal(err)
	}
	if err := ram.Store(0xFFFD, 0x06); err != nil {
		t.Fatal(err)
	}
	if err := ram.Store(0x0600, 0xEA); err != nil { // NOP
		t.Fatal(err)
	}
	if err := ram.Store(0x0601, 0x4C); err != nil { // JMP $0600
		t.Fatal(err)
	}
	if err := ram.Store(0x0602, 0x00); err != nil {
		t.Fatal(err)
	}
	if err := ram.Store(0x0603, 0x06); err != nil {
		t.Fatal(err)
	}

	res, err := sim.Run(5 * time.Millisecond)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Halted {
		t.Errorf("res.Halted = true, want false (should have timed out)")
	}
	if res.Cycles == 0 {
		t.Errorf("res.Cycles = 0, want > 0")
	}
}
