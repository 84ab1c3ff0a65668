// Package harness wires a clock, memory mapper and CPU into a runnable
// simulation: the test-bench role original_source's simulation.hpp plays,
// expressed as a small Go driver loop instead of a hand-rolled main().
package harness

import (
	"fmt"
	"time"

	"github.com/sixtwo-toolchain/sixtwo/clock"
	"github.com/sixtwo-toolchain/sixtwo/cpu"
	"github.com/sixtwo-toolchain/sixtwo/mapper"
)

// Device is a clocked peripheral the simulation owns alongside the CPU
// (e.g. a timer or a test I/O port backed by memory.Interface). Devices
// are torn down after the CPU and before the mapper, per the teardown
// order in spec section 9.
type Device interface {
	Close() error
}

// Result summarizes how a Run call ended.
type Result struct {
	Duration time.Duration
	Cycles   uint64
	Halted   bool
	HaltCode uint8
}

// SimulationFailed wraps the fault that ended a Run early (a bus fault, an
// invalid opcode, or anything but a clean HLT/timeout), alongside the
// Result accumulated up to that point.
type SimulationFailed struct {
	Err    error
	Result Result
}

func (e SimulationFailed) Error() string {
	return fmt.Sprintf("simulation failed after %d cycles: %v", e.Result.Cycles, e.Err)
}

func (e SimulationFailed) Unwrap() error {
	return e.Err
}

// Simulation is a complete, runnable CPU test bench: a Clock, a Mapper
// routing the address space, a Chip executing against it, and any
// additional Devices that need coordinated teardown.
type Simulation struct {
	Clock   *clock.Clock
	Mapper  *mapper.Mapper
	CPU     *cpu.Chip
	devices []Device
}

// New assembles a Simulation. The caller has already populated m's address
// ranges and constructed chip against (clk, m).
func New(clk *clock.Clock, m *mapper.Mapper, chip *cpu.Chip, devices ...Device) *Simulation {
	return &Simulation{Clock: clk, Mapper: m, CPU: chip, devices: devices}
}

// Run resets the CPU and executes instructions until HLT halts it, the
// wall-clock timeout elapses, or a bus fault propagates, then closes the
// devices; the CPU, mapper and clock have no Close step. A HLT or a timeout both
// produce a populated Result and no error; any other error is wrapped in
// SimulationFailed together with the Result accumulated so far.
func (s *Simulation) Run(timeout time.Duration) (Result, error) {
	startCycle := s.Clock.CurrentCycle()

	if err := s.CPU.Reset(); err != nil {
		return s.teardown(Result{}, err)
	}

	wallStart := time.Now()
	_, err := s.CPU.ExecuteWithTimeout(timeout)
	res := Result{
		Duration: time.Since(wallStart),
		Cycles:   s.Clock.CurrentCycle() - startCycle,
	}

	if err != nil {
		if halted, ok := err.(cpu.ExecutionHalted); ok {
			res.Halted = true
			res.HaltCode = halted.Code
			return s.teardown(res, nil)
		}
		if _, ok := err.(cpu.ExecutionTimeout); ok {
			return s.teardown(res, nil)
		}
		return s.teardown(res, err)
	}
	return s.teardown(res, nil)
}

// teardown closes devices (CPU has no explicit close; the mapper and clock
// are left for the caller to discard) and folds any teardown error into
// the returned error, preferring the original fault if both failed.
func (s *Simulation) teardown(res Result, runErr error) (Result, error) {
	var teardownErr error
	for _, d := range s.devices {
		if err := d.Close(); err != nil && teardownErr == nil {
			teardownErr = err
		}
	}
	if runErr != nil {
		return res, SimulationFailed{Err: runErr, Result: res}
	}
	if teardownErr != nil {
		return res, SimulationFailed{Err: teardownErr, Result: res}
	}
	return res, nil
}
