package cpu

// accessKind distinguishes how an addressing mode's target byte is used,
// mirroring the teacher's instructionMode (kLOAD/kRMW/kSTORE_INSTRUCTION).
type accessKind int

const (
	accessLoad accessKind = iota
	accessRMW
	accessStore
)

// resolved is what addressing-mode computation hands to a semantic
// function: the effective address (where applicable) and the operand
// value already read from it (for load/RMW).
type resolved struct {
	addr    uint16
	value   uint8
	crossed bool
}

// resolveOperand computes the effective address and, for load/RMW access,
// reads the operand value, performing exactly the bus accesses real
// silicon would observe at that address. Cycle-count trueing up for
// internal/dummy cycles that don't touch a meaningful address happens in
// the caller via Chip.pad, so this only needs to get addresses and values
// right, not mimic every wrong-page dummy read.
func (c *Chip) resolveOperand(mode AddressMode, kind accessKind) (resolved, error) {
	switch mode {
	case IMP, ACC:
		return resolved{}, nil

	case IMM:
		v, err := c.bus.Load(c.PC)
		if err != nil {
			return resolved{}, err
		}
		c.PC++
		return resolved{value: v}, nil

	case ZP:
		zp, err := c.bus.Load(c.PC)
		if err != nil {
			return resolved{}, err
		}
		c.PC++
		addr := uint16(zp)
		return c.finishRead(addr, kind)

	case ZPX:
		return c.resolveZPIndexed(c.X, kind)
	case ZPY:
		return c.resolveZPIndexed(c.Y, kind)

	case ABS:
		addr, err := c.readAbsAddr()
		if err != nil {
			return resolved{}, err
		}
		return c.finishRead(addr, kind)

	case ABSX:
		return c.resolveAbsIndexed(c.X, kind)
	case ABSY:
		return c.resolveAbsIndexed(c.Y, kind)

	case IND:
		ptr, err := c.readAbsAddr()
		if err != nil {
			return resolved{}, err
		}
		addr, err := c.readIndirectPointer(ptr)
		if err != nil {
			return resolved{}, err
		}
		return resolved{addr: addr}, nil

	case INDX:
		zp, err := c.bus.Load(c.PC)
		if err != nil {
			return resolved{}, err
		}
		c.PC++
		ptr := uint8(zp + c.X) // 8-bit wrap within zero page
		lo, err := c.bus.Load(uint16(ptr))
		if err != nil {
			return resolved{}, err
		}
		hi, err := c.bus.Load(uint16(uint8(ptr + 1)))
		if err != nil {
			return resolved{}, err
		}
		addr := uint16(hi)<<8 | uint16(lo)
		return c.finishRead(addr, kind)

	case INDY:
		zp, err := c.bus.Load(c.PC)
		if err != nil {
			return resolved{}, err
		}
		c.PC++
		lo, err := c.bus.Load(uint16(zp))
		if err != nil {
			return resolved{}, err
		}
		hi, err := c.bus.Load(uint16(uint8(zp + 1)))
		if err != nil {
			return resolved{}, err
		}
		base := uint16(hi)<<8 | uint16(lo)
		addr := base + uint16(c.Y)
		crossed := addr&0xFF00 != base&0xFF00
		r, err := c.finishRead(addr, kind)
		r.crossed = crossed
		return r, err
	}
	// REL is handled directly by Chip.branch, which needs the taken/not-taken
	// decision before it knows whether to advance PC past the offset byte.
	return resolved{}, nil
}

// finishRead reads the byte at addr unless kind is a pure store, in which
// case there is nothing left for addressing to do (the semantic function
// performs the write itself).
func (c *Chip) finishRead(addr uint16, kind accessKind) (resolved, error) {
	if kind == accessStore {
		return resolved{addr: addr}, nil
	}
	v, err := c.bus.Load(addr)
	if err != nil {
		return resolved{}, err
	}
	return resolved{addr: addr, value: v}, nil
}

func (c *Chip) resolveZPIndexed(index uint8, kind accessKind) (resolved, error) {
	zp, err := c.bus.Load(c.PC)
	if err != nil {
		return resolved{}, err
	}
	c.PC++
	addr := uint16(uint8(zp + index)) // zero-page wrap, never crosses into page 1
	return c.finishRead(addr, kind)
}

func (c *Chip) resolveAbsIndexed(index uint8, kind accessKind) (resolved, error) {
	base, err := c.readAbsAddr()
	if err != nil {
		return resolved{}, err
	}
	addr := base + uint16(index)
	crossed := addr&0xFF00 != base&0xFF00
	r, err := c.finishRead(addr, kind)
	r.crossed = crossed
	return r, err
}

func (c *Chip) readAbsAddr() (uint16, error) {
	lo, err := c.bus.Load(c.PC)
	if err != nil {
		return 0, err
	}
	c.PC++
	hi, err := c.bus.Load(c.PC)
	if err != nil {
		return 0, err
	}
	c.PC++
	return uint16(hi)<<8 | uint16(lo), nil
}

// readIndirectPointer reads the two bytes pointed to by ptr, reproducing
// the JMP (absolute) hardware bug: if ptr's low byte is 0xFF, the high
// byte is fetched from ptr&0xFF00 (the start of the same page) instead of
// ptr+1, since the pointer read never crosses a page boundary on NMOS
// silicon.
func (c *Chip) readIndirectPointer(ptr uint16) (uint16, error) {
	lo, err := c.bus.Load(ptr)
	if err != nil {
		return 0, err
	}
	hiAddr := (ptr & 0xFF00) | uint16(uint8(ptr&0xFF)+1)
	hi, err := c.bus.Load(hiAddr)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}
