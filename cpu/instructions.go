package cpu

// executeDecoded resolves operands per op.Mode, applies the instruction's
// semantics, trues up the elapsed cycle count against op.BaseCycles (plus
// any page-cross penalty) via Chip.pad, and returns the cycles spent.
func (c *Chip) executeDecoded(op Opcode, start uint64) (int, error) {
	total := int(op.BaseCycles)

	switch op.Mnemonic {
	case "LDA", "LDX", "LDY":
		r, err := c.resolveOperand(op.Mode, accessLoad)
		if err != nil {
			return c.elapsed(start), err
		}
		switch op.Mnemonic {
		case "LDA":
			c.loadRegister(&c.A, r.value)
		case "LDX":
			c.loadRegister(&c.X, r.value)
		case "LDY":
			c.loadRegister(&c.Y, r.value)
		}
		total += c.crossPenalty(op, r)

	case "STA", "STX", "STY":
		r, err := c.resolveOperand(op.Mode, accessStore)
		if err != nil {
			return c.elapsed(start), err
		}
		var v uint8
		switch op.Mnemonic {
		case "STA":
			v = c.A
		case "STX":
			v = c.X
		case "STY":
			v = c.Y
		}
		if err := c.bus.Store(r.addr, v); err != nil {
			return c.elapsed(start), err
		}

	case "TAX":
		c.loadRegister(&c.X, c.A)
	case "TAY":
		c.loadRegister(&c.Y, c.A)
	case "TXA":
		c.loadRegister(&c.A, c.X)
	case "TYA":
		c.loadRegister(&c.A, c.Y)
	case "TSX":
		c.loadRegister(&c.X, c.S)
	case "TXS":
		c.S = c.X // TXS does not touch flags

	case "PHA":
		if err := c.pushStack(c.A); err != nil {
			return c.elapsed(start), err
		}
	case "PHP":
		if err := c.pushStack(c.P | PAlwaysOne | PBreak); err != nil {
			return c.elapsed(start), err
		}
	case "PLA":
		v, err := c.popStack()
		if err != nil {
			return c.elapsed(start), err
		}
		c.loadRegister(&c.A, v)
	case "PLP":
		v, err := c.popStack()
		if err != nil {
			return c.elapsed(start), err
		}
		c.P = (v | PAlwaysOne) &^ PBreak

	case "AND", "ORA", "EOR":
		r, err := c.resolveOperand(op.Mode, accessLoad)
		if err != nil {
			return c.elapsed(start), err
		}
		var v uint8
		switch op.Mnemonic {
		case "AND":
			v = c.A & r.value
		case "ORA":
			v = c.A | r.value
		case "EOR":
			v = c.A ^ r.value
		}
		c.loadRegister(&c.A, v)
		total += c.crossPenalty(op, r)

	case "ADC":
		r, err := c.resolveOperand(op.Mode, accessLoad)
		if err != nil {
			return c.elapsed(start), err
		}
		c.adc(r.value)
		total += c.crossPenalty(op, r)

	case "SBC":
		r, err := c.resolveOperand(op.Mode, accessLoad)
		if err != nil {
			return c.elapsed(start), err
		}
		c.sbc(r.value)
		total += c.crossPenalty(op, r)

	case "BIT":
		r, err := c.resolveOperand(op.Mode, accessLoad)
		if err != nil {
			return c.elapsed(start), err
		}
		c.zeroCheck(c.A & r.value)
		c.negativeCheck(r.value)
		c.P &^= POverflow
		if r.value&POverflow != 0 {
			c.P |= POverflow
		}

	case "ASL", "LSR", "ROL", "ROR":
		if err := c.shiftRotate(op); err != nil {
			return c.elapsed(start), err
		}

	case "INC", "DEC":
		r, err := c.resolveOperand(op.Mode, accessRMW)
		if err != nil {
			return c.elapsed(start), err
		}
		nv := r.value + 1
		if op.Mnemonic == "DEC" {
			nv = r.value - 1
		}
		if err := c.bus.Store(r.addr, nv); err != nil {
			return c.elapsed(start), err
		}
		c.zeroCheck(nv)
		c.negativeCheck(nv)

	case "INX":
		c.loadRegister(&c.X, c.X+1)
	case "INY":
		c.loadRegister(&c.Y, c.Y+1)
	case "DEX":
		c.loadRegister(&c.X, c.X-1)
	case "DEY":
		c.loadRegister(&c.Y, c.Y-1)

	case "CMP":
		r, err := c.resolveOperand(op.Mode, accessLoad)
		if err != nil {
			return c.elapsed(start), err
		}
		c.compare(c.A, r.value)
		total += c.crossPenalty(op, r)
	case "CPX":
		r, err := c.resolveOperand(op.Mode, accessLoad)
		if err != nil {
			return c.elapsed(start), err
		}
		c.compare(c.X, r.value)
	case "CPY":
		r, err := c.resolveOperand(op.Mode, accessLoad)
		if err != nil {
			return c.elapsed(start), err
		}
		c.compare(c.Y, r.value)

	case "BCC", "BCS", "BEQ", "BMI", "BNE", "BPL", "BVC", "BVS":
		extra, err := c.branch(op.Mnemonic)
		if err != nil {
			return c.elapsed(start), err
		}
		total += extra

	case "JMP":
		if op.Mode == IND {
			ptr, err := c.readAbsAddr()
			if err != nil {
				return c.elapsed(start), err
			}
			addr, err := c.readIndirectPointer(ptr)
			if err != nil {
				return c.elapsed(start), err
			}
			c.PC = addr
		} else {
			addr, err := c.readAbsAddr()
			if err != nil {
				return c.elapsed(start), err
			}
			c.PC = addr
		}

	case "JSR":
		lo, err := c.bus.Load(c.PC)
		if err != nil {
			return c.elapsed(start), err
		}
		c.PC++
		ret := c.PC // points at the high operand byte; RTS adds one back
		if err := c.pushStack(uint8(ret >> 8)); err != nil {
			return c.elapsed(start), err
		}
		if err := c.pushStack(uint8(ret & 0xFF)); err != nil {
			return c.elapsed(start), err
		}
		hi, err := c.bus.Load(c.PC)
		if err != nil {
			return c.elapsed(start), err
		}
		c.PC = uint16(hi)<<8 | uint16(lo)

	case "RTS":
		lo, err := c.popStack()
		if err != nil {
			return c.elapsed(start), err
		}
		hi, err := c.popStack()
		if err != nil {
			return c.elapsed(start), err
		}
		c.PC = (uint16(hi)<<8 | uint16(lo)) + 1

	case "RTI":
		p, err := c.popStack()
		if err != nil {
			return c.elapsed(start), err
		}
		c.P = (p | PAlwaysOne) &^ PBreak
		lo, err := c.popStack()
		if err != nil {
			return c.elapsed(start), err
		}
		hi, err := c.popStack()
		if err != nil {
			return c.elapsed(start), err
		}
		c.PC = uint16(hi)<<8 | uint16(lo)

	case "BRK":
		c.PC++ // the byte after BRK is a padding byte, always skipped
		if err := c.pushStack(uint8(c.PC >> 8)); err != nil {
			return c.elapsed(start), err
		}
		if err := c.pushStack(uint8(c.PC & 0xFF)); err != nil {
			return c.elapsed(start), err
		}
		if err := c.pushStack(c.P | PAlwaysOne | PBreak); err != nil {
			return c.elapsed(start), err
		}
		c.P |= PInterrupt
		lo, err := c.bus.Load(IRQVector)
		if err != nil {
			return c.elapsed(start), err
		}
		hi, err := c.bus.Load(IRQVector + 1)
		if err != nil {
			return c.elapsed(start), err
		}
		c.PC = uint16(hi)<<8 | uint16(lo)

	case "CLC":
		c.P &^= PCarry
	case "SEC":
		c.P |= PCarry
	case "CLI":
		c.P &^= PInterrupt
	case "SEI":
		c.P |= PInterrupt
	case "CLD":
		c.P &^= PDecimal
	case "SED":
		c.P |= PDecimal
	case "CLV":
		c.P &^= POverflow

	case "NOP":
		// nothing

	default:
		return c.elapsed(start), InvalidOpcode{Byte: op.Opcode, PC: c.PC}
	}

	c.pad(total - c.elapsed(start))
	return c.elapsed(start), nil
}

// crossPenalty returns 1 if op declares a page-cross penalty and the
// resolved address crossed a page boundary, else 0.
func (c *Chip) crossPenalty(op Opcode, r resolved) int {
	if op.PageCrossPenalty && r.crossed {
		return 1
	}
	return 0
}

func (c *Chip) adc(val uint8) {
	carry := c.P & PCarry
	if c.P&PDecimal != 0 {
		aL := (c.A & 0x0F) + (val & 0x0F) + carry
		if aL >= 0x0A {
			aL = ((aL + 0x06) & 0x0F) + 0x10
		}
		sum := uint16(c.A&0xF0) + uint16(val&0xF0) + uint16(aL)
		if sum >= 0xA0 {
			sum += 0x60
		}
		res := uint8(sum & 0xFF)
		seq := (c.A & 0xF0) + (val & 0xF0) + aL
		bin := c.A + val + carry
		c.overflowCheck(c.A, val, seq)
		c.carryCheck(sum)
		c.negativeCheck(seq)
		c.zeroCheck(bin)
		c.A = res
		return
	}
	sum := c.A + val + carry
	c.overflowCheck(c.A, val, sum)
	c.carryCheck(uint16(c.A) + uint16(val) + uint16(carry))
	c.loadRegister(&c.A, sum)
}

func (c *Chip) sbc(val uint8) {
	if c.P&PDecimal != 0 {
		carry := c.P & PCarry
		aL := int8(c.A&0x0F) - int8(val&0x0F) + int8(carry) - 1
		if aL < 0 {
			aL = ((aL - 0x06) & 0x0F) - 0x10
		}
		sum := int16(c.A&0xF0) - int16(val&0xF0) + int16(aL)
		if sum < 0 {
			sum -= 0x60
		}
		res := uint8(sum & 0xFF)
		b := c.A + ^val + carry
		c.overflowCheck(c.A, ^val, b)
		c.negativeCheck(b)
		c.carryCheck(uint16(c.A) + uint16(^val) + uint16(carry))
		c.zeroCheck(b)
		c.A = res
		return
	}
	c.adc(^val)
}

func (c *Chip) compare(reg, val uint8) {
	c.zeroCheck(reg - val)
	c.negativeCheck(reg - val)
	c.carryCheck(uint16(reg) + uint16(^val) + 1)
}

func (c *Chip) shiftRotate(op Opcode) error {
	if op.Mode == ACC {
		switch op.Mnemonic {
		case "ASL":
			c.carryCheck(uint16(c.A) << 1)
			c.loadRegister(&c.A, c.A<<1)
		case "LSR":
			c.carryCheck(uint16(c.A&0x01) << 8)
			c.loadRegister(&c.A, c.A>>1)
		case "ROL":
			carry := c.P & PCarry
			c.carryCheck(uint16(c.A) << 1)
			c.loadRegister(&c.A, (c.A<<1)|carry)
		case "ROR":
			carry := (c.P & PCarry) << 7
			c.carryCheck((uint16(c.A) << 8) & 0x0100)
			c.loadRegister(&c.A, (c.A>>1)|carry)
		}
		return nil
	}

	r, err := c.resolveOperand(op.Mode, accessRMW)
	if err != nil {
		return err
	}
	var nv uint8
	switch op.Mnemonic {
	case "ASL":
		c.carryCheck(uint16(r.value) << 1)
		nv = r.value << 1
	case "LSR":
		c.carryCheck(uint16(r.value&0x01) << 8)
		nv = r.value >> 1
	case "ROL":
		carry := c.P & PCarry
		c.carryCheck(uint16(r.value) << 1)
		nv = (r.value << 1) | carry
	case "ROR":
		carry := (c.P & PCarry) << 7
		c.carryCheck((uint16(r.value) << 8) & 0x0100)
		nv = (r.value >> 1) | carry
	}
	if err := c.bus.Store(r.addr, nv); err != nil {
		return err
	}
	c.zeroCheck(nv)
	c.negativeCheck(nv)
	return nil
}

// branch reads the signed relative offset and, if the named condition
// holds, updates PC and reports the extra cycles (1 for taken, +1 more if
// the branch crosses a page), per spec's branch scenario.
func (c *Chip) branch(mnemonic string) (int, error) {
	offset, err := c.bus.Load(c.PC)
	if err != nil {
		return 0, err
	}
	c.PC++

	if !c.branchTaken(mnemonic) {
		return 0, nil
	}
	old := c.PC
	c.PC = uint16(int32(c.PC) + int32(int8(offset)))
	extra := 1
	if old&0xFF00 != c.PC&0xFF00 {
		extra++
	}
	return extra, nil
}

func (c *Chip) branchTaken(mnemonic string) bool {
	switch mnemonic {
	case "BCC":
		return c.P&PCarry == 0
	case "BCS":
		return c.P&PCarry != 0
	case "BEQ":
		return c.P&PZero != 0
	case "BNE":
		return c.P&PZero == 0
	case "BMI":
		return c.P&PNegative != 0
	case "BPL":
		return c.P&PNegative == 0
	case "BVC":
		return c.P&POverflow == 0
	case "BVS":
		return c.P&POverflow != 0
	}
	return false
}
