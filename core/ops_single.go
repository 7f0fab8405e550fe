package core

func init() {
	registerSingleOperand(0, "RRC", 0, execRRC)
	registerSingleOperand(1, "SWPB", 0, execSWPB)
	registerSingleOperand(2, "RRA", 0, execRRA)
	registerSingleOperand(3, "SXT", 0, execSXT)
	registerSingleOperand(4, "PUSH", 2, execPUSH)
	registerSingleOperand(5, "CALL", 3, execCALL)
	registerSingleOperand(6, "RETI", 4, execRETI)
}

// execRRC rotates op right through carry by one bit.
func execRRC(c *Core, width Width, op Operand) {
	v := uint32(op.Read(c))
	oldCarry := uint32(0)
	if c.Regs.Flag(FlagC) {
		oldCarry = 1
	}
	newCarry := v&1 != 0
	msb := uint32(width.MSB())
	result := (v >> 1) | (oldCarry * msb)

	c.Regs.SetFlag(FlagC, newCarry)
	c.Regs.SetFlag(FlagZ, result&uint32(width.Mask()) == 0)
	c.Regs.SetFlag(FlagN, result&msb != 0)
	c.Regs.SetFlag(FlagV, false)

	if !writeOperand(op, c, width, uint16(result)) {
		c.fault = true
	}
}

// execSWPB exchanges the high and low bytes of a word operand. Byte
// mode has no meaning for SWPB and is a fault.
func execSWPB(c *Core, width Width, op Operand) {
	if width == Byte {
		c.fault = true
		return
	}
	v := op.Read(c)
	result := (v >> 8) | (v << 8)
	if !writeOperand(op, c, width, result) {
		c.fault = true
	}
}

// execRRA performs an arithmetic right shift by one bit, preserving the
// sign bit.
func execRRA(c *Core, width Width, op Operand) {
	v := uint32(op.Read(c))
	msb := uint32(width.MSB())
	sign := v & msb
	newCarry := v&1 != 0
	result := (v >> 1) | sign

	c.Regs.SetFlag(FlagC, newCarry)
	c.Regs.SetFlag(FlagZ, result&uint32(width.Mask()) == 0)
	c.Regs.SetFlag(FlagN, result&msb != 0)
	c.Regs.SetFlag(FlagV, false)

	if !writeOperand(op, c, width, uint16(result)) {
		c.fault = true
	}
}

// execSXT sign-extends the low byte of op into a full word. Byte mode
// has no meaning for SXT and is a fault. C is the lsb of the
// pre-extension byte, not of the extended result.
func execSXT(c *Core, width Width, op Operand) {
	if width == Byte {
		c.fault = true
		return
	}
	v := op.Read(c)
	var result uint16
	if v&0x80 != 0 {
		result = v | 0xFF00
	} else {
		result = v & 0x00FF
	}

	c.Regs.SetFlag(FlagZ, result == 0)
	c.Regs.SetFlag(FlagN, result&0x8000 != 0)
	c.Regs.SetFlag(FlagC, v&1 != 0)
	c.Regs.SetFlag(FlagV, false)

	if !writeOperand(op, c, width, result) {
		c.fault = true
	}
}

// execPUSH decrements SP and stores op's value. Touches no flags.
func execPUSH(c *Core, width Width, op Operand) {
	c.pushWord(op.Read(c))
}

// execCALL pushes the return address (PC after the call instruction's
// own operand fetch) and jumps to op's value.
func execCALL(c *Core, width Width, op Operand) {
	target := op.Read(c)
	c.pushWord(c.Regs.PC())
	c.Regs.SetPC(target)
}

// execRETI pops SR then PC. If the popped SR has any bit set outside
// the named status flags, the restored processor state is considered
// corrupted and the step is flagged as a fault; the masked SR and PC
// are installed regardless.
func execRETI(c *Core, width Width, op Operand) {
	sr := c.popWord()
	pc := c.popWord()
	if sr&^srFlagMask != 0 {
		c.fault = true
	}
	c.Regs.SetSR(sr)
	c.Regs.SetPC(pc)
}
