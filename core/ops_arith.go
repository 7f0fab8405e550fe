package core

func init() {
	registerDualOperand(5, "ADD", execADD)
	registerDualOperand(6, "ADDC", execADDC)
	registerDualOperand(7, "SUBC", execSUBC)
	registerDualOperand(8, "SUB", execSUB)
	registerDualOperand(9, "CMP", execCMP)
	registerDualOperand(0xA, "DADD", execDADD)
}

// execADD computes dst + src and stores the result.
func execADD(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	result := d + s
	setFlagsAdd(c, width, d, s, result)
	if !writeOperand(dst, c, width, uint16(result)) {
		c.fault = true
	}
}

// execADDC computes dst + src + C and stores the result. V uses ADD's
// own rule on the d/s/result triple; the result already includes the
// carry-in, so the carry-in can affect V.
func execADDC(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	carry := uint32(0)
	if c.Regs.Flag(FlagC) {
		carry = 1
	}
	result := d + s + carry
	setFlagsAdd(c, width, d, s, result)
	if !writeOperand(dst, c, width, uint16(result)) {
		c.fault = true
	}
}

// execSUB computes dst - src via dst + ^src + 1 and stores the result.
func execSUB(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	mask := uint32(width.Mask())
	result := d + (^s & mask) + 1
	setFlagsSub(c, width, d, s, result)
	if !writeOperand(dst, c, width, uint16(result)) {
		c.fault = true
	}
}

// execSUBC computes dst - src - !C via dst + ^src + C and stores the
// result.
func execSUBC(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	mask := uint32(width.Mask())
	carry := uint32(0)
	if c.Regs.Flag(FlagC) {
		carry = 1
	}
	result := d + (^s & mask) + carry
	setFlagsSub(c, width, d, s, result)
	if !writeOperand(dst, c, width, uint16(result)) {
		c.fault = true
	}
}

// execCMP computes dst - src for flag purposes only; no write.
func execCMP(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	mask := uint32(width.Mask())
	result := d + (^s & mask) + 1
	setFlagsSub(c, width, d, s, result)
}

// execDADD would perform BCD addition. Unimplemented: executing it is
// a fatal fault.
func execDADD(c *Core, width Width, src, dst Operand) {
	c.fault = true
}
