package core

func init() {
	registerDualOperand(0xB, "BIT", execBIT)
	registerDualOperand(0xC, "BIC", execBIC)
	registerDualOperand(0xD, "BIS", execBIS)
	registerDualOperand(0xE, "XOR", execXOR)
	registerDualOperand(0xF, "AND", execAND)
}

// execAND computes dst & src and stores the result.
func execAND(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	result := d & s
	setFlagsLogicalAndOrBit(c, width, result)
	if !writeOperand(dst, c, width, uint16(result)) {
		c.fault = true
	}
}

// execBIT computes dst & src for flag purposes only; no write. Same
// computation as AND without the store.
func execBIT(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	setFlagsLogicalAndOrBit(c, width, d&s)
}

// execBIC clears the bits of dst set in src. Touches no flags.
func execBIC(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	result := d &^ s
	if !writeOperand(dst, c, width, uint16(result)) {
		c.fault = true
	}
}

// execBIS sets the bits of dst set in src. Touches no flags. The
// result is written exactly once.
func execBIS(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	result := d | s
	if !writeOperand(dst, c, width, uint16(result)) {
		c.fault = true
	}
}

// execXOR computes dst ^ src and stores the result.
func execXOR(c *Core, width Width, src, dst Operand) {
	s := uint32(src.Read(c))
	d := uint32(dst.Read(c))
	msb := uint32(width.MSB())
	dSign := d&msb != 0
	sSign := s&msb != 0
	result := d ^ s
	setFlagsXor(c, width, dSign, sSign, result)
	if !writeOperand(dst, c, width, uint16(result)) {
		c.fault = true
	}
}
