package core

func init() {
	registerDualOperand(4, "MOV", execMOV)
}

// execMOV copies src to dst. No flags are touched.
func execMOV(c *Core, width Width, src, dst Operand) {
	v := src.Read(c)
	if !writeOperand(dst, c, width, v) {
		c.fault = true
	}
}
