// Package core implements the MSP430 instruction-set simulator: the
// register file, the memory bus contract, the instruction decoder, and
// the per-opcode executor.
package core

// Bus provides addressable byte/word access for a Core. Addresses wrap
// modulo 65536. The concrete implementation (see SystemBus) is
// responsible for peripheral routing and watchpoints; width-mismatched
// accesses are logged by the peripherals that receive them. The Core
// itself never inspects an address beyond handing it to the Bus.
type Bus interface {
	Read(addr uint16, w Width) uint16
	Write(addr uint16, v uint16, w Width)
	Reset()
}

// srFlagMask covers the nine named status bits; the remaining bits of
// R2 are unused by this design (no interrupt vector dispatch, no
// clock-domain modelling beyond the SR bits themselves).
const srFlagMask uint16 = 0x1FF

// RegisterFile holds the sixteen MSP430 general-purpose registers. R0 is
// the program counter, R1 the stack pointer, R2 the status register and
// first constant generator, R3 the second constant generator; R4-R15
// carry no special semantics.
type RegisterFile struct {
	r [16]uint16
}

func (rf *RegisterFile) Get(n uint8) uint16    { return rf.r[n] }
func (rf *RegisterFile) Set(n uint8, v uint16) { rf.r[n] = v }

func (rf *RegisterFile) PC() uint16     { return rf.r[0] }
func (rf *RegisterFile) SetPC(v uint16) { rf.r[0] = v }
func (rf *RegisterFile) SP() uint16     { return rf.r[1] }
func (rf *RegisterFile) SetSP(v uint16) { rf.r[1] = v }
func (rf *RegisterFile) SR() uint16     { return rf.r[2] }
func (rf *RegisterFile) SetSR(v uint16) { rf.r[2] = v & srFlagMask }

// Flag reports whether the named status bit is set.
func (rf *RegisterFile) Flag(bit uint16) bool { return rf.r[2]&bit != 0 }

// SetFlag sets or clears the named status bit.
func (rf *RegisterFile) SetFlag(bit uint16, v bool) {
	if v {
		rf.r[2] |= bit
	} else {
		rf.r[2] &^= bit
	}
}

// StepResult reports the outcome of one Core.Step call. Whether an
// Illegal or Fault result is survivable belongs to the RunLoop, which
// knows whether it is running under a continuous `run` or a single
// `step` command; the Core only reports what happened.
type StepResult struct {
	Cycles  int
	Illegal bool
	Fault   bool
}

// Core is the MSP430 CPU: a register file wired to a Bus.
type Core struct {
	Regs       RegisterFile
	Bus        Bus
	CycleCount uint64

	fault bool
}

// New creates a Core wired to the given bus and performs a reset.
func New(bus Bus) *Core {
	c := &Core{Bus: bus}
	c.Reset()
	return c
}

// Reset clears the register file and cycle counter, resets the bus, and
// loads the initial program counter from the reset vector at 0xFFFE.
func (c *Core) Reset() {
	c.Regs = RegisterFile{}
	c.CycleCount = 0
	c.fault = false
	c.Bus.Reset()
	c.Regs.SetPC(c.Bus.Read(0xFFFE, Word))
}

// SetState installs register contents directly, bypassing a hardware
// reset. Intended for tests that need to establish exact state before
// executing an instruction.
func (c *Core) SetState(regs [16]uint16) {
	c.Regs.r = regs
	c.fault = false
}

// Registers returns a snapshot of the current register contents.
func (c *Core) Registers() [16]uint16 {
	return c.Regs.r
}

// Step decodes and executes one instruction at the current PC.
func (c *Core) Step() StepResult {
	c.fault = false
	opcode := c.fetchWord()
	entry := decodeTable[opcode]
	if entry == nil {
		c.CycleCount++
		return StepResult{Cycles: 1, Illegal: true}
	}

	var cycles int
	switch entry.kind {
	case kindDual:
		cycles = c.execDual(entry)
	case kindSingle:
		cycles = c.execSingle(entry)
	case kindJump:
		cycles = c.execJump(entry)
	}

	c.CycleCount += uint64(cycles)
	return StepResult{Cycles: cycles, Fault: c.fault}
}

func (c *Core) execDual(e *decodeEntry) int {
	width := widthOf(e.byteMode)
	src, srcCycles := resolveSourceOperand(c, e.srcReg, e.as, width)
	dst, dstCycles := resolveDestOperand(c, e.dstReg, e.ad, width)
	e.dual(c, width, src, dst)
	return 1 + srcCycles + dstCycles
}

func (c *Core) execSingle(e *decodeEntry) int {
	width := widthOf(e.byteMode)
	op, opCycles := resolveSourceOperand(c, e.srcReg, e.as, width)
	e.single(c, width, op)
	return 1 + opCycles + e.surcharge
}

func (c *Core) execJump(e *decodeEntry) int {
	if testJumpCondition(c, e.cond) {
		c.Regs.SetPC(c.Regs.PC() + uint16(e.offset))
	}
	return 2
}

// fetchWord reads the word at PC and advances PC by two.
func (c *Core) fetchWord() uint16 {
	v := c.Bus.Read(c.Regs.PC(), Word)
	c.Regs.SetPC(c.Regs.PC() + 2)
	return v
}

// pushWord decrements SP by two and stores v at the new SP.
func (c *Core) pushWord(v uint16) {
	sp := c.Regs.SP() - 2
	c.Regs.SetSP(sp)
	c.Bus.Write(sp, v, Word)
}

// popWord loads the word at SP and increments SP by two.
func (c *Core) popWord() uint16 {
	v := c.Bus.Read(c.Regs.SP(), Word)
	c.Regs.SetSP(c.Regs.SP() + 2)
	return v
}

func widthOf(byteMode bool) Width {
	if byteMode {
		return Byte
	}
	return Word
}
