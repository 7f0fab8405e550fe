package core

import (
	"testing"
	"time"

	"github.com/user-none/go-msp430sim/eventbus"
)

func newRunLoopTestCore(t *testing.T) *Core {
	t.Helper()
	bus := NewSystemBus()
	// reset vector -> 0xC000
	bus.LoadQuiet([]AddrByte{{Addr: 0xFFFE, Byte: 0x00}, {Addr: 0xFFFF, Byte: 0xC0}})
	return New(bus)
}

func TestRunLoopStepExecutesOneInstructionAndFiresOnTrap(t *testing.T) {
	c := newRunLoopTestCore(t)
	// MOV #1, R4 at 0xC000
	c.Bus.Write(0xC000, 0x4034, Word)
	c.Bus.Write(0xC002, 0x0001, Word)

	rl := NewRunLoop(c)
	done := make(chan struct{})
	rl.OnTrap = func() { close(done) }
	go rl.Serve(make(chan struct{}))
	rl.Step()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnTrap never fired for a step")
	}
	if c.Regs.Get(4) != 1 {
		t.Fatalf("R4 = %#04x, want 1", c.Regs.Get(4))
	}
}

func TestRunLoopStopsAtBreakpoint(t *testing.T) {
	c := newRunLoopTestCore(t)
	c.Bus.Write(0xC000, 0x4034, Word) // MOV #1,R4
	c.Bus.Write(0xC002, 0x0001, Word)
	c.Bus.Write(0xC004, 0x4035, Word) // MOV #2,R5
	c.Bus.Write(0xC006, 0x0002, Word)

	rl := NewRunLoop(c)
	rl.SetBreakpoint(0xC004)
	done := make(chan struct{})
	rl.OnTrap = func() { close(done) }
	stop := make(chan struct{})
	go rl.Serve(stop)
	rl.Run()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("breakpoint trap never fired")
	}
	close(stop)

	if c.Regs.Get(4) != 1 {
		t.Fatalf("R4 = %#04x, want 1 (instruction before breakpoint ran)", c.Regs.Get(4))
	}
	if c.Regs.Get(5) != 0 {
		t.Fatalf("R5 = %#04x, want 0 (breakpoint stopped before this instruction)", c.Regs.Get(5))
	}
}

func TestRunLoopIllegalOpcodeFiresOnFaultUnderRun(t *testing.T) {
	c := newRunLoopTestCore(t)
	c.Bus.Write(0xC000, 0x0000, Word) // not a valid opcode

	rl := NewRunLoop(c)
	done := make(chan struct{})
	rl.OnFault = func() { close(done) }
	stop := make(chan struct{})
	go rl.Serve(stop)
	rl.Run()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnFault never fired for an illegal opcode under run")
	}
	close(stop)
}

func TestRunLoopPublishesStoppedEvent(t *testing.T) {
	c := newRunLoopTestCore(t)
	c.Bus.Write(0xC000, 0x4034, Word)
	c.Bus.Write(0xC002, 0x0001, Word)

	rl := NewRunLoop(c)
	bus := eventbus.New()
	rl.Events = bus
	sub := bus.Subscribe(4)

	stop := make(chan struct{})
	go rl.Serve(stop)
	rl.Step()

	select {
	case ev := <-sub:
		stopped, ok := ev.(eventbus.Stopped)
		if !ok {
			t.Fatalf("got %T, want eventbus.Stopped", ev)
		}
		if stopped.Reason != "trap" {
			t.Fatalf("Reason = %q, want trap", stopped.Reason)
		}
	case <-time.After(time.Second):
		t.Fatal("no Stopped event published")
	}
	close(stop)
}

func TestRunLoopClearBreakpointReportsPriorPresence(t *testing.T) {
	c := newRunLoopTestCore(t)
	rl := NewRunLoop(c)
	if rl.ClearBreakpoint(0x1000) {
		t.Fatal("ClearBreakpoint on unset address should report false")
	}
	rl.SetBreakpoint(0x1000)
	if !rl.ClearBreakpoint(0x1000) {
		t.Fatal("ClearBreakpoint on set address should report true")
	}
}
