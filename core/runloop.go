package core

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user-none/go-msp430sim/eventbus"
)

// RunState is the RunLoop's state machine position.
type RunState int

const (
	Idle RunState = iota
	Running
)

// StopReason names why a Running RunLoop returned to Idle.
type StopReason int

const (
	StopTrap StopReason = iota
	StopInterrupt
	StopFault
)

// commandKind distinguishes the two commands a RunLoop accepts through
// its depth-1 queue.
type commandKind int

const (
	cmdRun commandKind = iota
	cmdStep
)

type command struct {
	kind commandKind
}

// RunLoop drives a Core through a breakpoint-aware execution loop. It
// is the only component that decides whether an illegal-instruction or
// execution fault is fatal: fatal under `run` (reported as a fault
// stop), survivable under `step` (reported as a trap so the caller can
// inspect state).
type RunLoop struct {
	Core *Core

	breakpoints map[uint16]struct{}
	breakMu     sync.RWMutex

	commands chan command
	interrupt atomic.Bool

	OnTrap      func()
	OnInterrupt func()
	OnFault     func()

	// Events, if set, receives a Stopped notification every time the
	// loop returns to Idle. Nil by default: a headless runner (such as
	// the tests) has nothing to subscribe.
	Events *eventbus.Bus

	state atomic.Int32
}

// NewRunLoop wires a RunLoop to core. Signal callbacks may be set
// after construction.
func NewRunLoop(core *Core) *RunLoop {
	return &RunLoop{
		Core:        core,
		breakpoints: make(map[uint16]struct{}),
		commands:    make(chan command, 1),
	}
}

// State reports whether the loop is Idle or Running.
func (rl *RunLoop) State() RunState {
	return RunState(rl.state.Load())
}

// SetBreakpoint adds addr to the breakpoint set.
func (rl *RunLoop) SetBreakpoint(addr uint16) {
	rl.breakMu.Lock()
	defer rl.breakMu.Unlock()
	rl.breakpoints[addr] = struct{}{}
}

// ClearBreakpoint removes addr from the breakpoint set. It reports
// whether the address had been set.
func (rl *RunLoop) ClearBreakpoint(addr uint16) bool {
	rl.breakMu.Lock()
	defer rl.breakMu.Unlock()
	_, ok := rl.breakpoints[addr]
	delete(rl.breakpoints, addr)
	return ok
}

func (rl *RunLoop) hasBreakpoint(addr uint16) bool {
	rl.breakMu.RLock()
	defer rl.breakMu.RUnlock()
	_, ok := rl.breakpoints[addr]
	return ok
}

// Interrupt requests an asynchronous stop. The flag is set eagerly so
// it is observed even if it arrives before a queued `run` has been
// dequeued; it also drains any already-queued command so a concurrent
// `run` is dropped while Idle.
func (rl *RunLoop) Interrupt() {
	rl.interrupt.Store(true)
	select {
	case <-rl.commands:
	default:
	}
}

// Run posts a `run` command. It must be called only while Idle.
func (rl *RunLoop) Run() {
	rl.commands <- command{kind: cmdRun}
}

// Step posts a `step` command. It must be called only while Idle.
func (rl *RunLoop) Step() {
	rl.commands <- command{kind: cmdStep}
}

// Serve blocks, consuming commands from the queue until stop is
// closed. It is the runner's main loop, intended to run on its own
// goroutine.
func (rl *RunLoop) Serve(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case cmd := <-rl.commands:
			switch cmd.kind {
			case cmdRun:
				rl.runUntilStop()
			case cmdStep:
				rl.stepOnce()
			}
		}
	}
}

func (rl *RunLoop) stepOnce() {
	rl.state.Store(int32(Running))
	defer rl.state.Store(int32(Idle))

	res := rl.Core.Step()
	_ = res // fatal-on-illegal is disabled for a single step by design
	rl.fire(rl.OnTrap)
	rl.publishStopped("trap")
}

func (rl *RunLoop) runUntilStop() {
	rl.state.Store(int32(Running))
	defer rl.state.Store(int32(Idle))

	steps := 0
	lastHeartbeat := time.Time{}

	for {
		res := rl.Core.Step()

		if rl.interrupt.CompareAndSwap(true, false) {
			rl.fire(rl.OnInterrupt)
			rl.publishStopped("interrupt")
			return
		}

		if res.Illegal || res.Fault {
			rl.fire(rl.OnFault)
			rl.publishStopped("fault")
			return
		}

		if rl.hasBreakpoint(rl.Core.Regs.PC()) {
			rl.fire(rl.OnTrap)
			rl.publishStopped("trap")
			return
		}

		steps++
		if steps%1000 == 0 {
			now := time.Now()
			if !lastHeartbeat.IsZero() && now.Sub(lastHeartbeat) > 3*time.Second {
				log.Printf("[msp430] DEBUG: heartbeat, %d steps executed", steps)
			}
			lastHeartbeat = now
		}
	}
}

func (rl *RunLoop) fire(cb func()) {
	if cb != nil {
		cb()
	}
}

func (rl *RunLoop) publishStopped(reason string) {
	if rl.Events != nil {
		rl.Events.Publish(eventbus.Stopped{Reason: reason})
	}
}
