// Package debugserver implements the remote-debug wire protocol front
// end: a TCP listener that frames `$payload#cc` packets, dispatches
// them against a RunLoop and Core, and streams back stop-reply
// packets when a continue or step completes.
package debugserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/sync/errgroup"

	"github.com/user-none/go-msp430sim/core"
	"github.com/user-none/go-msp430sim/eventbus"
	"github.com/user-none/go-msp430sim/logging"
)

// DefaultPort is the port the server listens on when none is given.
const DefaultPort = 3333

// Server accepts client connections and spawns one handler goroutine
// per client. All clients share the same simulated Core, but each gets
// its own RunLoop: its own breakpoint set and its own trap/interrupt/
// fault callbacks, created on accept and discarded when the client
// disconnects, mirroring one runner thread per client connection.
type Server struct {
	Addr string

	Core   *core.Core
	Events *eventbus.Bus
	Log    *logging.Logger

	listener net.Listener
	ready    chan struct{}
}

// New creates a Server bound to addr (host:port; empty host means all
// interfaces) wired to the given core. events may be nil.
func New(addr string, c *core.Core, events *eventbus.Bus, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Default()
	}
	return &Server{Addr: addr, Core: c, Events: events, Log: log, ready: make(chan struct{})}
}

// Serve listens on s.Addr and accepts connections until ctx is
// cancelled. Each client is handled on its own goroutine, coordinated
// through an errgroup so a listener error or ctx cancellation tears
// down every in-flight handler.
func (s *Server) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("debugserver: listen: %w", err)
	}
	s.listener = ln
	close(s.ready)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return g.Wait()
			default:
				s.Log.Errorf("accept: %v", err)
				cancel()
				return g.Wait()
			}
		}
		g.Go(func() error {
			s.handleConn(ctx, conn)
			return nil
		})
	}
}

// clientConn holds per-client state: the socket and the mutex
// serializing writes to it (a stop-reply from the runner goroutine and
// a synchronous reply from the dispatch loop could otherwise race).
type clientConn struct {
	net.Conn
	mu sync.Mutex
}

func (s *Server) handleConn(ctx context.Context, nc net.Conn) {
	defer nc.Close()
	c := &clientConn{Conn: nc}
	reader := bufio.NewReader(nc)

	rl := core.NewRunLoop(s.Core)
	rl.Events = s.Events

	// The trap/interrupt/fault callbacks fire from rl.Serve's goroutine
	// and write the stop-reply packet directly; the read loop below
	// never blocks waiting for a `c`/`s` to finish, so it stays free to
	// read an incoming interrupt byte while a run is in progress.
	rl.OnTrap = func() { writePacket(c, "S05") }
	rl.OnInterrupt = func() { writePacket(c, "S02") }
	rl.OnFault = func() { writePacket(c, "S0B") }

	loopDone := make(chan struct{})
	go rl.Serve(loopDone)
	defer close(loopDone)

	// Closing the socket on cancellation unblocks the read below, so the
	// handler returns without waiting for the client to hang up.
	go func() {
		select {
		case <-ctx.Done():
			nc.Close()
		case <-loopDone:
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload, checksumOK, ok := readPacket(reader)
		if !ok {
			return
		}
		if payload == "\x03" {
			rl.Interrupt()
			continue
		}

		writeAck(c, checksumOK)
		if !checksumOK {
			continue
		}
		s.dispatch(c, rl, payload)
	}
}

// readPacket reads one `$payload#cc` frame, validating the checksum
// and returning the payload. A raw 0x03 byte outside a frame is
// reported as a synthetic one-byte payload so the caller can route it
// to the RunLoop as an interrupt.
func readPacket(r *bufio.Reader) (payload string, checksumOK bool, ok bool) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", false, false
		}
		if b == 0x03 {
			return "\x03", true, true
		}
		if b != '$' {
			continue
		}

		var sb strings.Builder
		for {
			b, err := r.ReadByte()
			if err != nil {
				return "", false, false
			}
			if b == '#' {
				break
			}
			sb.WriteByte(b)
		}
		checksumBytes := make([]byte, 2)
		if _, err := io.ReadFull(r, checksumBytes); err != nil {
			return "", false, false
		}
		payload = sb.String()
		want, err := strconv.ParseUint(string(checksumBytes), 16, 8)
		checksumOK = err == nil && byte(want) == modularChecksum(payload)
		return payload, checksumOK, true
	}
}

func modularChecksum(s string) byte {
	var sum byte
	for i := 0; i < len(s); i++ {
		sum += s[i]
	}
	return sum
}

func writeAck(c *clientConn, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.Write([]byte("+"))
	} else {
		c.Write([]byte("-"))
	}
}

func writePacket(c *clientConn, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := modularChecksum(payload)
	fmt.Fprintf(c, "$%s#%02x", payload, sum)
}

// dispatch handles one packet. `c`/`s` enqueue onto rl and return
// immediately without replying; the eventual stop-reply is written by
// rl's trap/interrupt/fault callback once the run or step completes.
// Every other command writes its reply synchronously, here.
func (s *Server) dispatch(c *clientConn, rl *core.RunLoop, payload string) {
	switch {
	case payload == "?":
		writePacket(c, "S00")

	case strings.HasPrefix(payload, "c"):
		if addr := payload[1:]; addr != "" {
			if v, err := strconv.ParseUint(addr, 16, 16); err == nil {
				s.Core.Regs.SetPC(uint16(v))
			}
		}
		rl.Run()

	case strings.HasPrefix(payload, "s"):
		if addr := payload[1:]; addr != "" {
			if v, err := strconv.ParseUint(addr, 16, 16); err == nil {
				s.Core.Regs.SetPC(uint16(v))
			}
		}
		rl.Step()

	case payload == "g":
		writePacket(c, s.readAllRegisters())

	case strings.HasPrefix(payload, "G"):
		s.writeAllRegisters(payload[1:])
		writePacket(c, "OK")

	case strings.HasPrefix(payload, "p"):
		n, err := strconv.ParseUint(payload[1:], 16, 8)
		if err != nil || n > 15 {
			writePacket(c, "E01")
			return
		}
		writePacket(c, littleEndianHex16(s.Core.Regs.Get(uint8(n))))

	case strings.HasPrefix(payload, "P"):
		s.writeOneRegister(payload[1:])
		writePacket(c, "OK")

	case strings.HasPrefix(payload, "m"):
		writePacket(c, s.readMemory(payload[1:]))

	case strings.HasPrefix(payload, "M"):
		if s.writeMemory(payload[1:]) {
			writePacket(c, "OK")
		} else {
			writePacket(c, "E01")
		}

	case strings.HasPrefix(payload, "Z0,"):
		setBreakpoint(rl, payload[3:])
		writePacket(c, "OK")

	case strings.HasPrefix(payload, "z0,"):
		if clearBreakpoint(rl, payload[3:]) {
			writePacket(c, "OK")
		} else {
			writePacket(c, "E02")
		}

	case payload == "H" || payload == "k" || payload == "D":
		if payload == "k" || payload == "D" {
			s.Core.Reset()
		}
		writePacket(c, "OK")

	case strings.HasPrefix(payload, "qRcmd,"):
		s.monitor(c, payload[len("qRcmd,"):])

	default:
		writePacket(c, "")
	}
}

func (s *Server) readAllRegisters() string {
	regs := s.Core.Registers()
	var sb strings.Builder
	for _, r := range regs {
		sb.WriteString(littleEndianHex16(r))
	}
	return sb.String()
}

func (s *Server) writeAllRegisters(hexBlob string) {
	for i := 0; i < 16 && (i+1)*4 <= len(hexBlob); i++ {
		v := parseLittleEndianHex16(hexBlob[i*4 : i*4+4])
		s.Core.Regs.Set(uint8(i), v)
	}
}

func (s *Server) writeOneRegister(arg string) {
	parts := strings.SplitN(arg, "=", 2)
	if len(parts) != 2 {
		return
	}
	n, err := strconv.ParseUint(parts[0], 16, 8)
	if err != nil || n > 15 {
		return
	}
	v := parseLittleEndianHex16(parts[1])
	s.Core.Regs.Set(uint8(n), v)
}

func (s *Server) readMemory(arg string) string {
	addr, length, ok := parseAddrLen(arg, ",")
	if !ok {
		return ""
	}
	var sb strings.Builder
	for i := uint32(0); i < length; i++ {
		b := s.Core.Bus.Read(uint16(addr+i), core.Byte)
		sb.WriteString(fmt.Sprintf("%02x", b))
	}
	return sb.String()
}

func (s *Server) writeMemory(arg string) bool {
	head, hexData, found := strings.Cut(arg, ":")
	if !found {
		return false
	}
	addr, length, ok := parseAddrLen(head, ",")
	if !ok || uint32(len(hexData)) != length*2 {
		return false
	}
	for i := uint32(0); i < length; i++ {
		b, err := strconv.ParseUint(hexData[i*2:i*2+2], 16, 8)
		if err != nil {
			return false
		}
		s.Core.Bus.Write(uint16(addr+i), uint16(b), core.Byte)
	}
	return true
}

func setBreakpoint(rl *core.RunLoop, arg string) {
	addr, _, ok := parseAddrLen(arg, ",")
	if ok {
		rl.SetBreakpoint(uint16(addr))
	}
}

func clearBreakpoint(rl *core.RunLoop, arg string) bool {
	addr, _, ok := parseAddrLen(arg, ",")
	if !ok {
		return false
	}
	return rl.ClearBreakpoint(uint16(addr))
}

func parseAddrLen(s, sep string) (uint32, uint32, bool) {
	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	addr, err1 := strconv.ParseUint(parts[0], 16, 32)
	length, err2 := strconv.ParseUint(parts[1], 16, 32)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return uint32(addr), uint32(length), true
}

func littleEndianHex16(v uint16) string {
	return fmt.Sprintf("%02x%02x", v&0xFF, v>>8)
}

func parseLittleEndianHex16(hexStr string) uint16 {
	if len(hexStr) != 4 {
		return 0
	}
	lo, _ := strconv.ParseUint(hexStr[0:2], 16, 8)
	hi, _ := strconv.ParseUint(hexStr[2:4], 16, 8)
	return uint16(lo) | uint16(hi)<<8
}

// monitor dispatches a qRcmd's hex-encoded ASCII command against the
// fixed monitor vocabulary, framing output as O<hex> console packets
// terminated by OK.
func (s *Server) monitor(c *clientConn, hexCmd string) {
	raw, err := hexDecodeASCII(hexCmd)
	if err != nil {
		writePacket(c, "E02")
		return
	}
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		writePacket(c, "E02")
		return
	}

	switch fields[0] {
	case "help":
		s.consoleWrite(c, "commands: help, reset, puc, erase, vcc, info\n")
	case "reset", "puc":
		s.Core.Reset()
		s.consoleWrite(c, "core reset\n")
	case "erase":
		// accepted, no-op: flash-controller erase semantics are not modelled
	case "vcc":
		// accepted, no-op
	case "info":
		s.consoleWrite(c, spew.Sdump(s.Core.Registers()))
	default:
		writePacket(c, "E02")
		return
	}
	writePacket(c, "OK")
}

func (s *Server) consoleWrite(c *clientConn, text string) {
	writePacket(c, "O"+hexEncodeASCII(text))
}

func hexEncodeASCII(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		fmt.Fprintf(&sb, "%02x", s[i])
	}
	return sb.String()
}

func hexDecodeASCII(s string) (string, error) {
	if len(s)%2 != 0 {
		return "", fmt.Errorf("odd-length hex string")
	}
	var sb strings.Builder
	for i := 0; i < len(s); i += 2 {
		v, err := strconv.ParseUint(s[i:i+2], 16, 8)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte(v))
	}
	return sb.String(), nil
}
