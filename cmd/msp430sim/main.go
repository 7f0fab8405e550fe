// Command msp430sim runs the MSP430 simulator core with a remote-debug
// TCP front end attached.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gopkg.in/urfave/cli.v2"

	"github.com/user-none/go-msp430sim/config"
	"github.com/user-none/go-msp430sim/core"
	"github.com/user-none/go-msp430sim/debugserver"
	"github.com/user-none/go-msp430sim/eventbus"
	"github.com/user-none/go-msp430sim/logging"
)

func main() {
	app := &cli.App{
		Name:    "msp430sim",
		Usage:   "MSP430 instruction-set simulator with a remote-debug server",
		Version: "v0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "image",
				Usage: "firmware image to load (Intel-HEX or TI-Text)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "debug server TCP port",
				Value: debugserver.DefaultPort,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, or error",
				Value: "info",
			},
			&cli.BoolFlag{
				Name:  "no-harness",
				Usage: "do not attach the test harness peripheral",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("port") {
		cfg.DebugPort = c.Int("port")
	}
	if c.IsSet("image") {
		cfg.Image = c.String("image")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("no-harness") {
		cfg.NoHarness = c.Bool("no-harness")
	}

	log := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	bus := core.NewSystemBus()
	bus.RegisterPeripheral(core.NewFlash(cfg.Flash.Base, cfg.Flash.Size))
	bus.RegisterPeripheral(core.NewRAM(cfg.RAM.Base, cfg.RAM.Size))
	bus.RegisterPeripheral(core.NewExtendedPorts())
	bus.RegisterPeripheral(core.NewMultiplier())
	if !cfg.NoHarness {
		bus.RegisterPeripheral(core.NewTestHarness(0x01B0))
	}

	events := eventbus.New()
	bus.WatchAccess(func(_ *core.SystemBus, w core.Width, isWrite bool, addr uint16) {
		if isWrite {
			events.Publish(eventbus.MemoryChanged{Addr: addr, Width: int(w.Bits())})
		}
	})

	cpu := core.New(bus)

	if cfg.Image != "" {
		f, err := os.Open(cfg.Image)
		if err != nil {
			return fmt.Errorf("opening image: %w", err)
		}
		defer f.Close()

		format := "intel-hex"
		if hasSuffix(cfg.Image, ".txt") {
			format = "ti-text"
		}
		if err := bus.LoadImage(f, format); err != nil {
			return fmt.Errorf("loading image: %w", err)
		}
		cpu.Reset()
	}

	addr := fmt.Sprintf("localhost:%d", cfg.DebugPort)
	server := debugserver.New(addr, cpu, events, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Infof("listening on %s", addr)
	return server.Serve(ctx)
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
