// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command spisim drives a simulated SPI register receiver.
//
//	spisim [flags] run script.lua...
//	spisim [flags] console
//	spisim [flags] serial
//
// run executes Lua testbenches concurrently, each against its own receiver.
// console starts an interactive command console. serial replays 2 bytes
// frames read from a serial port onto the bus.
//
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/db47h/spisim/bridge"
	"github.com/db47h/spisim/hwlib"
	"github.com/db47h/spisim/internal/console"
	"github.com/db47h/spisim/master"
	"github.com/db47h/spisim/script"
	"github.com/db47h/spisim/spi"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	dt = master.DefaultConfig()
	bc = bridge.DefaultConfig("/dev/ttyUSB0")

	engine  = flag.String("engine", "behavioral", "receiver model: behavioral or circuit")
	half    = flag.Int("half", dt.HalfPeriod, "SCLK half period, in system clock ticks")
	setup   = flag.Int("setup", dt.Setup, "nCS setup time before the first bit, in ticks")
	trailer = flag.Int("trailer", dt.Trailer, "idle ticks after each frame")
	workers = flag.Int("workers", 1, "circuit engine worker goroutines (0 = GOMAXPROCS)")
	spc     = flag.Uint("spc", 4, "circuit engine steps per clock cycle")
	verbose = flag.Bool("v", false, "trace receiver events")
	device  = flag.String("device", bc.Device, "serial device")
	baud    = flag.Int("baud", bc.Baud, "serial baud rate")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] run script.lua... | console | serial\n", os.Args[0])
	flag.PrintDefaults()
}

// dut is a device under test and its driver.
type dut struct {
	master.Device
	drv   *master.Driver
	close func()
}

func newDUT(logger *log.Logger) (*dut, error) {
	var (
		d  = &dut{close: func() {}}
		rx *spi.Receiver
	)
	switch *engine {
	case "behavioral":
		rx = spi.NewReceiver()
		d.Device = rx
	case "circuit":
		b, err := hwlib.NewBoard(*workers, *spc)
		if err != nil {
			return nil, err
		}
		rx = b.Receiver
		d.Device = b
		d.close = b.Close
	default:
		return nil, errors.Errorf("unknown engine %q", *engine)
	}
	if *verbose {
		rx.Trace = func(e spi.Event) { logger.Print(e) }
	}
	drv, err := master.New(d.Device, master.Config{HalfPeriod: *half, Setup: *setup, Trailer: *trailer})
	if err != nil {
		d.close()
		return nil, err
	}
	d.drv = drv
	return d, nil
}

func run(ctx context.Context, logger *log.Logger, scripts []string) error {
	if len(scripts) == 0 {
		return errors.New("no script to run")
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range scripts {
		name := name
		g.Go(func() error {
			l := log.New(logger.Writer(), logger.Prefix()+filepath.Base(name)+": ", logger.Flags())
			d, err := newDUT(l)
			if err != nil {
				return err
			}
			defer d.close()
			if err = script.New(d, d.drv, l).RunFile(ctx, name); err != nil {
				return err
			}
			l.Printf("ok, %d ticks, %v", d.drv.Ticks(), d.Registers())
			return nil
		})
	}
	return g.Wait()
}

func runConsole(logger *log.Logger) error {
	d, err := newDUT(logger)
	if err != nil {
		return err
	}
	defer d.close()
	c := console.New(d, d.drv, os.Stdout)
	if console.IsTerminal(os.Stdin) {
		return c.RunTerminal(os.Stdin, "spi> ", logger)
	}
	return c.Run(os.Stdin)
}

func runSerial(ctx context.Context, logger *log.Logger) error {
	d, err := newDUT(logger)
	if err != nil {
		return err
	}
	defer d.close()

	cfg := bridge.DefaultConfig(*device)
	cfg.Baud = *baud
	p, err := bridge.Open(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	var fl *log.Logger
	if *verbose {
		fl = logger
	}
	n, err := bridge.Feed(ctx, p, d.drv, fl)
	logger.Printf("%d frames, %v", n, d.Registers())
	if err == context.Canceled {
		return nil
	}
	return err
}

func main() {
	flag.Usage = usage
	flag.Parse()

	logger := log.New(os.Stderr, "spisim: ", 0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "run":
		err = run(ctx, logger, flag.Args()[1:])
	case "console":
		err = runConsole(logger)
	case "serial":
		err = runSerial(ctx, logger)
	case "":
		usage()
		os.Exit(2)
	default:
		err = errors.Errorf("unknown command %q", cmd)
	}
	stop()
	if err != nil {
		logger.Fatal(err)
	}
}
