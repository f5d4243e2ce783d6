// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package console implements the interactive command console of spisim.
//
package console

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/db47h/spisim/master"
	"github.com/db47h/spisim/spi"
	"github.com/google/shlex"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

type command struct {
	args string
	help string
	fn   func(c *Console, args []string) error
}

var commands map[string]*command

func init() {
	commands = map[string]*command{
		"send":  {"addr data", "write data to register addr", (*Console).send},
		"raw":   {"frame [bits]", "send the first bits of a raw 16 bits frame", (*Console).raw},
		"abort": {"[bits]", "send an incomplete frame of 8 (or bits) bits", (*Console).abort},
		"idle":  {"[n]", "hold the bus idle for n ticks", (*Console).idle},
		"reset": {"", "reset the device", (*Console).reset},
		"regs":  {"", "show registers", (*Console).regs},
		"help":  {"", "show this help", (*Console).help},
		"quit":  {"", "exit the console", func(*Console, []string) error { return ErrQuit }},
	}
	commands["exit"] = commands["quit"]
	commands["?"] = commands["help"]
}

// Console executes commands against a device.
//
type Console struct {
	dev master.Device
	drv *master.Driver
	out io.Writer
}

// New returns a new console writing its output to out.
//
func New(dev master.Device, drv *master.Driver, out io.Writer) *Console {
	return &Console{dev: dev, drv: drv, out: out}
}

// Exec executes a single command line. Empty lines and comments starting
// with '#' are ignored.
//
func (c *Console) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return errors.Wrap(err, "parse error")
	}
	if len(args) == 0 {
		return nil
	}
	cmd, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return errors.Errorf("unknown command %q, try help", args[0])
	}
	return cmd.fn(c, args[1:])
}

// Run executes commands read from r, one per line, until EOF or a quit
// command. Command errors are printed and do not stop Run.
//
func (c *Console) Run(r io.Reader) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		if c.exec(s.Text()) {
			return nil
		}
	}
	return s.Err()
}

func (c *Console) exec(line string) (quit bool) {
	err := c.Exec(line)
	if err == ErrQuit {
		return true
	}
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	return false
}

// IsTerminal returns true if f is a terminal.
//
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// RunTerminal runs an interactive session on terminal f with line editing.
// If logger is not nil, its output is redirected to the terminal for the
// duration of the session.
//
func (c *Console) RunTerminal(f *os.File, prompt string, logger *log.Logger) error {
	fd := int(f.Fd())
	st, err := term.MakeRaw(fd)
	if err != nil {
		return errors.Wrap(err, "failed to set terminal in raw mode")
	}
	defer term.Restore(fd, st)

	t := term.NewTerminal(f, prompt)
	out := c.out
	c.out = t
	defer func() { c.out = out }()
	if logger != nil {
		w := logger.Writer()
		logger.SetOutput(t)
		defer logger.SetOutput(w)
	}

	for {
		line, err := t.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read failed")
		}
		if c.exec(line) {
			return nil
		}
	}
}

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, errors.Errorf("invalid %d bits value %q", bits, s)
	}
	return v, nil
}

func nArgs(args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		return errors.Errorf("wrong number of arguments: %d", len(args))
	}
	return nil
}

func (c *Console) send(args []string) error {
	if err := nArgs(args, 2, 2); err != nil {
		return err
	}
	a, err := spi.ParseAddr(args[0])
	if err != nil {
		return err
	}
	d, err := parseUint(args[1], 8)
	if err != nil {
		return err
	}
	return c.drv.Send(spi.Command{Write: true, Addr: a, Data: uint8(d)})
}

func (c *Console) raw(args []string) error {
	if err := nArgs(args, 1, 2); err != nil {
		return err
	}
	f, err := parseUint(args[0], 16)
	if err != nil {
		return err
	}
	bits := uint64(spi.FrameBits)
	if len(args) > 1 {
		if bits, err = parseUint(args[1], 8); err != nil {
			return err
		}
		if bits > spi.FrameBits {
			return errors.Errorf("bit count %d out of range [0, %d]", bits, spi.FrameBits)
		}
	}
	c.drv.SendRaw(uint16(f), int(bits))
	return nil
}

func (c *Console) abort(args []string) error {
	if err := nArgs(args, 0, 1); err != nil {
		return err
	}
	bits := uint64(8)
	if len(args) > 0 {
		var err error
		if bits, err = parseUint(args[0], 8); err != nil {
			return err
		}
		if bits >= spi.FrameBits {
			return errors.Errorf("bit count %d out of range [0, %d]", bits, spi.FrameBits-1)
		}
	}
	c.drv.SendRaw(0xffff, int(bits))
	return nil
}

func (c *Console) idle(args []string) error {
	if err := nArgs(args, 0, 1); err != nil {
		return err
	}
	n := uint64(1)
	if len(args) > 0 {
		var err error
		if n, err = parseUint(args[0], 32); err != nil {
			return err
		}
	}
	c.drv.Idle(int(n))
	return nil
}

func (c *Console) reset(args []string) error {
	if err := nArgs(args, 0, 0); err != nil {
		return err
	}
	c.dev.Reset()
	return nil
}

func (c *Console) regs(args []string) error {
	if err := nArgs(args, 0, 0); err != nil {
		return err
	}
	r := c.dev.Registers()
	for i, v := range r.Bytes() {
		fmt.Fprintf(c.out, "0x%02x %-12v 0x%02x\n", i, spi.Addr(i), v)
	}
	fmt.Fprintf(c.out, "%v\n", r)
	return nil
}

func (c *Console) help(args []string) error {
	for _, n := range []string{"send", "raw", "abort", "idle", "reset", "regs", "help", "quit"} {
		cmd := commands[n]
		fmt.Fprintf(c.out, "%-20s %s\n", n+" "+cmd.args, cmd.help)
	}
	return nil
}
