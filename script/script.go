// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package script runs Lua testbenches against a receiver.
//
// The following functions are available to scripts:
//
//	reset([n])              reset the device, then idle the bus for n ticks (default 10)
//	send(addr, data[, w])   send a command frame. w defaults to true
//	send_raw(frame[, bits]) send the first bits of a raw frame (default 16)
//	idle(n)                 hold the bus idle for n ticks
//	pins(sclk, copi, ncs[, n]) drive the bus lines for n ticks (default 1)
//	tick()                  number of ticks driven so far
//	reg(addr)               value of a register
//	regs()                  table of all registers, by name
//	expect(addr, v[, msg])  fail the script unless register addr == v
//	log(...)                print its arguments to the log
//
// Register addresses are either numbers or register names like "duty".
//
package script

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/db47h/spisim/master"
	"github.com/db47h/spisim/spi"
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
)

// DefaultResetIdle is the number of idle ticks after reset when reset is
// called without argument.
const DefaultResetIdle = 10

// Runner runs scripts against a device.
//
type Runner struct {
	dev    master.Device
	drv    *master.Driver
	logger *log.Logger
}

// New returns a Runner for device dev driven by drv. logger may be nil.
//
func New(dev master.Device, drv *master.Driver, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{dev: dev, drv: drv, logger: logger}
}

// RunFile runs the Lua script in the named file. The script is aborted when
// ctx is done.
//
func (r *Runner) RunFile(ctx context.Context, name string) error {
	L := r.newState(ctx)
	defer L.Close()
	return errors.Wrap(L.DoFile(name), name)
}

// RunString runs the given Lua source. name is used in error messages.
//
func (r *Runner) RunString(ctx context.Context, name, src string) error {
	L := r.newState(ctx)
	defer L.Close()
	return errors.Wrap(L.DoString(src), name)
}

func (r *Runner) newState(ctx context.Context) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)
	for name, fn := range map[string]lua.LGFunction{
		"reset":    r.reset,
		"send":     r.send,
		"send_raw": r.sendRaw,
		"idle":     r.idle,
		"pins":     r.pins,
		"tick":     r.tick,
		"reg":      r.reg,
		"regs":     r.regs,
		"expect":   r.expect,
		"log":      r.log,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L
}

func checkAddr(L *lua.LState, n int) spi.Addr {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		if v < 0 || v > lua.LNumber(spi.MaxAddr) || v != lua.LNumber(int(v)) {
			L.ArgError(n, fmt.Sprintf("address %v out of range", v))
		}
		return spi.Addr(v)
	case lua.LString:
		a, err := spi.ParseAddr(string(v))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		return a
	}
	L.TypeError(n, lua.LTNumber)
	return 0
}

func checkByte(L *lua.LState, n int) uint8 {
	v := L.CheckInt(n)
	if v < 0 || v > 0xff {
		L.ArgError(n, fmt.Sprintf("value %d out of range [0, 255]", v))
	}
	return uint8(v)
}

func checkCount(L *lua.LState, n int, def int) int {
	v := L.OptInt(n, def)
	if v < 0 {
		L.ArgError(n, "negative tick count")
	}
	return v
}

// checkLevel accepts booleans and numbers, 0 being low.
func checkLevel(L *lua.LState, n int) bool {
	switch v := L.Get(n).(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return v != 0
	}
	L.TypeError(n, lua.LTBool)
	return false
}

func (r *Runner) reset(L *lua.LState) int {
	n := checkCount(L, 1, DefaultResetIdle)
	r.dev.Reset()
	r.drv.Idle(n)
	return 0
}

func (r *Runner) send(L *lua.LState) int {
	c := spi.Command{
		Addr:  checkAddr(L, 1),
		Data:  checkByte(L, 2),
		Write: L.OptBool(3, true),
	}
	if err := r.drv.Send(c); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (r *Runner) sendRaw(L *lua.LState) int {
	f := L.CheckInt(1)
	if f < 0 || f > 0xffff {
		L.ArgError(1, fmt.Sprintf("frame 0x%x out of range", f))
	}
	bits := L.OptInt(2, spi.FrameBits)
	if bits < 0 || bits > spi.FrameBits {
		L.ArgError(2, fmt.Sprintf("bit count %d out of range [0, %d]", bits, spi.FrameBits))
	}
	r.drv.SendRaw(uint16(f), bits)
	return 0
}

func (r *Runner) idle(L *lua.LState) int {
	r.drv.Idle(checkCount(L, 1, 1))
	return 0
}

func (r *Runner) pins(L *lua.LState) int {
	p := spi.Pins{SCLK: checkLevel(L, 1), COPI: checkLevel(L, 2), NCS: checkLevel(L, 3)}
	r.drv.Hold(p, checkCount(L, 4, 1))
	return 0
}

func (r *Runner) tick(L *lua.LState) int {
	L.Push(lua.LNumber(r.drv.Ticks()))
	return 1
}

func (r *Runner) reg(L *lua.LState) int {
	a := checkAddr(L, 1)
	v, ok := r.dev.Registers().Get(a)
	if !ok {
		L.ArgError(1, fmt.Sprintf("no register at address 0x%02x", uint8(a)))
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (r *Runner) regs(L *lua.LState) int {
	rf := r.dev.Registers()
	t := L.NewTable()
	for i, v := range rf.Bytes() {
		t.RawSetString(spi.Addr(i).String(), lua.LNumber(v))
	}
	t.RawSetString("en_out", lua.LNumber(rf.EnableOutput))
	t.RawSetString("pwm_mode", lua.LNumber(rf.EnablePWMMode))
	L.Push(t)
	return 1
}

func (r *Runner) expect(L *lua.LState) int {
	a := checkAddr(L, 1)
	exp := checkByte(L, 2)
	msg := L.OptString(3, "")
	v, ok := r.dev.Registers().Get(a)
	if !ok {
		L.ArgError(1, fmt.Sprintf("no register at address 0x%02x", uint8(a)))
	}
	if v != exp {
		s := fmt.Sprintf("expect %v: expected 0x%02x, got 0x%02x", a, exp, v)
		if msg != "" {
			s += ": " + msg
		}
		L.RaiseError("%s", s)
	}
	return 0
}

func (r *Runner) log(L *lua.LState) int {
	n := L.GetTop()
	args := make([]string, n)
	for i := range args {
		args[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	r.logger.Print(strings.Join(args, " "))
	return 0
}
