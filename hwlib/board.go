// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/spisim"
	"github.com/db47h/spisim/spi"
	"github.com/pkg/errors"
)

// Board is a receiver mounted in a circuit, with the bus lines wired to
// ui_in[2:0] and the register file probed on the output buses. It implements
// master.Device.
//
// Bus line changes reach the receiver one clock cycle after the call to Tick
// that sets them.
//
type Board struct {
	// Receiver is the receiver mounted in the circuit. Its Trace hook may be
	// set before the first call to Tick.
	Receiver *spi.Receiver

	c    *spisim.Circuit
	ui   uint8
	rstN bool

	uo, uio, pwmLo, pwmHi, duty uint64
}

// NewBoard returns a new Board. See spisim.NewCircuit for the workers and spc
// arguments. The circuit must be released with Close.
//
func NewBoard(workers int, spc uint) (*Board, error) {
	b := &Board{Receiver: spi.NewReceiver(), ui: spi.Idle.UIIn(), rstN: true}
	c, err := spisim.NewCircuit(workers, spc,
		InputN(3, func() uint64 { return uint64(b.ui) })("out[0..2]=ui_in[0..2]"),
		Input(func() bool { return b.rstN })("out=rst_n"),
		SPIRegs(b.Receiver)("sclk=ui_in[0], copi=ui_in[1], ncs=ui_in[2], rst_n=rst_n, "+
			"uo_out[0..7]=uo_out[0..7], uio_out[0..7]=uio_out[0..7], "+
			"pwm_lo[0..7]=pwm_lo[0..7], pwm_hi[0..7]=pwm_hi[0..7], duty[0..7]=duty[0..7]"),
		OutputN(8, func(v uint64) { b.uo = v })("in[0..7]=uo_out[0..7]"),
		OutputN(8, func(v uint64) { b.uio = v })("in[0..7]=uio_out[0..7]"),
		OutputN(8, func(v uint64) { b.pwmLo = v })("in[0..7]=pwm_lo[0..7]"),
		OutputN(8, func(v uint64) { b.pwmHi = v })("in[0..7]=pwm_hi[0..7]"),
		OutputN(8, func(v uint64) { b.duty = v })("in[0..7]=duty[0..7]"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build board")
	}
	b.c = c
	return b, nil
}

// Tick drives the bus lines in state p for one clock cycle.
//
func (b *Board) Tick(p spi.Pins) {
	b.ui = p.UIIn()
	b.c.TickTock()
}

// Reset holds rst_n low for one clock cycle with the bus idle.
//
func (b *Board) Reset() {
	b.rstN = false
	b.ui = spi.Idle.UIIn()
	b.c.TickTock()
	b.rstN = true
}

// Registers returns the register file as seen on the output buses.
//
func (b *Board) Registers() spi.RegisterFile {
	return spi.RegisterFile{
		EnableOutput:  uint16(b.uio)<<8 | uint16(b.uo),
		EnablePWMMode: uint16(b.pwmHi)<<8 | uint16(b.pwmLo),
		PWMDutyCycle:  uint8(b.duty),
	}
}

// Cycles returns the number of clock cycles run so far.
//
func (b *Board) Cycles() uint { return b.c.Cycles() }

// Close stops the circuit's worker goroutines.
//
func (b *Board) Close() { b.c.Dispose() }
