// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package master drives the bus lines of a receiver the way a bit-banging
// SPI controller does: mode 0, MSB first, one system clock tick at a time.
//
package master

import (
	"github.com/db47h/spisim/spi"
	"github.com/pkg/errors"
)

// Target is anything clocked by the system clock with the bus lines as input.
//
type Target interface {
	Tick(p spi.Pins)
}

// Device is a Target that can be reset and whose register file can be read
// back.
//
type Device interface {
	Target
	Reset()
	Registers() spi.RegisterFile
}

// Config holds the bus timing, in system clock ticks.
//
type Config struct {
	// HalfPeriod is the number of ticks SCLK stays low, then high, for each bit.
	HalfPeriod int
	// Setup is the number of ticks nCS is held low before the first bit.
	Setup int
	// Trailer is the number of ticks the bus is held idle after nCS is
	// released. At least one idle tick is always sent.
	Trailer int
}

// DefaultConfig returns a 100 kHz SCLK for a 10 MHz system clock.
//
func DefaultConfig() Config {
	return Config{
		HalfPeriod: 50,
		Setup:      1,
		Trailer:    600,
	}
}

// Driver drives a Target.
//
type Driver struct {
	t     Target
	cfg   Config
	ticks uint64
}

// New returns a new Driver for t.
//
func New(t Target, cfg Config) (*Driver, error) {
	if t == nil {
		return nil, errors.New("nil target")
	}
	if cfg.HalfPeriod < 1 {
		return nil, errors.Errorf("invalid SCLK half period %d", cfg.HalfPeriod)
	}
	if cfg.Setup < 0 || cfg.Trailer < 0 {
		return nil, errors.Errorf("negative setup (%d) or trailer (%d) time", cfg.Setup, cfg.Trailer)
	}
	return &Driver{t: t, cfg: cfg}, nil
}

// Config returns the driver's timing configuration.
//
func (d *Driver) Config() Config { return d.cfg }

// Ticks returns the number of ticks driven so far.
//
func (d *Driver) Ticks() uint64 { return d.ticks }

// Hold drives the bus lines in state p for n ticks.
//
func (d *Driver) Hold(p spi.Pins, n int) {
	for i := 0; i < n; i++ {
		d.t.Tick(p)
		d.ticks++
	}
}

// Idle holds the bus idle for n ticks.
//
func (d *Driver) Idle(n int) { d.Hold(spi.Idle, n) }

// Send transmits the frame for command c.
//
func (d *Driver) Send(c spi.Command) error {
	w, err := c.Encode()
	if err != nil {
		return errors.Wrap(err, "send")
	}
	d.SendRaw(w, spi.FrameBits)
	return nil
}

// SendRaw transmits the first bits of frame, MSB first, then releases nCS.
// With less than 16 bits, the frame is aborted.
//
func (d *Driver) SendRaw(frame uint16, bits int) {
	if bits > spi.FrameBits {
		bits = spi.FrameBits
	}
	half := d.cfg.HalfPeriod
	d.Hold(spi.Pins{}, d.cfg.Setup)
	for i := 0; i < bits; i++ {
		b := frame&(1<<uint(spi.FrameBits-1-i)) != 0
		d.Hold(spi.Pins{COPI: b}, half)
		d.Hold(spi.Pins{SCLK: true, COPI: b}, half)
	}
	d.Idle(max(1, d.cfg.Trailer))
}
