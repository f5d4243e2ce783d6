// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spi

// Pins is the state of the three bus lines as seen by the receiver.
//
type Pins struct {
	SCLK bool // serial clock
	COPI bool // data, controller out peripheral in
	NCS  bool // chip select, active low
}

// Idle is the bus state when no transaction is in progress.
//
var Idle = Pins{NCS: true}

// Tiny Tapeout ui_in bits.
const (
	uiSCLK = 0
	uiCOPI = 1
	uiNCS  = 2
)

// UIIn decodes the bus lines from a Tiny Tapeout ui_in byte. Bits 7..3 are
// ignored.
//
func UIIn(b uint8) Pins {
	return Pins{
		SCLK: bit(b, uiSCLK),
		COPI: bit(b, uiCOPI),
		NCS:  bit(b, uiNCS),
	}
}

// UIIn encodes p as a Tiny Tapeout ui_in byte.
//
func (p Pins) UIIn() uint8 {
	return b2u[uint8](p.SCLK)<<uiSCLK | b2u[uint8](p.COPI)<<uiCOPI | b2u[uint8](p.NCS)<<uiNCS
}

func (p Pins) String() string {
	b := []byte("sclk=0 copi=0 ncs=0")
	if p.SCLK {
		b[5] = '1'
	}
	if p.COPI {
		b[12] = '1'
	}
	if p.NCS {
		b[18] = '1'
	}
	return string(b)
}
