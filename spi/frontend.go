// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spi

// chain is a two stage synchronizer for a single asynchronous input. Stage 1
// may go metastable, only stage 2 is ever observed.
//
type chain [2]bool

func (c chain) next(in bool) chain { return chain{in, c[0]} }
func (c chain) out() bool          { return c[1] }

// synchronizer holds the synchronizer chains for the three bus lines.
//
type synchronizer struct {
	sclk, copi, ncs chain
}

func (s synchronizer) next(p Pins) synchronizer {
	return synchronizer{
		sclk: s.sclk.next(p.SCLK),
		copi: s.copi.next(p.COPI),
		ncs:  s.ncs.next(p.NCS),
	}
}

func (s synchronizer) out() Pins {
	return Pins{SCLK: s.sclk.out(), COPI: s.copi.out(), NCS: s.ncs.out()}
}

// edgeHistory holds the previous tick's synchronized SCLK and nCS.
//
type edgeHistory struct {
	sclk, ncs bool
}

// Edges are single tick pulses derived from the synchronized lines.
//
type Edges struct {
	ClockRising   bool
	SelectFalling bool
}

func (h edgeHistory) detect(cur Pins) Edges {
	return Edges{
		ClockRising:   cur.SCLK && !h.sclk,
		SelectFalling: !cur.NCS && h.ncs,
	}
}

// Frontend is the input stage of the receiver: a two stage synchronizer on
// each bus line followed by the edge detector.
//
// A Frontend is a value; Next returns the state for the following tick and
// leaves f untouched.
//
type Frontend struct {
	sync synchronizer
	prev edgeHistory
}

// NewFrontend returns a Frontend in its reset state: SCLK and COPI low, nCS
// high, so that no edge fires on the first ticks after reset.
//
func NewFrontend() Frontend {
	return Frontend{
		sync: synchronizer{ncs: chain{true, true}},
		prev: edgeHistory{ncs: true},
	}
}

// Next returns the frontend state after one system clock tick with the raw
// bus lines in state p.
//
func (f Frontend) Next(p Pins) Frontend {
	cur := f.sync.out()
	return Frontend{
		sync: f.sync.next(p),
		prev: edgeHistory{sclk: cur.SCLK, ncs: cur.NCS},
	}
}

// Synced returns the synchronized bus lines. A change on a raw line shows up
// here exactly two ticks after it is first presented to Next.
//
func (f Frontend) Synced() Pins { return f.sync.out() }

// Edges returns the edges detected between the previous and current
// synchronized values.
//
func (f Frontend) Edges() Edges { return f.prev.detect(f.sync.out()) }
