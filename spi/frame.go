// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spi

// event is what the frame assembler does on a given tick.
//
type event int

const (
	evNone  event = iota
	evStart       // nCS fell: start a new frame, even mid-frame
	evShift       // SCLK rose while receiving: shift COPI in
	evAbort       // nCS is high: drop any frame in progress
)

// frame is the frame assembler state.
//
type frame struct {
	shift   uint16 // MSB first accumulator
	count   uint8  // bits received in the current frame
	inFrame bool   // RECEIVING when true, IDLE otherwise
}

// classify picks the single event for this tick. Start beats everything, then
// accumulation while the bus is active, then abort.
//
func (f frame) classify(e Edges, cur Pins) event {
	switch {
	case e.SelectFalling:
		return evStart
	case f.inFrame && !cur.NCS && e.ClockRising:
		return evShift
	case cur.NCS:
		return evAbort
	}
	return evNone
}

// step returns the assembler state for the next tick. When done is true, word
// is the completed frame, including the bit shifted in on this tick.
//
func (f frame) step(ev event, copi bool) (next frame, word uint16, done bool) {
	next = f
	switch ev {
	case evStart:
		next.inFrame = true
		next.count = 0
	case evShift:
		next.shift = f.shift<<1 | b2u[uint16](copi)
		next.count = f.count + 1
		if next.count == FrameBits {
			next.inFrame = false
			return next, next.shift, true
		}
	case evAbort:
		next.inFrame = false
	}
	return next, 0, false
}
