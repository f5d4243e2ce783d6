// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package spi implements the receiver for 16 bits command frames on a 3-wire
// SPI bus (SCLK, COPI, nCS) and the register file it writes.
//
// Frame format, MSB first:
//
//	bit 15      write flag (1 = write, 0 = no-op)
//	bits 14..8  register address
//	bits 7..0   payload
//
// The receiver is a synchronous design modeled as an explicit tick function:
// every call to Receiver.Tick is one rising edge of the system clock. All next
// state values are computed from the current state and committed together.
//
package spi

import "fmt"

// EventKind identifies trace events.
//
type EventKind int

// Trace event kinds.
const (
	EventReset EventKind = iota // receiver reset
	EventStart                  // nCS falling edge, a frame starts
	EventAbort                  // nCS rose before the 16th bit
	EventFrame                  // 16th bit received, frame decoded
)

var eventNames = [...]string{
	EventReset: "reset",
	EventStart: "start",
	EventAbort: "abort",
	EventFrame: "frame",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a receiver trace event.
//
type Event struct {
	Kind EventKind
	Tick uint64 // tick count when the event occurred

	// For EventAbort: number of bits received before the abort.
	Bits int

	// For EventFrame: the raw frame, the decoded command and whether a
	// register was written.
	Raw     uint16
	Cmd     Command
	Written bool
}

func (e Event) String() string {
	switch e.Kind {
	case EventAbort:
		return fmt.Sprintf("@%d %v after %d bits", e.Tick, e.Kind, e.Bits)
	case EventFrame:
		s := fmt.Sprintf("@%d %v 0x%04x (%v)", e.Tick, e.Kind, e.Raw, e.Cmd)
		if !e.Written {
			s += " ignored"
		}
		return s
	}
	return fmt.Sprintf("@%d %v", e.Tick, e.Kind)
}

type state struct {
	fe    Frontend
	frame frame
	regs  RegisterFile
}

func resetState() state {
	return state{fe: NewFrontend()}
}

// Receiver decodes command frames and applies them to its register file.
//
// Use NewReceiver to create a Receiver: the zero value is not in reset state.
// A Receiver must not be used concurrently from multiple goroutines.
//
type Receiver struct {
	// Trace, if not nil, is called synchronously from Tick and Reset.
	Trace func(Event)

	st    state
	ticks uint64
}

// NewReceiver returns a new Receiver in reset state.
//
func NewReceiver() *Receiver {
	return &Receiver{st: resetState()}
}

// Reset puts the receiver in its reset state: synchronizers idle, no frame in
// progress and all registers cleared.
//
func (r *Receiver) Reset() {
	r.st = resetState()
	r.trace(Event{Kind: EventReset})
}

func (r *Receiver) trace(e Event) {
	if r.Trace != nil {
		e.Tick = r.ticks
		r.Trace(e)
	}
}

// Tick advances the receiver by one system clock cycle with the raw bus lines
// in state p.
//
func (r *Receiver) Tick(p Pins) {
	cur := r.st
	next := cur

	in := cur.fe.Synced()
	edges := cur.fe.Edges()
	next.fe = cur.fe.Next(p)

	ev := cur.frame.classify(edges, in)
	var (
		word uint16
		done bool
	)
	next.frame, word, done = cur.frame.step(ev, in.COPI)

	var cmd Command
	var written bool
	if done {
		cmd = Decode(word)
		next.regs, written = cur.regs.Apply(cmd)
	}

	r.st = next
	r.ticks++

	switch {
	case ev == evStart:
		r.trace(Event{Kind: EventStart})
	case ev == evAbort && cur.frame.inFrame:
		r.trace(Event{Kind: EventAbort, Bits: int(cur.frame.count)})
	case done:
		r.trace(Event{Kind: EventFrame, Raw: word, Cmd: cmd, Written: written})
	}
}

// Registers returns a copy of the register file.
//
func (r *Receiver) Registers() RegisterFile { return r.st.regs }

// Synced returns the synchronized bus lines, as seen by the frame assembler
// on the next tick.
//
func (r *Receiver) Synced() Pins { return r.st.fe.Synced() }

// InFrame returns true while a frame is being received.
//
func (r *Receiver) InFrame() bool { return r.st.frame.inFrame }

// BitCount returns the number of bits received in the current (or last) frame.
//
func (r *Receiver) BitCount() int { return int(r.st.frame.count) }

// Ticks returns the number of ticks since the receiver was created.
//
func (r *Receiver) Ticks() uint64 { return r.ticks }
