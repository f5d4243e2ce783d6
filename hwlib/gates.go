// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides the parts used to build the receiver test board:
// pin drivers and probes, basic gates, flip flops with asynchronous reset,
// the gate-level input synchronizer and edge detector, and the SPI register
// part itself.
//
// Board runs the behavioural receiver, front end included. Frontend and its
// building blocks Sync2 and EdgeDetect are not mounted on the board: they are
// the gate-level reference that FrontendPart, and through it spi.Frontend, is
// checked against with hwtest.ComparePart.
//
package hwlib

import (
	"strconv"

	"github.com/db47h/spisim"
)

// common pin names
const (
	pA    = "a"
	pB    = "b"
	pIn   = "in"
	pOut  = "out"
	pRstN = "rst_n"
)

// make a bus name
func bus(bits int, names ...string) []string {
	b := make([]string, len(names)*bits)
	for i, n := range names {
		for j := 0; j < bits; j++ {
			b[i*bits+j] = n + "[" + strconv.Itoa(j) + "]"
		}
	}
	return b
}

// must panics if err is not nil. Used for chips built from static
// descriptions.
func must(fn spisim.NewPartFn, err error) spisim.NewPartFn {
	if err != nil {
		panic(err)
	}
	return fn
}

var notGate = &spisim.PartSpec{
	Name:    "NOT",
	Inputs:  []string{pIn},
	Outputs: []string{pOut},
	Mount: func(s *spisim.Socket) []spisim.Component {
		in, out := s.Pin(pIn), s.Pin(pOut)
		return []spisim.Component{
			func(c *spisim.Circuit) { c.Set(out, !c.Get(in)) },
		}
	},
}

// Not returns a NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(w string) spisim.Part { return notGate.NewPart(w) }

type gate func(a, b bool) bool

func (g gate) mount(s *spisim.Socket) []spisim.Component {
	a, b, out := s.Pin(pA), s.Pin(pB), s.Pin(pOut)
	return []spisim.Component{
		func(c *spisim.Circuit) { c.Set(out, g(c.Get(a), c.Get(b))) },
	}
}

func newGate(name string, fn func(a, b bool) bool) *spisim.PartSpec {
	return &spisim.PartSpec{
		Name:    name,
		Inputs:  []string{pA, pB},
		Outputs: []string{pOut},
		Mount:   gate(fn).mount,
	}
}

var (
	and  = newGate("AND", func(a, b bool) bool { return a && b })
	nand = newGate("NAND", func(a, b bool) bool { return !(a && b) })
	or   = newGate("OR", func(a, b bool) bool { return a || b })
)

// And returns a AND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b
//
func And(w string) spisim.Part { return and.NewPart(w) }

// Nand returns a NAND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a && b)
//
func Nand(w string) spisim.Part { return nand.NewPart(w) }

// Or returns a OR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a || b
//
func Or(w string) spisim.Part { return or.NewPart(w) }
