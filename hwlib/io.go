// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/spisim"
)

// Uint64 returns the state of the given pins as an integer. Pin 0 is the lsb.
//
func Uint64(c *spisim.Circuit, pins []int) uint64 {
	var v uint64
	for i, p := range pins {
		if c.Get(p) {
			v |= 1 << uint(i)
		}
	}
	return v
}

// SetUint64 sets the given pins to the bits of v. Pin 0 is the lsb.
//
func SetUint64(c *spisim.Circuit, pins []int, v uint64) {
	for i, p := range pins {
		c.Set(p, v&(1<<uint(i)) != 0)
	}
}

// Input creates a function based input. f is called on every simulation step
// from a worker goroutine.
//
//	Outputs: out
//	Function: out = f()
//
func Input(f func() bool) spisim.NewPartFn {
	return (&spisim.PartSpec{
		Name:    "Input",
		Outputs: []string{pOut},
		Mount: func(s *spisim.Socket) []spisim.Component {
			out := s.Pin(pOut)
			return []spisim.Component{
				func(c *spisim.Circuit) { c.Set(out, f()) },
			}
		}}).NewPart
}

// Output creates an output or probe. f is called with the state of the in pin
// on every simulation step.
//
//	Inputs: in
//	Function: f(in)
//
func Output(f func(bool)) spisim.NewPartFn {
	return (&spisim.PartSpec{
		Name:   "Output",
		Inputs: []string{pIn},
		Mount: func(s *spisim.Socket) []spisim.Component {
			in := s.Pin(pIn)
			return []spisim.Component{
				func(c *spisim.Circuit) { f(c.Get(in)) },
			}
		}}).NewPart
}

// InputN creates an input bus of the given bits size.
//
//	Outputs: out[bits]
//	Function: out = f()
//
func InputN(bits int, f func() uint64) spisim.NewPartFn {
	return (&spisim.PartSpec{
		Name:    "Input" + strconv.Itoa(bits),
		Outputs: bus(bits, pOut),
		Mount: func(s *spisim.Socket) []spisim.Component {
			pins := s.Bus(pOut, bits)
			return []spisim.Component{
				func(c *spisim.Circuit) { SetUint64(c, pins, f()) },
			}
		}}).NewPart
}

// OutputN creates an output bus of the given bits size.
//
//	Inputs: in[bits]
//	Function: f(in)
//
func OutputN(bits int, f func(uint64)) spisim.NewPartFn {
	return (&spisim.PartSpec{
		Name:   "Output" + strconv.Itoa(bits),
		Inputs: bus(bits, pIn),
		Mount: func(s *spisim.Socket) []spisim.Component {
			pins := s.Bus(pIn, bits)
			return []spisim.Component{
				func(c *spisim.Circuit) { f(Uint64(c, pins)) },
			}
		}}).NewPart
}
