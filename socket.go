// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spisim

import "strconv"

// Constant input pin names.
//
const (
	True  = "true"
	False = "false"
	Clk   = "clk"
)

const (
	cstFalse = iota
	cstTrue
	cstClk
	cstCount
)

func isConstant(name string) bool {
	return name == True || name == False || name == Clk
}

// A Socket maps a part's pin names to pin numbers in a circuit.
//
type Socket struct {
	m map[string]int
	c *Circuit
}

func newSocket(c *Circuit) *Socket {
	return &Socket{
		m: map[string]int{False: cstFalse, True: cstTrue, Clk: cstClk},
		c: c,
	}
}

// Pin returns the pin number allocated to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) int {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// OnTick registers t to be called on every rising edge of the clock.
//
func (s *Socket) OnTick(t Trigger) {
	s.c.ts = append(s.c.ts, t)
}

// Bus returns the pin numbers allocated to the given bus name. Pin 0 is the
// least significant bit.
// This function panics if any of the bus pins does not exist.
//
func (s *Socket) Bus(name string, size int) []int {
	out := make([]int, size)
	for i := range out {
		out[i] = s.Pin(BusPinName(name, i))
	}
	return out
}

// BusPinName returns the name of pin i of the given bus.
//
func BusPinName(bus string, i int) string {
	return bus + "[" + strconv.Itoa(i) + "]"
}
