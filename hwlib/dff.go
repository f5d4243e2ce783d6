// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import "github.com/db47h/spisim"

var dff = &spisim.PartSpec{
	Name:    "DFF",
	Inputs:  []string{pIn},
	Outputs: []string{pOut},
	Mount: func(s *spisim.Socket) []spisim.Component {
		in, out := s.Pin(pIn), s.Pin(pOut)
		var q bool
		s.OnTick(func(c *spisim.Circuit) { q = c.Get(in) })
		return []spisim.Component{
			func(c *spisim.Circuit) { c.Set(out, q) },
		}
	}}

// DFF returns a clocked data flip flop.
//
//	Inputs: in
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
func DFF(w string) spisim.Part { return dff.NewPart(w) }

var dffr = [2]*spisim.PartSpec{newDFFR(false), newDFFR(true)}

func newDFFR(preset bool) *spisim.PartSpec {
	name := "DFFR0"
	if preset {
		name = "DFFR1"
	}
	return &spisim.PartSpec{
		Name:    name,
		Inputs:  []string{pIn, pRstN},
		Outputs: []string{pOut},
		Mount: func(s *spisim.Socket) []spisim.Component {
			in, rstN, out := s.Pin(pIn), s.Pin(pRstN), s.Pin(pOut)
			q := preset
			s.OnTick(func(c *spisim.Circuit) {
				if c.Get(rstN) {
					q = c.Get(in)
				}
			})
			return []spisim.Component{
				func(c *spisim.Circuit) {
					if !c.Get(rstN) {
						q = preset
					}
					c.Set(out, q)
				}}
		}}
}

// DFFR returns a data flip flop with an asynchronous active low reset. While
// rst_n is low, out is forced to preset.
//
//	Inputs: in, rst_n
//	Outputs: out
//	Function: out(t) = rst_n ? in(t-1) : preset
//
func DFFR(preset bool) spisim.NewPartFn {
	if preset {
		return dffr[1].NewPart
	}
	return dffr[0].NewPart
}
