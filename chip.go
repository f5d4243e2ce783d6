// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spisim

import (
	"github.com/db47h/spisim/internal/hdl"
	"github.com/pkg/errors"
)

const (
	typeUnknown = iota
	typeInput
	typeOutput
)

type chip struct {
	PartSpec         // PartSpec for this chip
	parts    []Part  // sub parts
	pinType  map[string]int
	// wires maps the pins of each part to the chip wires they connect to.
	wires []map[string][]string
}

func (c *chip) mount(s *Socket) []Component {
	// allocate outputs first: inputs may refer to wires driven by parts listed
	// after them.
	for pn, p := range c.parts {
		for _, k := range p.Outputs {
			vs := c.wires[pn][k]
			if len(vs) == 0 {
				continue
			}
			n := -1
			for _, v := range vs {
				if c.pinType[v] == typeOutput {
					n = s.Pin(v)
				}
			}
			if n < 0 {
				n = s.c.allocPin()
			}
			for _, v := range vs {
				s.m[v] = n
			}
		}
	}

	var cs []Component
	for pn, p := range c.parts {
		sub := newSocket(s.c)
		for _, k := range p.Inputs {
			if vs := c.wires[pn][k]; len(vs) > 0 {
				sub.m[k] = s.Pin(vs[0])
			} else {
				// unconnected inputs are grounded
				sub.m[k] = cstFalse
			}
		}
		for _, k := range p.Outputs {
			if vs := c.wires[pn][k]; len(vs) > 0 {
				sub.m[k] = s.Pin(vs[0])
			} else {
				sub.m[k] = s.c.allocPin()
			}
		}
		cs = append(cs, p.Mount(sub)...)
	}
	return cs
}

// Chip composes existing parts into a new part packaged into a chip.
// The pin names specified as inputs and outputs will be the inputs
// and outputs of the chip.
//
// An Xor gate could be created like this:
//
//	xor, err := Chip("XOR", "a, b", "out",
//		hwlib.Nand("a=a, b=b, out=nandAB"),
//		hwlib.Nand("a=a, b=nandAB, out=w0"),
//		hwlib.Nand("a=b, b=nandAB, out=w1"),
//		hwlib.Nand("a=w0, b=w1, out=out"),
//	)
//
// The returned value is a function of type NewPartFn that can be used to
// compose the new part with others into other chips:
//
//	xnor, err := Chip("XNOR", "a, b", "out",
//		xor("a=a, b=b, out=xorAB"),
//		hwlib.Not("in=xorAB, out=out"),
//	)
//
// Unconnected part inputs are connected to False. Chip checks that every wire
// read by a part is driven by exactly one output, a chip input or a constant,
// and that every internal wire driven by a part is read by at least one other
// part.
//
func Chip(name string, inputs string, outputs string, parts ...Part) (NewPartFn, error) {
	ins, err := hdl.ParseIOSpec(inputs)
	if err != nil {
		return nil, errors.Wrap(err, name+": invalid input specification")
	}
	outs, err := hdl.ParseIOSpec(outputs)
	if err != nil {
		return nil, errors.Wrap(err, name+": invalid output specification")
	}

	pinType := make(map[string]int, len(ins)+len(outs))
	for _, l := range []struct {
		pins []string
		typ  int
	}{{ins, typeInput}, {outs, typeOutput}} {
		for _, n := range l.pins {
			if isConstant(n) {
				return nil, errors.New(name + ": reserved pin name " + n)
			}
			if pinType[n] != typeUnknown {
				return nil, errors.New(name + ": duplicate pin name " + n)
			}
			pinType[n] = l.typ
		}
	}

	driven := make(map[string]bool)
	wires := make([]map[string][]string, len(parts))
	for pn, p := range parts {
		w := make(map[string][]string)
		for _, cn := range p.Conns {
			if !hasPin(p.Inputs, cn.PP) && !hasPin(p.Outputs, cn.PP) {
				return nil, errors.New("invalid pin name " + cn.PP + " for part " + p.Name)
			}
			w[cn.PP] = append(w[cn.PP], cn.CP...)
		}
		for _, k := range p.Inputs {
			if len(w[k]) > 1 {
				return nil, errors.New(p.Name + " input pin " + k + " connected to more than one output")
			}
		}
		for _, k := range p.Outputs {
			chipOuts := 0
			for _, v := range w[k] {
				prefix := p.Name + "." + k + ":" + v + ": "
				switch {
				case v == True || v == False:
					return nil, errors.New(prefix + "output pin connected to constant " + v + " input")
				case v == Clk:
					return nil, errors.New(prefix + "output pin connected to clock signal")
				case pinType[v] == typeInput:
					return nil, errors.New(prefix + "chip input pin used as output")
				case driven[v]:
					return nil, errors.New(prefix + "output pin already used as output")
				case pinType[v] == typeOutput:
					chipOuts++
				}
				driven[v] = true
			}
			if chipOuts > 1 {
				return nil, errors.New(p.Name + "." + k + ": output pin connected to more than one chip output")
			}
		}
		wires[pn] = w
	}

	used := make(map[string]bool)
	for pn, p := range parts {
		for _, k := range p.Inputs {
			vs := wires[pn][k]
			if len(vs) == 0 {
				continue
			}
			v := vs[0]
			if !isConstant(v) && pinType[v] != typeInput && !driven[v] {
				return nil, errors.New("pin " + v + " not connected to any output")
			}
			used[v] = true
		}
	}
	for pn, p := range parts {
		for _, k := range p.Outputs {
			for _, v := range wires[pn][k] {
				if pinType[v] != typeOutput && !used[v] {
					return nil, errors.New("pin " + v + " not connected to any input")
				}
			}
		}
	}

	c := &chip{
		PartSpec: PartSpec{
			Name:    name,
			Inputs:  ins,
			Outputs: outs,
		},
		parts:   parts,
		pinType: pinType,
		wires:   wires,
	}
	c.PartSpec.Mount = c.mount
	return c.PartSpec.NewPart, nil
}

func hasPin(pins []string, name string) bool {
	for _, p := range pins {
		if p == name {
			return true
		}
	}
	return false
}
