// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spisim

import (
	"github.com/db47h/spisim/internal/hdl"
	"github.com/pkg/errors"
)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pin numbers and return closures around
// these pin numbers.
//
// For example, a Not gate can be defined like this:
//
//	not := &PartSpec{
//		Name: "Not",
//		Inputs: IO("in"),
//		Outputs: IO("out"),
//		Mount: func (s *Socket) []Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []Component{
//				func (c *Circuit) { c.Set(out, !c.Get(in)) }
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint).
//
// Custom parts are implemented by creating a PartSpec, then using its NewPart
// method as a NewPartFn:
//
//	var notGate = notSpec.NewPart
//
// or:
//
//	func Not(c string) Part { return notSpec.NewPart(c) }
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Must be distinct pin names.
	// Use the IO() function to expand an input description like
	// "a, b, bus[2]" to []string{"a", "b", "bus[0]", "bus[1]"}
	Inputs []string
	// Output pin names. Must be distinct pin names.
	Outputs []string

	// Mount function (see MountFn).
	Mount MountFn
}

// A Connection connects a part pin PP to one or more container pins CP. Only
// outputs can be connected to more than one container pin.
//
type Connection struct {
	PP string
	CP []string
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// It panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(connections string) Part {
	conns, err := ParseConnections(connections)
	if err != nil {
		panic(err)
	}
	return Part{p, conns}
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a host
// chip.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part

// IO expands a pin specification like "a, b, bus[2]" into individual pin names
// like []string{"a", "b", "bus[0]", "bus[1]"}. It panics if the specification
// is invalid.
//
func IO(spec string) []string {
	pins, err := hdl.ParseIOSpec(spec)
	if err != nil {
		panic(err)
	}
	return pins
}

// ParseConnections parses a connection configuration like
// "partPinX=chipPinY, ...". Buses are connected either with an index
// ("a[0]=x") or with ranges of equal length ("a[0..3]=bus[4..7]"). A
// single pin can be connected to a whole range ("out=bus[0..7]", fan out) and
// a whole range of part pins can be connected to a single pin
// ("in[0..7]=false").
//
func ParseConnections(c string) ([]Connection, error) {
	as, err := hdl.ParseConnections(c)
	if err != nil {
		return nil, err
	}
	var conns []Connection
	for _, a := range as {
		lhs, rhs := a.LHS.Expand(), a.RHS.Expand()
		switch {
		case len(lhs) == len(rhs):
			for i := range lhs {
				conns = append(conns, Connection{lhs[i], []string{rhs[i]}})
			}
		case len(lhs) == 1:
			conns = append(conns, Connection{lhs[0], rhs})
		case len(rhs) == 1:
			for _, k := range lhs {
				conns = append(conns, Connection{k, rhs})
			}
		default:
			return nil, errors.Errorf("in %q: pin count mismatch in pin mapping %v=%v", c, a.LHS, a.RHS)
		}
	}
	return conns, nil
}
