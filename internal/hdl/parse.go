// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl parses the i/o specifications and connection strings used to
// describe parts.
//
package hdl

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Pin is a pin name, optionally indexed (p[index]) or ranged (p[start..end]).
// For plain pins, Start and End are both -1. For indexed pins, Start == End.
//
type Pin struct {
	Name  string
	Pos   int
	Start int
	End   int
}

// IsBus returns true if the pin has an index or range.
//
func (p Pin) IsBus() bool { return p.Start >= 0 }

// Expand returns the individual pin names denoted by p.
//
//	Pin{Name: "a", Start: 1, End: 3}.Expand() // []string{"a[1]", "a[2]", "a[3]"}
//
func (p Pin) Expand() []string {
	if !p.IsBus() {
		return []string{p.Name}
	}
	step := 1
	if p.End < p.Start {
		step = -1
	}
	out := make([]string, 0, (p.End-p.Start)*step+1)
	for i := p.Start; ; i += step {
		out = append(out, BusPinName(p.Name, i))
		if i == p.End {
			break
		}
	}
	return out
}

func (p Pin) String() string {
	switch {
	case !p.IsBus():
		return p.Name
	case p.Start == p.End:
		return BusPinName(p.Name, p.Start)
	}
	return p.Name + "[" + strconv.Itoa(p.Start) + ".." + strconv.Itoa(p.End) + "]"
}

// BusPinName returns the name of pin i of the given bus.
//
func BusPinName(bus string, i int) string {
	return bus + "[" + strconv.Itoa(i) + "]"
}

// Assignment is a part pin to chip pin assignment: LHS=RHS.
//
type Assignment struct {
	LHS Pin
	RHS Pin
}

type parser struct {
	in string
	l  *Lexer
	i  Item
}

func newParser(in string) *parser {
	p := &parser{in: in, l: NewLexer(in)}
	p.i = p.l.Lex()
	return p
}

func (p *parser) advance() { p.i = p.l.Lex() }

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Errorf("in %q at pos %d: %s", p.in, p.i.Pos+1, fmt.Sprintf(format, args...))
}

// pin parses name, name[index] or name[start..end].
//
func (p *parser) pin() (Pin, error) {
	if p.i.Type != Ident {
		return Pin{}, p.errorf("expected pin name, got %v", p.i)
	}
	pin := Pin{Name: p.i.Text, Pos: p.i.Pos, Start: -1, End: -1}
	p.advance()
	if p.i.Type != BracketOpen {
		return pin, nil
	}
	p.advance()
	if p.i.Type != Int {
		return Pin{}, p.errorf("integer value expected after '['")
	}
	pin.Start, pin.End = p.i.Value, p.i.Value
	p.advance()
	if p.i.Type == Range {
		p.advance()
		if p.i.Type != Int {
			return Pin{}, p.errorf("integer value expected after '..'")
		}
		pin.End = p.i.Value
		p.advance()
	}
	if p.i.Type != BracketClose {
		return Pin{}, p.errorf("closing ']' expected after index or range")
	}
	p.advance()
	return pin, nil
}

// list parses a comma separated list, calling item for every element.
//
func (p *parser) list(item func() error) error {
	if p.i.Type == EOF {
		return nil
	}
	for {
		if err := item(); err != nil {
			return err
		}
		switch p.i.Type {
		case EOF:
			return nil
		case Comma:
			p.advance()
		default:
			return p.errorf("unexpected %v", p.i)
		}
	}
}

// ParseIOSpec parses a pin specification string and returns individual pin
// names, expanding bus declarations. For example:
//
//	ParseIOSpec("in[2], sel") // returns []string{"in[0]", "in[1]", "sel"}
//
// In a pin specification, p[n] declares a bus of n pins.
//
func ParseIOSpec(spec string) ([]string, error) {
	var out []string
	p := newParser(spec)
	err := p.list(func() error {
		pin, err := p.pin()
		if err != nil {
			return err
		}
		switch {
		case !pin.IsBus():
			out = append(out, pin.Name)
		case pin.Start != pin.End:
			return errors.Errorf("in %q at pos %d: bus size expected, got range", spec, pin.Pos+1)
		case pin.Start == 0:
			return errors.Errorf("in %q at pos %d: zero-sized bus %s", spec, pin.Pos+1, pin.Name)
		default:
			for i := 0; i < pin.Start; i++ {
				out = append(out, BusPinName(pin.Name, i))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseConnections parses a connection string like
//
//	"a=x, b[0..3]=bus[4..7], out=y"
//
// and returns the list of assignments in the order they appear.
//
func ParseConnections(conns string) ([]Assignment, error) {
	var out []Assignment
	p := newParser(conns)
	err := p.list(func() error {
		lhs, err := p.pin()
		if err != nil {
			return err
		}
		if p.i.Type != Equal {
			return p.errorf("'=' expected after part pin name")
		}
		p.advance()
		rhs, err := p.pin()
		if err != nil {
			return err
		}
		out = append(out, Assignment{lhs, rhs})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
